// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand scaffolds config.toml and initializes the ledger database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the ledger database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles OAuth authorization for one account.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize a drive account via OAuth2",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "account"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// planCommand builds and prints a migration plan without mutating anything.
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Build the migration plan (no remote mutation)",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "with-deletes",
				Usage: "Include delete-original tasks in the plan preview",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the plan as JSON",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Write the plan as CSV to this path",
			},
		},
		Action: r.Plan,
	}
}

// applyCommand runs the full migration pipeline.
func applyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Execute the migration plan",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "confirm-delete",
				Usage: "Allow planned delete-original tasks to run",
			},
			&cli.BoolFlag{
				Name:  "ui",
				Usage: "Show an interactive progress view",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Base path for outcome CSV and run summary JSON",
			},
		},
		Action: r.Apply,
	}
}

// showCommand prints the source hierarchy with ownership and correspondence annotations.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "show",
		Usage:  "Print the source hierarchy with migration annotations (read-only)",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Show,
	}
}

// runsCommand inspects the persisted ledger.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect past migration runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by run status (running, completed, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "tasks",
				Usage: "List task records for a run",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "run",
						Usage:    "Run ID to inspect",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsTasks,
			},
		},
	}
}
