package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/drivemig/internal/drive"
	"github.com/desertthunder/drivemig/internal/repositories"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/desertthunder/drivemig/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     drive.Service
	target     drive.Service
	store      *repositories.Store
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     drive.Service
	Target     drive.Service
	Store      *repositories.Store
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		target:     opts.Target,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, planCommand, applyCommand, showCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command, preferring an already
// injected config over the --config flag path.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if r.config == nil {
		configPath := cmd.String("config")
		if configPath == "" {
			configPath = r.configPath
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("%w: %v (run 'drivemig setup' first)", shared.ErrMissingConfig, err)
		}
		r.config = config
		r.configPath = configPath
	}

	return r.config.Validate()
}

// openStore opens the ledger database unless one was injected.
func (r *Runner) openStore() error {
	if r.store != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to migrate ledger database: %w", err)
	}

	r.store = repositories.NewStore(db)
	return nil
}

// newService builds a drive client for one account. Each account gets its
// own token file so both sides of the migration stay authenticated.
func (r *Runner) newService(account shared.AccountConfig) (*drive.Client, error) {
	remote := r.config.Remote
	if remote.TokenFile != "" {
		remote.TokenFile = fmt.Sprintf("%s.%s", remote.TokenFile, account.AccountID)
	}
	return drive.NewClient(remote, account.AccountID)
}

// ensureServices constructs and authenticates both drive clients from
// persisted tokens, unless services were injected.
func (r *Runner) ensureServices(ctx context.Context) error {
	if r.source == nil {
		client, err := r.newService(r.config.Accounts.Source)
		if err != nil {
			return fmt.Errorf("failed to create source client: %w", err)
		}
		if err := client.Authenticate(ctx, nil); err != nil {
			return fmt.Errorf("source account not authenticated: %w (run 'drivemig auth source')", err)
		}
		r.source = client
	}

	if r.target == nil {
		client, err := r.newService(r.config.Accounts.Target)
		if err != nil {
			return fmt.Errorf("failed to create target client: %w", err)
		}
		if err := client.Authenticate(ctx, nil); err != nil {
			return fmt.Errorf("target account not authenticated: %w (run 'drivemig auth target')", err)
		}
		r.target = client
	}

	return nil
}

// engine assembles the migration engine from the runner's dependencies.
// loadConfig, openStore, and ensureServices must have succeeded first.
func (r *Runner) engine() *tasks.Engine {
	return tasks.NewEngine(r.source, r.target, r.store, r.config, r.logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
