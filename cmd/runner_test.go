package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/repositories"
	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/desertthunder/drivemig/internal/tasks"
	drivetest "github.com/desertthunder/drivemig/internal/testing"
	"github.com/urfave/cli/v3"
)

func testConfig() *shared.Config {
	return &shared.Config{
		Accounts: shared.AccountsConfig{
			Source: shared.AccountConfig{AccountID: "alice@example.com", RootID: "src-root"},
			Target: shared.AccountConfig{AccountID: "backup@example.com", RootID: "tgt-root"},
		},
		Actions: shared.ActionsConfig{CopyFiles: true, CopyFolders: true},
		Executor: shared.ExecutorConfig{
			Workers:            2,
			RateLimit:          1000,
			MaxAttempts:        3,
			CallTimeoutSeconds: 5,
		},
	}
}

func testStore(t *testing.T) *repositories.Store {
	t.Helper()

	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewStore(db)
}

func ownedBy(principal models.Principal) []models.Permission {
	return []models.Permission{{Principal: principal, Role: models.RoleOwner}}
}

func seededRunner(t *testing.T, output *bytes.Buffer) (*Runner, *drivetest.InMemoryDrive, *drivetest.InMemoryDrive) {
	t.Helper()

	source := drivetest.NewInMemoryDrive("alice@example.com")
	target := drivetest.NewInMemoryDrive("backup@example.com")
	source.AddEntry(models.Entry{ID: "d1", Name: "docs", ParentID: "src-root", Kind: models.KindFolder, Permissions: ownedBy("alice@example.com")})
	source.AddEntry(models.Entry{ID: "f1", Name: "a.txt", ParentID: "d1", Kind: models.KindFile, Permissions: ownedBy("alice@example.com")})

	runner := NewRunner(RunnerOpts{
		Config: testConfig(),
		Source: source,
		Target: target,
		Store:  testStore(t),
		Logger: shared.NewLogger(nil),
		Output: output,
	})

	return runner, source, target
}

func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "drivemig",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"drivemig"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := testConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &drivetest.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := drivetest.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &drivetest.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file returns ErrMissingConfig", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "absent.toml")})

			err := runner.loadConfig(&cli.Command{})
			if err == nil {
				t.Fatal("expected error for missing config")
			}
			if !strings.Contains(err.Error(), "configuration not found") {
				t.Errorf("expected missing config error, got %v", err)
			}
		})

		t.Run("injected config skips file loading", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: testConfig()})

			if err := runner.loadConfig(&cli.Command{}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("invalid accounts fail validation", func(t *testing.T) {
			config := testConfig()
			config.Accounts.Target.AccountID = config.Accounts.Source.AccountID
			runner := NewRunner(RunnerOpts{Config: config})

			err := runner.loadConfig(&cli.Command{})
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	})
}

func TestPlanCommand(t *testing.T) {
	output := &bytes.Buffer{}
	runner, source, target := seededRunner(t, output)

	if err := runApp(t, runner, "plan"); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	printed := output.String()
	if !strings.Contains(printed, "Migration Plan") {
		t.Errorf("expected plan header, got:\n%s", printed)
	}
	if !strings.Contains(printed, "'docs'") || !strings.Contains(printed, "'a.txt'") {
		t.Errorf("expected planned entries in output, got:\n%s", printed)
	}
	if !strings.Contains(printed, "2 tasks planned") {
		t.Errorf("expected task count, got:\n%s", printed)
	}

	if source.Mutations() != 0 || target.Mutations() != 0 {
		t.Error("plan must not mutate remote state")
	}
}

func TestPlanCommandWritesReport(t *testing.T) {
	output := &bytes.Buffer{}
	runner, _, _ := seededRunner(t, output)
	reportPath := filepath.Join(t.TempDir(), "plan.csv")

	if err := runApp(t, runner, "plan", "--report", reportPath); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	report := drivetest.MustReadFile(t, reportPath)
	if !strings.Contains(report, "d1,docs,folder,copy") {
		t.Errorf("unexpected report contents:\n%s", report)
	}
}

func TestApplyCommand(t *testing.T) {
	output := &bytes.Buffer{}
	runner, _, target := seededRunner(t, output)

	if err := runApp(t, runner, "apply"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if target.Folders != 1 || target.Copies != 1 {
		t.Errorf("expected 1 folder and 1 copy on target, got %d and %d", target.Folders, target.Copies)
	}

	printed := output.String()
	if !strings.Contains(printed, "Migration Run") {
		t.Errorf("expected run summary, got:\n%s", printed)
	}
	if !strings.Contains(printed, "2 done, 0 failed of 2") {
		t.Errorf("expected task counts, got:\n%s", printed)
	}

	// The ledger now holds the completed run.
	runs, err := runner.store.Runs.List(nil)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != models.StatusCompleted {
		t.Errorf("expected one completed run, got %+v", runs)
	}
}

func TestApplyCommandFailureExitsNonZero(t *testing.T) {
	output := &bytes.Buffer{}
	runner, _, target := seededRunner(t, output)
	target.FailWith = map[string]error{"copy:f1": shared.ErrRemoteQuotaExceeded}

	err := runApp(t, runner, "apply")
	if err == nil {
		t.Fatal("expected error when a task fails")
	}
	if !strings.Contains(err.Error(), "failed tasks") {
		t.Errorf("expected failed tasks error, got %v", err)
	}
}

// uiFinalModel stands in for the model bubbletea hands back when the
// interactive apply exits.
type uiFinalModel struct {
	err    error
	result *tasks.ApplyResult
}

func (m uiFinalModel) Err() error                          { return m.err }
func (m uiFinalModel) Result() *tasks.ApplyResult          { return m.result }
func (m uiFinalModel) Init() tea.Cmd                       { return nil }
func (m uiFinalModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return m, nil }
func (m uiFinalModel) View() string                        { return "" }

func TestApplyUIExitStatus(t *testing.T) {
	t.Run("failed run exits non-zero", func(t *testing.T) {
		final := uiFinalModel{result: &tasks.ApplyResult{
			Run: &models.Run{RunID: "run-1", Status: models.StatusFailed, TasksFailed: 2},
		}}
		err := uiExitError(final)
		if err == nil || !strings.Contains(err.Error(), "failed tasks") {
			t.Errorf("expected failed tasks error, got %v", err)
		}
	})

	t.Run("plan failure propagates", func(t *testing.T) {
		final := uiFinalModel{err: shared.ErrRemotePermissionDenied}
		if err := uiExitError(final); !errors.Is(err, shared.ErrRemotePermissionDenied) {
			t.Errorf("expected the surfaced error, got %v", err)
		}
	})

	t.Run("completed run exits clean", func(t *testing.T) {
		final := uiFinalModel{result: &tasks.ApplyResult{
			Run: &models.Run{RunID: "run-2", Status: models.StatusCompleted},
		}}
		if err := uiExitError(final); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("quit before apply exits clean", func(t *testing.T) {
		if err := uiExitError(uiFinalModel{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestRootContextCancelsOnInterrupt(t *testing.T) {
	ctx, stop := rootContext()
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected the context to cancel on SIGINT")
	}
}

func TestRunsCommands(t *testing.T) {
	output := &bytes.Buffer{}
	runner, _, _ := seededRunner(t, output)

	if err := runApp(t, runner, "apply"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	runs, err := runner.store.Runs.List(nil)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %v (%v)", runs, err)
	}

	output.Reset()
	if err := runApp(t, runner, "runs", "list"); err != nil {
		t.Fatalf("runs list failed: %v", err)
	}
	if !strings.Contains(output.String(), runs[0].RunID) {
		t.Errorf("expected run id in output, got:\n%s", output.String())
	}

	output.Reset()
	if err := runApp(t, runner, "runs", "tasks", "--run", runs[0].RunID); err != nil {
		t.Fatalf("runs tasks failed: %v", err)
	}
	if !strings.Contains(output.String(), "'docs'") || !strings.Contains(output.String(), "'a.txt'") {
		t.Errorf("expected task records in output, got:\n%s", output.String())
	}
}

func TestShowCommand(t *testing.T) {
	output := &bytes.Buffer{}
	runner, _, _ := seededRunner(t, output)

	if err := runApp(t, runner, "show"); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	printed := output.String()
	if !strings.Contains(printed, "Source Hierarchy") {
		t.Errorf("expected hierarchy header, got:\n%s", printed)
	}
	if !strings.Contains(printed, "docs") || !strings.Contains(printed, "a.txt") {
		t.Errorf("expected entries in output, got:\n%s", printed)
	}
	if !strings.Contains(printed, "2 entries") {
		t.Errorf("expected entry count, got:\n%s", printed)
	}
}

func TestSetupCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(nil), Output: output})

	// First run scaffolds the config file. The embedded template points the
	// database at a relative path, so run from the temp dir.
	wd := drivetest.MustGetwd(t)
	drivetest.MustChdir(t, tmpDir)
	defer drivetest.MustChdir(t, wd)

	if err := runApp(t, runner, "setup", "--config", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	drivetest.AssertFileExists(t, configPath)
	if !strings.Contains(output.String(), "Ledger database ready") {
		t.Errorf("expected setup confirmation, got:\n%s", output.String())
	}
}
