package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Executor.Workers != 5 {
		t.Errorf("Expected default workers 5, got %d", config.Executor.Workers)
	}
	if config.Executor.MaxAttempts != 3 {
		t.Errorf("Expected default max_attempts 3, got %d", config.Executor.MaxAttempts)
	}
	if config.Actions.DeleteOriginals {
		t.Error("Expected delete_originals to default to false")
	}
	if config.Database.Path == "" {
		t.Error("Expected a default database path")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[accounts.source]
account_id = "alice@example.com"
root_id = "root-src"

[accounts.target]
account_id = "alice@company.example"
root_id = "root-tgt"

[actions]
copy_files = true
copy_folders = true
delete_originals = true

[database]
path = "ledger.db"

[executor]
workers = 3
rate_limit = 2.5
max_attempts = 4
call_timeout_seconds = 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Accounts.Source.AccountID != "alice@example.com" {
		t.Errorf("Unexpected source account: %s", config.Accounts.Source.AccountID)
	}
	if config.Accounts.Target.RootID != "root-tgt" {
		t.Errorf("Unexpected target root: %s", config.Accounts.Target.RootID)
	}
	if !config.Actions.DeleteOriginals {
		t.Error("Expected delete_originals true")
	}
	if config.Executor.RateLimit != 2.5 {
		t.Errorf("Unexpected rate limit: %f", config.Executor.RateLimit)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("accounts = [broken"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}

	// A second create must refuse to overwrite.
	if err := CreateConfigFile(path); err == nil {
		t.Error("Expected error when config file already exists")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "valid",
			mutate: func(c *Config) {
				c.Accounts.Source = AccountConfig{AccountID: "a@example.com", RootID: "r1"}
				c.Accounts.Target = AccountConfig{AccountID: "b@example.com", RootID: "r2"}
			},
			wantErr: false,
		},
		{
			name: "missing source account",
			mutate: func(c *Config) {
				c.Accounts.Target = AccountConfig{AccountID: "b@example.com", RootID: "r2"}
			},
			wantErr: true,
		},
		{
			name: "missing root",
			mutate: func(c *Config) {
				c.Accounts.Source = AccountConfig{AccountID: "a@example.com"}
				c.Accounts.Target = AccountConfig{AccountID: "b@example.com", RootID: "r2"}
			},
			wantErr: true,
		},
		{
			name: "same account both sides",
			mutate: func(c *Config) {
				c.Accounts.Source = AccountConfig{AccountID: "a@example.com", RootID: "r1"}
				c.Accounts.Target = AccountConfig{AccountID: "a@example.com", RootID: "r2"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}
