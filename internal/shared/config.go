package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Accounts AccountsConfig `toml:"accounts"`
	Actions  ActionsConfig  `toml:"actions"`
	Remote   RemoteConfig   `toml:"remote"`
	Database DatabaseConfig `toml:"database"`
	Executor ExecutorConfig `toml:"executor"`
}

// AccountsConfig identifies the two accounts taking part in a migration.
type AccountsConfig struct {
	Source AccountConfig `toml:"source"`
	Target AccountConfig `toml:"target"`
}

// AccountConfig identifies one account and the root folder the run operates on.
//
// Roots are mapped explicitly: the source root folder corresponds to the
// target root folder, never matched by name.
type AccountConfig struct {
	AccountID string `toml:"account_id"`
	RootID    string `toml:"root_id"`
}

// ActionsConfig gates the mutations a run is allowed to perform.
// Irreversible operations default to off.
type ActionsConfig struct {
	CopyFiles             bool `toml:"copy_files"`
	CopyFolders           bool `toml:"copy_folders"`
	KeepSharedPermissions bool `toml:"keep_shared_permissions"`
	DeleteOriginals       bool `toml:"delete_originals"`
}

// RemoteConfig contains the storage service API settings and OAuth credentials.
type RemoteConfig struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenFile    string `toml:"token_file"`
}

// DatabaseConfig contains ledger database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ExecutorConfig tunes task execution against the remote API.
type ExecutorConfig struct {
	Workers            int     `toml:"workers"`
	RateLimit          float64 `toml:"rate_limit"`
	MaxAttempts        int     `toml:"max_attempts"`
	CallTimeoutSeconds int     `toml:"call_timeout_seconds"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the parts of the configuration every command depends on.
func (c *Config) Validate() error {
	if c.Accounts.Source.AccountID == "" || c.Accounts.Target.AccountID == "" {
		return fmt.Errorf("%w: both accounts.source and accounts.target need account_id", ErrInvalidConfig)
	}
	if c.Accounts.Source.RootID == "" || c.Accounts.Target.RootID == "" {
		return fmt.Errorf("%w: both accounts.source and accounts.target need root_id", ErrInvalidConfig)
	}
	if c.Accounts.Source.AccountID == c.Accounts.Target.AccountID {
		return fmt.Errorf("%w: source and target accounts must differ", ErrInvalidConfig)
	}
	return nil
}
