// Package config holds the connection parameters for one SAP GUI automation
// run. Values come from a TOML file overlaid on defaults, with the password
// optionally supplied through the environment so it never has to live on
// disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultLanguage     = "EN"
	defaultPollAttempts = 30
	defaultPollInterval = time.Second
	defaultLogDirectory = "Logs"

	// PasswordEnvVar overrides the password from the config file when set.
	PasswordEnvVar = "SAPAUTO_PASSWORD"
)

// Config stores the parameters for one automation session. It is provided
// entirely by the caller and not mutated after construction.
type Config struct {
	// ExePath is the full path to saplogon.exe.
	ExePath string
	// System is the connection description as it appears in SAP Logon.
	System string
	// Client is the SAP client (mandant), e.g. "300".
	Client string
	// User is the SAP user name.
	User string
	// Password is the SAP password. It must never be logged.
	Password string
	// Language is the logon language, e.g. "EN" or "PT".
	Language string

	// PollAttempts bounds the wait for the scripting engine after launch.
	PollAttempts int
	// PollInterval is the fixed delay between poll attempts.
	PollInterval time.Duration
	// LogDirectory is where run log files are written.
	LogDirectory string
}

type fileConfig struct {
	ExePath      *string `toml:"exe_path"`
	System       *string `toml:"system"`
	Client       *string `toml:"client"`
	User         *string `toml:"user"`
	Password     *string `toml:"password"`
	Language     *string `toml:"language"`
	PollAttempts *int    `toml:"poll_attempts"`
	PollInterval *string `toml:"poll_interval"`
	LogDirectory *string `toml:"log_directory"`
}

// Defaults returns a Config with tuning defaults and no connection values.
func Defaults() Config {
	return Config{
		Language:     defaultLanguage,
		PollAttempts: defaultPollAttempts,
		PollInterval: defaultPollInterval,
		LogDirectory: defaultLogDirectory,
	}
}

// Load reads the TOML file at path over Defaults and applies the environment
// password override.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config file %q: %w", path, err)
	}

	var decoded fileConfig
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		return nil, fmt.Errorf("decode config file %q: %w", path, err)
	}
	if err := overlay(&cfg, decoded, path); err != nil {
		return nil, err
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		cfg.Password = envPassword
	}

	return &cfg, nil
}

func overlay(cfg *Config, decoded fileConfig, path string) error {
	if decoded.ExePath != nil {
		cfg.ExePath = strings.TrimSpace(*decoded.ExePath)
	}
	if decoded.System != nil {
		cfg.System = strings.TrimSpace(*decoded.System)
	}
	if decoded.Client != nil {
		cfg.Client = strings.TrimSpace(*decoded.Client)
	}
	if decoded.User != nil {
		cfg.User = strings.TrimSpace(*decoded.User)
	}
	if decoded.Password != nil {
		cfg.Password = *decoded.Password
	}
	if decoded.Language != nil {
		cfg.Language = strings.TrimSpace(*decoded.Language)
	}
	if decoded.PollAttempts != nil {
		if *decoded.PollAttempts <= 0 {
			return fmt.Errorf("parse poll_attempts in %q: must be > 0", path)
		}
		cfg.PollAttempts = *decoded.PollAttempts
	}
	if decoded.PollInterval != nil {
		parsed, err := time.ParseDuration(*decoded.PollInterval)
		if err != nil {
			return fmt.Errorf("parse poll_interval in %q: %w", path, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("parse poll_interval in %q: must be > 0", path)
		}
		cfg.PollInterval = parsed
	}
	if decoded.LogDirectory != nil {
		cfg.LogDirectory = strings.TrimSpace(*decoded.LogDirectory)
	}
	return nil
}

// Validate checks that every field required for a connection is present.
func (c Config) Validate() error {
	missing := make([]string, 0, 5)
	for _, field := range []struct {
		name  string
		value string
	}{
		{"exe_path", c.ExePath},
		{"system", c.System},
		{"client", c.Client},
		{"user", c.User},
		{"password", c.Password},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if c.PollAttempts <= 0 {
		return errors.New("poll_attempts must be > 0")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be > 0")
	}
	return nil
}

// Redacted renders the config for logs with the password masked.
func (c Config) Redacted() string {
	password := "(unset)"
	if c.Password != "" {
		password = "*****"
	}
	return fmt.Sprintf(
		"system=%s client=%s user=%s language=%s exe_path=%s password=%s",
		c.System, c.Client, c.User, c.Language, c.ExePath, password,
	)
}
