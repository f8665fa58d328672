// Package config loads payagg settings from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Directory scanned for bpy331_*.dat batch files.
	DataDir string `yaml:"data_dir"`

	// Directory the original file is copied to before rewriting.
	ArchiveDir string `yaml:"archive_dir"`

	// Directory for the rewritten file. Empty means rewrite in place.
	OutputDir string `yaml:"output_dir"`

	// Append-only ledger of already-processed file paths.
	LedgerPath string `yaml:"ledger_path"`

	// SQLite database holding payee account references.
	StorePath string `yaml:"store_path"`

	// Files modified more recently than this are left for a later run.
	SettleWindow string `yaml:"settle_window"`

	// Run log destination in addition to stderr. Empty disables the file.
	LogPath string `yaml:"log_path"`

	SMTP SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host string `yaml:"host"` // empty disables notifications
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func Default() Config {
	return Config{
		DataDir:      "data",
		ArchiveDir:   "archive",
		LedgerPath:   "logs/processed.log",
		StorePath:    "payagg.db",
		SettleWindow: "5m",
		LogPath:      "logs/payagg.log",
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies PAYAGG_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"PAYAGG_DATA_DIR":      &c.DataDir,
		"PAYAGG_ARCHIVE_DIR":   &c.ArchiveDir,
		"PAYAGG_OUTPUT_DIR":    &c.OutputDir,
		"PAYAGG_LEDGER_PATH":   &c.LedgerPath,
		"PAYAGG_STORE_PATH":    &c.StorePath,
		"PAYAGG_SETTLE_WINDOW": &c.SettleWindow,
		"PAYAGG_LOG_PATH":      &c.LogPath,
		"PAYAGG_SMTP_HOST":     &c.SMTP.Host,
		"PAYAGG_SMTP_FROM":     &c.SMTP.From,
		"PAYAGG_SMTP_TO":       &c.SMTP.To,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return ValidationError{Field: "data_dir", Reason: "must not be empty"}
	}
	if c.ArchiveDir == "" {
		return ValidationError{Field: "archive_dir", Reason: "must not be empty"}
	}
	if c.LedgerPath == "" {
		return ValidationError{Field: "ledger_path", Reason: "must not be empty"}
	}
	if c.StorePath == "" {
		return ValidationError{Field: "store_path", Reason: "must not be empty"}
	}
	if _, err := time.ParseDuration(c.SettleWindow); err != nil {
		return ValidationError{Field: "settle_window", Reason: fmt.Sprintf("invalid duration %q", c.SettleWindow)}
	}
	if c.SMTP.Host != "" && (c.SMTP.From == "" || c.SMTP.To == "") {
		return ValidationError{Field: "smtp", Reason: "from and to are required when host is set"}
	}
	return nil
}

// Settle returns the parsed settle window. Validate has already checked
// the value, so a zero duration only occurs for a zero config.
func (c Config) Settle() time.Duration {
	d, err := time.ParseDuration(c.SettleWindow)
	if err != nil {
		return 0
	}
	return d
}
