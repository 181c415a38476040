// Package config loads the budgetmail YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full tool configuration. Paths default relative to the
// working directory so a fresh checkout works without a config file.
type Config struct {
	Mailbox MailboxConfig `yaml:"mailbox"`
	Paths   PathsConfig   `yaml:"paths"`
}

// MailboxConfig locates the message source. Dir points at a local archive
// of .eml files; live IMAP fetching is handled outside this tool and
// synced into that directory.
type MailboxConfig struct {
	Dir string `yaml:"dir"`
}

// PathsConfig locates the pipeline's persistent artifacts.
type PathsConfig struct {
	Bronze   string `yaml:"bronze"`    // raw transaction records
	Tracker  string `yaml:"tracker"`   // processed message-id set
	Labels   string `yaml:"labels"`    // labeled merchant mapping
	Models   string `yaml:"models"`    // trained artifact bundle
	SilverDB string `yaml:"silver_db"` // relational sink staging database
	Report   string `yaml:"report"`    // transform quality report
	Silver   string `yaml:"silver"`    // categorized transaction output
}

// Default returns the conventional data layout.
func Default() *Config {
	return &Config{
		Mailbox: MailboxConfig{Dir: "data/mail"},
		Paths: PathsConfig{
			Bronze:   "data/bronze",
			Tracker:  "data/processed_emails.txt",
			Labels:   "data/labeled_transactions.json",
			Models:   "models",
			SilverDB: "data/silver/transactions.db",
			Report:   "data/silver/quality_report.json",
			Silver:   "data/silver/transactions.json",
		},
	}
}

// Load reads the config file, filling unset fields from Default. A missing
// file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s (check YAML syntax and field names): %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mailbox.Dir == "" {
		return fmt.Errorf("mailbox.dir cannot be empty")
	}
	if c.Paths.Bronze == "" || c.Paths.Tracker == "" {
		return fmt.Errorf("paths.bronze and paths.tracker cannot be empty")
	}
	if c.Paths.Labels == "" || c.Paths.Models == "" {
		return fmt.Errorf("paths.labels and paths.models cannot be empty")
	}
	if c.Paths.SilverDB == "" || c.Paths.Silver == "" || c.Paths.Report == "" {
		return fmt.Errorf("paths.silver_db, paths.silver, and paths.report cannot be empty")
	}
	return nil
}
