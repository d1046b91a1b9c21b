package config

import "time"

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "normalize.yaml"

// Config is the complete normalize configuration.
type Config struct {
	BuildDir   string           `yaml:"build_dir"`
	Denylist   []string         `yaml:"denylist,omitempty"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Shell      string           `yaml:"shell"`
	Bringup    BringupConfig    `yaml:"bringup"`
	Examples   ExamplesConfig   `yaml:"examples"`
	Report     ReportConfig     `yaml:"report"`
	Audit      AuditConfig      `yaml:"audit"`
	Review     ReviewConfig     `yaml:"review"`
	State      StateConfig      `yaml:"state"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Events     EventsConfig     `yaml:"events"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// ExtensionsConfig maps file extensions (with leading dot) to module kinds.
type ExtensionsConfig struct {
	Documentation []string `yaml:"documentation"`
	Interpreted   []string `yaml:"interpreted"`
	Compiled      []string `yaml:"compiled"`
}

// BringupConfig controls setup step execution.
type BringupConfig struct {
	Installer string       `yaml:"installer"`
	Validity  ValidityMode `yaml:"validity"`
	Jobs      int          `yaml:"jobs"`
}

// ExamplesConfig controls usage example extraction and execution.
type ExamplesConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	FenceLanguages []string      `yaml:"fence_languages"`
}

// ReportConfig controls the per-project report written by the doc target.
type ReportConfig struct {
	File string `yaml:"file"`
	HTML bool   `yaml:"html"`
}

// AuditConfig controls release diff assembly.
type AuditConfig struct {
	Baseline     string `yaml:"baseline,omitempty"` // empty selects the latest tag
	ContextLines int    `yaml:"context_lines"`
	MaxBytes     int    `yaml:"max_bytes"`
}

// ReviewConfig selects and parameterizes the review service.
type ReviewConfig struct {
	Provider     ReviewProvider   `yaml:"provider"`
	Model        string           `yaml:"model"`
	Temperature  float32          `yaml:"temperature"`
	APIKeyEnv    string           `yaml:"api_key_env"`
	BaseURL      string           `yaml:"base_url,omitempty"`
	Timeout      time.Duration    `yaml:"timeout"`
	MaxRetries   int              `yaml:"max_retries"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitial time.Duration    `yaml:"retry_initial_delay"`
	RetryMax     time.Duration    `yaml:"retry_max_delay"`
	Instructions string           `yaml:"instructions"`
}

// StateConfig locates the run history database.
type StateConfig struct {
	Database string `yaml:"database"` // empty disables history
}

// MetricsConfig controls Prometheus exposure.
type MetricsConfig struct {
	Listen   string `yaml:"listen,omitempty"`   // daemon /metrics address
	Textfile string `yaml:"textfile,omitempty"` // one-shot export path
}

// EventsConfig controls optional NATS publication of run outcomes.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// DaemonConfig controls the watch and daemon modes.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
}
