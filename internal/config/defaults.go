package config

import "time"

// Default values applied when the configuration omits a field.
const (
	DefaultBuildDir       = "build"
	DefaultShell          = "/bin/sh"
	DefaultInstaller      = "python3 -m pip install --no-warn-script-location"
	DefaultExampleTimeout = 3 * time.Second
	DefaultReportFile     = "README.html"
	DefaultContextLines   = 100000
	DefaultMaxBytes       = 60000
	DefaultReviewModel    = "gpt-4o-mini"
	DefaultReviewTimeout  = 2 * time.Minute
	DefaultEventSubject   = "normalize.runs"
	DefaultInterval       = time.Hour
	DefaultDebounce       = 2 * time.Second
	DefaultInstructions   = "Review the following release notes, commit log and documentation diff. " +
		"Point out behavior changes that are not explained by the commit log."
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ProjectDefaultApplier handles tree layout defaults.
type ProjectDefaultApplier struct{}

func (p *ProjectDefaultApplier) Domain() string { return "project" }

func (p *ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if len(cfg.Denylist) == 0 {
		cfg.Denylist = []string{"venv", "node_modules"}
	}
	if len(cfg.Extensions.Documentation) == 0 {
		cfg.Extensions.Documentation = []string{".md", ".markdown"}
	}
	if len(cfg.Extensions.Interpreted) == 0 {
		cfg.Extensions.Interpreted = []string{".py", ".sh", ".bash", ".js", ".rb", ".pl"}
	}
	if len(cfg.Extensions.Compiled) == 0 {
		cfg.Extensions.Compiled = []string{".c", ".cc", ".cpp", ".h", ".hpp", ".s", ".go", ".rs"}
	}
	return nil
}

// BringupDefaultApplier handles setup step defaults.
type BringupDefaultApplier struct{}

func (b *BringupDefaultApplier) Domain() string { return "bringup" }

func (b *BringupDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Bringup.Installer == "" {
		cfg.Bringup.Installer = DefaultInstaller
	}
	if m := NormalizeValidityMode(string(cfg.Bringup.Validity)); m != "" {
		cfg.Bringup.Validity = m
	} else if cfg.Bringup.Validity == "" {
		cfg.Bringup.Validity = ValidityMtime
	}
	if cfg.Bringup.Jobs <= 0 {
		cfg.Bringup.Jobs = 1
	}
	return nil
}

// ExamplesDefaultApplier handles example harness defaults.
type ExamplesDefaultApplier struct{}

func (e *ExamplesDefaultApplier) Domain() string { return "examples" }

func (e *ExamplesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Examples.Timeout <= 0 {
		cfg.Examples.Timeout = DefaultExampleTimeout
	}
	if len(cfg.Examples.FenceLanguages) == 0 {
		cfg.Examples.FenceLanguages = []string{"sh", "shell", "bash", "console", "shell-session"}
	}
	if cfg.Report.File == "" {
		cfg.Report.File = DefaultReportFile
	}
	return nil
}

// AuditDefaultApplier handles audit and review defaults.
type AuditDefaultApplier struct{}

func (a *AuditDefaultApplier) Domain() string { return "audit" }

func (a *AuditDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Audit.ContextLines <= 0 {
		cfg.Audit.ContextLines = DefaultContextLines
	}
	if cfg.Audit.MaxBytes <= 0 {
		cfg.Audit.MaxBytes = DefaultMaxBytes
	}

	r := &cfg.Review
	if p := NormalizeReviewProvider(string(r.Provider)); p != "" {
		r.Provider = p
	} else if r.Provider == "" {
		r.Provider = ProviderOpenAI
	}
	if r.Model == "" {
		r.Model = DefaultReviewModel
	}
	if r.APIKeyEnv == "" {
		switch r.Provider {
		case ProviderGemini:
			r.APIKeyEnv = "GEMINI_API_KEY"
		default:
			r.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultReviewTimeout
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if m := NormalizeRetryBackoff(string(r.RetryBackoff)); m != "" {
		r.RetryBackoff = m
	} else if r.RetryBackoff == "" {
		r.RetryBackoff = RetryBackoffExponential
	}
	if r.RetryInitial <= 0 {
		r.RetryInitial = 2 * time.Second
	}
	if r.RetryMax <= 0 {
		r.RetryMax = time.Minute
	}
	if r.Instructions == "" {
		r.Instructions = DefaultInstructions
	}
	return nil
}

// RuntimeDefaultApplier handles events and daemon defaults.
type RuntimeDefaultApplier struct{}

func (d *RuntimeDefaultApplier) Domain() string { return "runtime" }

func (d *RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventSubject
	}
	if cfg.Daemon.Interval <= 0 {
		cfg.Daemon.Interval = DefaultInterval
	}
	if cfg.Daemon.Debounce <= 0 {
		cfg.Daemon.Debounce = DefaultDebounce
	}
	return nil
}

// DefaultApplierChain runs every domain applier in order.
type DefaultApplierChain struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier chain for all domains.
func NewDefaultApplier() *DefaultApplierChain {
	return &DefaultApplierChain{appliers: []DefaultApplier{
		&ProjectDefaultApplier{},
		&BringupDefaultApplier{},
		&ExamplesDefaultApplier{},
		&AuditDefaultApplier{},
		&RuntimeDefaultApplier{},
	}}
}

// ApplyDefaults applies every domain's defaults.
func (c *DefaultApplierChain) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}
