package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateLayout(); err != nil {
		return err
	}
	if err := cv.validateExtensions(); err != nil {
		return err
	}
	if err := cv.validateBringup(); err != nil {
		return err
	}
	if err := cv.validateReview(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateLayout() error {
	bd := cv.config.BuildDir
	if filepath.IsAbs(bd) || strings.Contains(filepath.ToSlash(bd), "/") || bd == "." || bd == ".." {
		return invalid("build_dir", bd, "must be a single directory name")
	}
	if strings.TrimSpace(cv.config.Shell) == "" {
		return invalid("shell", cv.config.Shell, "must not be empty")
	}
	return nil
}

func (cv *configurationValidator) validateExtensions() error {
	seen := map[string]string{}
	groups := []struct {
		name string
		exts []string
	}{
		{"documentation", cv.config.Extensions.Documentation},
		{"interpreted", cv.config.Extensions.Interpreted},
		{"compiled", cv.config.Extensions.Compiled},
	}
	for _, g := range groups {
		for _, ext := range g.exts {
			if !strings.HasPrefix(ext, ".") {
				return invalid("extensions."+g.name, ext, "must start with a dot")
			}
			if prev, ok := seen[ext]; ok && prev != g.name {
				return invalid("extensions."+g.name, ext, "already classified as "+prev)
			}
			seen[ext] = g.name
		}
	}
	return nil
}

func (cv *configurationValidator) validateBringup() error {
	if NormalizeValidityMode(string(cv.config.Bringup.Validity)) == "" {
		return invalid("bringup.validity", string(cv.config.Bringup.Validity), "must be mtime or fingerprint")
	}
	if strings.TrimSpace(cv.config.Bringup.Installer) == "" {
		return invalid("bringup.installer", cv.config.Bringup.Installer, "must not be empty")
	}
	return nil
}

func (cv *configurationValidator) validateReview() error {
	r := cv.config.Review
	if NormalizeReviewProvider(string(r.Provider)) == "" {
		return invalid("review.provider", string(r.Provider), "must be openai or gemini")
	}
	if NormalizeRetryBackoff(string(r.RetryBackoff)) == "" {
		return invalid("review.retry_backoff", string(r.RetryBackoff), "must be fixed, linear or exponential")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return invalid("review.temperature", fmt.Sprint(r.Temperature), "must be between 0 and 2")
	}
	if r.RetryMax < r.RetryInitial {
		return invalid("review.retry_max_delay", r.RetryMax.String(), "must not be less than retry_initial_delay")
	}
	return nil
}

func invalid(field, value, reason string) error {
	return ferrors.ConfigError(fmt.Sprintf("invalid %s %q: %s", field, value, reason)).
		WithContext("field", field).
		Build()
}
