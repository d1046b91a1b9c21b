package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BuildDir != DefaultBuildDir {
		t.Errorf("build_dir = %q, want %q", cfg.BuildDir, DefaultBuildDir)
	}
	if cfg.Examples.Timeout != DefaultExampleTimeout {
		t.Errorf("examples.timeout = %v, want %v", cfg.Examples.Timeout, DefaultExampleTimeout)
	}
	if cfg.Bringup.Validity != ValidityMtime {
		t.Errorf("bringup.validity = %q, want mtime", cfg.Bringup.Validity)
	}
	if cfg.Bringup.Jobs != 1 {
		t.Errorf("bringup.jobs = %d, want 1", cfg.Bringup.Jobs)
	}
	if len(cfg.Examples.FenceLanguages) != 5 {
		t.Errorf("unexpected fence languages %v", cfg.Examples.FenceLanguages)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NORMALIZE_TEST_INSTALLER", "pipx install")
	path := filepath.Join(dir, DefaultFile)
	body := `build_dir: out
bringup:
  installer: ${NORMALIZE_TEST_INSTALLER}
  validity: Fingerprint
examples:
  timeout: 250ms
review:
  provider: GEMINI
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BuildDir != "out" {
		t.Errorf("build_dir = %q", cfg.BuildDir)
	}
	if cfg.Bringup.Installer != "pipx install" {
		t.Errorf("installer = %q", cfg.Bringup.Installer)
	}
	if cfg.Bringup.Validity != ValidityFingerprint {
		t.Errorf("validity = %q", cfg.Bringup.Validity)
	}
	if cfg.Examples.Timeout != 250*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Examples.Timeout)
	}
	if cfg.Review.Provider != ProviderGemini || cfg.Review.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("review = %+v", cfg.Review)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NORMALIZE_TEST_SHELL", "/bin/sh")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NORMALIZE_TEST_SHELL=/bin/false\nNORMALIZE_TEST_DIR=env-build\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("NORMALIZE_TEST_DIR") })
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte("shell: ${NORMALIZE_TEST_SHELL}\nbuild_dir: ${NORMALIZE_TEST_DIR}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shell != "/bin/sh" {
		t.Errorf("shell = %q, environment must win over .env", cfg.Shell)
	}
	if cfg.BuildDir != "env-build" {
		t.Errorf("build_dir = %q", cfg.BuildDir)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nested build dir", func(c *Config) { c.BuildDir = "a/b" }},
		{"extension without dot", func(c *Config) { c.Extensions.Compiled = append(c.Extensions.Compiled, "zig") }},
		{"extension in two kinds", func(c *Config) { c.Extensions.Compiled = append(c.Extensions.Compiled, ".py") }},
		{"unknown validity", func(c *Config) { c.Bringup.Validity = "hash" }},
		{"unknown provider", func(c *Config) { c.Review.Provider = "acme" }},
		{"temperature out of range", func(c *Config) { c.Review.Temperature = 3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !ferrors.HasCategory(err, ferrors.CategoryConfig) {
				t.Errorf("expected config category, got %v", err)
			}
		})
	}

	if err := ValidateConfig(Default()); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when file exists without force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("Init with force: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Init: %v", err)
	}
	if cfg.Examples.Timeout != DefaultExampleTimeout {
		t.Errorf("timeout did not round trip: %v", cfg.Examples.Timeout)
	}
	if cfg.State.Database == "" {
		t.Error("expected example database path")
	}
}
