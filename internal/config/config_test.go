package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with defaults should succeed: %v", err)
	}

	if cfg.App.Name != "ecofund" {
		t.Fatalf("unexpected app name %q", cfg.App.Name)
	}
	if cfg.Funding.BaseAmount != 100000 {
		t.Fatalf("unexpected default base amount %d", cfg.Funding.BaseAmount)
	}
	if !cfg.Funding.RankBonusEnabled || !cfg.Funding.PerformanceBonusEnabled {
		t.Fatalf("bonuses should default enabled: %+v", cfg.Funding)
	}
	if cfg.Scheduler.RunDay != 1 || cfg.Scheduler.RunHour != 2 {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
}

func TestLoadFileOverridesAndIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
funding:
  base_amount: 5000
  rank_bonus_enabled: false
  some_future_option: true
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if cfg.Funding.BaseAmount != 5000 {
		t.Fatalf("file override not applied: %d", cfg.Funding.BaseAmount)
	}
	if cfg.Funding.RankBonusEnabled {
		t.Fatal("rank bonus should be disabled by file")
	}
	if cfg.Funding.PerformanceBonusEnabled != true {
		t.Fatal("untouched defaults should survive")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging override not applied: %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"run day zero", func(c *Config) { c.Scheduler.RunDay = 0 }},
		{"run day 29", func(c *Config) { c.Scheduler.RunDay = 29 }},
		{"run hour 24", func(c *Config) { c.Scheduler.RunHour = 24 }},
		{"negative base", func(c *Config) { c.Funding.BaseAmount = -1 }},
		{"negative rank pool", func(c *Config) { c.Funding.RankBonusPool = -1 }},
		{"negative perf pool", func(c *Config) { c.Funding.PerformanceBonusPool = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
