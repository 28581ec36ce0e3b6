package common

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("VALIDATE_TOLERANCE", "")
	t.Setenv("EXTRACT_WORKERS", "")

	cfg := LoadConfig()
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Validation.Tolerance != 0.02 {
		t.Fatalf("expected default tolerance 0.02, got %v", cfg.Validation.Tolerance)
	}
	if cfg.Extraction.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Extraction.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("VALIDATE_TOLERANCE", "0.05")
	t.Setenv("WATCH_DEBOUNCE", "2s")
	t.Setenv("EXTRACT_PROFILE", "European")

	cfg := LoadConfig()
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Validation.Tolerance != 0.05 {
		t.Errorf("tolerance = %v", cfg.Validation.Tolerance)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Extraction.Profile != "european" {
		t.Errorf("profile = %q", cfg.Extraction.Profile)
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"zero tolerance", func(c *Config) { c.Validation.Tolerance = 0 }},
		{"tolerance too large", func(c *Config) { c.Validation.Tolerance = 1.5 }},
		{"no workers", func(c *Config) { c.Extraction.Workers = 0 }},
		{"empty profile", func(c *Config) { c.Extraction.Profile = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput in chain, got %v", err)
			}
			if ErrorCode(err) != "CONFIG_ERROR" {
				t.Fatalf("expected CONFIG_ERROR, got %s", ErrorCode(err))
			}
		})
	}
}
