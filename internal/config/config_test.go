package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                       "development",
		DatabaseURL:               "postgres://x",
		SessionSecret:             "abcdefghijklmnopqrstuvwxyz123456",
		RestoreSecret:             "restore-secret-0123456789abcdef",
		StateSecret:               "state-secret-12345",
		SessionTTL:                30 * time.Minute,
		RestoreTTL:                30 * 24 * time.Hour,
		PasswordMinLength:         8,
		BodyLimitBytes:            1 << 20,
		AuthRateLimitPerMin:       30,
		APIRateLimitPerMin:        120,
		OTELExporterOTLPEndpoint:  "localhost:4317",
		OTELTraceSamplingRatio:    1.0,
		OTELMetricsExportInterval: 10 * time.Second,
		OTELLogLevel:              "info",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestValidateRejectsMissingOrWeakSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"short session secret", func(c *Config) { c.SessionSecret = "short" }},
		{"short restore secret", func(c *Config) { c.RestoreSecret = "short" }},
		{"identical secrets", func(c *Config) { c.RestoreSecret = c.SessionSecret }},
		{"short state secret", func(c *Config) { c.StateSecret = "x" }},
		{"google without client id", func(c *Config) { c.AuthGoogleEnabled = true }},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"oversized session ttl", func(c *Config) { c.SessionTTL = 48 * time.Hour }},
		{"oversized restore ttl", func(c *Config) { c.RestoreTTL = 365 * 24 * time.Hour }},
		{"tiny password minimum", func(c *Config) { c.PasswordMinLength = 2 }},
		{"zero rate limit", func(c *Config) { c.AuthRateLimitPerMin = 0 }},
		{"bad log level", func(c *Config) { c.OTELLogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("SESSION_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("RESTORE_SECRET", "restore-secret-0123456789abcdef")
	t.Setenv("OAUTH_STATE_SECRET", "state-secret-12345")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.SessionTTL != 30*time.Minute || cfg.SignInPath != "/sign-in" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthGoogleEnabled {
		t.Fatal("google auth must default off without credentials in dev")
	}
	if !cfg.PasswordExplainFailures || cfg.PasswordMinLength != 8 {
		t.Fatalf("unexpected password defaults: %+v", cfg)
	}
}
