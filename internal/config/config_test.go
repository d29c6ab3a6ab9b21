package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DBPath != "north.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "north.db")
	}
	if cfg.Sweep.Interval != time.Minute {
		t.Errorf("Sweep.Interval = %v, want %v", cfg.Sweep.Interval, time.Minute)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.Backup.Interval != 0 {
		t.Errorf("Backup.Interval = %v, want 0", cfg.Backup.Interval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NORTH_PORT", "9090")
	t.Setenv("NORTH_LOG_LEVEL", "debug")
	t.Setenv("NORTH_SWEEP_INTERVAL", "30s")
	t.Setenv("NORTH_PUSH_VAPID_PUBLIC_KEY", "pub")
	t.Setenv("NORTH_BACKUP_BUCKET", "north-backups")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Sweep.Interval != 30*time.Second {
		t.Errorf("Sweep.Interval = %v, want %v", cfg.Sweep.Interval, 30*time.Second)
	}
	if cfg.Push.VAPIDPublicKey != "pub" {
		t.Errorf("Push.VAPIDPublicKey = %q, want %q", cfg.Push.VAPIDPublicKey, "pub")
	}
	if cfg.Backup.Bucket != "north-backups" {
		t.Errorf("Backup.Bucket = %q, want %q", cfg.Backup.Bucket, "north-backups")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "north.yaml")
	data := `
port: "7000"
timezone: America/Chicago
log:
  format: json
email:
  postmark_token: tok
  from: north@example.com
backup:
  interval: 24h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "7000")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Email.From != "north@example.com" {
		t.Errorf("Email.From = %q, want %q", cfg.Email.From, "north@example.com")
	}
	if cfg.Backup.Interval != 24*time.Hour {
		t.Errorf("Backup.Interval = %v, want %v", cfg.Backup.Interval, 24*time.Hour)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/Chicago" {
		t.Errorf("Location = %v, %v; want America/Chicago", loc, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:      "8080",
			DBPath:    "north.db",
			Timezone:  "UTC",
			Sweep:     SweepConfig{Interval: time.Minute},
			RateLimit: RateLimitConfig{Limit: 10, Window: time.Minute},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = " " }, "port is required"},
		{"zero sweep", func(c *Config) { c.Sweep.Interval = 0 }, "sweep.interval"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"negative backup interval", func(c *Config) { c.Backup.Interval = -time.Hour }, "backup.interval"},
		{"zero rate limit", func(c *Config) { c.RateLimit.Limit = 0 }, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}
