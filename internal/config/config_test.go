package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SHAREIT_TEST_DB", "test.db")

	yamlContent := `
database:
  path: "${SHAREIT_TEST_DB}"
gateway:
  server_url: "http://server:9090"
  timeout: 3s
booking:
  start_grace: 2s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("expected default driver sqlite3, got %s", cfg.Database.Driver)
	}
	if cfg.Gateway.Timeout != 3*time.Second {
		t.Errorf("expected gateway timeout 3s, got %s", cfg.Gateway.Timeout)
	}
	if cfg.Booking.StartGrace != 2*time.Second {
		t.Errorf("expected start grace 2s, got %s", cfg.Booking.StartGrace)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite3", Path: "path"},
			Gateway:  GatewayConfig{ServerURL: "http://localhost:9090"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Postgres.DBName = "shareit"
			},
			wantErr: true,
		},
		{name: "bad server url", mutate: func(c *Config) { c.Gateway.ServerURL = "localhost:9090" }, wantErr: true},
		{name: "auth without keys", mutate: func(c *Config) { c.API.Auth.Enabled = true }, wantErr: true},
		{name: "nats without url", mutate: func(c *Config) { c.NATS.Enabled = true }, wantErr: true},
		{name: "negative grace", mutate: func(c *Config) { c.Booking.StartGrace = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()

	if cfg.Booking.StartGrace != models.DefaultStartGrace {
		t.Errorf("expected default start grace %s, got %s", models.DefaultStartGrace, cfg.Booking.StartGrace)
	}
	if cfg.Gateway.ServerURL != "http://localhost:9090" {
		t.Errorf("expected default server url, got %s", cfg.Gateway.ServerURL)
	}
	if cfg.NATS.SubjectPrefix != "shareit.events" {
		t.Errorf("expected default subject prefix, got %s", cfg.NATS.SubjectPrefix)
	}
	if cfg.Monitoring.PrometheusPort != 9100 || cfg.Monitoring.GatewayPrometheusPort != 9101 {
		t.Errorf("unexpected prometheus ports %d/%d", cfg.Monitoring.PrometheusPort, cfg.Monitoring.GatewayPrometheusPort)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}
