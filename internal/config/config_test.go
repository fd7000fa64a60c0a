package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_NAME", "PORT", "STORE_DRIVER", "DATABASE_URL", "RABBITMQ_ENABLED", "FLUENTBIT_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "rental-ledger" {
		t.Errorf("AppName: got %q", cfg.AppName)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port: got %q", cfg.Port)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver: got %q", cfg.StoreDriver)
	}
	want := "host=localhost port=5432 user=postgres password=postgres dbname=rentalledger sslmode=disable"
	if got := cfg.Database.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("PORT")
	os.Unsetenv("STORE_DRIVER")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PORT=9090\nSTORE_DRIVER=postgres\nDATABASE_URL=postgres://u:p@db/x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.StoreDriver != DriverPostgres {
		t.Errorf("got port=%q driver=%q", cfg.Port, cfg.StoreDriver)
	}
	if cfg.Database.DSN() != "postgres://u:p@db/x" {
		t.Errorf("DSN: got %q", cfg.Database.DSN())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"ok", func(*AppConfig) {}, false},
		{"bad driver", func(c *AppConfig) { c.StoreDriver = "mysql" }, true},
		{"empty port", func(c *AppConfig) { c.Port = "" }, true},
		{"rabbit without exchange", func(c *AppConfig) { c.RabbitMQ = RabbitMQConfig{Enabled: true} }, true},
		{"fluent without host is disabled", func(c *AppConfig) { c.FluentBit.Enabled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{Port: "8080", StoreDriver: DriverMemory}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate: err=%v, wantErr=%v", err, tt.wantErr)
			}
			if cfg.FluentBit.Enabled && cfg.FluentBit.Host == "" {
				t.Error("fluent bit left enabled without a host")
			}
		})
	}
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("FLUENTBIT_PORT", "not-a-number")
	if got := getEnvAsInt("FLUENTBIT_PORT", 24224); got != 24224 {
		t.Errorf("got %d", got)
	}
}
