package configparser

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Database struct {
		Host string `koanf:"host"`
		Port int    `koanf:"port"`
	} `koanf:"database"`
	HTTP struct {
		Origins []string      `koanf:"allowed_origins"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"http"`
}

func defaults() testConfig {
	var c testConfig
	c.Database.Host = "localhost"
	c.Database.Port = 5432
	c.HTTP.Timeout = 5 * time.Second
	return c
}

func TestEnvKey(t *testing.T) {
	fn := EnvKey([]string{"database", "http"})

	cases := map[string]string{
		"DATABASE_HOST":         "database.host",
		"HTTP_ALLOWED_ORIGINS":  "http.allowed_origins",
		"PATH":                  "",
		"DATABASE_":             "",
		"DATABASEHOST":          "",
		"NOTIFIER_EXPO_URL":     "",
		"database_max_conn_age": "database.max_conn_age",
	}
	for in, want := range cases {
		if got := fn(in); got != want {
			t.Fatalf("EnvKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "database:\n  host: db.internal\n  port: 6432\nhttp:\n  timeout: 30s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("DATABASE_PORT", "7000")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	var cfg testConfig
	err := Load(Options{
		Defaults:  defaults(),
		FilePath:  path,
		Sections:  []string{"database", "http"},
		SliceKeys: []string{"http.allowed_origins"},
	}, &cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Fatalf("file should override defaults, got host %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 7000 {
		t.Fatalf("env should override file, got port %d", cfg.Database.Port)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.HTTP.Timeout)
	}
	if len(cfg.HTTP.Origins) != 2 || cfg.HTTP.Origins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.HTTP.Origins)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	var cfg testConfig
	err := Load(Options{
		Defaults: defaults(),
		FilePath: filepath.Join(t.TempDir(), "absent.yaml"),
		Sections: []string{"database"},
	}, &cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Fatalf("defaults not applied: %+v", cfg.Database)
	}
}
