package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir moves into a temp dir so a developer's .env does not leak in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	t.Setenv("VACANCY_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Storage.Documents != "fs" || cfg.Storage.Log != "csv" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.LinkTTL != 15*time.Minute || cfg.OxiDB.Keepalive != 10*time.Second {
		t.Fatalf("durations: %+v %+v", cfg.Auth, cfg.OxiDB)
	}
	if cfg.Notify.Kind != "" || cfg.UsesOxiDB() {
		t.Fatalf("notify=%q oxidb=%v", cfg.Notify.Kind, cfg.UsesOxiDB())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "vacancy.yaml")
	yaml := `
storage:
  log: xlsx
  log_path: out/log.xlsx
notify:
  kind: smtp
  recipient: jobs@example.com
  smtp:
    port: 2525
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VACANCY_NOTIFY_SMTP_HOST", "mail.example.com")
	t.Setenv("VACANCY_STORAGE_LOG_PATH", "env/log.xlsx")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Log != "xlsx" || cfg.Storage.LogPath != "env/log.xlsx" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Notify.SMTP.Host != "mail.example.com" || cfg.Notify.SMTP.Port != 2525 {
		t.Fatalf("smtp = %+v", cfg.Notify.SMTP)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VACANCY_HTTP_ADDR=:9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("VACANCY_HTTP_ADDR") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown documents", func(c *Config) { c.Storage.Documents = "s3" }, "unknown storage.documents"},
		{"unknown log", func(c *Config) { c.Storage.Log = "mongo" }, "unknown storage.log"},
		{"sqlite without dsn", func(c *Config) { c.Storage.Log = "sqlite" }, "storage.dsn"},
		{"smtp without recipient", func(c *Config) { c.Notify.Kind = "smtp" }, "notify.recipient"},
		{"github without repo", func(c *Config) { c.Notify.Kind = "github" }, "notify.github.repo"},
		{"unknown notifier", func(c *Config) { c.Notify.Kind = "fax" }, "unknown notify.kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Storage: StorageConfig{Documents: "fs", DocumentsDir: "d", Log: "csv", LogPath: "l.csv"}}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
