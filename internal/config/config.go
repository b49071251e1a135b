// Package config loads settings from defaults, an optional YAML file, a
// .env file and VACANCY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "VACANCY"

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Form    FormConfig    `mapstructure:"form"`
	Storage StorageConfig `mapstructure:"storage"`
	OxiDB   OxiDBConfig   `mapstructure:"oxidb"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	// BaseURL prefixes download links in API responses.
	BaseURL string `mapstructure:"base_url"`
}

type FormConfig struct {
	// Path to a form definition; empty uses the built-in job-vacancy form.
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Documents    string `mapstructure:"documents"` // fs | oxidb
	DocumentsDir string `mapstructure:"documents_dir"`
	Log          string `mapstructure:"log"` // csv | xlsx | sqlite | postgres | oxidb
	LogPath      string `mapstructure:"log_path"`
	DSN          string `mapstructure:"dsn"`
}

type OxiDBConfig struct {
	Addr      string        `mapstructure:"addr"`
	PoolSize  int           `mapstructure:"pool_size"`
	Keepalive time.Duration `mapstructure:"keepalive"`
}

type NotifyConfig struct {
	Kind        string           `mapstructure:"kind"` // "" | smtp | gmail | github | sharepoint
	Recipient   string           `mapstructure:"recipient"`
	UsernameEnv string           `mapstructure:"username_env"`
	SecretEnv   string           `mapstructure:"secret_env"`
	SMTP        SMTPConfig       `mapstructure:"smtp"`
	Gmail       GmailConfig      `mapstructure:"gmail"`
	GitHub      GitHubConfig     `mapstructure:"github"`
	SharePoint  SharePointConfig `mapstructure:"sharepoint"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type GmailConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type GitHubConfig struct {
	APIURL string `mapstructure:"api_url"`
	Repo   string `mapstructure:"repo"`
	Branch string `mapstructure:"branch"`
	Dir    string `mapstructure:"dir"`
}

type SharePointConfig struct {
	GraphURL string `mapstructure:"graph_url"`
	TokenURL string `mapstructure:"token_url"`
	TenantID string `mapstructure:"tenant_id"`
	ClientID string `mapstructure:"client_id"`
	SiteID   string `mapstructure:"site_id"`
	Folder   string `mapstructure:"folder"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AdminUser         string        `mapstructure:"admin_user"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	AdminPassword     string        `mapstructure:"admin_password"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	LinkTTL           time.Duration `mapstructure:"link_ttl"`
}

type LogConfig struct {
	GELFAddr string `mapstructure:"gelf_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.base_url", "")
	v.SetDefault("form.path", "")
	v.SetDefault("storage.documents", "fs")
	v.SetDefault("storage.documents_dir", "data/documents")
	v.SetDefault("storage.log", "csv")
	v.SetDefault("storage.log_path", "data/job_vacancies.csv")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("oxidb.addr", "127.0.0.1:4444")
	v.SetDefault("oxidb.pool_size", 3)
	v.SetDefault("oxidb.keepalive", 10*time.Second)
	v.SetDefault("notify.kind", "")
	v.SetDefault("notify.recipient", "")
	v.SetDefault("notify.username_env", "")
	v.SetDefault("notify.secret_env", "")
	v.SetDefault("notify.smtp.host", "smtp.gmail.com")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.gmail.endpoint", "")
	v.SetDefault("notify.github.api_url", "https://api.github.com")
	v.SetDefault("notify.github.repo", "")
	v.SetDefault("notify.github.branch", "main")
	v.SetDefault("notify.github.dir", "job_vacancies")
	v.SetDefault("notify.sharepoint.graph_url", "")
	v.SetDefault("notify.sharepoint.token_url", "")
	v.SetDefault("notify.sharepoint.tenant_id", "")
	v.SetDefault("notify.sharepoint.client_id", "")
	v.SetDefault("notify.sharepoint.site_id", "")
	v.SetDefault("notify.sharepoint.folder", "Job Vacancies")
	v.SetDefault("auth.jwt_secret", "vacancyform-dev-secret-change-me")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.link_ttl", 15*time.Minute)
	v.SetDefault("log.gelf_addr", "")
}

// Load reads configuration. path may be empty, in which case VACANCY_CONFIG
// is consulted and, failing that, no file is read.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and missing per-backend settings.
func (c *Config) Validate() error {
	switch c.Storage.Documents {
	case "fs":
		if c.Storage.DocumentsDir == "" {
			return errors.New("config: storage.documents_dir is required for fs documents")
		}
	case "oxidb":
	default:
		return fmt.Errorf("config: unknown storage.documents %q", c.Storage.Documents)
	}

	switch c.Storage.Log {
	case "csv", "xlsx":
		if c.Storage.LogPath == "" {
			return fmt.Errorf("config: storage.log_path is required for %s log", c.Storage.Log)
		}
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for %s log", c.Storage.Log)
		}
	case "oxidb":
	default:
		return fmt.Errorf("config: unknown storage.log %q", c.Storage.Log)
	}

	n := c.Notify
	switch n.Kind {
	case "":
	case "smtp", "gmail":
		if n.Recipient == "" {
			return fmt.Errorf("config: notify.recipient is required for %s", n.Kind)
		}
	case "github":
		if n.GitHub.Repo == "" {
			return errors.New("config: notify.github.repo is required")
		}
	case "sharepoint":
		if n.SharePoint.SiteID == "" || n.SharePoint.ClientID == "" {
			return errors.New("config: notify.sharepoint.site_id and client_id are required")
		}
		if n.SharePoint.TenantID == "" && n.SharePoint.TokenURL == "" {
			return errors.New("config: notify.sharepoint.tenant_id or token_url is required")
		}
	default:
		return fmt.Errorf("config: unknown notify.kind %q", n.Kind)
	}
	return nil
}

// UsesOxiDB reports whether any backend needs the OxiDB pool.
func (c *Config) UsesOxiDB() bool {
	return c.Storage.Documents == "oxidb" || c.Storage.Log == "oxidb"
}
