package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Values come from an optional YAML file
// and are then overridden by environment variables (.env is loaded first).
type Config struct {
	Port     string         `yaml:"port"`
	SiteURL  string         `yaml:"site_url"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	Log      LogConfig      `yaml:"log"`
	SMTP     SMTPConfig     `yaml:"smtp"`
}

type SessionConfig struct {
	Secret string `yaml:"secret"`
	Name   string `yaml:"name"`
}

// DatabaseConfig selects the gorm dialector. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type UploadConfig struct {
	Dir   string `yaml:"dir"`
	MaxMB int    `yaml:"max_mb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Port:    "8080",
		SiteURL: "http://localhost:8080",
		Session: SessionConfig{
			Secret: "secret_key_change_me",
			Name:   "lawjournal_session",
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			DSN:    "host=localhost user=postgres password=postgres dbname=lawjournal port=5432 sslmode=disable TimeZone=UTC",
		},
		Upload: UploadConfig{
			Dir:   "./web/static/uploads",
			MaxMB: 16,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env, then the YAML file at path (missing file is fine), then
// applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if cfg.Upload.MaxMB <= 0 {
		cfg.Upload.MaxMB = 16
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.SiteURL, "SITE_URL")
	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Upload.Dir, "UPLOAD_DIR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USER")
	setString(&c.SMTP.Password, "SMTP_PASS")
	setString(&c.SMTP.From, "SMTP_FROM")

	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Upload.MaxMB = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// MaxUploadBytes is the per-file upload cap.
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxMB) << 20
}
