// Package config loads gateway configuration from an optional YAML file with
// environment variable overrides. The resulting struct is passed explicitly
// into the wiring; nothing in this package is a global.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supabase configures the hosted identity/storage/database backend.
type Supabase struct {
	URL        string `yaml:"url"`
	AnonKey    string `yaml:"anon_key"`
	ServiceKey string `yaml:"service_key"`
	JWTSecret  string `yaml:"jwt_secret"`
	Bucket     string `yaml:"bucket"`
	Realtime   bool   `yaml:"realtime"`
}

// GenAI configures the hosted text-generation collaborator.
type GenAI struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RateLimit configures the per-identity token bucket.
type RateLimit struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// Config is the full gateway configuration.
type Config struct {
	ListenAddr     string    `yaml:"listen_addr"`
	LogLevel       string    `yaml:"log_level"`
	LogFormat      string    `yaml:"log_format"`
	AllowedOrigins []string  `yaml:"allowed_origins"`
	AuditLogPath   string    `yaml:"audit_log_path"`
	DatabaseURL    string    `yaml:"database_url"`
	Supabase       Supabase  `yaml:"supabase"`
	GenAI          GenAI     `yaml:"genai"`
	RateLimit      RateLimit `yaml:"rate_limit"`
}

// Load reads the optional YAML file at path (skipped when empty or missing),
// applies environment overrides, and fills defaults. A .env file in the
// working directory is honoured when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.AuditLogPath, "AUDIT_LOG_PATH")
	setString(&c.DatabaseURL, "DATABASE_URL")

	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&c.Supabase.ServiceKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&c.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&c.Supabase.Bucket, "SUPABASE_BUCKET")
	if v := os.Getenv("SUPABASE_REALTIME"); v != "" {
		c.Supabase.Realtime, _ = strconv.ParseBool(v)
	}

	setString(&c.GenAI.APIKey, "GENAI_API_KEY")
	setString(&c.GenAI.Model, "GENAI_MODEL")
	setString(&c.GenAI.BaseURL, "GENAI_BASE_URL")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.RequestsPerSecond = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Burst = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Supabase.Bucket == "" {
		c.Supabase.Bucket = "app_files"
	}
	if c.GenAI.Model == "" {
		c.GenAI.Model = "gemini-2.5-flash"
	}
	if c.GenAI.BaseURL == "" {
		c.GenAI.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
