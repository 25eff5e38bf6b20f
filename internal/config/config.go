package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		APIKeys        []string `yaml:"apiKeys"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | sqlite
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"` // sqlite only
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Predictor struct {
		BaseURL string        `yaml:"baseURL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"predictor"`

	AI struct {
		Provider string        `yaml:"provider"` // openai | gemini
		APIKey   string        `yaml:"apiKey"`
		Model    string        `yaml:"model"`
		Timeout  time.Duration `yaml:"timeout"`
		Fallback string        `yaml:"fallback"` // model | error
	} `yaml:"ai"`

	Corrections struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"corrections"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// DefaultAllowedOrigins are the local UI dev server and the extension.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"chrome-extension://cbclpmjjnncnmhiiipfejhkipcdhoddm",
}

// Load baca .env (kalau ada) lalu file config.yaml. A missing YAML file is
// not an error: defaults and environment variables are enough to run.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("PREDICTOR_URL"); v != "" {
		c.Predictor.BaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case "gemini":
			c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = DefaultAllowedOrigins
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "phishscan.db"
	}
	if c.Predictor.BaseURL == "" {
		c.Predictor.BaseURL = "http://localhost:5001"
	}
	if c.Predictor.Timeout == 0 {
		c.Predictor.Timeout = 30 * time.Second
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.AI.Fallback == "" {
		c.AI.Fallback = "model"
	}
	if c.Corrections.Timeout == 0 {
		c.Corrections.Timeout = 15 * time.Second
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "phishscan-corrections"
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database: %s needs dsn or host", c.Database.Driver))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q", c.Database.Driver))
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("ai: unknown provider %q", c.AI.Provider))
	}
	if c.AI.APIKey == "" {
		errs = append(errs, errors.New("ai: apiKey is required"))
	}
	switch c.AI.Fallback {
	case "model", "error":
	default:
		errs = append(errs, fmt.Errorf("ai: unknown fallback %q", c.AI.Fallback))
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio: endpoint is required when enabled"))
	}
	return errors.Join(errs...)
}

// DatabaseDSN returns the explicit dsn, or builds one for the driver.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres":
		return c.PostgresDSN()
	default:
		return c.Database.Path
	}
}

// Helper untuk build DSN MySQL. clientFoundRows makes UPDATE report matched rows.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
