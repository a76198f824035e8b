package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds leadmap settings. Precedence, lowest first: defaults, YAML
// file, .env file, process environment.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig points at the CRM backend that receives raw uploads.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Upload  bool          `yaml:"upload"`
	Timeout time.Duration `yaml:"timeout"`
}

type ExportConfig struct {
	Format string `yaml:"format"` // csv or xlsx
}

type LoggingConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Export: ExportConfig{
			Format: "csv",
		},
		Logging: LoggingConfig{
			File:  "leadmap.log",
			Level: "info",
		},
	}
}

// Load builds the configuration. An empty path falls back to LEADMAP_CONFIG;
// if neither is set no file is read.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("LEADMAP_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("LEADMAP_API_BASE_URL", c.API.BaseURL)
	c.API.Token = getEnv("LEADMAP_API_TOKEN", c.API.Token)
	c.Export.Format = getEnv("LEADMAP_EXPORT_FORMAT", c.Export.Format)
	c.Logging.File = getEnv("LEADMAP_LOG_FILE", c.Logging.File)
	c.Logging.Level = getEnv("LEADMAP_LOG_LEVEL", c.Logging.Level)

	if v := os.Getenv("LEADMAP_UPLOAD"); v != "" {
		upload, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LEADMAP_UPLOAD: %w", err)
		}
		c.API.Upload = upload
	}
	if v := os.Getenv("LEADMAP_API_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEADMAP_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = timeout
	}
	return nil
}

// Validate reports settings that would fail later at export or upload time.
func (c *Config) Validate() error {
	c.Export.Format = strings.ToLower(strings.TrimPrefix(c.Export.Format, "."))
	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported export format %q (want csv or xlsx)", c.Export.Format)
	}
	if c.API.Upload && c.API.BaseURL == "" {
		return fmt.Errorf("upload enabled but api.base_url is not set")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}

// ExportExt is the file extension matching Export.Format.
func (c *Config) ExportExt() string {
	return "." + c.Export.Format
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
