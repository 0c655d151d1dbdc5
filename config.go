package pubcontent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no config path is given.
const DefaultConfigFile = "pubcontent.yaml"

// Config holds all configuration for a pubcontent checker or server.
type Config struct {
	ProjectRoot  string        `yaml:"project_root"`  // Site root (default ".")
	ContentDir   string        `yaml:"content_dir"`   // Blog collection, relative to ProjectRoot (default "src/content/blog")
	DatabasePath string        `yaml:"database_path"` // SQLite index path (default "data/content.db")
	Addr         string        `yaml:"addr"`          // Listen address (default ":4322")
	SiteURL      string        `yaml:"site_url"`      // Canonical URL used in API responses
	Workers      int           `yaml:"workers"`       // Parallel file validations (default NumCPU)
	FailFast     bool          `yaml:"fail_fast"`     // Report only the first error per file
	CacheTTL     time.Duration `yaml:"cache_ttl"`     // Post cache TTL (default 5m)
	RateLimit    int           `yaml:"rate_limit"`    // Validate/reindex requests per minute per IP (default 60)
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
}

func (c *Config) setDefaults() {
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.ContentDir == "" {
		c.ContentDir = "src/content/blog"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.Addr == "" {
		c.Addr = ":4322"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:4321"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 60
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// ContentPath returns the content directory resolved against the project root.
func (c Config) ContentPath() string {
	if filepath.IsAbs(c.ContentDir) {
		return c.ContentDir
	}
	return filepath.Join(c.ProjectRoot, c.ContentDir)
}

// LoadConfig reads path (YAML), applies PUBCONTENT_* environment overrides
// and fills defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("pubcontent: parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("pubcontent: read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ProjectRoot = EnvOr("PUBCONTENT_PROJECT_ROOT", c.ProjectRoot)
	c.ContentDir = EnvOr("PUBCONTENT_CONTENT_DIR", c.ContentDir)
	c.DatabasePath = EnvOr("PUBCONTENT_DATABASE_PATH", c.DatabasePath)
	c.Addr = EnvOr("PUBCONTENT_ADDR", c.Addr)
	c.SiteURL = EnvOr("PUBCONTENT_SITE_URL", c.SiteURL)
	c.LogLevel = EnvOr("PUBCONTENT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = EnvOr("PUBCONTENT_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("PUBCONTENT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("pubcontent: PUBCONTENT_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("PUBCONTENT_FAIL_FAST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("pubcontent: PUBCONTENT_FAIL_FAST: %w", err)
		}
		c.FailFast = b
	}
	if v := os.Getenv("PUBCONTENT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("pubcontent: PUBCONTENT_CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithMetrics replaces the default Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *App) {
		a.Metrics = m
	}
}
