package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ENDLESS_"

type Config struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"`
	Debug  bool   `yaml:"debug" env:"DEBUG"`

	Cookie            string `yaml:"cookie" env:"COOKIE"`
	CookieFile        string `yaml:"cookie_file" env:"COOKIE_FILE"`
	UserAgent         string `yaml:"user_agent" env:"USER_AGENT"`
	CloudflareBypass  bool   `yaml:"cloudflare_bypass" env:"CLOUDFLARE_BYPASS"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec" env:"REQUEST_TIMEOUT_SEC"`
	FetchRetries      int    `yaml:"fetch_retries" env:"FETCH_RETRIES"`

	// URLUpdateThreshold is in percent of the viewport.
	URLUpdateThreshold  float64 `yaml:"url_update_threshold" env:"URL_UPDATE_THRESHOLD"`
	VisibilityThreshold float64 `yaml:"visibility_threshold" env:"VISIBILITY_THRESHOLD"`
	ScrollDebounceMS    int     `yaml:"scroll_debounce_ms" env:"SCROLL_DEBOUNCE_MS"`
	SyncIntervalMS      int     `yaml:"sync_interval_ms" env:"SYNC_INTERVAL_MS"`
	NotifyDurationMS    int     `yaml:"notify_duration_ms" env:"NOTIFY_DURATION_MS"`

	RefreshWorkers int     `yaml:"refresh_workers" env:"REFRESH_WORKERS"`
	RefreshRate    float64 `yaml:"refresh_rate" env:"REFRESH_RATE"`

	ServeAddr string `yaml:"serve_addr" env:"SERVE_ADDR"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	DBPath       string
	Cookie       string
	CookieFile   string
	UserAgent    string
	Cloudflare   bool
	ServeAddr    string
}

func DefaultConfig() *Config {
	return &Config{
		DBPath:              filepath.Join(ConfigRoot(), "library.db"),
		RequestTimeoutSec:   30,
		FetchRetries:        3,
		URLUpdateThreshold:  10,
		VisibilityThreshold: 0.5,
		ScrollDebounceMS:    50,
		SyncIntervalMS:      1000,
		NotifyDurationMS:    3000,
		RefreshWorkers:      2,
		RefreshRate:         1,
		ServeAddr:           "127.0.0.1:7331",
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged resolves the effective config: defaults, then the active
// profile, then ENDLESS_* environment variables, then CLI options.
func LoadMerged(opts Options) (*Config, string, error) {
	var (
		cfg  *Config
		used string
	)

	activePath, err := ActiveConfigPath()
	switch {
	case opts.IgnoreConfig:
		cfg, used = DefaultConfig(), "(ignored config)"
	case err == ErrNoConfig || activePath == "":
		cfg, used = DefaultConfig(), "(default config in memory)\nRun `endless config init` to create an actual config\n"
	case err != nil:
		return nil, "", err
	default:
		cfg, err = loadYAML(activePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
		}
		used = activePath
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, used, nil
}

func applyEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cloudflare {
		c.CloudflareBypass = true
	}
	if o.ServeAddr != "" {
		c.ServeAddr = o.ServeAddr
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = def.RequestTimeoutSec
	}
	if c.FetchRetries <= 0 {
		c.FetchRetries = def.FetchRetries
	}
	if c.URLUpdateThreshold < 0 || c.URLUpdateThreshold >= 100 {
		c.URLUpdateThreshold = def.URLUpdateThreshold
	}
	if c.VisibilityThreshold <= 0 || c.VisibilityThreshold > 1 {
		c.VisibilityThreshold = def.VisibilityThreshold
	}
	if c.ScrollDebounceMS <= 0 {
		c.ScrollDebounceMS = def.ScrollDebounceMS
	}
	if c.SyncIntervalMS <= 0 {
		c.SyncIntervalMS = def.SyncIntervalMS
	}
	if c.NotifyDurationMS <= 0 {
		c.NotifyDurationMS = def.NotifyDurationMS
	}
	if c.RefreshWorkers <= 0 {
		c.RefreshWorkers = def.RefreshWorkers
	}
	if c.RefreshRate <= 0 {
		c.RefreshRate = def.RefreshRate
	}
	if c.ServeAddr == "" {
		c.ServeAddr = def.ServeAddr
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) ScrollDebounce() time.Duration {
	return time.Duration(c.ScrollDebounceMS) * time.Millisecond
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

func (c *Config) NotifyDuration() time.Duration {
	return time.Duration(c.NotifyDurationMS) * time.Millisecond
}

func (c *Config) Print() {
	fmt.Printf(" -db_path: %s\n", c.DBPath)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	fmt.Printf(" -request_timeout_sec: %d\n", c.RequestTimeoutSec)
	fmt.Printf(" -fetch_retries: %d\n", c.FetchRetries)
	fmt.Printf(" -url_update_threshold: %g\n", c.URLUpdateThreshold)
	fmt.Printf(" -visibility_threshold: %g\n", c.VisibilityThreshold)
	fmt.Printf(" -scroll_debounce_ms: %d\n", c.ScrollDebounceMS)
	fmt.Printf(" -sync_interval_ms: %d\n", c.SyncIntervalMS)
	fmt.Printf(" -notify_duration_ms: %d\n", c.NotifyDurationMS)
	fmt.Printf(" -refresh_workers: %d\n", c.RefreshWorkers)
	fmt.Printf(" -refresh_rate: %g\n", c.RefreshRate)
	fmt.Printf(" -serve_addr: %s\n", c.ServeAddr)
}
