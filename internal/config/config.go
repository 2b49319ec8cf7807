package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ibeckermayer/xscrape/internal/types"
)

// Config holds all application configuration
type Config struct {
	Version     int               `toml:"version"`
	Credentials CredentialsConfig `toml:"credentials"`
	Browser     BrowserConfig     `toml:"browser"`
	Scraping    ScrapingConfig    `toml:"scraping"`
	Output      OutputConfig      `toml:"output"`
	Schedule    ScheduleConfig    `toml:"schedule"`

	// Selectors overrides entries of the built-in selector table, keyed by
	// target name. Prefix a value with "xpath:" for an XPath expression.
	Selectors map[string]string `toml:"selectors"`
}

type CredentialsConfig struct {
	// Path is the "identifier password" file read once at startup.
	Path string `toml:"path"`
	// Username is typed when X asks to confirm the account and the
	// identifier is not a phone number. Prompted for when empty.
	Username   string `toml:"username"`
	TOTPSecret string `toml:"totp_secret"`
}

type BrowserConfig struct {
	Headless    bool   `toml:"headless"`
	ExecPath    string `toml:"exec_path"`
	UserDataDir string `toml:"user_data_dir"`
	NoSandbox   bool   `toml:"no_sandbox"`
	StartURL    string `toml:"start_url"`
}

type ScrapingConfig struct {
	Tweets       bool     `toml:"tweets"`
	TweetScrolls int      `toml:"tweet_scrolls"`
	Trends       bool     `toml:"trends"`
	Categories   []string `toml:"categories"`

	ElementTimeout Duration `toml:"element_timeout"`
	PromptTimeout  Duration `toml:"prompt_timeout"`
	PollInterval   Duration `toml:"poll_interval"`
	VerifyPause    Duration `toml:"verify_pause"`
	StepPause      Duration `toml:"step_pause"`
	ScrollPause    Duration `toml:"scroll_pause"`
}

type OutputConfig struct {
	Dir string `toml:"dir"`
}

type ScheduleConfig struct {
	// Cron re-runs the scrape in the same browser session; empty runs once.
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

// Duration is a time.Duration written as "5s" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Credentials: CredentialsConfig{
			Path: "user_details.txt",
		},
		Browser: BrowserConfig{
			Headless: true,
			StartURL: "https://x.com/?lang=en",
		},
		Scraping: ScrapingConfig{
			Tweets:         true,
			Trends:         true,
			Categories:     []string{"trending", "news", "sports", "entertainment"},
			ElementTimeout: Duration{15 * time.Second},
			PromptTimeout:  Duration{15 * time.Second},
			PollInterval:   Duration{250 * time.Millisecond},
			VerifyPause:    Duration{5 * time.Second},
			StepPause:      Duration{2 * time.Second},
			ScrollPause:    Duration{5 * time.Second},
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Schedule: ScheduleConfig{
			Timezone: "UTC",
		},
		Selectors: map[string]string{},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xscrape"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "xscrape"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. Keys missing from the file keep their
// default values. A missing file is returned unwrapped so os.IsNotExist works.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Selectors == nil {
		cfg.Selectors = map[string]string{}
	}
	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Environment variables that override the config file.
const (
	EnvCredentials = "XSCRAPE_CREDENTIALS"
	EnvUsername    = "XSCRAPE_USERNAME"
	EnvTOTPSecret  = "XSCRAPE_TOTP_SECRET"
	EnvOutputDir   = "XSCRAPE_OUTPUT_DIR"
	EnvHeadless    = "XSCRAPE_HEADLESS"
	EnvCron        = "XSCRAPE_CRON"
)

// ApplyEnv loads the given .env files (missing files are ignored, existing
// variables win) and applies XSCRAPE_* overrides to c.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvCredentials); v != "" {
		c.Credentials.Path = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		c.Credentials.Username = v
	}
	if v := os.Getenv(EnvTOTPSecret); v != "" {
		c.Credentials.TOTPSecret = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvCron); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Scraping.TweetScrolls < 0 {
		return fmt.Errorf("tweet_scrolls must not be negative")
	}
	if c.Scraping.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	if _, err := types.ParseCategories(c.Scraping.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return nil
}
