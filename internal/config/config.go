// Package config defines the application configuration and its viper
// bindings. Defaults are registered on the viper instance so that a missing
// config file still yields a usable setup.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Filter  FilterConfig  `mapstructure:"filter" yaml:"filter"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Advisor AdvisorConfig `mapstructure:"advisor" yaml:"advisor"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch"`
}

// LoggerConfig controls the zap logger and optional rotating file output.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // console | json
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	File        string `mapstructure:"file" yaml:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the headless Chrome instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`
	SettleWait        time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// FilterConfig controls request interception. The stylesheet budget exists
// because a page needs some styling to render overlays and buttons at their
// true sizes, but unbounded CSS is most of a page's weight.
type FilterConfig struct {
	BlockedHosts     []string `mapstructure:"blocked_hosts" yaml:"blocked_hosts"`
	BlockedTypes     []string `mapstructure:"blocked_types" yaml:"blocked_types"`
	StylesheetBudget int      `mapstructure:"stylesheet_budget" yaml:"stylesheet_budget"`
}

// AgentConfig bounds the observe/decide/act loop.
type AgentConfig struct {
	MaxScreenshots     int           `mapstructure:"max_screenshots" yaml:"max_screenshots"`
	MaxBlockerAttempts int           `mapstructure:"max_blocker_attempts" yaml:"max_blocker_attempts"`
	NavigationRetries  int           `mapstructure:"navigation_retries" yaml:"navigation_retries"`
	NavigationBackoff  time.Duration `mapstructure:"navigation_backoff" yaml:"navigation_backoff"`
	PostClickWait      time.Duration `mapstructure:"post_click_wait" yaml:"post_click_wait"`
}

// AdvisorConfig configures the vision-model fallback.
type AdvisorConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
}

// StorageConfig configures where screenshot buffers are handed off to.
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BatchConfig configures the multi-site runner.
type BatchConfig struct {
	SiteDelay   time.Duration `mapstructure:"site_delay" yaml:"site_delay"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Parallelism int           `mapstructure:"parallelism" yaml:"parallelism"`
}

// SetDefaults registers the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "voyant")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.selector_timeout", 5*time.Second)
	v.SetDefault("browser.settle_wait", 2*time.Second)

	v.SetDefault("filter.blocked_hosts", defaultBlockedHosts)
	v.SetDefault("filter.blocked_types", []string{"media", "font"})
	v.SetDefault("filter.stylesheet_budget", 2)

	v.SetDefault("agent.max_screenshots", 5)
	v.SetDefault("agent.max_blocker_attempts", 3)
	v.SetDefault("agent.navigation_retries", 3)
	v.SetDefault("agent.navigation_backoff", time.Second)
	v.SetDefault("agent.post_click_wait", 2*time.Second)

	v.SetDefault("advisor.provider", "gemini")
	// Registered so VOYANT_ADVISOR_API_KEY is visible to Unmarshal even
	// without a config file entry.
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.model", "gemini-2.0-flash")
	v.SetDefault("advisor.timeout", 30*time.Second)
	v.SetDefault("advisor.temperature", 0.2)

	v.SetDefault("storage.base_dir", "screenshots")

	v.SetDefault("batch.site_delay", 5*time.Second)
	v.SetDefault("batch.max_retries", 2)
	v.SetDefault("batch.retry_delay", 10*time.Second)
	v.SetDefault("batch.parallelism", 1)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the agent cannot run with.
func (c *Config) Validate() error {
	if c.Agent.MaxScreenshots <= 0 {
		return fmt.Errorf("agent.max_screenshots must be positive, got %d", c.Agent.MaxScreenshots)
	}
	if c.Agent.NavigationRetries <= 0 {
		return fmt.Errorf("agent.navigation_retries must be positive, got %d", c.Agent.NavigationRetries)
	}
	if c.Filter.StylesheetBudget < 0 {
		return fmt.Errorf("filter.stylesheet_budget must not be negative, got %d", c.Filter.StylesheetBudget)
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive, got %s", c.Browser.NavigationTimeout)
	}
	if c.Batch.Parallelism < 1 {
		return fmt.Errorf("batch.parallelism must be at least 1, got %d", c.Batch.Parallelism)
	}
	return nil
}

// defaultBlockedHosts is the ad/tracker substring list applied by the
// network filter. Substring match against the full request URL.
var defaultBlockedHosts = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googletagmanager.com",
	"google-analytics.com",
	"adservice.google",
	"facebook.net",
	"connect.facebook",
	"hotjar.com",
	"scorecardresearch.com",
	"amazon-adsystem.com",
	"adnxs.com",
	"taboola.com",
	"outbrain.com",
	"criteo.com",
	"quantserve.com",
}
