// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration for a single run.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Proxy      ProxyConfig      `mapstructure:"proxy" yaml:"proxy"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Run        RunConfig        `mapstructure:"run" yaml:"run"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig configures the Chrome instance and page-level waits.
type BrowserConfig struct {
	Headless   bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args       []string `mapstructure:"args" yaml:"args"`

	// NavigationTimeout bounds a single navigation including quiescence.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// QuietPeriod is how long the network must stay silent to count as idle.
	QuietPeriod time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	// VisibilityTimeout bounds every wait-for-visible before an interaction.
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" yaml:"visibility_timeout"`
}

// ProxyConfig holds an optional upstream proxy. Owned by the session for the
// whole run; never mutated after construction.
type ProxyConfig struct {
	Server   string `mapstructure:"server" yaml:"server"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// Enabled reports whether a proxy was configured at all.
func (p ProxyConfig) Enabled() bool { return p.Server != "" }

// SimulationConfig holds the human-behavior pacing ranges. Invalid ranges are
// rejected by Validate before the core starts.
type SimulationConfig struct {
	MinActionDelay time.Duration `mapstructure:"min_action_delay" yaml:"min_action_delay"`
	MaxActionDelay time.Duration `mapstructure:"max_action_delay" yaml:"max_action_delay"`
	MinTypingDelay time.Duration `mapstructure:"min_typing_delay" yaml:"min_typing_delay"`
	MaxTypingDelay time.Duration `mapstructure:"max_typing_delay" yaml:"max_typing_delay"`
}

// RunConfig holds per-run settings supplied on the command line or environment.
type RunConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	// NumProducts is the requested number of product interactions; zero means
	// the engine picks a random count.
	NumProducts   int    `mapstructure:"num_products" yaml:"num_products"`
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	SummaryFile   string `mapstructure:"summary_file" yaml:"summary_file"`
}

// SetDefaults registers every configuration default on the given viper
// instance. Flags and environment variables override these.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "humanflow")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "red")
	v.SetDefault("logger.colors.panic", "red")
	v.SetDefault("logger.colors.fatal", "red")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.quiet_period", 500*time.Millisecond)
	v.SetDefault("browser.visibility_timeout", 10*time.Second)

	v.SetDefault("simulation.min_action_delay", time.Second)
	v.SetDefault("simulation.max_action_delay", 3*time.Second)
	v.SetDefault("simulation.min_typing_delay", 100*time.Millisecond)
	v.SetDefault("simulation.max_typing_delay", 300*time.Millisecond)

	v.SetDefault("run.base_url", "https://www.saucedemo.com")
	v.SetDefault("run.screenshot_dir", ".")
}

// Load unmarshals the fully resolved viper state into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ConfigError describes an invalid configuration value. It is fatal and never
// retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate enforces the invariants the engine relies on. It must be called
// before any browser work starts.
func (c *Config) Validate() error {
	if c.Browser.NavigationTimeout <= 0 {
		return &ConfigError{Field: "browser.navigation_timeout", Reason: "must be positive"}
	}
	if c.Browser.QuietPeriod <= 0 {
		return &ConfigError{Field: "browser.quiet_period", Reason: "must be positive"}
	}
	if c.Browser.VisibilityTimeout <= 0 {
		return &ConfigError{Field: "browser.visibility_timeout", Reason: "must be positive"}
	}
	if c.Simulation.MinActionDelay <= 0 || c.Simulation.MaxActionDelay <= 0 {
		return &ConfigError{Field: "simulation.action_delay", Reason: "delays must be positive"}
	}
	if c.Simulation.MinActionDelay >= c.Simulation.MaxActionDelay {
		return &ConfigError{Field: "simulation.action_delay", Reason: "min must be less than max"}
	}
	if c.Simulation.MinTypingDelay <= 0 || c.Simulation.MaxTypingDelay <= 0 {
		return &ConfigError{Field: "simulation.typing_delay", Reason: "delays must be positive"}
	}
	if c.Simulation.MinTypingDelay >= c.Simulation.MaxTypingDelay {
		return &ConfigError{Field: "simulation.typing_delay", Reason: "min must be less than max"}
	}
	if c.Run.Username == "" || c.Run.Password == "" {
		return &ConfigError{Field: "run.credentials", Reason: "username and password are required"}
	}
	if c.Run.BaseURL == "" {
		return &ConfigError{Field: "run.base_url", Reason: "target URL is required"}
	}
	return nil
}
