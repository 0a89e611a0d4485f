// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable that overrides a setting,
// e.g. BOXLAYOUT_VIEWPORT_WIDTH.
const EnvPrefix = "BOXLAYOUT"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Viewport() ViewportConfig
	Layout() LayoutConfig
	Render() RenderConfig
	Engine() EngineConfig

	// Viewport Setters
	SetViewportWidth(float64)
	SetViewportHeight(float64)

	// Render Setters
	SetRenderFormat(string)
}

// Config holds the application configuration, one section per concern.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	ViewportCfg ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	LayoutCfg   LayoutConfig   `mapstructure:"layout" yaml:"layout"`
	RenderCfg   RenderConfig   `mapstructure:"render" yaml:"render"`
	EngineCfg   EngineConfig   `mapstructure:"engine" yaml:"engine"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Viewport() ViewportConfig { return c.ViewportCfg }
func (c *Config) Layout() LayoutConfig     { return c.LayoutCfg }
func (c *Config) Render() RenderConfig     { return c.RenderCfg }
func (c *Config) Engine() EngineConfig     { return c.EngineCfg }

func (c *Config) SetViewportWidth(w float64)  { c.ViewportCfg.Width = w }
func (c *Config) SetViewportHeight(h float64) { c.ViewportCfg.Height = h }
func (c *Config) SetRenderFormat(f string)    { c.RenderCfg.Format = f }

// LoggerConfig holds all the configuration for the logger.
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

// ViewportConfig is the initial containing block and the metrics lengths
// resolve against. A zero font size or DPI takes the CSS defaults.
type ViewportConfig struct {
	Width           float64 `mapstructure:"width" yaml:"width"`
	Height          float64 `mapstructure:"height" yaml:"height"`
	DefaultFontSize float64 `mapstructure:"default_font_size" yaml:"default_font_size"`
	DPI             float64 `mapstructure:"dpi" yaml:"dpi"`
}

// LayoutConfig configures the cascade inputs and text measurement.
type LayoutConfig struct {
	// UserAgentStylesheet replaces the built-in user agent sheet when set.
	UserAgentStylesheet string `mapstructure:"user_agent_stylesheet" yaml:"user_agent_stylesheet"`
	// ResourceRoot is the directory images and url() references load from.
	ResourceRoot string `mapstructure:"resource_root" yaml:"resource_root"`
	// FontMetrics selects text measurement: "go" for the embedded Go fonts,
	// "fixed" for the font independent metric.
	FontMetrics string `mapstructure:"font_metrics" yaml:"font_metrics"`
	// FontFamily is prepended to the user agent sheet as the root family.
	FontFamily string `mapstructure:"font_family" yaml:"font_family"`
}

// RenderConfig configures the output of a run.
type RenderConfig struct {
	// Format is one of json, png or tree.
	Format string `mapstructure:"format" yaml:"format"`
	// Background is the CSS color the png canvas is cleared to.
	Background string `mapstructure:"background" yaml:"background"`
}

// EngineConfig configures how documents are scheduled.
type EngineConfig struct {
	// Concurrency bounds how many documents RenderAll lays out at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// Timeout bounds a single run; zero disables it.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Formats accepted by render.format.
var Formats = []string{"json", "png", "tree"}

// NewDefaultConfig creates a new configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "boxlayout")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Viewport --
	v.SetDefault("viewport.width", 800)
	v.SetDefault("viewport.height", 600)
	v.SetDefault("viewport.default_font_size", 16)
	v.SetDefault("viewport.dpi", 96)

	// -- Layout --
	v.SetDefault("layout.user_agent_stylesheet", "")
	v.SetDefault("layout.resource_root", ".")
	v.SetDefault("layout.font_metrics", "go")
	v.SetDefault("layout.font_family", "")

	// -- Render --
	v.SetDefault("render.format", "json")
	v.SetDefault("render.background", "white")

	// -- Engine --
	v.SetDefault("engine.concurrency", 4)
	v.SetDefault("engine.timeout", "30s")
}

// BindEnv makes every known key overridable from the environment, with the
// section separator mapped to an underscore.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// SearchPaths returns the directories config.yaml is looked up in, in order:
// the working directory, then ~/.boxlayout.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".boxlayout"))
	}
	return paths
}

// Load reads the configuration. An explicit file must exist; without one,
// config.yaml is searched for and its absence is not an error. Defaults and
// environment variables fill in everything else.
func Load(file string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		expanded, err := homedir.Expand(file)
		if err != nil {
			return nil, fmt.Errorf("resolving config path %q: %w", file, err)
		}
		v.SetConfigFile(expanded)
	} else {
		for _, p := range SearchPaths() {
			v.AddConfigPath(p)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return NewConfigFromViper(v)
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.ViewportCfg.Width <= 0 || c.ViewportCfg.Height <= 0 {
		return fmt.Errorf("viewport.width and viewport.height must be positive")
	}
	if c.ViewportCfg.DefaultFontSize < 0 {
		return fmt.Errorf("viewport.default_font_size must not be negative")
	}
	if c.ViewportCfg.DPI < 0 {
		return fmt.Errorf("viewport.dpi must not be negative")
	}
	if err := c.RenderCfg.Validate(); err != nil {
		return fmt.Errorf("render configuration invalid: %w", err)
	}
	switch c.LayoutCfg.FontMetrics {
	case "go", "fixed":
	default:
		return fmt.Errorf("layout.font_metrics must be go or fixed, got %q", c.LayoutCfg.FontMetrics)
	}
	if c.EngineCfg.Concurrency <= 0 {
		return fmt.Errorf("engine.concurrency must be a positive integer")
	}
	if c.EngineCfg.Timeout < 0 {
		return fmt.Errorf("engine.timeout must not be negative")
	}
	return nil
}

// Validate checks the render configuration.
func (r *RenderConfig) Validate() error {
	for _, f := range Formats {
		if r.Format == f {
			return nil
		}
	}
	return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), r.Format)
}
