package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielpatrickdp/regioncheck/internal/history"
	"github.com/danielpatrickdp/regioncheck/internal/render"
	"github.com/danielpatrickdp/regioncheck/internal/validate"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// #region config
// Config holds all service configuration. It is loaded from an optional YAML
// file and can be overridden by REGIONCHECK_* environment variables,
// e.g. REGIONCHECK_SERVER_HTTP_ADDR.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Render     RenderConfig     `mapstructure:"render" yaml:"render"`
}

// ServerConfig configures the HTTP and gRPC listeners.
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr" yaml:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr" yaml:"grpc_addr"` // empty disables gRPC
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// ValidationConfig bounds raw input. See validate.Config.
type ValidationConfig struct {
	XMin     float64   `mapstructure:"x_min" yaml:"x_min"`
	XMax     float64   `mapstructure:"x_max" yaml:"x_max"`
	YMin     float64   `mapstructure:"y_min" yaml:"y_min"`
	YMax     float64   `mapstructure:"y_max" yaml:"y_max"`
	RMax     float64   `mapstructure:"r_max" yaml:"r_max"`
	AllowedR []float64 `mapstructure:"allowed_r" yaml:"allowed_r"`
}

// HistoryConfig configures the per-client evaluation log.
type HistoryConfig struct {
	DBPath       string `mapstructure:"db_path" yaml:"db_path"`
	MaxPerClient int    `mapstructure:"max_per_client" yaml:"max_per_client"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json or console
}

// RenderConfig configures the region image.
type RenderConfig struct {
	Size      int    `mapstructure:"size" yaml:"size"`
	Fill      string `mapstructure:"fill" yaml:"fill"`
	Axis      string `mapstructure:"axis" yaml:"axis"`
	Highlight string `mapstructure:"highlight" yaml:"highlight"`
}

// #endregion config

// #region defaults

// Default returns the configuration used when no file or env override is present.
func Default() *Config {
	v := validate.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        "",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		Validation: ValidationConfig{
			XMin:     v.XMin,
			XMax:     v.XMax,
			YMin:     v.YMin,
			YMax:     v.YMax,
			RMax:     v.RMax,
			AllowedR: v.AllowedR,
		},
		History: HistoryConfig{
			DBPath:       "regioncheck.db",
			MaxPerClient: history.DefaultMaxPerClient,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Render: RenderConfig{
			Size:      400,
			Fill:      "#AAB99A",
			Axis:      "#6F826A",
			Highlight: "#D9534F",
		},
	}
}

// ValidatorConfig converts the validation section for the validate package.
func (c ValidationConfig) ValidatorConfig() validate.Config {
	return validate.Config{
		XMin:     c.XMin,
		XMax:     c.XMax,
		YMin:     c.YMin,
		YMax:     c.YMax,
		RMax:     c.RMax,
		AllowedR: append([]float64(nil), c.AllowedR...),
	}
}

// RenderOptions converts the render section for the render package.
func (c RenderConfig) RenderOptions() render.Options {
	return render.Options{Size: c.Size, Fill: c.Fill, Axis: c.Axis, Highlight: c.Highlight}
}

// #endregion defaults

// #region load

// Load reads configuration from path (if non-empty and present) and merges
// environment overrides on top of Default().
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("REGIONCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		path = expandPath(path)
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.History.DBPath = expandPath(cfg.History.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.Validation.XMin > c.Validation.XMax {
		return fmt.Errorf("config: validation.x_min %g exceeds x_max %g", c.Validation.XMin, c.Validation.XMax)
	}
	if c.Validation.YMin > c.Validation.YMax {
		return fmt.Errorf("config: validation.y_min %g exceeds y_max %g", c.Validation.YMin, c.Validation.YMax)
	}
	for _, r := range c.Validation.AllowedR {
		if r <= 0 {
			return fmt.Errorf("config: validation.allowed_r contains non-positive %g", r)
		}
		if c.Validation.RMax > 0 && r > c.Validation.RMax {
			return fmt.Errorf("config: validation.allowed_r value %g exceeds r_max %g", r, c.Validation.RMax)
		}
	}
	if c.Render.Size <= 0 {
		return fmt.Errorf("config: render.size must be positive, got %d", c.Render.Size)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.http_addr", d.Server.HTTPAddr)
	v.SetDefault("server.grpc_addr", d.Server.GRPCAddr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("validation.x_min", d.Validation.XMin)
	v.SetDefault("validation.x_max", d.Validation.XMax)
	v.SetDefault("validation.y_min", d.Validation.YMin)
	v.SetDefault("validation.y_max", d.Validation.YMax)
	v.SetDefault("validation.r_max", d.Validation.RMax)
	v.SetDefault("validation.allowed_r", d.Validation.AllowedR)
	v.SetDefault("history.db_path", d.History.DBPath)
	v.SetDefault("history.max_per_client", d.History.MaxPerClient)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("render.size", d.Render.Size)
	v.SetDefault("render.fill", d.Render.Fill)
	v.SetDefault("render.axis", d.Render.Axis)
	v.SetDefault("render.highlight", d.Render.Highlight)
}

// #endregion load

// #region write

// WriteFile serialises cfg as YAML to path, creating parent directories.
func WriteFile(path string, cfg *Config) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// #endregion write
