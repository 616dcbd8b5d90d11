// Package config provides application configuration management.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/target"
)

// EnvPrefix prefixes every environment override, e.g. LAUNCHPAD_LOG_LEVEL.
const EnvPrefix = "LAUNCHPAD"

const defaultDirName = ".launchpad"

// Config holds all application configuration.
type Config struct {
	DataDir string
	Network NetworkConfig
	Launch  LaunchConfig
	Health  HealthConfig
	Serve   ServeConfig
	MCP     MCPConfig
	Log     LogConfig
}

// NetworkConfig holds address resolution settings.
type NetworkConfig struct {
	DefaultProfile network.Profile
}

// LaunchConfig holds launch defaults. None of these are changed by a launch.
type LaunchConfig struct {
	Terminal  string
	Terminals []string
	Browser   target.Browser
	AutoRoute bool
}

// HealthConfig holds reachability probe settings.
type HealthConfig struct {
	Timeout time.Duration
	Ports   map[string]int
}

// ServeConfig holds local HTTP API settings.
type ServeConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	PolicyFile string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultDataDir returns ~/.launchpad, or .launchpad when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// SetDefaults configures default values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())

	v.SetDefault("network.default_profile", string(network.ProfileLocal))

	v.SetDefault("launch.terminal", "")
	v.SetDefault("launch.terminals", []string{})
	v.SetDefault("launch.browser", "")
	v.SetDefault("launch.auto_route", false)

	v.SetDefault("health.timeout", 1500*time.Millisecond)

	v.SetDefault("serve.addr", "127.0.0.1:7450")
	v.SetDefault("serve.read_timeout", 15*time.Second)
	v.SetDefault("serve.write_timeout", 15*time.Second)
	v.SetDefault("serve.idle_timeout", 60*time.Second)
	v.SetDefault("serve.request_timeout", 30*time.Second)
	v.SetDefault("serve.max_request_body_size", 1*1024*1024) // 1MB

	v.SetDefault("mcp.policy_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from v, which may already hold a config file and
// bound flags. Environment variables override both.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	profile, err := network.ParseProfile(v.GetString("network.default_profile"))
	if err != nil {
		return nil, fmt.Errorf("network.default_profile: %w", err)
	}
	browser, err := target.ParseBrowser(v.GetString("launch.browser"))
	if err != nil {
		return nil, fmt.Errorf("launch.browser: %w", err)
	}

	var ports map[string]int
	if err := v.UnmarshalKey("health.ports", &ports); err != nil {
		return nil, fmt.Errorf("health.ports: %w", err)
	}

	cfg := &Config{
		DataDir: expandHome(v.GetString("data_dir")),
		Network: NetworkConfig{DefaultProfile: profile},
		Launch: LaunchConfig{
			Terminal:  strings.TrimSpace(v.GetString("launch.terminal")),
			Terminals: v.GetStringSlice("launch.terminals"),
			Browser:   browser,
			AutoRoute: v.GetBool("launch.auto_route"),
		},
		Health: HealthConfig{
			Timeout: v.GetDuration("health.timeout"),
			Ports:   ports,
		},
		Serve: ServeConfig{
			Addr:               v.GetString("serve.addr"),
			ReadTimeout:        v.GetDuration("serve.read_timeout"),
			WriteTimeout:       v.GetDuration("serve.write_timeout"),
			IdleTimeout:        v.GetDuration("serve.idle_timeout"),
			RequestTimeout:     v.GetDuration("serve.request_timeout"),
			MaxRequestBodySize: v.GetInt64("serve.max_request_body_size"),
		},
		MCP: MCPConfig{
			PolicyFile: expandHome(v.GetString("mcp.policy_file")),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Health.Timeout <= 0 {
		return fmt.Errorf("health.timeout must be positive")
	}
	for proto, port := range c.Health.Ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("health.ports.%s: port %d out of range", proto, port)
		}
	}

	host, _, err := net.SplitHostPort(c.Serve.Addr)
	if err != nil {
		return fmt.Errorf("serve.addr: %w", err)
	}
	if !isLoopback(host) {
		return fmt.Errorf("serve.addr: %q is not a loopback address; the API must not be exposed to the network", c.Serve.Addr)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// DBPath returns the bbolt database path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "launchpad.db")
}

// SlogLevel maps Log.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
