package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Version is the application version, overridden at build time via ldflags:
//
//	go build -ldflags "-X 'github.com/codelaunch/codelaunch/internal/config.Version=x.y.z'"
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	History  HistoryConfig  `mapstructure:"history"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Ignore   IgnoreConfig   `mapstructure:"ignore"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Instance InstanceConfig `mapstructure:"instance"`
	Launcher LauncherConfig `mapstructure:"launcher"`
}

// ServerConfig holds the loopback HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// HistoryConfig points at the editor's recent-workspace store.
// Path, when set, wins over the per-OS default locations.
type HistoryConfig struct {
	Path       string   `mapstructure:"path"`
	ExtraPaths []string `mapstructure:"extra_paths"`
}

// CacheConfig holds the on-disk entry cache location.
type CacheConfig struct {
	Path string `mapstructure:"path"`
}

// IgnoreConfig holds the persisted ignore-set location.
type IgnoreConfig struct {
	Path string `mapstructure:"path"`
}

// ScanConfig controls background rescans.
type ScanConfig struct {
	Cron       string `mapstructure:"cron"`
	DebounceMS int    `mapstructure:"debounce_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// InstanceConfig holds single-instance endpoint locations.
type InstanceConfig struct {
	Socket  string `mapstructure:"socket"`
	PidFile string `mapstructure:"pid_file"`
}

// LauncherConfig overrides editor executable discovery.
type LauncherConfig struct {
	Command string `mapstructure:"command"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	dataDir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	setDefaults(v, dataDir)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(dataDir)
		v.AddConfigPath("$HOME/.codelaunch")
	}

	v.SetEnvPrefix("CODELAUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8317)

	v.SetDefault("history.path", "")
	v.SetDefault("history.extra_paths", []string{})

	v.SetDefault("cache.path", filepath.Join(dataDir, "projects.json"))
	v.SetDefault("ignore.path", filepath.Join(dataDir, "ignore.json"))

	v.SetDefault("scan.cron", "*/5 * * * *")
	v.SetDefault("scan.debounce_ms", 500)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", filepath.Join(dataDir, "logs"))
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.buffer_size", 1000)

	v.SetDefault("instance.socket", filepath.Join(dataDir, "codelaunch.sock"))
	v.SetDefault("instance.pid_file", filepath.Join(dataDir, "codelaunch.pid"))

	v.SetDefault("launcher.command", "")
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HistoryPaths returns the candidate history store locations in probe order.
func (c *HistoryConfig) HistoryPaths() []string {
	if c.Path != "" {
		return append([]string{c.Path}, c.ExtraPaths...)
	}
	return append(DefaultHistoryPaths(), c.ExtraPaths...)
}

// FindAvailablePort probes loopback ports starting at start and returns the
// first one that can be bound. At most attempts ports are tried.
func FindAvailablePort(start, attempts int) (int, error) {
	for port := start; port < start+attempts; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, start+attempts-1)
}
