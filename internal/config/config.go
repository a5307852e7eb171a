// Package config provides configuration for the fim-agent and fim-query
// binaries. Both read the same file so the query service always serves the
// log the agent writes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Monitor   MonitorConfig   `mapstructure:"monitor" yaml:"monitor"`
	Labels    LabelsConfig    `mapstructure:"labels" yaml:"labels"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Bus       BusConfig       `mapstructure:"bus" yaml:"bus"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// MonitorConfig holds the poll loop and chain log settings.
type MonitorConfig struct {
	RootDirectory string        `mapstructure:"root_directory" yaml:"root_directory"`
	BaselinePath  string        `mapstructure:"baseline_path" yaml:"baseline_path"`
	LogPath       string        `mapstructure:"log_path" yaml:"log_path"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ExcludeHidden bool          `mapstructure:"exclude_hidden" yaml:"exclude_hidden"`
	// ChainRecovery controls startup behavior on a corrupt log tail:
	// "reset" seeds the chain from empty, "fail" refuses to start.
	ChainRecovery string `mapstructure:"chain_recovery" yaml:"chain_recovery"`
}

// LabelsConfig holds the host/site labels stamped onto every event.
type LabelsConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Site string `mapstructure:"site" yaml:"site"`
}

// CollectorConfig holds remote delivery settings.
type CollectorConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	IngestPath   string        `mapstructure:"ingest_path" yaml:"ingest_path"`
	BatchSize    int           `mapstructure:"batch_size" yaml:"batch_size"`
	SendInterval time.Duration `mapstructure:"send_interval" yaml:"send_interval"`
	MaxQueueSize int           `mapstructure:"max_queue_size" yaml:"max_queue_size"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// BusConfig holds the optional NATS event mirror settings.
type BusConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// ServerConfig holds the query service listener and the agent's
// health/metrics listener.
type ServerConfig struct {
	QueryPort    int           `mapstructure:"query_port" yaml:"query_port"`
	MetricsAddr  string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from the given file (or ./fim.yaml and
// /etc/telhawk/fim by default), with FIM_-prefixed environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/fim")
	}

	v.SetEnvPrefix("FIM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Labels.Host == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		cfg.Labels.Host = hostname
	}

	return &cfg, nil
}

// Default returns the built-in defaults, host label resolved.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)

	if cfg.Labels.Host == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "localhost"
		}
		cfg.Labels.Host = hostname
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.root_directory", "")
	v.SetDefault("monitor.baseline_path", "baseline.json")
	v.SetDefault("monitor.log_path", "events.log")
	v.SetDefault("monitor.poll_interval", "2s")
	v.SetDefault("monitor.exclude_hidden", true)
	v.SetDefault("monitor.chain_recovery", "reset")
	v.SetDefault("labels.site", "production")
	v.SetDefault("collector.enabled", false)
	v.SetDefault("collector.base_url", "http://localhost:3000")
	v.SetDefault("collector.ingest_path", "/api/agent/events")
	v.SetDefault("collector.batch_size", 50)
	v.SetDefault("collector.send_interval", "5s")
	v.SetDefault("collector.max_queue_size", 10000)
	v.SetDefault("collector.timeout", "10s")
	v.SetDefault("bus.enabled", false)
	v.SetDefault("bus.url", "nats://localhost:4222")
	v.SetDefault("bus.subject", "fim.events.detected")
	v.SetDefault("server.query_port", 8000)
	v.SetDefault("server.metrics_addr", "127.0.0.1:9102")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// ValidateAgent checks the fields the agent cannot run without. Config
// errors are fatal at startup, before any loop starts.
func (c *Config) ValidateAgent() error {
	if c.Monitor.RootDirectory == "" {
		return fmt.Errorf("monitor.root_directory is required")
	}
	if c.Monitor.BaselinePath == "" {
		return fmt.Errorf("monitor.baseline_path is required")
	}
	if c.Monitor.LogPath == "" {
		return fmt.Errorf("monitor.log_path is required")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	switch c.Monitor.ChainRecovery {
	case "reset", "fail":
	default:
		return fmt.Errorf("monitor.chain_recovery must be %q or %q, got %q", "reset", "fail", c.Monitor.ChainRecovery)
	}
	if c.Collector.Enabled {
		if c.Collector.BaseURL == "" {
			return fmt.Errorf("collector.base_url is required when collector.enabled")
		}
		if c.Collector.BatchSize < 1 {
			return fmt.Errorf("collector.batch_size must be at least 1")
		}
		if c.Collector.MaxQueueSize < 1 {
			return fmt.Errorf("collector.max_queue_size must be at least 1")
		}
	}
	if c.Bus.Enabled {
		if c.Bus.URL == "" {
			return fmt.Errorf("bus.url is required when bus.enabled")
		}
		if c.Bus.Subject == "" {
			return fmt.Errorf("bus.subject is required when bus.enabled")
		}
	}
	return nil
}

// ValidateQuery checks the fields the query service cannot run without.
func (c *Config) ValidateQuery() error {
	if c.Monitor.LogPath == "" {
		return fmt.Errorf("monitor.log_path is required")
	}
	if c.Server.QueryPort < 1 || c.Server.QueryPort > 65535 {
		return fmt.Errorf("server.query_port must be a valid port, got %d", c.Server.QueryPort)
	}
	return nil
}
