package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultServers is used when nats.servers is not configured.
const DefaultServers = "nats://localhost:4222"

// ConnectionConfig controls how the single NATS session is established.
type ConnectionConfig struct {
	// Timeout for the initial connect, in milliseconds.
	Timeout int `mapstructure:"timeout"`
	// Reconnect enables the client's automatic reconnection.
	Reconnect bool `mapstructure:"reconnect"`
	// MaxReconnects caps reconnect attempts; -1 means unlimited.
	MaxReconnects int `mapstructure:"max_reconnects"`
}

func (c ConnectionConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// EffectiveMaxReconnects folds the reconnect flag into the attempt cap:
// reconnection disabled means zero attempts no matter what the cap says.
func (c ConnectionConfig) EffectiveMaxReconnects() int {
	if !c.Reconnect {
		return 0
	}
	return c.MaxReconnects
}

type NATSConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Servers is a comma-separated list of endpoint URIs.
	Servers    string           `mapstructure:"servers"`
	Connection ConnectionConfig `mapstructure:"connection"`
	// Optional inbound duplicate suppression; disabled while dedupe_max is 0.
	DedupeTTLSeconds int `mapstructure:"dedupe_ttl_seconds"`
	DedupeMax        int `mapstructure:"dedupe_max"`
}

// ServerList splits the comma-separated servers option, dropping blanks.
func (c NATSConfig) ServerList() []string {
	var out []string
	for _, s := range strings.Split(c.Servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c NATSConfig) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"` // e.g., 0.0.0.0:9095
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

type BridgeConfig struct {
	NATS    NATSConfig    `mapstructure:"nats"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.servers", DefaultServers)
	v.SetDefault("nats.connection.timeout", 5000)
	v.SetDefault("nats.connection.reconnect", true)
	v.SetDefault("nats.connection.max_reconnects", -1)
	v.SetDefault("nats.dedupe_ttl_seconds", 60)
	v.SetDefault("nats.dedupe_max", 0)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9095")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads the bridge configuration from a YAML file, with environment
// variables taking precedence over file values.
func Load(path string) (*BridgeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg BridgeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	validator := NewConfigValidator()
	if err := validator.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
