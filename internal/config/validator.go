package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/taker1974/tk-service-nats/internal/logging"
)

// ConfigValidator collects all configuration problems before reporting,
// so a bad file surfaces every mistake at once instead of one per run.
type ConfigValidator struct {
	errors   []string
	warnings []string
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		errors:   []string{},
		warnings: []string{},
	}
}

func (v *ConfigValidator) addError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *ConfigValidator) addWarning(format string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// Validate checks the bridge configuration. Warnings are logged; errors are
// joined into a single returned error.
func (v *ConfigValidator) Validate(cfg *BridgeConfig) error {
	v.validateNATS(&cfg.NATS)
	v.validateMetrics(&cfg.Metrics)

	for _, w := range v.warnings {
		logging.L().Warnf("config: %s", w)
	}
	if len(v.errors) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(v.errors, "; "))
	}
	return nil
}

func (v *ConfigValidator) validateNATS(cfg *NATSConfig) {
	servers := cfg.ServerList()
	if len(servers) == 0 {
		v.addError("nats.servers must contain at least one endpoint")
	}
	for _, s := range servers {
		u, err := url.Parse(s)
		if err != nil {
			v.addError("nats.servers entry %q is not a valid URI: %v", s, err)
			continue
		}
		switch u.Scheme {
		case "nats", "tls", "ws", "wss":
		default:
			v.addError("nats.servers entry %q has unsupported scheme %q", s, u.Scheme)
		}
		if u.Host == "" {
			v.addError("nats.servers entry %q has no host", s)
		}
	}

	if cfg.Connection.Timeout <= 0 {
		v.addError("nats.connection.timeout must be a positive number of milliseconds, got %d", cfg.Connection.Timeout)
	}
	if cfg.Connection.MaxReconnects < -1 {
		v.addError("nats.connection.max_reconnects must be >= -1, got %d", cfg.Connection.MaxReconnects)
	}
	if cfg.Connection.Reconnect && cfg.Connection.MaxReconnects == 0 {
		v.addWarning("nats.connection.reconnect is enabled but max_reconnects is 0; reconnection is effectively off")
	}

	if cfg.DedupeMax < 0 {
		v.addError("nats.dedupe_max must be >= 0, got %d", cfg.DedupeMax)
	}
	if cfg.DedupeMax > 0 && cfg.DedupeTTLSeconds <= 0 {
		v.addError("nats.dedupe_ttl_seconds must be positive when dedupe is enabled, got %d", cfg.DedupeTTLSeconds)
	}
}

func (v *ConfigValidator) validateMetrics(cfg *MetricsConfig) {
	if cfg.Enabled && strings.TrimSpace(cfg.ListenAddr) == "" {
		v.addError("metrics.listen_addr must be set when metrics are enabled")
	}
}
