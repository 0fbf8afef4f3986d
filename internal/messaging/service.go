package messaging

import (
	"errors"
	"fmt"
	"sync"

	"github.com/taker1974/tk-service-nats/internal/config"
	"github.com/taker1974/tk-service-nats/internal/logging"
	"github.com/taker1974/tk-service-nats/internal/metrics"
)

// ErrNotConnected is returned by Publish and Subscribe while no session is
// established. Callers that ignore it get log-only reporting.
var ErrNotConnected = errors.New("messaging: not connected")

// Service owns a single bus session and a per-subject subscription registry.
//
// Connect and Disconnect hold the write lock, Publish and Subscribe the read
// lock: structural changes to the session see a quiesced service, while
// steady-state traffic runs concurrently. While Connect is dialing, Publish
// and Subscribe block on the lock for up to the connect timeout.
type Service struct {
	cfg     config.NATSConfig
	dial    Dialer
	logger  logging.Logger
	metrics metrics.Provider
	dedupe  *Deduper

	mu   sync.RWMutex
	conn Conn

	// dmu guards the registry map itself; entries are created under the read
	// lock, so the map needs its own short-lived lock for get-or-create.
	dmu         sync.Mutex
	dispatchers map[string]Subscription
}

// NewService builds a service around cfg. A nil dialer means NATS, a nil
// logger means the default logger, a nil provider means no metrics.
func NewService(cfg config.NATSConfig, dial Dialer, logger logging.Logger, mp metrics.Provider) (*Service, error) {
	if dial == nil {
		dial = DialNATS
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if mp == nil {
		mp = metrics.Noop{}
	}

	var dedupe *Deduper
	if cfg.DedupeMax > 0 {
		var err error
		dedupe, err = NewDeduper(cfg.DedupeMax, cfg.DedupeTTL())
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		cfg:         cfg,
		dial:        dial,
		logger:      logger,
		metrics:     mp,
		dedupe:      dedupe,
		dispatchers: make(map[string]Subscription),
	}, nil
}

// Connect establishes the bus session. Calling it while already connected is
// a no-op. A dial failure is propagated and leaves the service disconnected;
// the caller decides whether startup survives it.
func (s *Service) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.logger.Debug("already connected", "servers", s.cfg.Servers)
		return nil
	}

	s.logger.Info("connecting", "servers", s.cfg.Servers)
	conn, err := s.dial(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", s.cfg.Servers, err)
	}
	s.conn = conn
	s.metrics.SetGauge("bus_connection_up", 1)
	s.logger.Info("connected", "servers", s.cfg.Servers)
	return nil
}

// Disconnect tears down every subscription and the session. It is a no-op
// when not connected. Teardown is best-effort all the way down: unsubscribe
// and close failures are logged per subject and swallowed, and afterwards the
// registry is empty and the session handle is gone regardless.
func (s *Service) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}

	s.dmu.Lock()
	for subject, sub := range s.dispatchers {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Error("failed to unsubscribe", "subject", subject, "error", err)
		}
	}
	s.dispatchers = make(map[string]Subscription)
	s.dmu.Unlock()

	if err := s.conn.Close(); err != nil {
		s.logger.Error("error closing connection", "error", err)
	}
	s.conn = nil
	s.metrics.SetGauge("bus_connection_up", 0)
	s.metrics.SetGauge("bus_subscriptions_active", 0)
	s.logger.Info("disconnected")
}

// Publish sends an opaque payload under subject. It never panics: while
// disconnected it returns ErrNotConnected, and a client-side failure comes
// back wrapped. Both cases are also logged.
func (s *Service) Publish(subject string, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil {
		s.logger.Error("cannot publish: not connected", "subject", subject)
		s.metrics.IncCounter("bus_publish_failed_total", 1)
		return ErrNotConnected
	}

	if err := s.conn.Publish(subject, data); err != nil {
		s.logger.Error("failed to publish", "subject", subject, "error", err)
		s.metrics.IncCounter("bus_publish_failed_total", 1)
		return fmt.Errorf("publish to %q: %w", subject, err)
	}

	s.metrics.IncCounter("bus_published_total", 1)
	s.logger.Debug("published", "subject", subject, "bytes", len(data))
	return nil
}

// PublishString publishes a text message encoded as UTF-8 bytes.
func (s *Service) PublishString(subject, message string) error {
	return s.Publish(subject, []byte(message))
}

// Subscribe registers handler for subject. One subscription exists per
// subject: the first registration wins, and a later call for the same subject
// keeps the original handler no matter what is passed. The only teardown path
// is Disconnect.
func (s *Service) Subscribe(subject string, handler MessageHandler) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conn == nil {
		s.logger.Error("cannot subscribe: not connected", "subject", subject)
		return ErrNotConnected
	}

	s.dmu.Lock()
	defer s.dmu.Unlock()

	if _, ok := s.dispatchers[subject]; ok {
		s.logger.Debug("subject already subscribed, keeping original handler", "subject", subject)
		return nil
	}

	sub, err := s.conn.Subscribe(subject, s.wrapHandler(handler))
	if err != nil {
		s.logger.Error("failed to subscribe", "subject", subject, "error", err)
		return fmt.Errorf("subscribe to %q: %w", subject, err)
	}
	s.dispatchers[subject] = sub
	s.metrics.SetGauge("bus_subscriptions_active", float64(len(s.dispatchers)))
	s.logger.Info("subscribed", "subject", subject)
	return nil
}

func (s *Service) wrapHandler(handler MessageHandler) MessageHandler {
	return func(subject string, data []byte) {
		if s.dedupe != nil && s.dedupe.Seen(subject, data) {
			s.metrics.IncCounter("bus_duplicates_dropped_total", 1)
			s.logger.Debug("dropped duplicate", "subject", subject)
			return
		}
		s.metrics.IncCounter("bus_delivered_total", 1)
		handler(subject, data)
	}
}

// IsConnected reports whether a live session exists.
func (s *Service) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil && s.conn.IsConnected()
}
