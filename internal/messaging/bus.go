package messaging

import (
	"github.com/taker1974/tk-service-nats/internal/config"
	"github.com/taker1974/tk-service-nats/internal/logging"
)

// MessageHandler is invoked for each inbound message. It runs on the bus
// client's own delivery goroutines; no ordering is guaranteed across subjects.
type MessageHandler func(subject string, data []byte)

// Subscription is a live subject registration that can be torn down.
type Subscription interface {
	Unsubscribe() error
}

// Conn is the capability surface the service needs from a bus client.
// Implementations may adapt NATS, Redis, or an in-memory fake.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler MessageHandler) (Subscription, error)
	IsConnected() bool
	Close() error
}

// Dialer opens a Conn using the supplied connection settings.
type Dialer func(cfg config.NATSConfig, logger logging.Logger) (Conn, error)
