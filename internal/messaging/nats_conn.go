package messaging

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/taker1974/tk-service-nats/internal/config"
	"github.com/taker1974/tk-service-nats/internal/logging"
)

// reconnectWait is fixed; only the attempt cap comes from configuration.
const reconnectWait = 1 * time.Second

type natsConn struct {
	nc *nats.Conn
}

// DialNATS opens a NATS connection from the bridge configuration. It is the
// default Dialer used by the service.
func DialNATS(cfg config.NATSConfig, logger logging.Logger) (Conn, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	servers := strings.Join(cfg.ServerList(), ",")
	opts := []nats.Option{
		nats.Name(fmt.Sprintf("tk-service-nats-%s", uuid.NewString()[:8])),
		nats.Timeout(cfg.Connection.ConnectTimeout()),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(cfg.Connection.EffectiveMaxReconnects()),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS error", "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "server", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &natsConn{nc: nc}, nil
}

func (c *natsConn) Publish(subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

func (c *natsConn) Subscribe(subject string, handler MessageHandler) (Subscription, error) {
	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) {
		handler(m.Subject, m.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *natsConn) IsConnected() bool { return c.nc.IsConnected() }

// Close flushes pending messages before closing so late publishes are not
// silently lost on shutdown. The flush error is reported, the close happens
// regardless.
func (c *natsConn) Close() error {
	err := c.nc.FlushTimeout(2 * time.Second)
	c.nc.Close()
	return err
}
