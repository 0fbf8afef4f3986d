package messaging

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taker1974/tk-service-nats/internal/config"
)

// requireLocalNATS skips the test unless a NATS server answers on the default
// URL, so the suite stays green on machines without a broker.
func requireLocalNATS(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(500*time.Millisecond), nats.RetryOnFailedConnect(false))
	if err != nil {
		t.Skipf("no NATS server at %s: %v", nats.DefaultURL, err)
	}
	nc.Close()
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	requireLocalNATS(t)

	cfg := config.NATSConfig{
		Enabled: true,
		Servers: nats.DefaultURL,
		Connection: config.ConnectionConfig{
			Timeout:       2000,
			Reconnect:     true,
			MaxReconnects: 2,
		},
	}
	svc, err := NewService(cfg, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Connect())
	defer svc.Disconnect()

	received := make(chan string, 4)
	require.NoError(t, svc.Subscribe("orders", func(_ string, data []byte) {
		received <- string(data)
	}))
	require.NoError(t, svc.PublishString("orders", "payload"))

	select {
	case got := <-received:
		assert.Equal(t, "payload", got)
	case <-time.After(3 * time.Second):
		t.Fatal("message not delivered within timeout")
	}

	// Exactly once: nothing else should arrive.
	select {
	case extra := <-received:
		t.Fatalf("unexpected extra delivery: %q", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConnectUnreachableServer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := config.NATSConfig{
		Enabled: true,
		Servers: "nats://127.0.0.1:1", // nothing listens here
		Connection: config.ConnectionConfig{
			Timeout:       500,
			Reconnect:     false,
			MaxReconnects: 0,
		},
	}
	svc, err := NewService(cfg, nil, nil, nil)
	require.NoError(t, err)

	err = svc.Connect()
	require.Error(t, err)
	assert.False(t, svc.IsConnected())
	assert.ErrorIs(t, svc.Publish("orders", []byte("x")), ErrNotConnected)
}
