package rabbitmq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
)

// DefaultURL is used when no broker address is configured.
const DefaultURL = "amqp://localhost"

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of one dial.
const DefaultDialTimeout = 5 * time.Second

// Channel is the part of *amqp.Channel the gateway relies on.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// Connection is a broker connection able to open channels.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// DialFunc opens a connection to the broker at url.
type DialFunc func(url string) (Connection, error)

// ConnectionManager owns one lazily opened connection and the single channel
// derived from it. A closed connection or channel is replaced on the next
// call to Channel.
type ConnectionManager struct {
	url         string
	dial        DialFunc
	dialTimeout time.Duration

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

// ConnectionOption configures the ConnectionManager
type ConnectionOption func(*ConnectionManager)

// WithDialer replaces the amqp091 dialer.
func WithDialer(dial DialFunc) ConnectionOption {
	return func(m *ConnectionManager) {
		m.dial = dial
	}
}

// WithDialTimeout bounds how long the amqp091 dialer may spend connecting.
// Channel holds the manager lock while dialing, so this is also the longest
// any caller waits on a broker that accepts TCP but never answers.
// Non-positive values keep DefaultDialTimeout.
func WithDialTimeout(timeout time.Duration) ConnectionOption {
	return func(m *ConnectionManager) {
		if timeout > 0 {
			m.dialTimeout = timeout
		}
	}
}

// NewConnectionManager creates a manager for the broker at url.
// Nothing is dialed until the first call to Channel.
func NewConnectionManager(url string, opts ...ConnectionOption) *ConnectionManager {
	if url == "" {
		url = DefaultURL
	}

	m := &ConnectionManager{
		url:         url,
		dialTimeout: DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dial == nil {
		m.dial = amqpDialer(m.dialTimeout)
	}

	return m
}

// Channel returns the shared channel, connecting first if needed.
func (m *ConnectionManager) Channel() (Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.healthy() {
		return m.ch, nil
	}
	m.discard()

	logger.Log.Infow("connecting to RabbitMQ", "url", SanitizeURL(m.url))

	conn, err := m.dial(m.url)
	if err != nil {
		logger.Log.Errorw("failed to connect to RabbitMQ", "url", SanitizeURL(m.url), "error", err)
		return nil, &ConnectionError{Op: "dial", URL: SanitizeURL(m.url), Err: err}
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Errorw("failed to open RabbitMQ channel", "url", SanitizeURL(m.url), "error", err)
		_ = conn.Close()
		return nil, &ConnectionError{Op: "open channel", URL: SanitizeURL(m.url), Err: err}
	}

	m.conn, m.ch = conn, ch
	logger.Log.Infow("RabbitMQ channel ready", "url", SanitizeURL(m.url))

	return ch, nil
}

// IsConnected reports whether a healthy channel is currently held.
func (m *ConnectionManager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy()
}

// Close closes the channel and then the connection. State is cleared even
// when closing fails.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var chErr, connErr error
	if m.ch != nil {
		chErr = m.ch.Close()
	}
	if m.conn != nil {
		connErr = m.conn.Close()
	}
	m.conn, m.ch = nil, nil

	if chErr != nil || connErr != nil {
		logger.Log.Errorw("failed to close RabbitMQ connection", "channel_error", chErr, "connection_error", connErr)
		return &ShutdownError{ChannelErr: chErr, ConnectionErr: connErr}
	}

	logger.Log.Infow("RabbitMQ connection closed", "url", SanitizeURL(m.url))
	return nil
}

func (m *ConnectionManager) healthy() bool {
	return m.conn != nil && m.ch != nil && !m.conn.IsClosed() && !m.ch.IsClosed()
}

// discard drops a stale connection before redialing.
func (m *ConnectionManager) discard() {
	if m.conn == nil {
		return
	}
	if !m.conn.IsClosed() {
		_ = m.conn.Close()
	}
	logger.Log.Warnw("discarding stale RabbitMQ connection", "url", SanitizeURL(m.url))
	m.conn, m.ch = nil, nil
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// amqpDialer dials with the same heartbeat and locale as amqp.Dial, but with
// a deadline on both the TCP connect and the handshake.
func amqpDialer(timeout time.Duration) DialFunc {
	return func(url string) (Connection, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
		if err != nil {
			return nil, err
		}
		return amqpConnection{conn}, nil
	}
}
