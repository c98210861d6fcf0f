package rabbitmq

import (
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
)

// pendingCall is an outstanding request waiting for its reply.
type pendingCall struct {
	correlationID string
	result        chan []byte
	deadline      time.Time
}

// Multiplexer fans replies arriving on one exclusive reply queue out to the
// calls waiting for them, keyed by correlation id.
//
// Whoever removes a pending call first owns it: a reply that finds the entry
// gone is dropped, and a cancel that finds it gone returns false.
type Multiplexer struct {
	queueMu sync.Mutex
	ch      Channel
	queue   string

	mu      sync.Mutex
	pending map[string]*pendingCall
}

// NewMultiplexer creates an empty multiplexer.
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{
		pending: make(map[string]*pendingCall),
	}
}

// ReplyQueue returns the reply queue bound to ch, declaring it and starting
// its consumer the first time ch is seen.
func (m *Multiplexer) ReplyQueue(ch Channel) (string, error) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if m.ch == ch && m.queue != "" {
		return m.queue, nil
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return "", err
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // autoAck
		true,  // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return "", err
	}

	m.ch, m.queue = ch, q.Name
	logger.Log.Infow("reply queue declared", "queue", q.Name)

	go m.consume(q.Name, deliveries)

	return q.Name, nil
}

// Register adds a pending call and returns the slot its reply is delivered to.
func (m *Multiplexer) Register(correlationID string, deadline time.Time) (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[correlationID]; exists {
		return nil, ErrDuplicateCorrelationID
	}

	call := &pendingCall{
		correlationID: correlationID,
		result:        make(chan []byte, 1),
		deadline:      deadline,
	}
	m.pending[correlationID] = call

	return call.result, nil
}

// Cancel removes a pending call. It returns false when the call was already
// resolved or cancelled.
func (m *Multiplexer) Cancel(correlationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[correlationID]; !exists {
		return false
	}
	delete(m.pending, correlationID)
	return true
}

// Pending returns the number of outstanding calls.
func (m *Multiplexer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// resolve delivers body to the pending call with correlationID.
func (m *Multiplexer) resolve(correlationID string, body []byte) bool {
	m.mu.Lock()
	call, exists := m.pending[correlationID]
	if exists {
		delete(m.pending, correlationID)
	}
	m.mu.Unlock()

	if !exists {
		return false
	}
	if time.Now().After(call.deadline) {
		logger.Log.Debugw("reply arrived after deadline", "correlationId", correlationID)
	}

	// result has capacity 1 and only the remover writes to it.
	call.result <- body
	return true
}

// consume dispatches deliveries until the channel carrying them closes.
func (m *Multiplexer) consume(queue string, deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		if d.CorrelationId == "" {
			logger.Log.Warnw("dropping reply without correlation id", "queue", queue)
			continue
		}
		if !m.resolve(d.CorrelationId, d.Body) {
			logger.Log.Warnw("dropping reply with no pending call",
				"queue", queue,
				"correlationId", d.CorrelationId,
			)
		}
	}

	logger.Log.Infow("reply consumer stopped", "queue", queue)
}
