package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sbilibin2017/gw-transactions/internal/logger"
)

// DefaultTimeout applies to calls made without an explicit timeout.
const DefaultTimeout = 10 * time.Second

const contentTypeJSON = "application/json"

// ChannelProvider hands out the channel calls are made on.
type ChannelProvider interface {
	Channel() (Channel, error)
}

// Client publishes messages and performs request/reply calls over a single
// shared channel.
type Client struct {
	conns          ChannelProvider
	mux            *Multiplexer
	validate       *validator.Validate
	defaultTimeout time.Duration
	newID          func() string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithDefaultTimeout sets the timeout used when Call gets a non-positive one.
func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.defaultTimeout = timeout
	}
}

// WithCorrelationIDs replaces the correlation id generator.
func WithCorrelationIDs(newID func() string) ClientOption {
	return func(c *Client) {
		c.newID = newID
	}
}

// NewClient creates a client on top of conns.
func NewClient(conns ChannelProvider, opts ...ClientOption) *Client {
	c := &Client{
		conns:          conns,
		mux:            NewMultiplexer(),
		validate:       validator.New(),
		defaultTimeout: DefaultTimeout,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Pending returns the number of calls waiting for a reply.
func (c *Client) Pending() int {
	return c.mux.Pending()
}

// Publish sends payload to queue as a persistent message and returns once the
// broker library accepted it. No reply is expected.
func (c *Client) Publish(ctx context.Context, queue string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := c.conns.Channel()
	if err != nil {
		return err
	}

	if err := declareDurable(ch, queue); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &PublishError{Queue: queue, Op: "encode", Err: err}
	}

	msg := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		logger.Log.Errorw("failed to publish message", "queue", queue, "error", err)
		return &PublishError{Queue: queue, Op: "publish", Err: err}
	}

	logger.Log.Infow("message published", "queue", queue, "size", len(body))
	return nil
}

// Call sends payload to queue and waits up to timeout for the reply carrying
// the same correlation id, decoding it into reply. A nil reply discards the
// body.
func (c *Client) Call(ctx context.Context, queue string, payload any, reply any, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	// The budget covers connecting and publishing, not just the wait.
	deadline := time.Now().Add(timeout)

	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := c.conns.Channel()
	if err != nil {
		return err
	}

	if err := declareDurable(ch, queue); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if time.Until(deadline) <= 0 {
		logger.Log.Errorw("timeout before request was published", "queue", queue, "timeout", timeout)
		return &TimeoutError{Queue: queue, Timeout: timeout}
	}

	replyQueue, err := c.mux.ReplyQueue(ch)
	if err != nil {
		logger.Log.Errorw("failed to declare reply queue", "error", err)
		return &ConnectionError{Op: "declare reply queue", Err: err}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &PublishError{Queue: queue, Op: "encode", Err: err}
	}

	correlationID := c.newID()
	slot, err := c.mux.Register(correlationID, deadline)
	if err != nil {
		return &PublishError{Queue: queue, Op: "register", Err: err}
	}

	msg := amqp.Publishing{
		ContentType:   contentTypeJSON,
		CorrelationId: correlationID,
		ReplyTo:       replyQueue,
		Timestamp:     time.Now(),
		Body:          body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		c.mux.Cancel(correlationID)
		logger.Log.Errorw("failed to publish request", "queue", queue, "correlationId", correlationID, "error", err)
		return &PublishError{Queue: queue, Op: "publish", Err: err}
	}

	logger.Log.Debugw("request published, waiting for reply",
		"queue", queue,
		"correlationId", correlationID,
		"replyTo", replyQueue,
		"timeout", timeout,
	)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	var raw []byte
	select {
	case raw = <-slot:
	case <-timer.C:
		if c.mux.Cancel(correlationID) {
			logger.Log.Errorw("timeout waiting for reply", "queue", queue, "correlationId", correlationID, "timeout", timeout)
			return &TimeoutError{Queue: queue, CorrelationID: correlationID, Timeout: timeout}
		}
		// The reply won the race and is already in the slot.
		raw = <-slot
	case <-ctx.Done():
		if c.mux.Cancel(correlationID) {
			return ctx.Err()
		}
		raw = <-slot
	}

	return c.decode(queue, correlationID, raw, reply)
}

func (c *Client) decode(queue, correlationID string, raw []byte, reply any) error {
	if reply == nil {
		return nil
	}

	if err := json.Unmarshal(raw, reply); err != nil {
		logger.Log.Errorw("failed to decode reply", "queue", queue, "correlationId", correlationID, "error", err)
		return &ProtocolError{Queue: queue, CorrelationID: correlationID, Err: err}
	}

	if err := c.validate.Struct(reply); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// reply is not a struct, nothing to check
			return nil
		}
		logger.Log.Errorw("reply failed validation", "queue", queue, "correlationId", correlationID, "error", err)
		return &ProtocolError{Queue: queue, CorrelationID: correlationID, Err: err}
	}

	return nil
}

func declareDurable(ch Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		logger.Log.Errorw("failed to declare queue", "queue", queue, "error", err)
		return &PublishError{Queue: queue, Op: "declare", Err: err}
	}
	return nil
}
