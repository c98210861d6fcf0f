package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	ErrDuplicateCorrelationID = errors.New("rabbitmq: correlation id already pending")
	ErrReplyTimeout           = errors.New("rabbitmq: reply timeout")
)

// ConnectionError is returned when the broker cannot be reached or a channel
// cannot be opened on it.
type ConnectionError struct {
	Op  string // Operation that failed
	URL string // Sanitized broker URL
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rabbitmq connection error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PublishError is returned when a message could not be handed to the broker.
type PublishError struct {
	Queue string // Target queue
	Op    string // declare, encode or publish
	Err   error  // Underlying error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: %s to %s: %v", e.Op, e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when no reply with the call's correlation id
// arrived before the deadline.
type TimeoutError struct {
	Queue         string
	CorrelationID string
	Timeout       time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rabbitmq timeout: no reply from %s after %v (correlationId: %s)",
		e.Queue, e.Timeout, e.CorrelationID)
}

func (e *TimeoutError) Unwrap() error {
	return ErrReplyTimeout
}

// ProtocolError is returned when a reply body does not decode into the
// expected schema.
type ProtocolError struct {
	Queue         string
	CorrelationID string
	Err           error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rabbitmq protocol error: malformed reply from %s (correlationId: %s): %v",
		e.Queue, e.CorrelationID, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ShutdownError carries the failures of closing the channel and connection.
type ShutdownError struct {
	ChannelErr    error
	ConnectionErr error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("rabbitmq shutdown error: channel: %v, connection: %v", e.ChannelErr, e.ConnectionErr)
}

func (e *ShutdownError) Unwrap() []error {
	var errs []error
	if e.ChannelErr != nil {
		errs = append(errs, e.ChannelErr)
	}
	if e.ConnectionErr != nil {
		errs = append(errs, e.ConnectionErr)
	}
	return errs
}

// SanitizeURL hides the password of an amqp URL.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
