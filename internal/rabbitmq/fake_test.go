package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publishedMessage struct {
	queue string
	msg   amqp.Publishing
}

// fakeChannel is an in-memory stand-in for *amqp.Channel.
type fakeChannel struct {
	mu            sync.Mutex
	durable       map[string]bool
	published     []publishedMessage
	replyDeclares int
	deliveries    chan amqp.Delivery
	onPublish     func(queue string, msg amqp.Publishing)
	declareErr    error
	consumeErr    error
	publishErr    error
	closeErr      error
	closed        bool
	events        *[]string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		durable:    make(map[string]bool),
		deliveries: make(chan amqp.Delivery, 128),
	}
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}
	if name == "" {
		c.replyDeclares++
		name = fmt.Sprintf("amq.gen-%d", c.replyDeclares)
	}
	c.durable[name] = durable
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consumeErr != nil {
		return nil, c.consumeErr
	}
	return c.deliveries, nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	if c.publishErr != nil {
		c.mu.Unlock()
		return c.publishErr
	}
	c.published = append(c.published, publishedMessage{queue: key, msg: msg})
	hook := c.onPublish
	c.mu.Unlock()

	if hook != nil {
		hook(key, msg)
	}
	return nil
}

func (c *fakeChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events != nil {
		*c.events = append(*c.events, "channel")
	}
	if !c.closed {
		c.closed = true
		close(c.deliveries)
	}
	return c.closeErr
}

// reply pushes a delivery onto the reply queue consumer.
func (c *fakeChannel) reply(correlationID string, body string) {
	c.deliveries <- amqp.Delivery{CorrelationId: correlationID, Body: []byte(body)}
}

func (c *fakeChannel) publishedTo(queue string) []amqp.Publishing {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []amqp.Publishing
	for _, p := range c.published {
		if p.queue == queue {
			out = append(out, p.msg)
		}
	}
	return out
}

func (c *fakeChannel) isDurable(queue string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durable[queue]
}

func (c *fakeChannel) setOnPublish(hook func(queue string, msg amqp.Publishing)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPublish = hook
}

// fakeConnection hands out a single fakeChannel.
type fakeConnection struct {
	mu         sync.Mutex
	ch         *fakeChannel
	channelErr error
	closeErr   error
	closed     bool
	events     *[]string
}

func (c *fakeConnection) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channelErr != nil {
		return nil, c.channelErr
	}
	return c.ch, nil
}

func (c *fakeConnection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events != nil {
		*c.events = append(*c.events, "connection")
	}
	c.closed = true
	return c.closeErr
}

// fakeDialer returns a fresh connection and channel per dial and records them.
type fakeDialer struct {
	mu    sync.Mutex
	err   error
	conns []*fakeConnection
	urls  []string
	setup func(*fakeConnection)
}

func (d *fakeDialer) dial(url string) (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}

	conn := &fakeConnection{ch: newFakeChannel()}
	if d.setup != nil {
		d.setup(conn)
	}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) last() *fakeConnection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}
