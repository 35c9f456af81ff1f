package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/queue"
)

// EventPublisher delivers auth events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

var (
	ErrEventBufferFull = errors.New("auth event buffer full, event dropped")
	ErrPublisherClosed = errors.New("auth event publisher closed")
)

// DefaultEventBuffer is how many events may wait for the broker before new
// ones are dropped.
const DefaultEventBuffer = 256

const (
	dialTimeout    = 2 * time.Second
	publishTimeout = 5 * time.Second
	drainTimeout   = 3 * time.Second
)

type outbound struct {
	typ  string
	body []byte
}

// QueuePublisher publishes auth events to the durable auth.events queue.
// Publish only enqueues; a goroutine owned by the publisher dials the broker
// lazily, re-dials after any failure and sends in order.  A slow or absent
// broker therefore never holds up a request.
type QueuePublisher struct {
	url     string
	pending chan outbound
	done    chan struct{}
	stop    context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool

	// owned by run
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewQueuePublisher starts a publisher holding at most buffer undelivered
// events.
func NewQueuePublisher(url string, buffer int) *QueuePublisher {
	if buffer < 1 {
		buffer = 1
	}
	stop, cancel := context.WithCancel(context.Background())
	p := &QueuePublisher{
		url:     url,
		pending: make(chan outbound, buffer),
		done:    make(chan struct{}),
		stop:    stop,
		cancel:  cancel,
	}
	go p.run()
	return p
}

// Publish queues ev for delivery as a persistent JSON message.  It never
// blocks: when the buffer is full the event is dropped and
// ErrEventBufferFull returned.
func (p *QueuePublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.pending <- outbound{typ: ev.Type, body: body}:
		return nil
	default:
		return ErrEventBufferFull
	}
}

// Close stops accepting events and gives queued ones a bounded time to reach
// the broker.  Whatever is left after that is dropped.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.pending)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(drainTimeout):
		slog.Warn("auth event publisher: drain timed out", "dropped", len(p.pending))
	}
	p.cancel()
	return nil
}

func (p *QueuePublisher) run() {
	defer close(p.done)
	defer p.reset()
	for msg := range p.pending {
		if err := p.send(msg); err != nil {
			slog.Warn("auth event publish failed", "type", msg.typ, "error", err)
		}
	}
}

func (p *QueuePublisher) send(msg outbound) error {
	if err := p.stop.Err(); err != nil {
		return err
	}
	if err := p.ensureChannel(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(p.stop, publishTimeout)
	defer cancel()
	err := p.ch.PublishWithContext(ctx,
		"",                    // default exchange
		queue.AuthEventsQueue, // routing key = queue name
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         msg.body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *QueuePublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.AuthEventsQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *QueuePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
