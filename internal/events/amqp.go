package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/sakila-admin/internal/logging"
)

// AMQPSink publishes events to a durable RabbitMQ queue.  The connection
// is opened lazily and reopened after a failure.
type AMQPSink struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPSink(url, queue string) *AMQPSink {
	return &AMQPSink{url: url, queue: queue}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) channel() (*amqp.Channel, error) {
	if s.ch != nil && !s.ch.IsClosed() {
		return s.ch, nil
	}
	s.resetLocked()
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	s.conn, s.ch = conn, ch
	return ch, nil
}

func (s *AMQPSink) resetLocked() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn, s.ch = nil, nil
}

// Publish sends e as a persistent JSON message on the default exchange.
func (s *AMQPSink) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ch, err := s.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         e.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		s.resetLocked()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	logging.Debug().Str("queue", s.queue).Msg("amqp sink closed")
	return nil
}
