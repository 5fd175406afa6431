package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/sakila-admin/internal/logging"
)

// LogFile is the audit file written under the consumer's log directory.
const LogFile = "admin_events.log"

// StartConsumer consumes queue and appends each event as one line to
// logDir/admin_events.log.  It reconnects with exponential backoff and
// returns only when ctx is done.
func StartConsumer(ctx context.Context, url, queue, logDir string) error {
	log := logging.With("events-consumer")
	b := reconnectBackOff()
	return supervise(ctx, b, func() error {
		conn, err := amqp.Dial(url)
		if err != nil {
			return fmt.Errorf("dial broker: %w", err)
		}
		defer func() { _ = conn.Close() }()
		b.Reset()
		return consumeLoop(ctx, conn, queue, logDir)
	}, func(err error, d time.Duration) {
		log.Warn().Err(err).Dur("retry_in", d).Msg("consumer disconnected")
	})
}

// reconnectBackOff retries forever, from one second up to thirty.
func reconnectBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// supervise runs run again after every return until ctx is done.
func supervise(ctx context.Context, b backoff.BackOff, run func() error, notify backoff.Notify) error {
	op := func() error {
		err := run()
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err == nil {
			err = errors.New("consume loop ended")
		}
		return err
	}
	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logging.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(logDir, d.Body); err != nil {
				logging.Warn().Err(err).Msg("handle event failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends it to the audit log.
func HandleMessage(logDir string, body []byte) error {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if e.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(e)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders e as a single audit line.
func FormatLine(e Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | id=%s", e.At.UTC().Format(time.RFC3339), e.Type, e.ID)
	for _, kv := range [][2]string{{"tab", e.Tab}, {"view", e.View}, {"table", e.Table}, {"actor", e.Actor}} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " | %s=%s", kv[0], kv[1])
		}
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " | reason=%q", e.Reason)
	}
	b.WriteByte('\n')
	return b.String()
}
