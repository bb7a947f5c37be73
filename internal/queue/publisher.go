package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PaymentEventsQueue    = "payment.events"
	BookingConfirmedQueue = "booking.confirmed"
	SeatsReleasedQueue    = "seats.released"
)

var Queues = []string{PaymentEventsQueue, BookingConfirmedQueue, SeatsReleasedQueue}

// confirmation is the broker's pending answer to one publish.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// confirmChannel is an *amqp.Channel in confirm mode.
type confirmChannel struct {
	*amqp.Channel
}

func (c confirmChannel) PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.Channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil || dc == nil {
		return nil, err
	}

	return dc, nil
}

type dialFunc func() (*amqp.Connection, channel, error)

// Publisher sends persistent JSON messages to durable queues over one
// shared channel in confirm mode. A publish succeeds once the broker has
// acked it. A failed publish drops the connection so the next call dials
// again.
type Publisher struct {
	dial   dialFunc
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

func NewPublisher(url string, logger *slog.Logger) *Publisher {
	return &Publisher{
		dial: func() (*amqp.Connection, channel, error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, nil, err
			}

			ch, err := conn.Channel()
			if err != nil {
				conn.Close()
				return nil, nil, err
			}

			err = ch.Confirm(false)
			if err != nil {
				conn.Close()
				return nil, nil, fmt.Errorf("enable publisher confirms: %w", err)
			}

			return conn, confirmChannel{ch}, nil
		},
		logger: logger.With("component", "queue"),
	}
}

func (p *Publisher) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	return p.publish(ctx, PaymentEventsQueue, event)
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmedEvent) error {
	return p.publish(ctx, BookingConfirmedQueue, event)
}

func (p *Publisher) PublishSeatsReleased(ctx context.Context, event domain.SeatsReleasedEvent) error {
	return p.publish(ctx, SeatsReleasedQueue, event)
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// one redial covers a broker restart between publishes
	for attempt := 0; attempt < 2; attempt++ {
		ch, err := p.channel()
		if err != nil {
			return errors.Join(domain.ErrTransientDependency, err)
		}

		confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
		if err == nil {
			return p.awaitConfirm(ctx, queue, confirm)
		}

		p.logger.Warn("publish failed, resetting channel", "queue", queue, "error", err)
		p.reset()

		if attempt == 1 {
			return errors.Join(domain.ErrTransientDependency, err)
		}
	}

	return nil
}

func (p *Publisher) awaitConfirm(ctx context.Context, queue string, confirm confirmation) error {
	if confirm == nil {
		return errors.Join(domain.ErrTransientDependency, fmt.Errorf("publish to %s: channel is not in confirm mode", queue))
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Join(domain.ErrTransientDependency, fmt.Errorf("await confirm from %s: %w", queue, err))
	}

	if !acked {
		p.logger.Warn("broker rejected message", "queue", queue)
		return errors.Join(domain.ErrTransientDependency, fmt.Errorf("broker nacked message for %s", queue))
	}

	return nil
}

func (p *Publisher) channel() (channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	conn, ch, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	for _, q := range Queues {
		_, err = ch.QueueDeclare(q, true, false, false, false, nil)
		if err != nil {
			ch.Close()
			if conn != nil {
				conn.Close()
			}
			return nil, fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	p.conn = conn
	p.ch = ch

	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()

	return nil
}
