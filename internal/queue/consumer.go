package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPrefetch = 50

// Handler processes one message body. Returning an error wrapped with
// Permanent drops the message; any other error requeues it.
type Handler func(ctx context.Context, body []byte) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var perr *permanentError
	return errors.As(err, &perr)
}

// JSONHandler decodes the body into T before calling fn. Undecodable
// bodies are dropped.
func JSONHandler[T any](fn func(ctx context.Context, msg T) error) Handler {
	return func(ctx context.Context, body []byte) error {
		var msg T
		if err := json.Unmarshal(body, &msg); err != nil {
			return Permanent(fmt.Errorf("decode message: %w", err))
		}
		return fn(ctx, msg)
	}
}

type Consumer struct {
	url      string
	logger   *slog.Logger
	prefetch int
	backoff  func() backoff.BackOff
	// requeueBackoff spaces out redeliveries of messages that keep failing.
	requeueBackoff func() backoff.BackOff
}

func NewConsumer(url string, logger *slog.Logger) *Consumer {
	return &Consumer{
		url:      url,
		logger:   logger.With("component", "queue"),
		prefetch: defaultPrefetch,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.Multiplier = 2
			b.RandomizationFactor = 0
			b.MaxInterval = 30 * time.Second
			return b
		},
		requeueBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.Multiplier = 2
			b.MaxInterval = 15 * time.Second
			return b
		},
	}
}

// Consume delivers messages from queue to handler until ctx is done,
// reconnecting with a doubling delay whenever the broker goes away.
func (c *Consumer) Consume(ctx context.Context, queue string, handler Handler) error {
	logger := c.logger.With("queue", queue)
	b := c.backoff()

	for {
		err := c.consumeOnce(ctx, queue, handler, b)
		if ctx.Err() != nil {
			logger.Info("stopped consumer")
			return nil
		}

		delay := b.NextBackOff()
		logger.Warn("consumer disconnected, reconnecting", "error", err, "retry_in", delay.String())

		select {
		case <-ctx.Done():
			logger.Info("stopped consumer")
			return nil
		case <-time.After(delay):
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, queue string, handler Handler, b backoff.BackOff) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.Qos(c.prefetch, 0, false)
	if err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	b.Reset()
	c.logger.Info("consuming", "queue", queue)

	retry := c.requeueBackoff()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, queue, d, handler, retry)
		}
	}
}

// handle acks, drops or requeues one delivery. A requeue waits for the
// next retry delay first so a failing dependency is not hammered; the
// delay grows until a message succeeds.
func (c *Consumer) handle(ctx context.Context, queue string, d amqp.Delivery, handler Handler, retry backoff.BackOff) {
	err := handler(ctx, d.Body)
	if err == nil {
		retry.Reset()

		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message", "queue", queue, "error", ackErr)
		}
		return
	}

	requeue := !IsPermanent(err)

	if requeue {
		delay := retry.NextBackOff()
		c.logger.Warn("message handling failed, requeueing", "queue", queue, "error", err, "retry_in", delay.String())

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	} else {
		c.logger.Error("dropping message", "queue", queue, "error", err)
	}

	if nackErr := d.Nack(false, requeue); nackErr != nil {
		c.logger.Error("failed to nack message", "queue", queue, "error", nackErr)
	}
}
