package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/rabbit"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

var errMalformedEvent = errors.New("malformed journey event")

type JourneyConsumer struct {
	client *rabbit.RabbitMQ
	queue  string
	l      logger.Logger
}

func NewJourneyConsumer(client *rabbit.RabbitMQ, l logger.Logger) *JourneyConsumer {
	return &JourneyConsumer{client: client, queue: QueueJourneyNotifications, l: l}
}

type HandlerFunc func(ctx context.Context, msg models.JourneyEventMessage) error

func (c *JourneyConsumer) declare(ch *amqp.Channel, bindingKey string) (amqp.Queue, error) {
	const op = "JourneyConsumer.declare"

	if err := ch.ExchangeDeclare(JourneyExchange, "topic", true, false, false, false, nil); err != nil {
		return amqp.Queue{}, fmt.Errorf("%s: declare exchange: %w", op, err)
	}

	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("%s: declare queue: %w", op, err)
	}

	if err := ch.QueueBind(q.Name, bindingKey, JourneyExchange, false, nil); err != nil {
		return q, fmt.Errorf("%s: bind queue: %w", op, err)
	}

	return q, nil
}

// decodeEvent parses a delivery body.
func decodeEvent(body []byte) (models.JourneyEventMessage, error) {
	var msg models.JourneyEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if msg.Event == "" {
		return msg, errMalformedEvent
	}
	return msg, nil
}

// settle acks, requeues or drops a delivery depending on the handler result.
func (c *JourneyConsumer) settle(ctx context.Context, d acknowledger, err error) {
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.l.Warn(ctx, "ack failed", "error", ackErr.Error())
		}
	case isRecoverableError(err):
		_ = d.Nack(false, true)
	default:
		_ = d.Nack(false, false)
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *JourneyConsumer) handle(ctx context.Context, fn HandlerFunc, d amqp.Delivery) {
	msg, err := decodeEvent(d.Body)
	if err != nil {
		c.l.Error(ctx, "decode failed", err)
		c.settle(ctx, &d, err)
		return
	}

	ctx = wrap.WithJourneyID(wrap.WithRequestID(ctx, d.CorrelationId), msg.Journey.ID.String())

	err = fn(ctx, msg)
	if err != nil {
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to handle journey event", err)
	}
	c.settle(ctx, &d, err)
}

// ConsumeFinalized listens to journey.finalized.* events until ctx ends, reconnecting as needed.
func (c *JourneyConsumer) ConsumeFinalized(ctx context.Context, fn HandlerFunc) error {
	const op = "JourneyConsumer.ConsumeFinalized"
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_journey_finalized")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "consume journey events stopped by context")
			return nil
		}

		msgs, err := c.subscribe(ctx, "journey.finalized.*")
		if err != nil {
			c.l.Error(ctx, "subscribe failed", err, "op", op)
			if !sleepCtx(ctx, 2*time.Second) {
				return nil
			}
			continue
		}

		c.l.Info(ctx, "start consuming journey events", "queue", c.queue)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				c.l.Info(ctx, "journey event consumer shutting down", "op", op)
				return nil

			case d, ok := <-msgs:
				if !ok {
					c.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					break consumeLoop
				}
				c.handle(ctx, fn, d)
			}
		}
	}
}

func (c *JourneyConsumer) subscribe(ctx context.Context, bindingKey string) (<-chan amqp.Delivery, error) {
	if err := c.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	ch, err := c.client.Channel()
	if err != nil {
		return nil, err
	}
	q, err := c.declare(ch, bindingKey)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, err
	}
	return ch.Consume(q.Name, "", false, false, false, false, nil)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
