package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"
	"github.com/Temutjin2k/fieldtrack/pkg/rabbit"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

type JourneyBroker struct {
	client   *rabbit.RabbitMQ
	exchange string
	attempts int
	backoff  time.Duration

	l logger.Logger
}

func NewJourneyBroker(client *rabbit.RabbitMQ, l logger.Logger) *JourneyBroker {
	return &JourneyBroker{
		client:   client,
		exchange: JourneyExchange,
		attempts: 3,
		backoff:  time.Second,
		l:        l,
	}
}

// RoutingKey is journey.<event>.<worker id>, e.g. "journey.finalized.<uuid>".
func RoutingKey(msg models.JourneyEventMessage) string {
	return fmt.Sprintf("journey.%s.%s", msg.Event.Topic(), msg.Journey.WorkerID)
}

func newPublishing(ctx context.Context, msg models.JourneyEventMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal: %w", err)
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: wrap.GetRequestID(ctx),
		Type:          msg.Event.String(),
		Body:          body,
		Timestamp:     msg.Timestamp,
	}, nil
}

// DeclareTopology declares the durable topic exchange journey events go to.
func (b *JourneyBroker) DeclareTopology(ctx context.Context) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return err
	}
	ch, err := b.client.Channel()
	if err != nil {
		return err
	}
	return ch.ExchangeDeclare(b.exchange, "topic", true, false, false, false, nil)
}

// PublishJourneyEvent sends msg to the 'journey_topic' exchange.
func (b *JourneyBroker) PublishJourneyEvent(ctx context.Context, msg models.JourneyEventMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_journey_event")
	ctx = wrap.WithJourneyID(ctx, msg.Journey.ID.String())

	pub, err := newPublishing(ctx, msg)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	key := RoutingKey(msg)

	err = retry(ctx, b.attempts, b.backoff, func() error {
		if err := b.client.EnsureConnection(ctx); err != nil {
			return err
		}
		ch, err := b.client.Channel()
		if err != nil {
			return err
		}
		return ch.PublishWithContext(ctx, b.exchange, key, false, false, pub)
	})
	metrics.RecordRabbitMQPublish(string(types.JourneyService), "journey."+msg.Event.Topic(), err)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("publish %s: %w", key, err))
	}

	b.l.Debug(ctx, "journey event published", "routing_key", key)
	return nil
}
