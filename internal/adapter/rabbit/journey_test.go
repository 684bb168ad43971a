package rabbit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func finalizedMsg(worker uuid.UUID) models.JourneyEventMessage {
	return models.JourneyEventMessage{
		Event:     types.EventJourneyFinalized,
		Reason:    types.ReasonCurfew,
		Journey:   models.JourneyView{ID: uuid.New(), WorkerID: worker, State: types.StateFinalized},
		Timestamp: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
}

func TestRoutingKey(t *testing.T) {
	worker := uuid.MustParse("7b1d8c9e-1111-4a2b-9c3d-000000000001")

	msg := finalizedMsg(worker)
	if got := RoutingKey(msg); got != "journey.finalized."+worker.String() {
		t.Fatalf("unexpected routing key %q", got)
	}

	msg.Event = types.EventJourneyStarted
	if got := RoutingKey(msg); got != "journey.started."+worker.String() {
		t.Fatalf("unexpected routing key %q", got)
	}
}

func TestPublishingRoundTrip(t *testing.T) {
	msg := finalizedMsg(uuid.New())
	ctx := wrap.WithRequestID(context.Background(), "req-1")

	pub, err := newPublishing(ctx, msg)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if pub.CorrelationId != "req-1" || pub.Type != "JOURNEY_FINALIZED" || pub.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected publishing %+v", pub)
	}

	got, err := decodeEvent(pub.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Reason != types.ReasonCurfew || got.Journey.ID != msg.Journey.ID || !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("unexpected decoded message %+v", got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, body := range []string{`not json`, `{}`} {
		if _, err := decodeEvent([]byte(body)); !errors.Is(err, errMalformedEvent) {
			t.Fatalf("%s: expected errMalformedEvent, got %v", body, err)
		}
	}
}

type fakeAck struct {
	acked, requeued, dropped bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	if requeue {
		f.requeued = true
	} else {
		f.dropped = true
	}
	return nil
}

func TestSettle(t *testing.T) {
	c := &JourneyConsumer{l: logger.New(io.Discard, "test", "error")}
	ctx := context.Background()

	ok := &fakeAck{}
	c.settle(ctx, ok, nil)
	if !ok.acked {
		t.Fatalf("expected ack")
	}

	transient := &fakeAck{}
	c.settle(ctx, transient, types.ErrPersistence)
	if !transient.requeued {
		t.Fatalf("expected requeue for persistence failure")
	}

	permanent := &fakeAck{}
	c.settle(ctx, permanent, errMalformedEvent)
	if !permanent.dropped {
		t.Fatalf("expected drop for malformed event")
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after 3 calls, got %d calls, err %v", calls, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected cancellation after first attempt, got %d calls, err %v", calls, err)
	}
}
