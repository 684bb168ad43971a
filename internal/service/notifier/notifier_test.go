package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/adapter/expo"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"

	"github.com/google/uuid"
)

var bogota = time.FixedZone("America/Bogota", -5*60*60)

type fakeUsers struct {
	recipients []models.PushRecipient
	users      map[uuid.UUID]*models.User
	roles      []types.UserRole
}

func (f *fakeUsers) ListPushRecipients(_ context.Context, roles []types.UserRole) ([]models.PushRecipient, error) {
	f.roles = roles
	return f.recipients, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

type fakePusher struct {
	mu   sync.Mutex
	sent []expo.Message
	fail map[string]error
}

func (f *fakePusher) Send(_ context.Context, msg expo.Message) (expo.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.To]; err != nil {
		return expo.Ticket{}, err
	}
	f.sent = append(f.sent, msg)
	return expo.Ticket{Status: "ok"}, nil
}

type memLock struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemLock() *memLock { return &memLock{keys: map[string]bool{}} }

func (l *memLock) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys[key] {
		return false, nil
	}
	l.keys[key] = true
	return true, nil
}

func (l *memLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
	return nil
}

type downLock struct{}

func (downLock) Acquire(_ context.Context, key string) (bool, error) {
	return false, fmt.Errorf("%w: reminder lock %s: connection refused", types.ErrUnavailable, key)
}

func (downLock) Release(context.Context, string) error { return nil }

func recipients(n int) []models.PushRecipient {
	out := make([]models.PushRecipient, 0, n)
	for i := range n {
		out = append(out, models.PushRecipient{UserID: uuid.New(), PushToken: fmt.Sprintf("ExponentPushToken[%d]", i)})
	}
	return out
}

func newNotifier(users UserRepo, pusher Pusher, lock Lock) *Notifier {
	return New(users, pusher, lock, Config{Location: bogota, Hour: 7, Concurrency: 4}, logger.New(io.Discard, "test", "error"))
}

func TestNextRun(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// 06:59 Bogota: same day.
		{time.Date(2026, 3, 10, 11, 59, 0, 0, time.UTC), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		// exactly 07:00 Bogota: next day.
		{time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)},
		// 23:00 Bogota, already the next day in UTC.
		{time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC), time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)},
		// month rollover
		{time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		if got := NextRun(tc.now, bogota, 7, 0); !got.Equal(tc.want) {
			t.Fatalf("NextRun(%s) = %s, want %s", tc.now, got.UTC(), tc.want)
		}
	}
}

func TestDailyReminderSendsOncePerDay(t *testing.T) {
	rs := recipients(10)
	rs = append(rs, models.PushRecipient{UserID: uuid.New(), PushToken: "fcm-token"})
	users := &fakeUsers{recipients: rs}
	pusher := &fakePusher{}
	lock := newMemLock()
	n := newNotifier(users, pusher, lock)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sent, err := n.SendDailyReminder(context.Background(), day)
	if err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if sent != 10 || len(pusher.sent) != 10 {
		t.Fatalf("expected 10 pushes, got sent=%d pushes=%d", sent, len(pusher.sent))
	}
	if len(users.roles) != 2 || users.roles[0] != types.RoleEngineer || users.roles[1] != types.RoleInspector {
		t.Fatalf("unexpected roles %v", users.roles)
	}
	msg := pusher.sent[0]
	if msg.Title != "Inicio de jornada" || msg.Data["tipo"] != "inicio_jornada" {
		t.Fatalf("unexpected message %+v", msg)
	}

	// A second instance firing for the same day sends nothing.
	other := newNotifier(users, pusher, lock)
	sent, err = other.SendDailyReminder(context.Background(), day)
	if err != nil || sent != 0 {
		t.Fatalf("expected no duplicate pushes, got %d (%v)", sent, err)
	}

	// The next day is a new run.
	sent, _ = n.SendDailyReminder(context.Background(), day.Add(24*time.Hour))
	if sent != 10 {
		t.Fatalf("expected 10 pushes on the next day, got %d", sent)
	}
}

func TestDailyReminderReleasesLockOnTransientFailure(t *testing.T) {
	rs := recipients(2)
	pusher := &fakePusher{fail: map[string]error{rs[0].PushToken: expo.ErrUnavailable}}
	lock := newMemLock()
	n := newNotifier(&fakeUsers{recipients: rs}, pusher, lock)
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	sent, err := n.SendDailyReminder(context.Background(), day)
	if err != nil || sent != 1 {
		t.Fatalf("expected one delivery, got %d (%v)", sent, err)
	}

	pusher.mu.Lock()
	pusher.fail = nil
	pusher.mu.Unlock()

	sent, _ = n.SendDailyReminder(context.Background(), day)
	if sent != 1 {
		t.Fatalf("expected the failed recipient to be retried, got %d", sent)
	}
}

func TestHandleJourneyFinalized(t *testing.T) {
	worker := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		worker: {ID: worker, PushToken: "ExponentPushToken[w]"},
	}}
	pusher := &fakePusher{}
	n := newNotifier(users, pusher, newMemLock())

	msg := models.JourneyEventMessage{
		Event:   types.EventJourneyFinalized,
		Reason:  types.ReasonInactivity,
		Journey: models.JourneyView{ID: uuid.New(), WorkerID: worker},
	}

	if err := n.HandleJourneyFinalized(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Redelivery of the same event is not pushed twice.
	if err := n.HandleJourneyFinalized(context.Background(), msg); err != nil {
		t.Fatalf("handle redelivery: %v", err)
	}
	if len(pusher.sent) != 1 || pusher.sent[0].Data["motivo"] != "inactivity" {
		t.Fatalf("unexpected pushes %+v", pusher.sent)
	}

	manual := msg
	manual.Reason = types.ReasonManual
	manual.Journey.ID = uuid.New()
	if err := n.HandleJourneyFinalized(context.Background(), manual); err != nil {
		t.Fatalf("handle manual: %v", err)
	}
	if len(pusher.sent) != 1 {
		t.Fatalf("manual finalize must not notify")
	}
}

func TestHandleJourneyFinalizedTransientFailure(t *testing.T) {
	worker := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		worker: {ID: worker, PushToken: "ExponentPushToken[w]"},
	}}
	pusher := &fakePusher{fail: map[string]error{"ExponentPushToken[w]": expo.ErrUnavailable}}
	n := newNotifier(users, pusher, newMemLock())

	err := n.HandleJourneyFinalized(context.Background(), models.JourneyEventMessage{
		Event:   types.EventJourneyFinalized,
		Reason:  types.ReasonCurfew,
		Journey: models.JourneyView{ID: uuid.New(), WorkerID: worker},
	})
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
}

func TestHandleJourneyFinalizedLockDown(t *testing.T) {
	worker := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		worker: {ID: worker, PushToken: "ExponentPushToken[w]"},
	}}
	pusher := &fakePusher{}
	n := newNotifier(users, pusher, downLock{})

	err := n.HandleJourneyFinalized(context.Background(), models.JourneyEventMessage{
		Event:   types.EventJourneyFinalized,
		Reason:  types.ReasonInactivity,
		Journey: models.JourneyView{ID: uuid.New(), WorkerID: worker},
	})
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
	if len(pusher.sent) != 0 {
		t.Fatalf("nothing may be sent without the lock")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	n := newNotifier(&fakeUsers{}, &fakePusher{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- n.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
