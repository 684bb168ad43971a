package notifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/adapter/expo"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const expoTokenPrefix = "ExponentPushToken"

var serviceName = string(types.NotifierService)

type Config struct {
	Location    *time.Location
	Hour        int
	Minute      int
	Concurrency int
}

// Notifier sends the start-of-day reminder and the auto-finalize notice.
type Notifier struct {
	users  UserRepo
	pusher Pusher
	lock   Lock
	cfg    Config
	now    func() time.Time
	l      logger.Logger
}

// New builds a Notifier. lock may be nil, in which case every instance sends.
func New(users UserRepo, pusher Pusher, lock Lock, cfg Config, l logger.Logger) *Notifier {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Notifier{
		users:  users,
		pusher: pusher,
		lock:   lock,
		cfg:    cfg,
		now:    time.Now,
		l:      l,
	}
}

func (n *Notifier) String() string {
	return "daily-reminder"
}

// Serve fires SendDailyReminder every day at the configured local time until ctx ends.
func (n *Notifier) Serve(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionPushReminder)

	for {
		next := NextRun(n.now(), n.cfg.Location, n.cfg.Hour, n.cfg.Minute)
		n.l.Info(ctx, "next reminder scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		sent, err := n.SendDailyReminder(ctx, next)
		if err != nil {
			n.l.Error(wrap.ErrorCtx(ctx, err), "daily reminder failed", err)
			continue
		}
		n.l.Info(ctx, "daily reminder sent", "sent", sent)
	}
}

func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func reminderMessage(token string) expo.Message {
	return expo.Message{
		To:    token,
		Title: "Inicio de jornada",
		Body:  "¿Deseas comenzar tu jornada laboral?",
		Sound: "default",
		Data:  map[string]string{"tipo": "inicio_jornada"},
	}
}

// SendDailyReminder pushes the start-of-day reminder to every engineer and inspector
// with an Expo token. day identifies the run for deduplication. Returns how many were sent.
func (n *Notifier) SendDailyReminder(ctx context.Context, day time.Time) (int, error) {
	ctx = wrap.WithAction(ctx, types.ActionPushReminder)

	recipients, err := n.users.ListPushRecipients(ctx, types.WorkerRoles)
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	dayKey := day.In(n.cfg.Location).Format("2006-01-02")

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Concurrency)

	for _, r := range recipients {
		if !strings.HasPrefix(r.PushToken, expoTokenPrefix) {
			continue
		}
		g.Go(func() error {
			ok, err := n.deliver(gctx, dayKey+":"+fingerprint(r.PushToken), reminderMessage(r.PushToken))
			if err != nil {
				n.l.Warn(wrap.WithUserID(gctx, r.UserID.String()), "reminder not delivered", "error", err.Error())
			}
			if ok {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(sent.Load()), nil
}

// deliver sends msg once per key. Transient failures release the key so a later run may retry.
func (n *Notifier) deliver(ctx context.Context, key string, msg expo.Message) (bool, error) {
	if n.lock != nil {
		acquired, err := n.lock.Acquire(ctx, key)
		if err != nil {
			return false, err
		}
		if !acquired {
			return false, nil
		}
	}

	_, err := n.pusher.Send(ctx, msg)
	metrics.RecordPushNotification(serviceName, err)
	if err != nil {
		if n.lock != nil && errors.Is(err, types.ErrUnavailable) {
			if relErr := n.lock.Release(context.WithoutCancel(ctx), key); relErr != nil {
				n.l.Warn(ctx, "failed to release reminder lock", "key", key, "error", relErr.Error())
			}
		}
		return false, err
	}

	return true, nil
}

var finalizeBodies = map[types.FinalizeReason]string{
	types.ReasonInactivity: "Tu jornada se cerró por inactividad.",
	types.ReasonCurfew:     "Tu jornada se cerró automáticamente al terminar el horario laboral.",
}

// HandleJourneyFinalized tells a worker that the server closed their journey.
// Manual finalizations are ignored.
func (n *Notifier) HandleJourneyFinalized(ctx context.Context, msg models.JourneyEventMessage) error {
	if msg.Event != types.EventJourneyFinalized || !msg.Reason.Automatic() {
		return nil
	}

	ctx = wrap.WithUserID(ctx, msg.Journey.WorkerID.String())

	user, err := n.users.GetByID(ctx, msg.Journey.WorkerID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil
		}
		return wrap.Error(ctx, err)
	}
	if !strings.HasPrefix(user.PushToken, expoTokenPrefix) {
		return nil
	}

	push := expo.Message{
		To:    user.PushToken,
		Title: "Fin de jornada",
		Body:  finalizeBodies[msg.Reason],
		Sound: "default",
		Data: map[string]string{
			"tipo":       "fin_jornada",
			"jornada_id": msg.Journey.ID.String(),
			"motivo":     string(msg.Reason),
		},
	}

	if _, err := n.deliver(ctx, "finalized:"+msg.Journey.ID.String(), push); err != nil {
		if errors.Is(err, expo.ErrTicket) {
			n.l.Warn(ctx, "finalize notice rejected", "error", err.Error())
			return nil
		}
		return wrap.Error(ctx, err)
	}

	return nil
}
