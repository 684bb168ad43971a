package journey

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"
	"github.com/Temutjin2k/fieldtrack/pkg/trm"
	"github.com/google/uuid"
)

var serviceName = string(types.JourneyService)

type Service struct {
	repo      Repository
	trm       trm.TxManager
	clock     Clock
	rules     Rules
	publisher Publisher
	feed      Broadcaster
	log       logger.Logger
}

// New creates the journey service. publisher and feed may be nil.
// New builds the journey service. Rules without a location use the clock's.
func New(repo Repository, txManager trm.TxManager, clock Clock, rules Rules, publisher Publisher, feed Broadcaster, log logger.Logger) *Service {
	if rules.Location == nil {
		rules.Location = clock.Location()
	}
	return &Service{
		repo:      repo,
		trm:       txManager,
		clock:     clock,
		rules:     rules,
		publisher: publisher,
		feed:      feed,
		log:       log,
	}
}

// Start opens a journey for the worker, optionally with its first sample.
func (s *Service) Start(ctx context.Context, workerID uuid.UUID, first *models.SampleInput) (*models.Journey, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyStart)
	ctx = wrap.WithUserID(ctx, workerID.String())

	now := s.clock.Now()

	var sample *models.Sample
	if first != nil {
		smp, err := s.toSample(*first, now)
		if err != nil {
			metrics.RecordSample(serviceName, "rejected")
			return nil, wrap.Error(ctx, err)
		}
		sample = &smp
	}

	j, err := s.open(ctx, workerID, now, sample)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithJourneyID(ctx, j.ID.String())
	metrics.RecordJourneyStarted(serviceName, "manual")
	s.log.Info(ctx, "journey started", "samples", len(j.Samples))
	s.emit(ctx, types.EventJourneyStarted, "", j)

	return j, nil
}

// StartGuarded starts a journey only once the worker is moving faster than the
// guarded start speed. Slower readings yield OutcomeWaiting and no journey.
// If a journey is already open it is returned with OutcomeAlreadyStarted.
func (s *Service) StartGuarded(ctx context.Context, workerID uuid.UUID, in models.SampleInput) (models.StartResult, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyGuardedStart)
	ctx = wrap.WithUserID(ctx, workerID.String())

	// Only the speed decides whether to wait; a position is needed once a journey is created.
	if err := checkSpeed(in.Speed); err != nil {
		metrics.RecordSample(serviceName, "rejected")
		return models.StartResult{}, wrap.Error(ctx, err)
	}
	if !s.rules.Moving(*in.Speed) {
		s.log.Debug(ctx, "waiting for movement before starting journey", "speed", *in.Speed)
		return models.StartResult{Outcome: models.OutcomeWaiting}, nil
	}

	now := s.clock.Now()
	sample, err := s.toSample(in, now)
	if err != nil {
		metrics.RecordSample(serviceName, "rejected")
		return models.StartResult{}, wrap.Error(ctx, err)
	}

	j, err := s.open(ctx, workerID, now, &sample)
	if errors.Is(err, types.ErrJourneyAlreadyOpen) {
		open, findErr := s.repo.FindOpen(ctx, workerID)
		if findErr != nil {
			return models.StartResult{}, wrap.Error(ctx, findErr)
		}
		if open != nil {
			return models.StartResult{Outcome: models.OutcomeAlreadyStarted, Journey: open}, nil
		}
		// closed between the two reads
		return models.StartResult{}, wrap.Error(ctx, err)
	}
	if err != nil {
		return models.StartResult{}, wrap.Error(ctx, err)
	}

	ctx = wrap.WithJourneyID(ctx, j.ID.String())
	metrics.RecordJourneyStarted(serviceName, "guarded")
	s.log.Info(ctx, "journey started on movement", "speed", sample.Speed)
	s.emit(ctx, types.EventJourneyStarted, "", j)

	return models.StartResult{Outcome: models.OutcomeStarted, Journey: j}, nil
}

func (s *Service) open(ctx context.Context, workerID uuid.UUID, now time.Time, first *models.Sample) (*models.Journey, error) {
	var j *models.Journey
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		existing, err := s.repo.LockOpen(ctx, workerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.ErrJourneyAlreadyOpen
		}

		j = &models.Journey{
			ID:        uuid.New(),
			WorkerID:  workerID,
			State:     types.StateActive,
			StartedAt: now,
			Samples:   []models.Sample{},
			UpdatedAt: now,
		}
		if first != nil {
			Apply(j, *first)
		}

		return s.repo.Create(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

// AppendSample records a reading on the worker's open journey and then evaluates the
// auto-finalize rule. A failing finalize keeps the appended sample.
func (s *Service) AppendSample(ctx context.Context, workerID uuid.UUID, in models.SampleInput) (*models.Journey, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyAppendSample)
	ctx = wrap.WithUserID(ctx, workerID.String())

	now := s.clock.Now()
	sample, err := s.toSample(in, now)
	if err != nil {
		metrics.RecordSample(serviceName, "rejected")
		return nil, wrap.Error(ctx, err)
	}

	var j *models.Journey
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		open, err := s.repo.LockOpen(ctx, workerID)
		if err != nil {
			return err
		}
		if open == nil {
			return types.ErrNoOpenJourney
		}

		Apply(open, sample)
		markMoving(open)
		open.UpdatedAt = now

		if err := s.repo.AppendSample(ctx, open, open.Samples[len(open.Samples)-1]); err != nil {
			return err
		}
		j = open
		return nil
	})
	if err != nil {
		metrics.RecordSample(serviceName, "rejected")
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithJourneyID(ctx, j.ID.String())
	metrics.RecordSample(serviceName, "accepted")
	s.log.Debug(ctx, "sample appended", "speed", sample.Speed, "samples", len(j.Samples))

	if ok, reason := s.rules.ShouldFinalize(j.Samples, now); ok {
		if err := s.autoFinalize(ctx, j, now, reason); err != nil {
			s.log.Warn(wrap.ErrorCtx(ctx, err), "auto-finalize skipped", "reason", reason, "error", err.Error())
			s.emit(ctx, types.EventSampleAppended, "", j)
		}
		return j, nil
	}

	s.emit(ctx, types.EventSampleAppended, "", j)
	return j, nil
}

// autoFinalize closes j in its own transaction, only if nobody touched it since the append.
func (s *Service) autoFinalize(ctx context.Context, j *models.Journey, now time.Time, reason types.FinalizeReason) error {
	ctx = wrap.WithAction(ctx, types.ActionJourneyAutoFinalize)

	closed := *j
	closed.State = types.StateFinalized
	closed.EndedAt = &now
	closed.UpdatedAt = now

	if err := s.trm.Do(ctx, func(ctx context.Context) error {
		return s.repo.Finalize(ctx, &closed)
	}); err != nil {
		return wrap.Error(ctx, err)
	}

	*j = closed
	metrics.RecordJourneyFinalized(serviceName, string(reason))
	s.log.Info(ctx, "journey finalized automatically", "reason", reason, "distance_km", models.Round2(j.DistanceKm))
	s.emit(ctx, types.EventJourneyFinalized, reason, j)

	return nil
}

// Finalize closes the worker's open journey.
func (s *Service) Finalize(ctx context.Context, workerID uuid.UUID) (*models.Journey, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyFinalize)
	ctx = wrap.WithUserID(ctx, workerID.String())

	now := s.clock.Now()

	var j *models.Journey
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		open, err := s.repo.LockOpen(ctx, workerID)
		if err != nil {
			return err
		}
		if open == nil {
			return types.ErrNoOpenJourney
		}

		open.State = types.StateFinalized
		open.EndedAt = &now
		open.UpdatedAt = now

		if err := s.repo.Finalize(ctx, open); err != nil {
			return err
		}
		j = open
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithJourneyID(ctx, j.ID.String())
	metrics.RecordJourneyFinalized(serviceName, string(types.ReasonManual))
	s.log.Info(ctx, "journey finalized", "distance_km", models.Round2(j.DistanceKm), "samples", len(j.Samples))
	s.emit(ctx, types.EventJourneyFinalized, types.ReasonManual, j)

	return j, nil
}

// Current returns the worker's open journey.
func (s *Service) Current(ctx context.Context, workerID uuid.UUID) (*models.Journey, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyCurrent)
	ctx = wrap.WithUserID(ctx, workerID.String())

	j, err := s.repo.FindOpen(ctx, workerID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if j == nil {
		return nil, wrap.Error(ctx, types.ErrNoOpenJourney)
	}
	return j, nil
}

// History lists the worker's journeys, newest first.
func (s *Service) History(ctx context.Context, workerID uuid.UUID, f models.Filters) (*models.JourneyHistory, error) {
	ctx = wrap.WithAction(ctx, types.ActionJourneyHistory)
	ctx = wrap.WithUserID(ctx, workerID.String())

	items, total, err := s.repo.ListByWorker(ctx, workerID, f)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	views := make([]models.JourneyView, 0, len(items))
	for _, it := range items {
		views = append(views, models.NewSummaryView(it))
	}

	return &models.JourneyHistory{
		Journeys: views,
		Metadata: models.CalculateMetadata(total, f.Page, f.PageSize),
	}, nil
}

// toSample validates client input. A missing timestamp defaults to now.
func checkSpeed(speed *float64) error {
	if speed == nil {
		return types.ErrMissingSpeed
	}
	if math.IsNaN(*speed) || math.IsInf(*speed, 0) {
		return types.ErrValidation
	}
	if *speed < 0 {
		return types.ErrNegativeSpeed
	}
	return nil
}

func (s *Service) toSample(in models.SampleInput, now time.Time) (models.Sample, error) {
	if err := checkSpeed(in.Speed); err != nil {
		return models.Sample{}, err
	}
	if in.Position == nil {
		return models.Sample{}, types.ErrMissingPosition
	}
	p := *in.Position
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return models.Sample{}, types.ErrInvalidPosition
	}

	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}

	return models.Sample{
		Timestamp: ts,
		Speed:     *in.Speed,
		Position:  p,
	}, nil
}

// emit fans an event out to the broker and the live feed. Failures are logged only.
func (s *Service) emit(ctx context.Context, event types.JourneyEvent, reason types.FinalizeReason, j *models.Journey) {
	msg := models.JourneyEventMessage{
		Event:     event,
		Reason:    reason,
		Journey:   models.NewJourneyView(j),
		Timestamp: s.clock.Now(),
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJourneyEvent(ctx, msg); err != nil {
			s.log.Warn(wrap.ErrorCtx(ctx, err), "failed to publish journey event", "event", event, "error", err.Error())
		}
	}
	if s.feed != nil {
		if err := s.feed.Broadcast(ctx, msg); err != nil {
			s.log.Warn(ctx, "failed to broadcast journey event", "event", event, "error", err.Error())
		}
	}
}
