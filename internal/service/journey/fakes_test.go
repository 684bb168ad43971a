package journey

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/google/uuid"
)

var bogota = time.FixedZone("America/Bogota", -5*60*60)

type fakeRepo struct {
	mu       sync.Mutex
	journeys map[uuid.UUID]*models.Journey

	finalizeErr error
	appendErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{journeys: make(map[uuid.UUID]*models.Journey)}
}

func clone(j *models.Journey) *models.Journey {
	c := *j
	c.Samples = append([]models.Sample(nil), j.Samples...)
	if j.EndedAt != nil {
		t := *j.EndedAt
		c.EndedAt = &t
	}
	return &c
}

func (r *fakeRepo) openFor(workerID uuid.UUID) *models.Journey {
	for _, j := range r.journeys {
		if j.WorkerID == workerID && j.State.IsOpen() {
			return j
		}
	}
	return nil
}

func (r *fakeRepo) LockOpen(ctx context.Context, workerID uuid.UUID) (*models.Journey, error) {
	return r.FindOpen(ctx, workerID)
}

func (r *fakeRepo) FindOpen(_ context.Context, workerID uuid.UUID) (*models.Journey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j := r.openFor(workerID); j != nil {
		return clone(j), nil
	}
	return nil, nil
}

func (r *fakeRepo) Create(_ context.Context, j *models.Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openFor(j.WorkerID) != nil {
		return types.ErrJourneyAlreadyOpen
	}
	j.Version = 1
	r.journeys[j.ID] = clone(j)
	return nil
}

func (r *fakeRepo) AppendSample(_ context.Context, j *models.Journey, _ models.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	stored, ok := r.journeys[j.ID]
	if !ok || stored.Version != j.Version || !stored.State.IsOpen() {
		return types.ErrStaleJourney
	}
	j.Version++
	r.journeys[j.ID] = clone(j)
	return nil
}

func (r *fakeRepo) Finalize(_ context.Context, j *models.Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalizeErr != nil {
		return r.finalizeErr
	}
	stored, ok := r.journeys[j.ID]
	if !ok || stored.Version != j.Version || !stored.State.IsOpen() {
		return types.ErrStaleJourney
	}
	j.Version++
	r.journeys[j.ID] = clone(j)
	return nil
}

func (r *fakeRepo) ListByWorker(_ context.Context, workerID uuid.UUID, f models.Filters) ([]models.JourneySummary, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []models.JourneySummary
	for _, j := range r.journeys {
		if j.WorkerID != workerID {
			continue
		}
		all = append(all, models.JourneySummary{
			ID:           j.ID,
			WorkerID:     j.WorkerID,
			State:        j.State,
			StartedAt:    j.StartedAt,
			EndedAt:      j.EndedAt,
			DistanceKm:   j.DistanceKm,
			AverageSpeed: j.AverageSpeed,
			MaxSpeed:     j.MaxSpeed,
			SampleCount:  len(j.Samples),
		})
	}
	sort.Slice(all, func(a, b int) bool { return all[a].StartedAt.After(all[b].StartedAt) })

	total := len(all)
	from := min(f.Offset(), total)
	to := min(from+f.Limit(), total)
	return all[from:to], total, nil
}

func (r *fakeRepo) stored(id uuid.UUID) *models.Journey {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.journeys[id]; ok {
		return clone(j)
	}
	return nil
}

// fakeTx serializes transactions the way a row lock serializes one worker.
type fakeTx struct {
	mu sync.Mutex
}

func (t *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Location()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []models.JourneyEventMessage
	err    error
}

func (r *recorder) PublishJourneyEvent(_ context.Context, msg models.JourneyEventMessage) error {
	return r.record(msg)
}

func (r *recorder) Broadcast(_ context.Context, msg models.JourneyEventMessage) error {
	return r.record(msg)
}

func (r *recorder) record(msg models.JourneyEventMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, msg)
	return r.err
}

func (r *recorder) last() models.JourneyEventMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.JourneyEventMessage{}
	}
	return r.events[len(r.events)-1]
}

type fixture struct {
	svc   *Service
	repo  *fakeRepo
	clock *fakeClock
	pub   *recorder
}

// newFixture starts the clock at 10:00 local time.
func newFixture() *fixture {
	repo := newFakeRepo()
	clock := newFakeClock(time.Date(2026, 3, 10, 10, 0, 0, 0, bogota))
	pub := &recorder{}

	rules := DefaultRules()
	rules.Location = bogota

	svc := New(repo, &fakeTx{}, clock, rules, pub, nil, logger.New(io.Discard, "test", logger.LevelError))
	return &fixture{svc: svc, repo: repo, clock: clock, pub: pub}
}

func sampleAt(speed, lat, lng float64) models.SampleInput {
	return models.SampleInput{Speed: &speed, Position: &models.Position{Lat: lat, Lng: lng}}
}
