package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const openJourneyConstraint = "journeys_one_open_per_worker"

type JourneyRepo struct {
	db Querier
}

func NewJourneyRepo(db Querier) *JourneyRepo {
	return &JourneyRepo{
		db: db,
	}
}

const selectOpenJourney = `
	SELECT id, worker_id, state, started_at, ended_at, distance_km, average_speed, max_speed, version, updated_at
	FROM journeys
	WHERE worker_id = $1 AND state <> 'finalized'`

// LockOpen loads the open journey with SELECT ... FOR UPDATE.
func (r *JourneyRepo) LockOpen(ctx context.Context, workerID uuid.UUID) (*models.Journey, error) {
	return r.findOpen(ctx, "JourneyRepo.LockOpen", selectOpenJourney+" FOR UPDATE", workerID)
}

func (r *JourneyRepo) FindOpen(ctx context.Context, workerID uuid.UUID) (*models.Journey, error) {
	return r.findOpen(ctx, "JourneyRepo.FindOpen", selectOpenJourney, workerID)
}

func (r *JourneyRepo) findOpen(ctx context.Context, op, query string, workerID uuid.UUID) (j *models.Journey, err error) {
	start := time.Now()
	defer func() { observe(op, start, err) }()

	q := TxorDB(ctx, r.db)

	var (
		found models.Journey
		state string
	)
	if err := q.QueryRow(ctx, query, workerID).Scan(
		&found.ID,
		&found.WorkerID,
		&state,
		&found.StartedAt,
		&found.EndedAt,
		&found.DistanceKm,
		&found.AverageSpeed,
		&found.MaxSpeed,
		&found.Version,
		&found.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, persistence(ctx, op, err)
	}
	found.State = types.JourneyState(state)

	samples, err := r.samples(ctx, q, found.ID)
	if err != nil {
		return nil, persistence(ctx, op, err)
	}
	found.Samples = samples

	return &found, nil
}

func (r *JourneyRepo) samples(ctx context.Context, q Querier, journeyID uuid.UUID) ([]models.Sample, error) {
	const query = `
		SELECT seq, recorded_at, speed, lat, lng
		FROM journey_samples
		WHERE journey_id = $1
		ORDER BY seq`

	rows, err := q.Query(ctx, query, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]models.Sample, 0)
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(&s.Seq, &s.Timestamp, &s.Speed, &s.Position.Lat, &s.Position.Lng); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Create inserts the journey and its initial samples. A concurrent open journey of
// the same worker surfaces as ErrJourneyAlreadyOpen.
func (r *JourneyRepo) Create(ctx context.Context, j *models.Journey) (err error) {
	const op = "JourneyRepo.Create"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		INSERT INTO journeys (id, worker_id, state, started_at, distance_km, average_speed, max_speed, sample_count, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)`

	q := TxorDB(ctx, r.db)
	if _, err := q.Exec(ctx, query,
		j.ID,
		j.WorkerID,
		string(j.State),
		j.StartedAt,
		j.DistanceKm,
		j.AverageSpeed,
		j.MaxSpeed,
		len(j.Samples),
		j.UpdatedAt,
	); err != nil {
		if postgres.IsUniqueViolation(err, openJourneyConstraint) {
			return types.ErrJourneyAlreadyOpen
		}
		return persistence(ctx, op, err)
	}

	for _, s := range j.Samples {
		if err := insertSample(ctx, q, j.ID, s); err != nil {
			return persistence(ctx, op, err)
		}
	}

	j.Version = 1
	return nil
}

// AppendSample stores s and the statistics of j when j.Version is still current.
func (r *JourneyRepo) AppendSample(ctx context.Context, j *models.Journey, s models.Sample) (err error) {
	const op = "JourneyRepo.AppendSample"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		UPDATE journeys
		SET state = $2, distance_km = $3, average_speed = $4, max_speed = $5,
			sample_count = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $8 AND state <> 'finalized'`

	q := TxorDB(ctx, r.db)
	tag, err := q.Exec(ctx, query,
		j.ID,
		string(j.State),
		j.DistanceKm,
		j.AverageSpeed,
		j.MaxSpeed,
		len(j.Samples),
		j.UpdatedAt,
		j.Version,
	)
	if err != nil {
		return persistence(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrStaleJourney
	}

	if err := insertSample(ctx, q, j.ID, s); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return types.ErrStaleJourney
		}
		return persistence(ctx, op, err)
	}

	j.Version++
	return nil
}

func insertSample(ctx context.Context, q Querier, journeyID uuid.UUID, s models.Sample) error {
	const query = `
		INSERT INTO journey_samples (journey_id, seq, recorded_at, speed, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q.Exec(ctx, query, journeyID, s.Seq, s.Timestamp, s.Speed, s.Position.Lat, s.Position.Lng)
	return err
}

// Finalize closes j when j.Version is still current.
func (r *JourneyRepo) Finalize(ctx context.Context, j *models.Journey) (err error) {
	const op = "JourneyRepo.Finalize"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		UPDATE journeys
		SET state = 'finalized', ended_at = $2, version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $4 AND state <> 'finalized'`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, j.ID, j.EndedAt, j.UpdatedAt, j.Version)
	if err != nil {
		return persistence(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrStaleJourney
	}

	j.Version++
	return nil
}

// ListByWorker returns a page of the worker's journeys, newest first, and the total count.
func (r *JourneyRepo) ListByWorker(ctx context.Context, workerID uuid.UUID, f models.Filters) (_ []models.JourneySummary, _ int, err error) {
	const op = "JourneyRepo.ListByWorker"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		SELECT id, worker_id, state, started_at, ended_at, distance_km, average_speed, max_speed, sample_count,
			count(*) OVER()
		FROM journeys
		WHERE worker_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, workerID, f.Limit(), f.Offset())
	if err != nil {
		return nil, 0, persistence(ctx, op, err)
	}
	defer rows.Close()

	var (
		total int
		items = make([]models.JourneySummary, 0)
	)
	for rows.Next() {
		var (
			s     models.JourneySummary
			state string
		)
		if err := rows.Scan(
			&s.ID,
			&s.WorkerID,
			&state,
			&s.StartedAt,
			&s.EndedAt,
			&s.DistanceKm,
			&s.AverageSpeed,
			&s.MaxSpeed,
			&s.SampleCount,
			&total,
		); err != nil {
			return nil, 0, persistence(ctx, op, err)
		}
		s.State = types.JourneyState(state)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistence(ctx, op, err)
	}

	return items, total, nil
}
