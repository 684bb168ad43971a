package repo

import (
	"context"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

type ReportRepo struct {
	db Querier
}

func NewReportRepo(db Querier) *ReportRepo {
	return &ReportRepo{
		db: db,
	}
}

// DailyRows lists journeys started in [from, to), optionally of one region.
func (r *ReportRepo) DailyRows(ctx context.Context, from, to time.Time, region types.Region, f models.Filters) (_ []models.DailyReportRow, _ int, err error) {
	const op = "ReportRepo.DailyRows"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		SELECT j.id, u.name, u.email, COALESCE(u.region, ''), u.role, j.started_at, j.ended_at, j.state,
			j.distance_km, j.average_speed, j.max_speed, count(*) OVER()
		FROM journeys j
		JOIN users u ON u.id = j.worker_id
		WHERE j.started_at >= $1 AND j.started_at < $2 AND ($3 = '' OR u.region = $3)
		ORDER BY j.started_at, u.email
		LIMIT $4 OFFSET $5`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from, to, string(region), f.Limit(), f.Offset())
	if err != nil {
		return nil, 0, persistence(ctx, op, err)
	}
	defer rows.Close()

	var (
		total  int
		result = make([]models.DailyReportRow, 0)
	)
	for rows.Next() {
		var (
			row                     models.DailyReportRow
			regionName, role, state string
		)
		if err := rows.Scan(
			&row.JourneyID,
			&row.WorkerName,
			&row.Email,
			&regionName,
			&role,
			&row.StartedAt,
			&row.EndedAt,
			&state,
			&row.DistanceKm,
			&row.AverageSpeed,
			&row.MaxSpeed,
			&total,
		); err != nil {
			return nil, 0, persistence(ctx, op, err)
		}
		row.Region = types.Region(regionName)
		row.Role = types.UserRole(role)
		row.State = types.JourneyState(state)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistence(ctx, op, err)
	}

	return result, total, nil
}

// JourneyStats returns the statistics of every journey started in [from, to).
func (r *ReportRepo) JourneyStats(ctx context.Context, from, to time.Time, region types.Region) (_ []models.JourneyStat, err error) {
	const op = "ReportRepo.JourneyStats"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	const query = `
		SELECT j.started_at, j.average_speed, j.max_speed, j.distance_km
		FROM journeys j
		JOIN users u ON u.id = j.worker_id
		WHERE j.started_at >= $1 AND j.started_at < $2 AND ($3 = '' OR u.region = $3)
		ORDER BY j.started_at`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, from, to, string(region))
	if err != nil {
		return nil, persistence(ctx, op, err)
	}
	defer rows.Close()

	stats := make([]models.JourneyStat, 0)
	for rows.Next() {
		var s models.JourneyStat
		if err := rows.Scan(&s.StartedAt, &s.AverageSpeed, &s.MaxSpeed, &s.DistanceKm); err != nil {
			return nil, persistence(ctx, op, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence(ctx, op, err)
	}

	return stats, nil
}
