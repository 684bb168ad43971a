package report

import (
	"context"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

type Repository interface {
	DailyRows(ctx context.Context, from, to time.Time, region types.Region, f models.Filters) ([]models.DailyReportRow, int, error)
	JourneyStats(ctx context.Context, from, to time.Time, region types.Region) ([]models.JourneyStat, error)
}
