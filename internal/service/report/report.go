package report

import (
	"context"
	"slices"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// ReportService builds the admin dashboards. Days are calendar days in loc.
type ReportService struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
	l    logger.Logger
}

func NewReportService(repo Repository, loc *time.Location, l logger.Logger) *ReportService {
	return &ReportService{
		repo: repo,
		loc:  loc,
		now:  time.Now,
		l:    l,
	}
}

// ParseDay reads a YYYY-MM-DD date in the report location. Empty means today.
func (s *ReportService) ParseDay(value string) (time.Time, error) {
	if value == "" {
		now := s.now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), nil
	}

	day, err := time.ParseInLocation(dayLayout, value, s.loc)
	if err != nil {
		return time.Time{}, types.ErrInvalidDate
	}
	return day, nil
}

// ParseMonth reads a required YYYY-MM month in the report location.
func (s *ReportService) ParseMonth(value string) (time.Time, error) {
	month, err := time.ParseInLocation(monthLayout, value, s.loc)
	if err != nil {
		return time.Time{}, types.ErrInvalidMonth
	}
	return month, nil
}

func checkRegion(r types.Region) error {
	if r != "" && !r.Valid() {
		return types.ErrInvalidRegion
	}
	return nil
}

// Daily lists the journeys started on f.Date, one row per journey.
func (s *ReportService) Daily(ctx context.Context, f models.DailyReportFilter) (*models.DailyReport, error) {
	ctx = wrap.WithAction(ctx, "report_daily")

	if err := checkRegion(f.Region); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	local := f.Date.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	rows, total, err := s.repo.DailyRows(ctx, from, to, f.Region, f.Filters)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	for i := range rows {
		rows[i].DistanceKm = models.Round2(rows[i].DistanceKm)
	}

	s.l.Debug(ctx, "daily report built", "date", from.Format(dayLayout), "rows", len(rows), "total", total)

	return &models.DailyReport{
		Date:     from.Format(dayLayout),
		Rows:     rows,
		Metadata: models.CalculateMetadata(total, f.Page, f.PageSize),
	}, nil
}

// Monthly summarizes every day of f.Month that has journeys: journey count, mean of the
// journeys' average speeds, highest max speed and total distance.
func (s *ReportService) Monthly(ctx context.Context, f models.MonthlyReportFilter) (*models.MonthlyReport, error) {
	ctx = wrap.WithAction(ctx, "report_monthly")

	if err := checkRegion(f.Region); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	local := f.Month.In(s.loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0)

	stats, err := s.repo.JourneyStats(ctx, from, to, f.Region)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.MonthlyReport{
		Month: from.Format(monthLayout),
		Days:  summarizeDays(stats, s.loc),
	}, nil
}

type dayAcc struct {
	journeys int
	speedSum float64
	maxSpeed float64
	distance float64
}

func summarizeDays(stats []models.JourneyStat, loc *time.Location) []models.MonthlyReportDay {
	byDay := make(map[string]*dayAcc)
	for _, st := range stats {
		key := st.StartedAt.In(loc).Format(dayLayout)
		acc, ok := byDay[key]
		if !ok {
			acc = &dayAcc{}
			byDay[key] = acc
		}
		acc.journeys++
		acc.speedSum += st.AverageSpeed
		acc.maxSpeed = max(acc.maxSpeed, st.MaxSpeed)
		acc.distance += st.DistanceKm
	}

	days := make([]models.MonthlyReportDay, 0, len(byDay))
	for key, acc := range byDay {
		days = append(days, models.MonthlyReportDay{
			Date:         key,
			Journeys:     acc.journeys,
			AverageSpeed: models.Round2(acc.speedSum / float64(acc.journeys)),
			MaxSpeed:     acc.maxSpeed,
			DistanceKm:   models.Round2(acc.distance),
		})
	}
	slices.SortFunc(days, func(a, b models.MonthlyReportDay) int {
		if a.Date < b.Date {
			return -1
		}
		if a.Date > b.Date {
			return 1
		}
		return 0
	})

	return days
}
