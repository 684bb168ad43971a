package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/validator"
)

type ReportService interface {
	ParseDay(value string) (time.Time, error)
	ParseMonth(value string) (time.Time, error)
	Daily(ctx context.Context, f models.DailyReportFilter) (*models.DailyReport, error)
	Monthly(ctx context.Context, f models.MonthlyReportFilter) (*models.MonthlyReport, error)
}

type Report struct {
	s ReportService
	l logger.Logger
}

func NewReport(s ReportService, l logger.Logger) *Report {
	return &Report{
		s: s,
		l: l,
	}
}

// Daily godoc
// @Summary      Daily report
// @Description  One row per journey started on the given local day
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        date    query     string  false  "Day, YYYY-MM-DD (default today)"
// @Param        region  query     string  false  "Risaralda, Caldas or Quindío"
// @Param        page    query     int     false  "Page"       default(1)
// @Param        limit   query     int     false  "Page size"  default(20)
// @Success      200     {object}  models.DailyReport
// @Failure      422     {object}  map[string]any
// @Router       /admin/reports/daily [get]
func (h *Report) Daily(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_daily_report")

	v := validator.New()
	qs := r.URL.Query()

	filters := models.NewFilters(
		readInt(qs, "page", models.DefaultPage, v),
		readInt(qs, "limit", models.DefaultPageSize, v),
	)
	filters.Validate(v)

	day, err := h.s.ParseDay(readString(qs, "date", ""))
	if err != nil {
		v.AddError("date", "must be formatted as YYYY-MM-DD")
	}

	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	report, err := h.s.Daily(ctx, models.DailyReportFilter{
		Date:    day,
		Region:  types.Region(readString(qs, "region", "")),
		Filters: filters,
	})
	if err != nil {
		if GetCode(err) >= http.StatusInternalServerError {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to build daily report", err)
		}
		serviceErrorResponse(w, err)
		return
	}

	h.l.Debug(ctx, "fetched daily report", "date", report.Date, "total", report.Metadata.TotalRecords)

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// Monthly godoc
// @Summary      Monthly report
// @Description  Per local day: journey count, mean of average speeds and highest max speed
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        month   query     string  true   "Month, YYYY-MM"
// @Param        region  query     string  false  "Risaralda, Caldas or Quindío"
// @Success      200     {object}  models.MonthlyReport
// @Failure      422     {object}  map[string]any
// @Router       /admin/reports/monthly [get]
func (h *Report) Monthly(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_monthly_report")
	qs := r.URL.Query()

	month, err := h.s.ParseMonth(qs.Get("month"))
	if err != nil {
		failedValidationResponse(w, map[string]string{"month": "must be provided as YYYY-MM"})
		return
	}

	report, err := h.s.Monthly(ctx, models.MonthlyReportFilter{
		Month:  month,
		Region: types.Region(qs.Get("region")),
	})
	if err != nil {
		if GetCode(err) >= http.StatusInternalServerError {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to build monthly report", err)
		}
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
