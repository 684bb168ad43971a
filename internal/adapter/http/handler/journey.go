package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/validator"

	"github.com/google/uuid"
)

type JourneyService interface {
	Start(ctx context.Context, workerID uuid.UUID, first *models.SampleInput) (*models.Journey, error)
	StartGuarded(ctx context.Context, workerID uuid.UUID, in models.SampleInput) (models.StartResult, error)
	AppendSample(ctx context.Context, workerID uuid.UUID, in models.SampleInput) (*models.Journey, error)
	Finalize(ctx context.Context, workerID uuid.UUID) (*models.Journey, error)
	Current(ctx context.Context, workerID uuid.UUID) (*models.Journey, error)
	History(ctx context.Context, workerID uuid.UUID, f models.Filters) (*models.JourneyHistory, error)
}

// Journey serves the worker-facing journey endpoints. The worker is always the
// authenticated user.
type Journey struct {
	service JourneyService
	l       logger.Logger
}

func NewJourney(service JourneyService, l logger.Logger) *Journey {
	return &Journey{
		service: service,
		l:       l,
	}
}

// Start godoc
// @Summary      Start a journey
// @Description  Opens a journey for the authenticated worker, optionally with a first sample
// @Tags         Journeys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.StartRequest  false  "First sample"
// @Success      201      {object}  dto.JourneyResponse
// @Failure      409      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /journeys/start [post]
func (h *Journey) Start(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "start_journey")
	user := models.UserFromContext(ctx)

	var req dto.StartRequest
	if _, err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	j, err := h.service.Start(ctx, user.ID, req.ToModel())
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to start journey", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, dto.JourneyResponse{Journey: models.NewJourneyView(j)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, "failed to write response")
	}
}

// AutoStart godoc
// @Summary      Start a journey on movement
// @Description  Starts a journey only when the reading is faster than the guarded start speed.
// @Description  Answers 202 while waiting for movement and 200 when a journey is already open.
// @Tags         Journeys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.AutoStartRequest  true  "Reading, position optional while slow"
// @Success      201      {object}  dto.AutoStartResponse
// @Success      200      {object}  dto.AutoStartResponse
// @Success      202      {object}  dto.AutoStartResponse
// @Failure      422      {object}  map[string]any
// @Router       /journeys/auto-start [post]
func (h *Journey) AutoStart(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "auto_start_journey")
	user := models.UserFromContext(ctx)

	var req dto.AutoStartRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, err := h.service.StartGuarded(ctx, user.ID, req.ToModel())
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to auto-start journey", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	status := http.StatusAccepted
	switch res.Outcome {
	case models.OutcomeStarted:
		status = http.StatusCreated
	case models.OutcomeAlreadyStarted:
		status = http.StatusOK
	}

	if err := writeJSON(w, status, dto.NewAutoStartResponse(res), nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, "failed to write response")
	}
}

// AppendSample godoc
// @Summary      Record a sample
// @Description  Appends a reading to the open journey. The journey may be finalized automatically
// @Description  after inactivity or at the end of the working day.
// @Tags         Journeys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.SampleRequest  true  "Reading"
// @Success      200      {object}  dto.JourneyResponse
// @Failure      404      {object}  map[string]string
// @Failure      422      {object}  map[string]any
// @Router       /journeys/samples [post]
func (h *Journey) AppendSample(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "append_sample")
	user := models.UserFromContext(ctx)

	var req dto.SampleRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	j, err := h.service.AppendSample(ctx, user.ID, req.ToModel())
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to append sample", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, dto.JourneyResponse{Journey: models.NewJourneyView(j)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, "failed to write response")
	}
}

// Finalize godoc
// @Summary      Finalize the journey
// @Tags         Journeys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.JourneyResponse
// @Failure      404  {object}  map[string]string
// @Router       /journeys/finalize [post]
func (h *Journey) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "finalize_journey")
	user := models.UserFromContext(ctx)

	j, err := h.service.Finalize(ctx, user.ID)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to finalize journey", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, dto.JourneyResponse{Journey: models.NewJourneyView(j)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, "failed to write response")
	}
}

// Current godoc
// @Summary      Open journey
// @Tags         Journeys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.JourneyResponse
// @Failure      404  {object}  map[string]string
// @Router       /journeys/current [get]
func (h *Journey) Current(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "current_journey")
	user := models.UserFromContext(ctx)

	j, err := h.service.Current(ctx, user.ID)
	if err != nil {
		if GetCode(err) >= http.StatusInternalServerError {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get current journey", err)
		}
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, dto.JourneyResponse{Journey: models.NewJourneyView(j)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, "failed to write response")
	}
}

// History godoc
// @Summary      Journey history
// @Description  The worker's journeys, newest first
// @Tags         Journeys
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"       default(1)
// @Param        limit  query     int  false  "Page size"  default(20)
// @Success      200    {object}  models.JourneyHistory
// @Failure      422    {object}  map[string]any
// @Router       /journeys/history [get]
func (h *Journey) History(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "journey_history")
	user := models.UserFromContext(ctx)

	v := validator.New()
	qs := r.URL.Query()

	filters := models.NewFilters(
		readInt(qs, "page", models.DefaultPage, v),
		readInt(qs, "limit", models.DefaultPageSize, v),
	)
	filters.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	history, err := h.service.History(ctx, user.ID, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list journeys", err)
		serviceErrorResponse(w, err)
		return
	}

	h.l.Debug(ctx, "fetched journey history", "total", history.Metadata.TotalRecords)

	if err := writeJSON(w, http.StatusOK, history, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
