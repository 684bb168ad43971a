package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var testLog = logger.New(io.Discard, "test", "error")

type fakeJourneys struct {
	startFirst *models.SampleInput
	started    bool
	appendErr  error
	guarded    models.StartResult
	guardedIn  models.SampleInput
	history    *models.JourneyHistory
	filters    models.Filters
	journey    *models.Journey
}

func (f *fakeJourneys) Start(_ context.Context, workerID uuid.UUID, first *models.SampleInput) (*models.Journey, error) {
	f.started = true
	f.startFirst = first
	return &models.Journey{ID: uuid.New(), WorkerID: workerID, State: types.StateActive}, nil
}

func (f *fakeJourneys) StartGuarded(_ context.Context, _ uuid.UUID, in models.SampleInput) (models.StartResult, error) {
	f.guardedIn = in
	return f.guarded, nil
}

func (f *fakeJourneys) AppendSample(_ context.Context, workerID uuid.UUID, in models.SampleInput) (*models.Journey, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	return &models.Journey{ID: uuid.New(), WorkerID: workerID, State: types.StateInProgress, MaxSpeed: *in.Speed}, nil
}

func (f *fakeJourneys) Finalize(_ context.Context, _ uuid.UUID) (*models.Journey, error) {
	if f.journey == nil {
		return nil, types.ErrNoOpenJourney
	}
	return f.journey, nil
}

func (f *fakeJourneys) Current(_ context.Context, _ uuid.UUID) (*models.Journey, error) {
	if f.journey == nil {
		return nil, types.ErrNoOpenJourney
	}
	return f.journey, nil
}

func (f *fakeJourneys) History(_ context.Context, _ uuid.UUID, fl models.Filters) (*models.JourneyHistory, error) {
	f.filters = fl
	return f.history, nil
}

func worker() *models.User {
	return &models.User{ID: uuid.New(), Role: types.RoleEngineer, Email: "w@example.com"}
}

func request(method, target, body string, user *models.User) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		r = r.WithContext(models.WithUser(r.Context(), user))
	}
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestGetCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{types.ErrNegativeSpeed, http.StatusUnprocessableEntity},
		{types.ErrNoOpenJourney, http.StatusNotFound},
		{types.ErrJourneyAlreadyOpen, http.StatusConflict},
		{types.ErrStaleJourney, http.StatusConflict},
		{types.ErrEmailTaken, http.StatusConflict},
		{types.ErrInvalidCredentials, http.StatusUnauthorized},
		{types.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("repo: %w", types.ErrPersistence), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := GetCode(tc.err); got != tc.want {
			t.Fatalf("GetCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStartWithoutBody(t *testing.T) {
	svc := &fakeJourneys{}
	h := NewJourney(svc, testLog)

	rec := httptest.NewRecorder()
	h.Start(rec, request(http.MethodPost, "/journeys/start", "", worker()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.started || svc.startFirst != nil {
		t.Fatalf("expected a start without sample")
	}
}

func TestStartWithSample(t *testing.T) {
	svc := &fakeJourneys{}
	h := NewJourney(svc, testLog)

	body := `{"sample":{"speed":12.5,"position":{"lat":4.81,"lng":-75.69}}}`
	rec := httptest.NewRecorder()
	h.Start(rec, request(http.MethodPost, "/journeys/start", body, worker()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.startFirst == nil || *svc.startFirst.Speed != 12.5 {
		t.Fatalf("first sample not passed: %+v", svc.startFirst)
	}
}

func TestAppendSampleValidation(t *testing.T) {
	h := NewJourney(&fakeJourneys{appendErr: types.ErrNoOpenJourney}, testLog)

	cases := []struct {
		name string
		body string
		code int
		key  string
	}{
		{"negative speed", `{"speed":-3,"position":{"lat":4.8,"lng":-75.6}}`, http.StatusUnprocessableEntity, "speed"},
		{"missing position", `{"speed":3}`, http.StatusUnprocessableEntity, "position"},
		{"unknown field", `{"speed":3,"position":{"lat":1,"lng":1},"miles":2}`, http.StatusBadRequest, ""},
		{"broken json", `{"speed":`, http.StatusBadRequest, ""},
		// validation wins over the missing journey
		{"no open journey", `{"speed":3,"position":{"lat":1,"lng":1}}`, http.StatusNotFound, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.AppendSample(rec, request(http.MethodPost, "/journeys/samples", tc.body, worker()))
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.key == "" {
				return
			}
			var resp struct {
				Error map[string]string `json:"error"`
			}
			decode(t, rec, &resp)
			if _, ok := resp.Error[tc.key]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.key, resp.Error)
			}
		})
	}
}

func TestAppendSampleHidesPersistenceErrors(t *testing.T) {
	h := NewJourney(&fakeJourneys{appendErr: fmt.Errorf("JourneyRepo.AppendSample: %w: connection reset", types.ErrPersistence)}, testLog)

	rec := httptest.NewRecorder()
	h.AppendSample(rec, request(http.MethodPost, "/journeys/samples", `{"speed":3,"position":{"lat":1,"lng":1}}`, worker()))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestAutoStartStatuses(t *testing.T) {
	open := &models.Journey{ID: uuid.New(), State: types.StateInProgress}
	cases := []struct {
		res  models.StartResult
		code int
	}{
		{models.StartResult{Outcome: models.OutcomeWaiting}, http.StatusAccepted},
		{models.StartResult{Outcome: models.OutcomeStarted, Journey: open}, http.StatusCreated},
		{models.StartResult{Outcome: models.OutcomeAlreadyStarted, Journey: open}, http.StatusOK},
	}

	for _, tc := range cases {
		h := NewJourney(&fakeJourneys{guarded: tc.res}, testLog)
		rec := httptest.NewRecorder()
		h.AutoStart(rec, request(http.MethodPost, "/journeys/auto-start", `{"speed":5,"position":{"lat":1,"lng":1}}`, worker()))
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.res.Outcome, tc.code, rec.Code)
		}

		var resp struct {
			Status  string          `json:"status"`
			Journey json.RawMessage `json:"journey"`
		}
		decode(t, rec, &resp)
		if resp.Status != string(tc.res.Outcome) {
			t.Fatalf("unexpected status %q", resp.Status)
		}
		if (tc.res.Journey == nil) != (len(resp.Journey) == 0) {
			t.Fatalf("journey presence mismatch: %s", rec.Body.String())
		}
	}
}

func TestAutoStartWithSpeedOnly(t *testing.T) {
	svc := &fakeJourneys{guarded: models.StartResult{Outcome: models.OutcomeWaiting}}
	h := NewJourney(svc, testLog)

	rec := httptest.NewRecorder()
	h.AutoStart(rec, request(http.MethodPost, "/journeys/auto-start", `{"speed":5}`, worker()))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.guardedIn.Speed == nil || *svc.guardedIn.Speed != 5 || svc.guardedIn.Position != nil {
		t.Fatalf("unexpected input %+v", svc.guardedIn)
	}

	rec = httptest.NewRecorder()
	h.AutoStart(rec, request(http.MethodPost, "/journeys/auto-start", `{"speed":20,"position":{"lat":120,"lng":1}}`, worker()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("an invalid position is still rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.AutoStart(rec, request(http.MethodPost, "/journeys/auto-start", `{"position":{"lat":1,"lng":1}}`, worker()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("a missing speed is rejected, got %d", rec.Code)
	}
}

func TestCurrentAndFinalize(t *testing.T) {
	ended := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	j := &models.Journey{ID: uuid.New(), State: types.StateFinalized, EndedAt: &ended, DistanceKm: 1.23456}

	h := NewJourney(&fakeJourneys{}, testLog)
	rec := httptest.NewRecorder()
	h.Current(rec, request(http.MethodGet, "/journeys/current", "", worker()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without an open journey, got %d", rec.Code)
	}

	h = NewJourney(&fakeJourneys{journey: j}, testLog)
	rec = httptest.NewRecorder()
	h.Finalize(rec, request(http.MethodPost, "/journeys/finalize", "", worker()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Journey models.JourneyView `json:"journey"`
	}
	decode(t, rec, &resp)
	if resp.Journey.DistanceKm != 1.23 || resp.Journey.State != types.StateFinalized {
		t.Fatalf("unexpected journey %+v", resp.Journey)
	}
}

func TestHistoryPagination(t *testing.T) {
	svc := &fakeJourneys{history: &models.JourneyHistory{Journeys: []models.JourneyView{}}}
	h := NewJourney(svc, testLog)

	rec := httptest.NewRecorder()
	h.History(rec, request(http.MethodGet, "/journeys/history?page=2&limit=5", "", worker()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.filters.Page != 2 || svc.filters.PageSize != 5 {
		t.Fatalf("unexpected filters %+v", svc.filters)
	}

	for _, q := range []string{"page=abc", "limit=500", "page=-1"} {
		rec = httptest.NewRecorder()
		h.History(rec, request(http.MethodGet, "/journeys/history?"+q, "", worker()))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", q, rec.Code)
		}
	}
}
