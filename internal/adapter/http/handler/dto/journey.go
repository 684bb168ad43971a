package dto

import (
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/validator"
)

type PositionRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// SampleRequest is one telemetry reading sent by the mobile app.
type SampleRequest struct {
	Speed     *float64         `json:"speed" validate:"required,gte=0"`
	Position  *PositionRequest `json:"position" validate:"required"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
}

func (r *SampleRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *SampleRequest) ToModel() models.SampleInput {
	in := models.SampleInput{
		Speed:     r.Speed,
		Timestamp: r.Timestamp,
	}
	if r.Position != nil && r.Position.Lat != nil && r.Position.Lng != nil {
		in.Position = &models.Position{Lat: *r.Position.Lat, Lng: *r.Position.Lng}
	}
	return in
}

// AutoStartRequest is a reading sent while the app waits for movement. The position
// is only needed once the speed is high enough to start a journey.
type AutoStartRequest struct {
	Speed     *float64         `json:"speed" validate:"required,gte=0"`
	Position  *PositionRequest `json:"position,omitempty" validate:"omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
}

func (r *AutoStartRequest) Validate(v *validator.Validator) {
	v.Struct(r)
}

func (r *AutoStartRequest) ToModel() models.SampleInput {
	sample := SampleRequest{Speed: r.Speed, Position: r.Position, Timestamp: r.Timestamp}
	return sample.ToModel()
}

// StartRequest optionally carries the first reading of the journey.
type StartRequest struct {
	Sample *SampleRequest `json:"sample,omitempty"`
}

func (r *StartRequest) Validate(v *validator.Validator) {
	if r.Sample != nil {
		v.Struct(r)
	}
}

func (r *StartRequest) ToModel() *models.SampleInput {
	if r.Sample == nil {
		return nil
	}
	in := r.Sample.ToModel()
	return &in
}

type JourneyResponse struct {
	Journey models.JourneyView `json:"journey"`
}

// AutoStartResponse answers a guarded start. Journey is nil while waiting for movement.
type AutoStartResponse struct {
	Status  models.StartOutcome `json:"status"`
	Message string              `json:"message"`
	Journey *models.JourneyView `json:"journey,omitempty"`
}

func NewAutoStartResponse(res models.StartResult) AutoStartResponse {
	resp := AutoStartResponse{Status: res.Outcome}
	switch res.Outcome {
	case models.OutcomeStarted:
		resp.Message = "journey started"
	case models.OutcomeAlreadyStarted:
		resp.Message = "journey already in progress"
	default:
		resp.Message = "waiting for movement to start the journey"
	}
	if res.Journey != nil {
		view := models.NewJourneyView(res.Journey)
		resp.Journey = &view
	}
	return resp
}
