package models

import (
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/google/uuid"
)

// Position is a WGS84 coordinate in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Sample is one telemetry reading. Seq preserves arrival order inside a journey.
type Sample struct {
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Position  Position  `json:"position"`
}

// SampleInput is an unvalidated reading as received from a client.
// A nil Timestamp means "now".
type SampleInput struct {
	Speed     *float64
	Position  *Position
	Timestamp *time.Time
}

// Journey is a worker's work session.
type Journey struct {
	ID        uuid.UUID
	WorkerID  uuid.UUID
	State     types.JourneyState
	StartedAt time.Time
	EndedAt   *time.Time

	Samples []Sample

	// DistanceKm is accumulated unrounded; AverageSpeed is kept rounded to 2 decimals.
	DistanceKm   float64
	AverageSpeed float64
	MaxSpeed     float64

	Version   int64
	UpdatedAt time.Time
}

func (j *Journey) IsOpen() bool {
	return j != nil && j.State.IsOpen()
}

func (j *Journey) LastSample() (Sample, bool) {
	if len(j.Samples) == 0 {
		return Sample{}, false
	}
	return j.Samples[len(j.Samples)-1], true
}

// JourneyView is the projection returned to clients.
type JourneyView struct {
	ID           uuid.UUID          `json:"id"`
	WorkerID     uuid.UUID          `json:"worker_id"`
	State        types.JourneyState `json:"state"`
	StartedAt    time.Time          `json:"started_at"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	DistanceKm   float64            `json:"distance_km"`
	AverageSpeed float64            `json:"average_speed"`
	MaxSpeed     float64            `json:"max_speed"`
	SampleCount  int                `json:"sample_count"`
}

// JourneySummary is a stored journey without its samples, used by history listings.
type JourneySummary struct {
	ID           uuid.UUID
	WorkerID     uuid.UUID
	State        types.JourneyState
	StartedAt    time.Time
	EndedAt      *time.Time
	DistanceKm   float64
	AverageSpeed float64
	MaxSpeed     float64
	SampleCount  int
}

// JourneyEventMessage is published to the broker and the live feed on every change.
type JourneyEventMessage struct {
	Event     types.JourneyEvent   `json:"event"`
	Reason    types.FinalizeReason `json:"reason,omitempty"`
	Journey   JourneyView          `json:"journey"`
	Timestamp time.Time            `json:"timestamp"`
}

// StartOutcome tells what a guarded start did.
type StartOutcome string

const (
	OutcomeStarted        StartOutcome = "started"
	OutcomeAlreadyStarted StartOutcome = "already_started"
	OutcomeWaiting        StartOutcome = "waiting"
)

type StartResult struct {
	Outcome StartOutcome
	Journey *Journey
}
