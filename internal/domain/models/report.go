package models

import (
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/google/uuid"
)

type DailyReportFilter struct {
	Date   time.Time // any instant inside the requested local day
	Region types.Region
	Filters
}

// DailyReportRow is one journey started on the requested day.
type DailyReportRow struct {
	JourneyID    uuid.UUID          `json:"journey_id"`
	WorkerName   string             `json:"name"`
	Email        string             `json:"email"`
	Region       types.Region       `json:"region"`
	Role         types.UserRole     `json:"role"`
	StartedAt    time.Time          `json:"started_at"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	State        types.JourneyState `json:"state"`
	DistanceKm   float64            `json:"distance_km"`
	AverageSpeed float64            `json:"average_speed"`
	MaxSpeed     float64            `json:"max_speed"`
}

type DailyReport struct {
	Date     string           `json:"date"`
	Rows     []DailyReportRow `json:"rows"`
	Metadata Metadata         `json:"metadata"`
}

type MonthlyReportFilter struct {
	Month  time.Time // first day of the month in the report location
	Region types.Region
}

// JourneyStat is the minimal per-journey data the monthly report aggregates.
type JourneyStat struct {
	StartedAt    time.Time
	AverageSpeed float64
	MaxSpeed     float64
	DistanceKm   float64
}

type MonthlyReportDay struct {
	Date         string  `json:"date"`
	Journeys     int     `json:"journeys"`
	AverageSpeed float64 `json:"average_speed"`
	MaxSpeed     float64 `json:"max_speed"`
	DistanceKm   float64 `json:"distance_km"`
}

type MonthlyReport struct {
	Month string             `json:"month"`
	Days  []MonthlyReportDay `json:"days"`
}
