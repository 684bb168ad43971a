package models

import "math"

// Round2 rounds to two decimals, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// NewJourneyView projects a journey for clients. Distance is rounded here only.
func NewJourneyView(j *Journey) JourneyView {
	return JourneyView{
		ID:           j.ID,
		WorkerID:     j.WorkerID,
		State:        j.State,
		StartedAt:    j.StartedAt,
		EndedAt:      j.EndedAt,
		DistanceKm:   Round2(j.DistanceKm),
		AverageSpeed: j.AverageSpeed,
		MaxSpeed:     j.MaxSpeed,
		SampleCount:  len(j.Samples),
	}
}

func NewSummaryView(s JourneySummary) JourneyView {
	return JourneyView{
		ID:           s.ID,
		WorkerID:     s.WorkerID,
		State:        s.State,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		DistanceKm:   Round2(s.DistanceKm),
		AverageSpeed: s.AverageSpeed,
		MaxSpeed:     s.MaxSpeed,
		SampleCount:  s.SampleCount,
	}
}
