package journey

import (
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

// Stats are the derived values of a sample sequence.
type Stats struct {
	DistanceKm   float64
	AverageSpeed float64
	MaxSpeed     float64
	SampleCount  int
}

// Apply appends s to j and updates the derived statistics.
// The first open sample moves an active journey to in_progress.
func Apply(j *models.Journey, s models.Sample) {
	if prev, ok := j.LastSample(); ok {
		j.DistanceKm += GreatCircleKm(prev.Position.Lat, prev.Position.Lng, s.Position.Lat, s.Position.Lng)
	}

	s.Seq = len(j.Samples) + 1
	j.Samples = append(j.Samples, s)

	if len(j.Samples) == 1 || s.Speed > j.MaxSpeed {
		j.MaxSpeed = s.Speed
	}

	var sum float64
	for _, x := range j.Samples {
		sum += x.Speed
	}
	j.AverageSpeed = models.Round2(sum / float64(len(j.Samples)))
}

// Recompute replays samples from an empty journey. It must agree with the values kept by Apply.
func Recompute(samples []models.Sample) Stats {
	var j models.Journey
	for _, s := range samples {
		Apply(&j, s)
	}
	return StatsOf(&j)
}

func StatsOf(j *models.Journey) Stats {
	return Stats{
		DistanceKm:   j.DistanceKm,
		AverageSpeed: j.AverageSpeed,
		MaxSpeed:     j.MaxSpeed,
		SampleCount:  len(j.Samples),
	}
}

// markMoving promotes an active journey once a sample has been appended to it.
func markMoving(j *models.Journey) {
	if j.State == types.StateActive {
		j.State = types.StateInProgress
	}
}
