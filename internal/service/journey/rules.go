package journey

import (
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

// Rules holds the thresholds of the journey lifecycle.
type Rules struct {
	InactivityWindow  time.Duration
	IdleSpeed         float64 // km/h, inclusive
	CurfewHour        int     // local hour at which open journeys are closed
	GuardedStartSpeed float64 // km/h, a guarded start needs a strictly greater speed
	Location          *time.Location
}

func DefaultRules() Rules {
	return Rules{
		InactivityWindow:  5 * time.Minute,
		IdleSpeed:         1,
		CurfewHour:        19,
		GuardedStartSpeed: 10,
		Location:          time.UTC,
	}
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// ShouldFinalize evaluates the auto-finalize rule against the full sample list.
// The curfew hour is read in the rules location.
func (r Rules) ShouldFinalize(samples []models.Sample, now time.Time) (bool, types.FinalizeReason) {
	if now.In(r.location()).Hour() >= r.CurfewHour {
		return true, types.ReasonCurfew
	}

	cutoff := now.Add(-r.InactivityWindow)
	inWindow := 0
	for _, s := range samples {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		inWindow++
		if s.Speed > r.IdleSpeed {
			return false, ""
		}
	}

	if inWindow == 0 {
		return false, ""
	}
	return true, types.ReasonInactivity
}

// Moving reports whether speed is enough for a guarded start.
func (r Rules) Moving(speed float64) bool {
	return speed > r.GuardedStartSpeed
}
