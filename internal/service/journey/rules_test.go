package journey

import (
	"testing"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

func rulesForTest() Rules {
	r := DefaultRules()
	r.Location = bogota
	return r
}

func at(ts time.Time, speed float64) models.Sample {
	return models.Sample{Timestamp: ts, Speed: speed}
}

func TestShouldFinalize(t *testing.T) {
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, bogota)
	r := rulesForTest()

	tests := []struct {
		name    string
		samples []models.Sample
		want    bool
		reason  types.FinalizeReason
	}{
		{"no samples", nil, false, ""},
		{"only old samples", []models.Sample{at(now.Add(-10*time.Minute), 0)}, false, ""},
		{"slow window", []models.Sample{at(now.Add(-10*time.Minute), 50), at(now.Add(-time.Minute), 1), at(now, 0.2)}, true, types.ReasonInactivity},
		{"one fast sample in window", []models.Sample{at(now.Add(-4*time.Minute), 30), at(now, 0)}, false, ""},
		{"sample on window edge counts", []models.Sample{at(now.Add(-5*time.Minute), 20), at(now, 0)}, false, ""},
		{"exactly idle speed", []models.Sample{at(now, 1)}, true, types.ReasonInactivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := r.ShouldFinalize(tt.samples, now)
			if got != tt.want || reason != tt.reason {
				t.Fatalf("got (%v, %q), want (%v, %q)", got, reason, tt.want, tt.reason)
			}
		})
	}
}

func TestCurfewUsesBusinessTimezone(t *testing.T) {
	r := rulesForTest()
	fast := []models.Sample{at(time.Now(), 60)}

	// 00:30 UTC is 19:30 in Bogota
	utc := time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)
	if ok, reason := r.ShouldFinalize(fast, utc); !ok || reason != types.ReasonCurfew {
		t.Fatalf("expected curfew, got (%v, %q)", ok, reason)
	}

	// 23:30 UTC is 18:30 in Bogota
	early := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	if ok, _ := r.ShouldFinalize([]models.Sample{at(early, 60)}, early); ok {
		t.Fatalf("18:30 local must not trigger curfew")
	}
}

func TestMoving(t *testing.T) {
	r := DefaultRules()
	if r.Moving(10) {
		t.Fatalf("10 km/h must not start a guarded journey")
	}
	if !r.Moving(10.01) {
		t.Fatalf("10.01 km/h must start a guarded journey")
	}
}
