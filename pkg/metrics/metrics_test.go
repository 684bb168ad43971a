package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJourneyLifecycle(t *testing.T) {
	const svc = "metrics-test-lifecycle"

	RecordJourneyStarted(svc, "manual")
	RecordJourneyStarted(svc, "guarded")
	RecordJourneyFinalized(svc, "inactivity")

	if got := testutil.ToFloat64(JourneysStartedTotal.WithLabelValues(svc, "manual")); got != 1 {
		t.Fatalf("manual starts = %v", got)
	}
	if got := testutil.ToFloat64(JourneysFinalizedTotal.WithLabelValues(svc, "inactivity")); got != 1 {
		t.Fatalf("inactivity finalizations = %v", got)
	}
	if got := testutil.ToFloat64(OpenJourneysGauge.WithLabelValues(svc)); got != 1 {
		t.Fatalf("open journeys = %v", got)
	}
}

func TestRecordPushNotificationStatus(t *testing.T) {
	const svc = "metrics-test-push"

	RecordPushNotification(svc, nil)
	RecordPushNotification(svc, errors.New("expo down"))
	RecordPushNotification(svc, errors.New("expo down"))

	if got := testutil.ToFloat64(PushNotificationsTotal.WithLabelValues(svc, "success")); got != 1 {
		t.Fatalf("success = %v", got)
	}
	if got := testutil.ToFloat64(PushNotificationsTotal.WithLabelValues(svc, "error")); got != 2 {
		t.Fatalf("error = %v", got)
	}
}
