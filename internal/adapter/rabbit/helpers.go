package rabbit

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
)

const (
	JourneyExchange = "journey_topic"

	QueueJourneyNotifications = "journey_notifications"
)

// isRecoverableError returns true if the provided error must be requeued
func isRecoverableError(err error) bool {
	return oneOf(err, types.ErrPersistence, types.ErrUnavailable)
}

func oneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// retry runs fn up to n times, sleeping between attempts, and stops early when ctx ends.
func retry(ctx context.Context, n int, sleep time.Duration, fn func() error) error {
	var err error
	for i := range n {
		if err = fn(); err == nil {
			return nil
		}
		if i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(sleep):
		}
	}
	return err
}
