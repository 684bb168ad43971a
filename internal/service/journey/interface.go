package journey

import (
	"context"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/google/uuid"
)

type Repository interface {
	// LockOpen returns the worker's open journey with its samples and locks it
	// until the surrounding transaction ends. Returns nil, nil when there is none.
	LockOpen(ctx context.Context, workerID uuid.UUID) (*models.Journey, error)
	// FindOpen is LockOpen without the lock.
	FindOpen(ctx context.Context, workerID uuid.UUID) (*models.Journey, error)
	// Create stores a new journey and its samples.
	Create(ctx context.Context, j *models.Journey) error
	// AppendSample stores s and the new statistics of j, guarded by j.Version.
	AppendSample(ctx context.Context, j *models.Journey, s models.Sample) error
	// Finalize closes j, guarded by j.Version.
	Finalize(ctx context.Context, j *models.Journey) error
	ListByWorker(ctx context.Context, workerID uuid.UUID, f models.Filters) ([]models.JourneySummary, int, error)
}

// Publisher delivers journey events to other services.
type Publisher interface {
	PublishJourneyEvent(ctx context.Context, msg models.JourneyEventMessage) error
}

// Broadcaster pushes journey events to live admin subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg models.JourneyEventMessage) error
}
