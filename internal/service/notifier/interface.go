package notifier

import (
	"context"

	"github.com/Temutjin2k/fieldtrack/internal/adapter/expo"
	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"

	"github.com/google/uuid"
)

type UserRepo interface {
	ListPushRecipients(ctx context.Context, roles []types.UserRole) ([]models.PushRecipient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Pusher interface {
	Send(ctx context.Context, msg expo.Message) (expo.Ticket, error)
}

// Lock deduplicates deliveries across instances.
type Lock interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
