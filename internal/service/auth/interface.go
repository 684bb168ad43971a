package auth

import (
	"context"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepo interface {
	Create(ctx context.Context, u *models.User) (created bool, err error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetPushToken(ctx context.Context, id uuid.UUID, token string) error
}

type TokenProvider interface {
	Generate(ctx context.Context, user *models.User) (*models.AccessToken, error)
	Validate(ctx context.Context, token string) (*models.CustomClaims, error)
}
