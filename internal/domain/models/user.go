package models

import (
	"context"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         types.UserRole  `json:"role"`
	Transport    types.Transport `json:"transport,omitempty"`
	Region       types.Region    `json:"region,omitempty"`
	PushToken    string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

func AnonymousUser() *User {
	return &User{Role: types.RoleAnonymous}
}

func (u *User) IsAnonymous() bool {
	return u == nil || u.Role == types.RoleAnonymous
}

// Registration is a new field worker signing up with a plain password.
type Registration struct {
	Name      string
	Email     string
	Password  string
	Role      types.UserRole
	Transport types.Transport
	Region    types.Region
}

// PushRecipient is a worker that can receive the start-of-day reminder.
type PushRecipient struct {
	UserID    uuid.UUID
	Email     string
	PushToken string
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
