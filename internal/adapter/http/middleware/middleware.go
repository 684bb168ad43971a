package middleware

import (
	"context"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
)

type (
	AuthService interface {
		RoleCheck(ctx context.Context, token string) (*models.User, error)
	}

	// Options configures the cross-cutting middleware.
	Options struct {
		AllowedOrigins []string
		RateLimit      int           // requests per window and client IP, 0 disables
		RateWindow     time.Duration // defaults to one minute
	}

	Middleware struct {
		auth AuthService
		opts Options
		log  logger.Logger
	}
)

func NewMiddleware(auth AuthService, opts Options, log logger.Logger) *Middleware {
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &Middleware{
		auth: auth,
		opts: opts,
		log:  log,
	}
}
