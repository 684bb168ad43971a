package microservices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/Temutjin2k/fieldtrack/pkg/rabbit"
	"github.com/Temutjin2k/fieldtrack/pkg/supervisor"

	goredis "github.com/redis/go-redis/v9"
)

// pingFunc adapts a function to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func redisPinger(client *goredis.Client) pingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func rabbitPinger(client *rabbit.RabbitMQ) pingFunc {
	return func(context.Context) error {
		if client.IsConnectionClosed() {
			return rabbit.ErrClosed
		}
		return nil
	}
}

// runTree serves tree until SIGINT/SIGTERM or ctx ends.
func runTree(ctx context.Context, tree *supervisor.Tree, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "service started")

	err := tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	log.Info(ctx, "shutting down application")

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			log.Warn(ctx, "service did not stop in time", "service", svc.Name)
		}
	}
	return nil
}
