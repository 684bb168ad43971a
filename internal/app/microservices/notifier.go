package microservices

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/fieldtrack/config"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/expo"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/handler"
	httpserver "github.com/Temutjin2k/fieldtrack/internal/adapter/http/server"
	repo "github.com/Temutjin2k/fieldtrack/internal/adapter/postgres"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/fieldtrack/internal/adapter/redis"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/internal/service/notifier"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/Temutjin2k/fieldtrack/pkg/postgres"
	rabbitclient "github.com/Temutjin2k/fieldtrack/pkg/rabbit"
	redisclient "github.com/Temutjin2k/fieldtrack/pkg/redis"
	"github.com/Temutjin2k/fieldtrack/pkg/supervisor"

	goredis "github.com/redis/go-redis/v9"
)

// NotifierService sends the daily reminder and the auto-finalize notices.
type NotifierService struct {
	postgresDB *postgres.PostgreDB
	rabbit     *rabbitclient.RabbitMQ
	redis      *goredis.Client
	tree       *supervisor.Tree

	cfg config.Config
	log logger.Logger
}

func NewNotifier(ctx context.Context, cfg config.Config, log logger.Logger) (*NotifierService, error) {
	s := &NotifierService{cfg: cfg, log: log}
	if err := s.init(ctx); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *NotifierService) init(ctx context.Context) error {
	loc, err := s.cfg.Journey.Location()
	if err != nil {
		return fmt.Errorf("journey timezone: %w", err)
	}

	s.postgresDB, err = postgres.New(ctx, s.cfg.Database)
	if err != nil {
		s.log.Error(ctx, "failed to setup database", err)
		return err
	}

	s.rabbit, err = rabbitclient.New(ctx, s.cfg.RabbitMQ.GetDSN(), s.log)
	if err != nil {
		s.log.Error(ctx, "failed to connect to rabbitmq", err)
		return err
	}

	s.redis, err = redisclient.New(ctx, s.cfg.Redis)
	if err != nil {
		s.log.Error(ctx, "failed to connect to redis", err)
		return err
	}

	var lock notifier.Lock
	if s.redis != nil {
		lock = redisadapter.NewReminderLock(s.redis, s.cfg.Notifier.LockTTL)
	} else {
		s.log.Warn(ctx, "redis address is empty, run a single notifier instance to avoid duplicate reminders")
	}

	pusher := expo.New(expo.Config{
		URL:           s.cfg.Notifier.ExpoURL,
		RatePerSecond: s.cfg.Notifier.RatePerSecond,
		Burst:         s.cfg.Notifier.Burst,
		Timeout:       s.cfg.Notifier.Timeout,
	}, s.log)

	n := notifier.New(repo.NewUserRepo(s.postgresDB.Pool), pusher, lock, notifier.Config{
		Location:    loc,
		Hour:        s.cfg.Notifier.Hour,
		Minute:      s.cfg.Notifier.Minute,
		Concurrency: s.cfg.Notifier.Concurrency,
	}, s.log)
	consumer := rabbit.NewJourneyConsumer(s.rabbit, s.log)

	health := map[string]handler.Pinger{
		"postgres": s.postgresDB.Pool,
		"rabbitmq": rabbitPinger(s.rabbit),
	}
	if s.redis != nil {
		health["redis"] = redisPinger(s.redis)
	}

	api, err := httpserver.New(s.cfg, httpserver.Deps{Health: health}, s.log)
	if err != nil {
		s.log.Error(ctx, "failed to setup http server", err)
		return err
	}

	s.tree = supervisor.New(string(types.NotifierService), s.log.GetSlogLogger(), supervisor.DefaultTreeConfig())
	s.tree.AddMessagingService(n)
	s.tree.AddMessagingService(supervisor.Func{
		Name: "journey-finalized-consumer",
		Run: func(ctx context.Context) error {
			return consumer.ConsumeFinalized(ctx, n.HandleJourneyFinalized)
		},
	})
	s.tree.AddAPIService(api.Service())

	s.log.Info(ctx, "notifier service configured", "addr", api.Addr(),
		"reminder_at", fmt.Sprintf("%02d:%02d %s", s.cfg.Notifier.Hour, s.cfg.Notifier.Minute, loc))
	return nil
}

func (s *NotifierService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "notifier service closed")
	}()

	return runTree(ctx, s.tree, s.log)
}

func (s *NotifierService) close(ctx context.Context) {
	if s.rabbit != nil {
		if err := s.rabbit.Close(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn(ctx, "failed to close rabbitmq", "error", err.Error())
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn(ctx, "failed to close redis", "error", err.Error())
		}
	}
	s.postgresDB.Close()
}
