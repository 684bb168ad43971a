package microservices

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/fieldtrack/config"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/handler"
	httpserver "github.com/Temutjin2k/fieldtrack/internal/adapter/http/server"
	repo "github.com/Temutjin2k/fieldtrack/internal/adapter/postgres"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/fieldtrack/internal/adapter/redis"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/internal/service/auth"
	"github.com/Temutjin2k/fieldtrack/internal/service/journey"
	"github.com/Temutjin2k/fieldtrack/internal/service/report"
	"github.com/Temutjin2k/fieldtrack/migrations"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"
	"github.com/Temutjin2k/fieldtrack/pkg/postgres"
	rabbitclient "github.com/Temutjin2k/fieldtrack/pkg/rabbit"
	redisclient "github.com/Temutjin2k/fieldtrack/pkg/redis"
	"github.com/Temutjin2k/fieldtrack/pkg/supervisor"
	"github.com/Temutjin2k/fieldtrack/pkg/trm"
	ws "github.com/Temutjin2k/fieldtrack/pkg/wsHub"

	goredis "github.com/redis/go-redis/v9"
)

// JourneyService serves the worker and admin API: journeys, reports and the live feed.
type JourneyService struct {
	postgresDB *postgres.PostgreDB
	rabbit     *rabbitclient.RabbitMQ
	redis      *goredis.Client
	hub        *ws.ConnectionHub
	tree       *supervisor.Tree

	cfg config.Config
	log logger.Logger
}

func NewJourney(ctx context.Context, cfg config.Config, log logger.Logger) (*JourneyService, error) {
	s := &JourneyService{cfg: cfg, log: log}
	if err := s.init(ctx); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *JourneyService) init(ctx context.Context) error {
	loc, err := s.cfg.Journey.Location()
	if err != nil {
		return fmt.Errorf("journey timezone: %w", err)
	}

	s.postgresDB, err = postgres.New(ctx, s.cfg.Database)
	if err != nil {
		s.log.Error(ctx, "failed to setup database", err)
		return err
	}
	if err := migrations.Up(ctx, s.postgresDB.Pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	s.rabbit, err = rabbitclient.New(ctx, s.cfg.RabbitMQ.GetDSN(), s.log)
	if err != nil {
		s.log.Error(ctx, "failed to connect to rabbitmq", err)
		return err
	}
	broker := rabbit.NewJourneyBroker(s.rabbit, s.log)
	if err := broker.DeclareTopology(ctx); err != nil {
		return err
	}

	s.redis, err = redisclient.New(ctx, s.cfg.Redis)
	if err != nil {
		s.log.Error(ctx, "failed to connect to redis", err)
		return err
	}
	if s.redis == nil {
		s.log.Warn(ctx, "redis address is empty, the live feed reaches this instance only")
	}

	s.hub = ws.NewConnHub(s.log)
	s.hub.OnCount(func(n int) {
		metrics.WebSocketConnectionsGauge.WithLabelValues(string(types.JourneyService)).Set(float64(n))
	})
	feed := redisadapter.NewFeedRelay(s.redis, s.hub, s.log)

	// repositories
	journeyRepo := repo.NewJourneyRepo(s.postgresDB.Pool)
	userRepo := repo.NewUserRepo(s.postgresDB.Pool)
	reportRepo := repo.NewReportRepo(s.postgresDB.Pool)
	txManager := trm.New(s.postgresDB.Pool)

	// services
	rules := journey.Rules{
		InactivityWindow:  s.cfg.Journey.InactivityWindow,
		IdleSpeed:         s.cfg.Journey.IdleSpeed,
		CurfewHour:        s.cfg.Journey.CurfewHour,
		GuardedStartSpeed: s.cfg.Journey.GuardedStartSpeed,
	}
	journeySvc := journey.New(journeyRepo, txManager, journey.NewSystemClock(loc), rules, broker, feed, s.log)
	reportSvc := report.NewReportService(reportRepo, loc, s.log)
	tokenSvc := auth.NewTokenService(s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	authSvc := auth.NewAuthService(userRepo, tokenSvc, s.log)

	health := map[string]handler.Pinger{
		"postgres": s.postgresDB.Pool,
		"rabbitmq": rabbitPinger(s.rabbit),
	}
	if s.redis != nil {
		health["redis"] = redisPinger(s.redis)
	}

	api, err := httpserver.New(s.cfg, httpserver.Deps{
		Auth:    authSvc,
		Journey: journeySvc,
		Report:  reportSvc,
		Hub:     s.hub,
		Health:  health,
	}, s.log)
	if err != nil {
		s.log.Error(ctx, "failed to setup http server", err)
		return err
	}

	s.tree = supervisor.New(string(types.JourneyService), s.log.GetSlogLogger(), supervisor.DefaultTreeConfig())
	s.tree.AddMessagingService(supervisor.Func{Name: "feed-relay", Run: feed.Serve})
	s.tree.AddAPIService(api.Service())

	s.log.Info(ctx, "journey service configured", "addr", api.Addr(), "timezone", loc.String())
	return nil
}

func (s *JourneyService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "journey service closed")
	}()

	return runTree(ctx, s.tree, s.log)
}

func (s *JourneyService) close(ctx context.Context) {
	if s.hub != nil {
		s.hub.Close()
	}
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
