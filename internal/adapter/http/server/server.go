package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/Temutjin2k/fieldtrack/config"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/handler"
	"github.com/Temutjin2k/fieldtrack/internal/adapter/http/middleware"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	"github.com/Temutjin2k/fieldtrack/pkg/supervisor"
	ws "github.com/Temutjin2k/fieldtrack/pkg/wsHub"
)

// Deps are the services behind the routes. The notifier mode only needs Health.
type Deps struct {
	Auth    handler.AuthService
	Journey handler.JourneyService
	Report  handler.ReportService
	Hub     *ws.ConnectionHub
	Health  map[string]handler.Pinger
}

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health  *handler.Health
	auth    *handler.Auth
	journey *handler.Journey
	report  *handler.Report
	feed    *handler.Feed
}

func New(cfg config.Config, deps Deps, logger logger.Logger) (*API, error) {
	var port string
	routes := &handlers{
		health: handler.NewHealth(string(cfg.Mode), deps.Health, logger),
	}

	switch cfg.Mode {
	case types.JourneyService:
		if deps.Auth == nil || deps.Journey == nil || deps.Report == nil || deps.Hub == nil {
			return nil, errors.New("journey service routes need auth, journey, report and hub")
		}
		port = cfg.HTTP.Port
		routes.auth = handler.NewAuth(deps.Auth, logger)
		routes.journey = handler.NewJourney(deps.Journey, logger)
		routes.report = handler.NewReport(deps.Report, logger)
		routes.feed = handler.NewFeed(deps.Hub, cfg.HTTP.AllowedOrigins, logger)
	case types.NotifierService:
		port = cfg.Notifier.Port
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(deps.Auth, middleware.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
	}, logger)

	api := &API{
		mode:   cfg.Mode,
		mux:    http.NewServeMux(),
		routes: routes,
		m:      mid,
		addr:   net.JoinHostPort("0.0.0.0", port),
		cfg:    cfg,
		log:    logger,
	}

	api.setupRoutes()

	// ReadHeaderTimeout rather than ReadTimeout: the read deadline would outlive a
	// websocket upgrade and cut the feed.
	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.GetSlogLogger().Handler(), slog.LevelWarn),
	}

	return api, nil
}

// Handler is the mux with every middleware applied.
// Metrics sits next to the mux so that it sees the matched route pattern.
func (a *API) Handler() http.Handler {
	return a.m.Recover(
		a.m.RequestID(
			a.m.Logging(
				a.m.CORS(
					a.m.RateLimit(
						a.m.Auth(
							a.m.Metrics(string(a.mode))(a.mux),
						),
					),
				),
			),
		),
	)
}

// Service runs the server under the supervision tree.
func (a *API) Service() *supervisor.HTTPService {
	return supervisor.NewHTTPService("http-"+string(a.mode), a.server, a.cfg.HTTP.ShutdownTimeout)
}

func (a *API) Addr() string {
	return a.addr
}
