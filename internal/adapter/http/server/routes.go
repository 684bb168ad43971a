package server

import (
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func (a *API) setupRoutes() {
	// System Health
	a.mux.HandleFunc("GET /health", a.routes.health.HealthCheck)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	if a.mode != types.JourneyService {
		return
	}

	a.mux.HandleFunc("GET /swagger/", httpSwagger.Handler(httpSwagger.InstanceName("fieldtrack")))

	a.setupAuthRoutes()
	a.setupJourneyRoutes()
	a.setupAdminRoutes()
}

func (a *API) setupAuthRoutes() {
	a.mux.HandleFunc("POST /auth/register", a.routes.auth.Register)
	a.mux.HandleFunc("POST /auth/login", a.routes.auth.Login)
	a.mux.Handle("GET /auth/me", a.m.RequireRoles(a.routes.auth.Profile))
	a.mux.Handle("PUT /users/me/push-token", a.m.RequireRoles(a.routes.auth.SavePushToken, types.WorkerRoles...))
}

// setupJourneyRoutes setups the worker routes. The worker is the authenticated user.
func (a *API) setupJourneyRoutes() {
	workers := types.WorkerRoles

	a.mux.Handle("POST /journeys/start", a.m.RequireRoles(a.routes.journey.Start, workers...))          // Open a journey
	a.mux.Handle("POST /journeys/auto-start", a.m.RequireRoles(a.routes.journey.AutoStart, workers...)) // Open a journey once moving
	a.mux.Handle("POST /journeys/samples", a.m.RequireRoles(a.routes.journey.AppendSample, workers...)) // Record telemetry
	a.mux.Handle("POST /journeys/finalize", a.m.RequireRoles(a.routes.journey.Finalize, workers...))    // Close the journey
	a.mux.Handle("GET /journeys/current", a.m.RequireRoles(a.routes.journey.Current, workers...))
	a.mux.Handle("GET /journeys/history", a.m.RequireRoles(a.routes.journey.History, workers...))
}

func (a *API) setupAdminRoutes() {
	a.mux.Handle("GET /admin/reports/daily", a.m.RequireRoles(a.routes.report.Daily, types.RoleAdmin))
	a.mux.Handle("GET /admin/reports/monthly", a.m.RequireRoles(a.routes.report.Monthly, types.RoleAdmin))
	a.mux.Handle("GET /ws/admin/journeys", a.m.RequireRoles(a.routes.feed.Subscribe, types.RoleAdmin)) // Live journey feed
}

