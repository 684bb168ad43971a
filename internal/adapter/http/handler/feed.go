package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/fieldtrack/pkg/wsHub"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const feedPingInterval = 30 * time.Second

// Feed streams journey events to admin dashboards over a websocket.
type Feed struct {
	hub            *ws.ConnectionHub
	allowedOrigins []string
	l              logger.Logger
}

func NewFeed(hub *ws.ConnectionHub, allowedOrigins []string, l logger.Logger) *Feed {
	return &Feed{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		l:              l,
	}
}

func (h *Feed) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin admits native clients without an Origin header and browsers from allowed origins.
func (h *Feed) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin)
}

// Subscribe godoc
// @Summary      Live journey feed
// @Description  Websocket stream of journey events (started, sample, finalized)
// @Tags         Realtime
// @Security     BearerAuth
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  map[string]string
// @Router       /ws/admin/journeys [get]
func (h *Feed) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "feed_subscribe")
	user := models.UserFromContext(ctx)
	ctx = wrap.WithUserID(ctx, user.ID.String())

	upgrader := h.upgrader()
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	// Each tab is its own subscriber.
	conn := ws.NewConn(context.WithoutCancel(ctx), uuid.New(), raw)
	if err := h.hub.Add(conn); err != nil {
		h.l.Error(ctx, "failed to register feed subscriber", err)
		_ = conn.Close()
		return
	}
	h.l.Info(ctx, "feed subscriber connected", "subscribers", h.hub.Len())

	go func() {
		// Admins only listen; reading keeps pongs and close frames flowing.
		_ = conn.Listen(nil)
		_ = h.hub.Delete(conn.ID())
	}()

	if err := conn.WritePump(feedPingInterval); err != nil {
		h.l.Debug(ctx, "feed subscriber gone", "error", err.Error())
	}
	_ = h.hub.Delete(conn.ID())
}
