// Package websocket serves the live lobby feed: committed session transitions
// pushed to browsers as JSON text frames.
package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/hub"
)

// Handler upgrades lobby requests and registers each socket with the hub
type Handler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHandler creates a handler accepting browsers from allowedOrigin ("*" accepts any)
func NewHandler(h *hub.Hub, allowedOrigin string, log logrus.FieldLogger) *Handler {
	return &Handler{
		hub: h,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(allowedOrigin),
		},
		log: log.WithField("component", "lobby_ws"),
	}
}

// FUNCTIONAL DISCOVERY: Non-browser clients send no Origin header and are accepted
func originChecker(allowed string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowed == "*" || origin == "" || origin == allowed
	}
}

// ServeHTTP holds the request open for the life of the socket
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Upgrade writes its own HTTP error on failure
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	sub := NewConnection(conn)
	if err := h.hub.Register(sub); err != nil {
		h.log.WithError(err).Warn("lobby subscriber rejected")
		_ = sub.Close()
		return
	}
	defer h.hub.Unregister(sub)

	h.log.WithField("remote", r.RemoteAddr).Debug("lobby subscriber connected")
	sub.ReadLoop()
}
