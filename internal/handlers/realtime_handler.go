package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/realtime"
	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"
)

// RealtimeHandler upgrades authenticated requests to websocket connections
// and registers them with the hub.
type RealtimeHandler struct {
	hub     *realtime.Hub
	origins map[string]bool
	log     *slog.Logger
}

// NewRealtimeHandler creates a new RealtimeHandler. An origin of "*" accepts
// every client.
func NewRealtimeHandler(hub *realtime.Hub, origins []string, logger *slog.Logger) *RealtimeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &RealtimeHandler{hub: hub, origins: allowed, log: logger}
}

// RegisterRealtimeRoutes registers the websocket endpoint
func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect serves the connection until the client goes away. Incoming frames
// are read and discarded.
func (h *RealtimeHandler) Connect(c echo.Context) error {
	p, err := getPrincipal(c)
	if err != nil {
		return err
	}
	userID := p.ID.Hex()

	server := websocket.Server{
		Handshake: h.handshake,
		Handler: func(ws *websocket.Conn) {
			release := h.hub.Register(userID, realtime.NewWebsocketConn(ws, realtime.DefaultWriteTimeout))
			defer release()
			defer ws.Close()
			h.log.Debug("client connected", "user", userID)

			for {
				var frame string
				if err := websocket.Message.Receive(ws, &frame); err != nil {
					h.log.Debug("client disconnected", "user", userID, "error", err)
					return
				}
			}
		},
	}
	server.ServeHTTP(c.Response(), c.Request())
	return nil
}

func (h *RealtimeHandler) handshake(cfg *websocket.Config, req *http.Request) error {
	origin := req.Header.Get("Origin")
	if origin != "" && !h.origins["*"] && !h.origins[origin] {
		return fmt.Errorf("origin %q not allowed", origin)
	}
	var err error
	cfg.Origin, err = websocket.Origin(cfg, req)
	return err
}
