package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/middleware"
	"github.com/stemsi/quizhub-backend/internal/response"
	ws "github.com/stemsi/quizhub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler pushes committed quiz content changes to admin clients.
type WSHandler struct {
	feed       ContentFeed
	log        zerolog.Logger
	upgrader   websocket.Upgrader
	pingPeriod time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(feed ContentFeed, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		feed:       feed,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
		pingPeriod: ws.PingPeriod,
	}
}

// ContentStream godoc
// WS /ws/v1/admin/content
// Streams created/updated/deleted events for quizzes, questions and options.
func (h *WSHandler) ContentStream(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrLoginRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("subject", principal.SubjectID).Logger()
	wsLog.Info().Msg("Admin connected to content feed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := h.feed.Subscribe(ctx)

	go h.readLoop(conn, wsLog, cancel)

	if err := conn.WriteTyped(ws.ReadyResponse{Event: ws.EventReady, Subject: principal.SubjectID}); err != nil {
		return
	}

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				wsLog.Warn().Msg("Content feed closed")
				return
			}
			if err := conn.WriteTyped(ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, dropping client")
				return
			}
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

// readLoop answers client pings and cancels the stream once the client
// goes away.
func (h *WSHandler) readLoop(conn *ws.Conn, log zerolog.Logger, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}
