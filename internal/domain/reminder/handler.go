package reminder

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/response"
)

// Handler handles reminder HTTP requests
type Handler struct {
	service *Service
	now     func() time.Time
}

// NewHandler creates reminder handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Pending handles GET /api/v1/reminders/pending
func (h *Handler) Pending(c *gin.Context) {
	actor, ok := user.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	list, err := h.service.Pending(c.Request.Context(), actor, h.now())
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	response.Success(c, http.StatusOK, PendingResponse{Reminders: list})
}

// WSHandler upgrades reminder websocket connections.
// Browsers cannot set headers on websockets, so the token travels in ?token=.
type WSHandler struct {
	hub      *Hub
	tokens   TokenValidator
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker allows any origin when the list is empty or contains "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Serve handles GET /api/v1/ws/reminders?token=JWT
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "TOKEN_REQUIRED", "Token is required")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.log.Debug().Int64("user_id", claims.UserID).Msg("reminder socket connected")
	h.hub.ServeWS(conn, claims.UserID)
	h.log.Debug().Int64("user_id", claims.UserID).Msg("reminder socket closed")
}
