package reminder

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the pending reminders poll for signed-in users
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/reminders/pending", handler.Pending)
}

// RegisterSocketRoutes registers the websocket endpoint, which authenticates by query token
func RegisterSocketRoutes(r *gin.RouterGroup, handler *WSHandler) {
	r.GET("/ws/reminders", handler.Serve)
}
