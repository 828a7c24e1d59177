package transfer

import "github.com/gin-gonic/gin"

// RegisterRoutes registers import for any signed-in user
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/import", handler.Import)
}

// RegisterAdminRoutes registers export; /backup is the full export under its
// older name.
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/export", handler.Export)
	r.GET("/backup", handler.Export)
}
