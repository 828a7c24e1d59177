package customfield

import "github.com/gin-gonic/gin"

// RegisterRoutes registers read access to field definitions
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/fields", handler.ListFields)
}

// RegisterAdminRoutes registers field definition management
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	fields := r.Group("/fields")
	{
		fields.POST("", handler.CreateField)
		fields.PUT("/:id", handler.UpdateField)
		fields.DELETE("/:id", handler.DeleteField)
	}
}
