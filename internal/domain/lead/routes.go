package lead

import "github.com/gin-gonic/gin"

// RegisterRoutes registers lead routes for any signed-in user
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leads := r.Group("/leads")
	{
		leads.GET("", handler.ListLeads)
		leads.POST("", handler.CreateLead)
		leads.POST("/batch", handler.BatchAdd)
		leads.GET("/statuses", handler.Statuses)
		leads.GET("/visited", handler.ListVisited)
		leads.GET("/signed", handler.ListSigned)
		leads.GET("/key", handler.ListKey)
		leads.GET("/:id", handler.GetLead)
		leads.PUT("/:id", handler.UpdateLead)
	}

	pool := r.Group("/pool")
	{
		pool.GET("", handler.ListPool)
		pool.POST("/claim", handler.ClaimLeads)
	}

	r.GET("/dashboard", handler.Dashboard)
}

// RegisterAdminRoutes registers admin lead routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	leads := r.Group("/leads")
	{
		leads.PATCH("/:id/assign", handler.AssignLead)
		leads.POST("/bulk-edit", handler.BulkEdit)
		leads.POST("/bulk-delete", handler.BulkDelete)
		leads.POST("/release", handler.ReleaseLeads)
	}
}
