package user

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers sign-in routes
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/auth/login", handler.Login)
}

// RegisterProtectedRoutes registers routes for any signed-in user
func RegisterProtectedRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/auth/me", handler.Me)
	r.GET("/users/staff", handler.ListStaff)
}

// RegisterAdminRoutes registers account settings routes
func RegisterAdminRoutes(r *gin.RouterGroup, handler *Handler) {
	users := r.Group("/settings/users")
	{
		users.GET("", handler.ListUsers)
		users.POST("", handler.CreateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}
}
