package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salescrm/internal/config"
	"salescrm/internal/domain/customfield"
	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/reminder"
	"salescrm/internal/domain/transfer"
	"salescrm/internal/domain/user"
	"salescrm/internal/middleware"
	"salescrm/internal/pkg/response"
)

// Router builds the HTTP surface.
func (a *App) Router() *gin.Engine {
	if config.IsProdLike(a.Config.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(a.Log.With().Str("component", "http").Logger()),
		middleware.Metrics(),
		middleware.CORS(a.Config.CORSAllowedOrigins),
	)

	r.GET("/healthz", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := user.NewHandler(a.Users)
	leadHandler := lead.NewHandler(a.Leads)
	fieldHandler := customfield.NewHandler(a.Fields)
	transferHandler := transfer.NewHandler(a.Transfer)
	reminderHandler := reminder.NewHandler(a.Reminders)
	wsHandler := reminder.NewWSHandler(a.Hub, a.JWT, a.Config.CORSAllowedOrigins, a.Log.With().Str("component", "ws").Logger())

	v1 := r.Group("/api/v1")
	{
		// public
		user.RegisterPublicRoutes(v1, userHandler)
		reminder.RegisterSocketRoutes(v1, wsHandler)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(a.JWT))
		{
			user.RegisterProtectedRoutes(protected, userHandler)
			lead.RegisterRoutes(protected, leadHandler)
			customfield.RegisterRoutes(protected, fieldHandler)
			transfer.RegisterRoutes(protected, transferHandler)
			reminder.RegisterRoutes(protected, reminderHandler)
		}

		admin := v1.Group("")
		admin.Use(middleware.JWTAuth(a.JWT), middleware.AdminOnly())
		{
			user.RegisterAdminRoutes(admin, userHandler)
			lead.RegisterAdminRoutes(admin, leadHandler)
			customfield.RegisterAdminRoutes(admin, fieldHandler)
			transfer.RegisterAdminRoutes(admin, transferHandler)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	return r
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.CustomError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
