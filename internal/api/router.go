// Package api wires HTTP routes to services.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-charge/internal/auth"
	"daily-charge/internal/prefs"
	"daily-charge/internal/service"
)

// Deps bundles everything the routes need.
type Deps struct {
	Auth   *service.AuthService
	Tasks  *service.TaskService
	Stats  *service.StatsService
	Prefs  *prefs.Store
	Tokens *auth.Manager
	Log    *zap.SugaredLogger
}

// Register mounts all routes on the engine. Everything under the private
// group requires a valid bearer token.
func Register(r *gin.Engine, deps Deps) {
	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Log)
	statsHandler := NewStatsHandler(deps.Stats, deps.Log)
	prefsHandler := NewPrefsHandler(deps.Prefs, deps.Log)

	public := r.Group("/api/v1")
	{
		public.POST("/auth/signup", authHandler.Signup)
		public.POST("/auth/login", authHandler.Login)
	}

	private := r.Group("/api/v1")
	private.Use(Auth(deps.Tokens))
	{
		private.GET("/me", authHandler.Me)

		private.GET("/tasks", taskHandler.List)
		private.POST("/tasks", taskHandler.Create)
		private.PUT("/tasks/reorder", taskHandler.Reorder)
		private.PATCH("/tasks/:id", taskHandler.Update)
		private.POST("/tasks/:id/toggle", taskHandler.Toggle)
		private.DELETE("/tasks/:id", taskHandler.Delete)

		private.GET("/days", statsHandler.Days)
		private.GET("/stats", statsHandler.Summary)

		private.GET("/preferences", prefsHandler.All)
		private.PUT("/preferences/:key", prefsHandler.Put)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
