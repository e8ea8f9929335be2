package main

import (
	"github.com/gin-gonic/gin"
	"github.com/promptgate/promptgate/internal/middleware"
	"github.com/promptgate/promptgate/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.GET("/health", svc.healthHandler.CheckHealth)

	// Rate limiter for the bot-facing ingress
	askLimiter := middleware.NewRateLimiter(10, 20)

	api := r.Group("/api")
	{
		// Bot shim ingress (transport-level rate limit only; admission
		// limits are enforced inside the pipeline)
		api.POST("/ask", askLimiter.Middleware(), svc.askHandler.Ask)

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			protected.GET("/guilds", svc.policyHandler.ListGuilds)
			protected.GET("/guilds/:guild_id/policy", svc.policyHandler.Get)
			protected.GET("/guilds/:guild_id/queue", svc.queueHandler.Pending)
			protected.GET("/guilds/:guild_id/requests", svc.historyHandler.List)
			protected.GET("/guilds/:guild_id/analytics", svc.historyHandler.Analytics)
			protected.GET("/guilds/:guild_id/usage", svc.historyHandler.GuildUsage)
			protected.GET("/guilds/:guild_id/usage/:user_id", svc.historyHandler.Usage)
			protected.GET("/guilds/:guild_id/admins", svc.adminHandler.List)
			protected.GET("/requests/:id", svc.historyHandler.GetByID)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.PUT("/guilds/:guild_id/policy", svc.policyHandler.Update)
			admin.POST("/approvals/:id", svc.queueHandler.Resolve)
			admin.POST("/guilds/:guild_id/admins", svc.adminHandler.Add)
			admin.DELETE("/guilds/:guild_id/admins/:user_id", svc.adminHandler.Remove)
			admin.GET("/settings/messages", svc.settingsHandler.GetMessages)
			admin.PUT("/settings/messages", svc.settingsHandler.UpdateMessages)
		}
	}
}
