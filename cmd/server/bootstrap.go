package main

import (
	"gorm.io/gorm"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/handlers"
	"github.com/promptgate/promptgate/internal/models"
	"github.com/promptgate/promptgate/internal/services"
	"github.com/promptgate/promptgate/internal/utils"
	"github.com/promptgate/promptgate/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	db        *gorm.DB
	ledger    *services.Ledger
	policies  *services.PolicyStore
	pipeline  *services.Pipeline
	retention *services.RetentionService

	authHandler     *handlers.AuthHandler
	askHandler      *handlers.AskHandler
	policyHandler   *handlers.PolicyHandler
	queueHandler    *handlers.QueueHandler
	historyHandler  *handlers.HistoryHandler
	adminHandler    *handlers.AdminHandler
	settingsHandler *handlers.SettingsHandler
	healthHandler   *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	ledger := services.NewLedger(db)
	policies := services.NewPolicyStore(db, cfg.SystemPrompt())
	gateway := services.NewLLMGateway(&cfg.AI)
	delivery := services.NewDiscordDelivery(&cfg.Discord)

	pipeline := services.NewPipeline(ledger, policies, gateway, cfg)
	moderation := services.NewModeration(ledger, policies, gateway, delivery, cfg)

	retention := services.NewRetentionService(ledger, cfg.Retention.Days)
	retention.Start()

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:       cfg,
		db:        db,
		ledger:    ledger,
		policies:  policies,
		pipeline:  pipeline,
		retention: retention,

		authHandler:     authHandler,
		askHandler:      handlers.NewAskHandler(db, pipeline),
		policyHandler:   handlers.NewPolicyHandler(policies),
		queueHandler:    handlers.NewQueueHandler(ledger, moderation),
		historyHandler:  handlers.NewHistoryHandler(ledger),
		adminHandler:    handlers.NewAdminHandler(db),
		settingsHandler: handlers.NewSettingsHandler(cfg),
		healthHandler:   handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.retention.Stop()
	logger.Info().Msg("All schedulers stopped")
}
