package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/skill-academy/api"
	"github.com/sahilchouksey/skill-academy/config"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/router"
	"github.com/sahilchouksey/skill-academy/services/cron"
	"github.com/sahilchouksey/skill-academy/utils"
	"go.uber.org/zap"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	if err := utils.InitLogger(getEnv.GO_ENV); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer utils.SyncLogger()
	log := utils.GetLogger()

	// Initialize GORM database connection
	store, err := database.StartGORM(getEnv, log)
	if err != nil {
		log.Error("failed to connect to PostgreSQL, check DB_HOST and DB_PORT", zap.Error(err))
		return err
	}

	if err := store.Init(); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.GetDB(), cron.Config{
			PendingPaymentRetention: time.Duration(getEnv.PENDING_PAYMENT_RETENTION_HOURS) * time.Hour,
		}, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, getEnv, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		if err := server.Shutdown(); err != nil {
			log.Error("server shutdown failed", zap.Error(err))
		}
	}()

	// Get the PORT & Start the Server
	return server.Run()
}
