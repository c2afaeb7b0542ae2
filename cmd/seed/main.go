package main

import (
	"github.com/sahilchouksey/skill-academy/config"
	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/utils"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadENV(); err != nil {
		panic(err)
	}

	env, err := config.Get()
	if err != nil {
		panic(err)
	}

	if err := utils.InitLogger(env.GO_ENV); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()
	log := utils.GetLogger()

	// Initialize database connection using GORM
	store, err := database.StartGORM(env, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := database.RunSeeds(store.GetDB(), log); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	log.Info("seeding completed; the admin user comes from ADMIN_EMAIL and ADMIN_PASSWORD when set")
}
