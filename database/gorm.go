package database

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/skill-academy/config"
	"github.com/sahilchouksey/skill-academy/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *zap.Logger) *GORMStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GORMStore{db: db, log: log}
}

// StartGORM opens a PostgreSQL connection pool
func StartGORM(env *config.EnviornmentVariable, log *zap.Logger) (*GORMStore, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)

	gormLogger := logger.Default.LogMode(logger.Info)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	store := NewGORMStore(db, log)
	store.log.Info("connected to PostgreSQL", zap.String("host", env.DB_HOST), zap.String("db", env.DB_NAME))

	return store, nil
}

// Models lists every table owned by the service, in dependency order
func Models() []interface{} {
	return []interface{}{
		// Identity
		&model.User{},
		&model.JWTTokenBlacklist{},

		// Catalog
		&model.Category{},
		&model.Author{},
		&model.Level{},
		&model.Course{},
		&model.Lesson{},
		&model.Video{},

		// Enrollment and payments
		&model.UserCourse{},
		&model.Payment{},

		// Engagement
		&model.Review{},
		&model.ContactMessage{},

		// Background jobs
		&model.CronJobLog{},
	}
}

// Init runs AutoMigrate for all models
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate")

	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	s.log.Info("AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing database connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for handlers and services
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
