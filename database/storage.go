package database

import "gorm.io/gorm"

// Storage is the persistence handle the HTTP layer depends on
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	GetDB() *gorm.DB
}
