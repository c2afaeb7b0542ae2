// Package dbtest opens throwaway SQLite databases migrated with the service schema.
package dbtest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sahilchouksey/skill-academy/database"
	"github.com/sahilchouksey/skill-academy/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated database backed by a file in t.TempDir(). The pool
// is capped at one connection so concurrent transactions queue instead of
// failing with SQLITE_BUSY.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(database.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// SeedUser inserts a student with the given email. The last name is the
// email's local part so fixtures never share searchable names.
func SeedUser(t testing.TB, db *gorm.DB, email string) *model.User {
	t.Helper()

	localPart, _, _ := strings.Cut(email, "@")
	user := &model.User{
		Email:        email,
		Username:     email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     localPart,
		Role:         "student",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedCourse inserts a published course in a fresh category
func SeedCourse(t testing.TB, db *gorm.DB, title string, price int64, discount *int) *model.Course {
	t.Helper()

	category := &model.Category{Name: title + " category"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	course := &model.Course{
		Title:      title,
		Slug:       strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Price:      price,
		Discount:   discount,
		CategoryID: category.ID,
		Status:     model.CourseStatusPublish,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}
