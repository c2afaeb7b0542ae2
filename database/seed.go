package database

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{db: db, log: log.Named("seed")}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	s.log.Info("starting database seeding")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCatalogReferences(); err != nil {
		return fmt.Errorf("failed to seed categories, levels and authors: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL and ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		s.log.Info("admin user already exists, skipping")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		s.log.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		Username:     "admin",
		PasswordHash: passwordHash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         "admin",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	s.log.Info("created admin user", zap.String("email", admin.Email))
	return nil
}

// SeedCatalogReferences creates the categories, levels and authors courses point at
func (s *Seeder) SeedCatalogReferences() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		s.log.Info("categories already exist, skipping")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		categories := []model.Category{
			{Name: "Web Development", Icon: "fa-code"},
			{Name: "Data Science", Icon: "fa-chart-line"},
			{Name: "Cloud & DevOps", Icon: "fa-cloud"},
			{Name: "Mobile Development", Icon: "fa-mobile"},
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}

		levels := []model.Level{
			{Name: "Beginner"},
			{Name: "Intermediate"},
			{Name: "Advanced"},
		}
		if err := tx.Create(&levels).Error; err != nil {
			return err
		}

		authors := []model.Author{
			{Name: "Aarav Mehta", AboutAuthor: "Backend engineer teaching Go and distributed systems."},
			{Name: "Priya Nair", AboutAuthor: "Data scientist and long-time Python educator."},
		}
		if err := tx.Create(&authors).Error; err != nil {
			return err
		}

		s.log.Info("created catalog references",
			zap.Int("categories", len(categories)),
			zap.Int("levels", len(levels)),
			zap.Int("authors", len(authors)))
		return nil
	})
}

// seedLesson is a lesson with its videos, in serial order
type seedLesson struct {
	name   string
	videos []model.Video
}

// SeedCourses creates one free and one paid published course with a curriculum
func (s *Seeder) SeedCourses() error {
	// Check if courses already exist
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		s.log.Info("courses already exist, skipping")
		return nil
	}

	var category model.Category
	if err := s.db.Order("id").First(&category).Error; err != nil {
		return fmt.Errorf("no categories found, seed categories first: %w", err)
	}
	var beginner, intermediate model.Level
	if err := s.db.Where("name = ?", "Beginner").First(&beginner).Error; err != nil {
		return err
	}
	if err := s.db.Where("name = ?", "Intermediate").First(&intermediate).Error; err != nil {
		return err
	}
	var author model.Author
	if err := s.db.Order("id").First(&author).Error; err != nil {
		return err
	}

	discount := 20
	courses := []struct {
		course  model.Course
		lessons []seedLesson
	}{
		{
			course: model.Course{
				Title:       "Go Fundamentals",
				Slug:        "go-fundamentals",
				Price:       0,
				CategoryID:  category.ID,
				LevelID:     &beginner.ID,
				AuthorID:    &author.ID,
				Status:      model.CourseStatusPublish,
				Description: "Types, functions, packages and the standard toolchain.",
				Language:    "English",
			},
			lessons: []seedLesson{
				{name: "Getting started", videos: []model.Video{
					{SerialNumber: 1, Title: "Installing Go", TimeDuration: 6, Preview: true},
					{SerialNumber: 2, Title: "Hello, modules", TimeDuration: 9},
				}},
			},
		},
		{
			course: model.Course{
				Title:       "Building REST APIs with Fiber",
				Slug:        "building-rest-apis-with-fiber",
				Price:       1000,
				Discount:    &discount,
				CategoryID:  category.ID,
				LevelID:     &intermediate.ID,
				AuthorID:    &author.ID,
				Status:      model.CourseStatusPublish,
				Description: "Routing, middleware, GORM persistence and payments.",
				Language:    "English",
				Deadline:    "6 weeks",
			},
			lessons: []seedLesson{
				{name: "Routing", videos: []model.Video{
					{SerialNumber: 1, Title: "Course overview", TimeDuration: 4.5, Preview: true},
					{SerialNumber: 2, Title: "Groups and params", TimeDuration: 14},
				}},
				{name: "Persistence", videos: []model.Video{
					{SerialNumber: 3, Title: "GORM models", TimeDuration: 18},
					{SerialNumber: 4, Title: "Transactions", TimeDuration: 21},
				}},
			},
		},
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range courses {
			course := seed.course
			if err := tx.Create(&course).Error; err != nil {
				return err
			}

			for _, l := range seed.lessons {
				lesson := model.Lesson{CourseID: course.ID, Name: l.name}
				if err := tx.Create(&lesson).Error; err != nil {
					return err
				}
				for _, video := range l.videos {
					video.CourseID = course.ID
					video.LessonID = lesson.ID
					if err := tx.Create(&video).Error; err != nil {
						return err
					}
				}
			}

			s.log.Info("created course", zap.String("slug", course.Slug), zap.Int64("price", course.Price))
		}
		return nil
	})
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB, log *zap.Logger) error {
	return NewSeeder(db, log).SeedAll()
}
