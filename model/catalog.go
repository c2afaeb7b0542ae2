package model

import (
	"time"

	"gorm.io/gorm"
)

// Category groups courses by subject area (e.g., "Web Development")
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Icon      string         `gorm:"type:varchar(200)" json:"icon"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`

	Courses []Course `gorm:"foreignKey:CategoryID" json:"courses,omitempty"`
}

// Author is the instructor credited on a course
type Author struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	AboutAuthor  string         `gorm:"type:text" json:"about_author"`
	ProfileImage string         `gorm:"type:varchar(500)" json:"profile_image"`
}

// Level is the difficulty of a course (Beginner, Intermediate, ...)
type Level struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
}
