package model

import (
	"time"

	"gorm.io/gorm"
)

// CourseStatus controls catalog visibility
type CourseStatus string

const (
	CourseStatusPublish CourseStatus = "PUBLISH"
	CourseStatusDraft   CourseStatus = "DRAFT"
)

// Course is a sellable unit of the catalog. Price is in whole currency units.
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"type:varchar(500);not null" json:"title"`
	Slug          string         `gorm:"type:varchar(500);uniqueIndex;not null" json:"slug"`
	Price         int64          `gorm:"not null;default:0" json:"price"`
	Discount      *int           `json:"discount"` // percent, nil means no discount
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`
	LevelID       *uint          `gorm:"index" json:"level_id"`
	AuthorID      *uint          `gorm:"index" json:"author_id"`
	Status        CourseStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	FeaturedImage string         `gorm:"type:varchar(500)" json:"featured_image"`
	FeaturedVideo string         `gorm:"type:varchar(300)" json:"featured_video"`
	Description   string         `gorm:"type:text" json:"description"`
	Language      string         `gorm:"type:varchar(100)" json:"language"`
	Deadline      string         `gorm:"type:varchar(100)" json:"deadline"`

	// Relationships
	Category Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Level    *Level       `gorm:"foreignKey:LevelID;constraint:OnDelete:SET NULL" json:"level,omitempty"`
	Author   *Author      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Lessons  []Lesson     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Videos   []Video      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews  []Review     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	Users    []UserCourse `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsFree reports whether the course can be enrolled without payment
func (c *Course) IsFree() bool {
	return c.Price == 0
}

// DiscountPercent returns the discount, treating a missing value as zero
func (c *Course) DiscountPercent() int {
	if c.Discount == nil {
		return 0
	}
	return *c.Discount
}

// IsPublished reports whether the course is visible in the catalog
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublish
}

// Lesson is a chapter of a course
type Lesson struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`

	Videos []Video `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"videos,omitempty"`
}

// Video is a single playable item inside a lesson
type Video struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	SerialNumber int            `gorm:"not null;default:0" json:"serial_number"`
	Thumbnail    string         `gorm:"type:varchar(500)" json:"thumbnail"`
	CourseID     uint           `gorm:"not null;index" json:"course_id"`
	LessonID     uint           `gorm:"not null;index" json:"lesson_id"`
	Title        string         `gorm:"type:varchar(100);not null" json:"title"`
	YoutubeID    string         `gorm:"type:varchar(200)" json:"youtube_id,omitempty"`
	TimeDuration float64        `gorm:"default:0" json:"time_duration"` // minutes
	Preview      bool           `gorm:"default:false" json:"preview"`
}
