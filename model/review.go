package model

import (
	"time"

	"gorm.io/gorm"
)

// Review is a learner's comment on a course, optionally with a photo
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PhotoURL  string         `gorm:"type:varchar(500)" json:"photo_url,omitempty"`
	Body      string         `gorm:"type:text;not null" json:"review"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
