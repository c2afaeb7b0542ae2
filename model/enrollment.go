package model

import "time"

// UserCourse records that a user owns a course. One row is written per
// enrollment event; (user_id, course_id) is indexed but not unique.
type UserCourse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;index:idx_user_course" json:"course_id"`
	Paid      bool      `gorm:"default:false" json:"paid"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
