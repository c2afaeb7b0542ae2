package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered learner or administrator
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	FirstName    string         `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(150)" json:"last_name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, admin
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	Courses        []UserCourse        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
	Payments       []Payment           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// FullName joins first and last name, falling back to the username
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
