package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentStatus is the lifecycle state of a gateway order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Payment tracks a Razorpay order from creation until its callback is verified
type Payment struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OrderID      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_id"`
	PaymentID    *string        `gorm:"type:varchar(100)" json:"payment_id"`
	Signature    string         `gorm:"type:varchar(200)" json:"-"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	CourseID     uint           `gorm:"not null;index" json:"course_id"`
	UserCourseID *uint          `gorm:"index" json:"user_course_id"`
	Amount       int64          `gorm:"not null" json:"amount"` // minor units (paise)
	Currency     string         `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Receipt      string         `gorm:"type:varchar(100)" json:"receipt"`
	Notes        datatypes.JSON `json:"notes"`
	Status       PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	VerifiedAt   *time.Time     `json:"verified_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course     Course      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	UserCourse *UserCourse `gorm:"foreignKey:UserCourseID;constraint:OnDelete:SET NULL" json:"user_course,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// IsVerified reports whether the callback for this order has been accepted
func (p *Payment) IsVerified() bool {
	return p.Status == PaymentStatusCompleted
}
