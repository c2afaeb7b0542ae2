package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/skill-academy/model"
	"gorm.io/gorm"
)

// EnrollmentService is the ledger of which user owns which course
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService creates a new enrollment ledger
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Enroll inserts an enrollment row. Pass a transaction as tx to make the
// insert part of a larger unit of work; nil uses the service connection.
func (s *EnrollmentService) Enroll(ctx context.Context, tx *gorm.DB, userID, courseID uint, paid bool) (*model.UserCourse, error) {
	if tx == nil {
		tx = s.db
	}

	enrollment := &model.UserCourse{
		UserID:   userID,
		CourseID: courseID,
		Paid:     paid,
	}
	if err := tx.WithContext(ctx).Create(enrollment).Error; err != nil {
		return nil, fmt.Errorf("failed to enroll user %d in course %d: %w", userID, courseID, err)
	}

	return enrollment, nil
}

// IsEnrolled reports whether the user has at least one enrollment for the course
func (s *EnrollmentService) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

// FindEnrollment returns the earliest enrollment of the pair, or nil when there is none
func (s *EnrollmentService) FindEnrollment(ctx context.Context, userID, courseID uint) (*model.UserCourse, error) {
	var enrollments []model.UserCourse
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id ASC").
		Limit(1).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, nil
	}
	return &enrollments[0], nil
}

// ListForUser returns the user's enrollments, newest first, with the course
// and its author and category loaded. Repeat enrollments of one course
// collapse to the newest row.
func (s *EnrollmentService) ListForUser(ctx context.Context, userID uint) ([]model.UserCourse, error) {
	var rows []model.UserCourse
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Category").
		Preload("Course.Author").
		Preload("Course.Level").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	seen := make(map[uint]bool, len(rows))
	enrollments := make([]model.UserCourse, 0, len(rows))
	for _, row := range rows {
		if seen[row.CourseID] {
			continue
		}
		seen[row.CourseID] = true
		enrollments = append(enrollments, row)
	}

	return enrollments, nil
}
