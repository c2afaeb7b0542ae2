package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sahilchouksey/skill-academy/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImageUploader stores an image and returns its public URL
type ImageUploader interface {
	UploadImage(ctx context.Context, prefix, filename string, data io.ReadSeeker) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

// PhotoUpload is an image attached to a request
type PhotoUpload struct {
	Filename string
	Data     io.ReadSeeker
}

// CreateReviewInput is the input of ReviewService.Create
type CreateReviewInput struct {
	CourseID uint
	UserID   uint
	Body     string
	Photo    *PhotoUpload
}

// ReviewService stores learner reviews
type ReviewService struct {
	db       *gorm.DB
	uploader ImageUploader
	log      *zap.Logger
}

// NewReviewService creates a review service. uploader may be nil, in which
// case photos are dropped.
func NewReviewService(db *gorm.DB, uploader ImageUploader, log *zap.Logger) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{db: db, uploader: uploader, log: log.Named("reviews")}
}

// Create stores a review on a published course
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*model.Review, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Where("status = ?", model.CourseStatusPublish).
		First(&course, in.CourseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course %d: %w", in.CourseID, err)
	}

	review := &model.Review{
		CourseID: course.ID,
		UserID:   in.UserID,
		Body:     in.Body,
	}

	if in.Photo != nil {
		if s.uploader == nil {
			s.log.Warn("image storage not configured, dropping review photo", zap.Uint("course_id", course.ID))
		} else {
			url, err := s.uploader.UploadImage(ctx, fmt.Sprintf("reviews/%d", course.ID), in.Photo.Filename, in.Photo.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to upload review photo: %w", err)
			}
			review.PhotoURL = url
		}
	}

	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if review.PhotoURL != "" {
			if delErr := s.uploader.DeleteImage(ctx, review.PhotoURL); delErr != nil {
				s.log.Warn("failed to remove orphaned review photo", zap.String("url", review.PhotoURL), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	return review, nil
}

// ListForCourse returns a course's reviews, newest first
func (s *ReviewService) ListForCourse(ctx context.Context, courseID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
