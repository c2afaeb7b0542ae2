package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilchouksey/skill-academy/model"
	queryutil "github.com/sahilchouksey/skill-academy/utils/query"
	"github.com/sahilchouksey/skill-academy/utils/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotEnrolled is returned when gated course content is requested by a non-owner
var ErrNotEnrolled = errors.New("user is not enrolled in this course")

// homeCategoryLimit is how many categories the home page shows
const homeCategoryLimit = 6

// PriceFilter narrows a course listing by price
type PriceFilter string

const (
	PriceAll  PriceFilter = "all"
	PriceFree PriceFilter = "free"
	PricePaid PriceFilter = "paid"
)

// CourseFilter is the input of FilterCourses
type CourseFilter struct {
	Price       PriceFilter
	CategoryIDs []uint
	LevelIDs    []uint
}

// HomePage is the data behind the landing page
type HomePage struct {
	Categories []model.Category `json:"categories"`
	Courses    []model.Course   `json:"courses"`
}

// CourseListing is the data behind the course list page
type CourseListing struct {
	Categories []model.Category `json:"categories"`
	Levels     []model.Level    `json:"levels"`
	Courses    []model.Course   `json:"courses"`
	FreeCount  int64            `json:"free_count"`
	PaidCount  int64            `json:"paid_count"`
}

// CourseDetail is a single course with its curriculum and the caller's access
type CourseDetail struct {
	Course        *model.Course `json:"course"`
	TotalDuration float64       `json:"total_duration"`
	VideoCount    int           `json:"video_count"`
	Enrolled      bool          `json:"enrolled"`
}

// WatchContent is the playable part of a course for one user
type WatchContent struct {
	Course   *model.Course  `json:"course"`
	Lessons  []model.Lesson `json:"lessons"`
	Enrolled bool           `json:"enrolled"`
}

// CatalogService reads and maintains the course catalog
type CatalogService struct {
	db     *gorm.DB
	ledger *EnrollmentService
	log    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB, ledger *EnrollmentService, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{db: db, ledger: ledger, log: log.Named("catalog")}
}

func (s *CatalogService) published(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&model.Course{}).
		Preload("Category").
		Preload("Author").
		Preload("Level").
		Where("courses.status = ?", model.CourseStatusPublish)
}

// Home returns the first categories and the newest published courses
func (s *CatalogService) Home(ctx context.Context) (*HomePage, error) {
	page := &HomePage{}

	if err := s.db.WithContext(ctx).Order("id ASC").Limit(homeCategoryLimit).Find(&page.Categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if err := s.published(ctx).Order("courses.id DESC").Find(&page.Courses).Error; err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}

	return page, nil
}

// ListCourses returns every published course plus the filter facets
func (s *CatalogService) ListCourses(ctx context.Context) (*CourseListing, error) {
	listing := &CourseListing{}
	db := s.db.WithContext(ctx)

	if err := db.Order("id ASC").Find(&listing.Categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if err := db.Order("id ASC").Find(&listing.Levels).Error; err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	if err := s.published(ctx).Order("courses.id DESC").Find(&listing.Courses).Error; err != nil {
		return nil, fmt.Errorf("failed to load courses: %w", err)
	}

	for _, course := range listing.Courses {
		if course.IsFree() {
			listing.FreeCount++
		} else {
			listing.PaidCount++
		}
	}

	return listing, nil
}

// FilterCourses returns published courses matching price, category and level
func (s *CatalogService) FilterCourses(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	query := s.published(ctx)

	switch filter.Price {
	case PriceFree:
		query = query.Where("courses.price = 0")
	case PricePaid:
		query = query.Where("courses.price >= 1")
	}
	if len(filter.CategoryIDs) > 0 {
		query = query.Where("courses.category_id IN ?", filter.CategoryIDs)
	}
	if len(filter.LevelIDs) > 0 {
		query = query.Where("courses.level_id IN ?", filter.LevelIDs)
	}

	var courses []model.Course
	if err := query.Order("courses.id DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to filter courses: %w", err)
	}
	return courses, nil
}

// SearchCourses matches the query against course titles, ignoring case
func (s *CatalogService) SearchCourses(ctx context.Context, q string) ([]model.Course, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Course{}, nil
	}

	var courses []model.Course
	err := s.published(ctx).
		Where("LOWER(courses.title) LIKE ?"+queryutil.LikeEscape, queryutil.ContainsPattern(q)).
		Order("courses.id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}
	return courses, nil
}

func (s *CatalogService) loadCourseWithCurriculum(ctx context.Context, courseSlug string) (*model.Course, error) {
	var course model.Course
	err := s.published(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("lessons.id ASC") }).
		Preload("Lessons.Videos", func(db *gorm.DB) *gorm.DB { return db.Order("videos.serial_number ASC") }).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("reviews.created_at DESC") }).
		Preload("Reviews.User").
		Where("courses.slug = ?", courseSlug).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course %q: %w", courseSlug, err)
	}
	return &course, nil
}

// CourseDetail loads a published course by slug. userID 0 means anonymous.
func (s *CatalogService) CourseDetail(ctx context.Context, courseSlug string, userID uint) (*CourseDetail, error) {
	course, err := s.loadCourseWithCurriculum(ctx, courseSlug)
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: course}
	for _, lesson := range course.Lessons {
		for _, video := range lesson.Videos {
			detail.TotalDuration += video.TimeDuration
			detail.VideoCount++
		}
	}

	if userID != 0 {
		detail.Enrolled, err = s.ledger.IsEnrolled(ctx, userID, course.ID)
		if err != nil {
			return nil, err
		}
	}

	return detail, nil
}

// WatchCourse returns the lessons a user may play. Owners get everything,
// others only preview videos; ErrNotEnrolled when nothing is left.
func (s *CatalogService) WatchCourse(ctx context.Context, courseSlug string, userID uint) (*WatchContent, error) {
	course, err := s.loadCourseWithCurriculum(ctx, courseSlug)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.ledger.IsEnrolled(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return &WatchContent{Course: course, Lessons: course.Lessons, Enrolled: true}, nil
	}

	lessons := make([]model.Lesson, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		var previews []model.Video
		for _, video := range lesson.Videos {
			if video.Preview {
				previews = append(previews, video)
			}
		}
		if len(previews) == 0 {
			continue
		}
		lesson.Videos = previews
		lessons = append(lessons, lesson)
	}
	if len(lessons) == 0 {
		return nil, ErrNotEnrolled
	}

	return &WatchContent{Course: course, Lessons: lessons}, nil
}

// SaveCourse creates or updates a course, assigning a unique slug from its title
func (s *CatalogService) SaveCourse(ctx context.Context, course *model.Course) error {
	courseSlug, err := slug.UniqueCourseSlug(ctx, s.db, course.Title, course.ID)
	if err != nil {
		return err
	}
	course.Slug = courseSlug
	if course.Status == "" {
		course.Status = model.CourseStatusDraft
	}

	if err := s.db.WithContext(ctx).Omit("Category", "Level", "Author", "Lessons", "Videos", "Reviews", "Users").Save(course).Error; err != nil {
		return fmt.Errorf("failed to save course: %w", err)
	}

	s.log.Info("course saved", zap.Uint("course_id", course.ID), zap.String("slug", course.Slug))
	return nil
}

// GetCourse loads any course by id, drafts included
func (s *CatalogService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}
	return &course, nil
}

// SetFeaturedImage stores the uploaded image URL on the course
func (s *CatalogService) SetFeaturedImage(ctx context.Context, id uint, url string) error {
	result := s.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Update("featured_image", url)
	if result.Error != nil {
		return fmt.Errorf("failed to update course image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
