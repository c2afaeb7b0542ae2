package course

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"github.com/sahilchouksey/skill-academy/utils/slug"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	catalog   *services.CatalogService
	uploader  services.ImageUploader
	validator *validation.Validator
	log       *zap.Logger
}

// NewCourseHandler creates a new course handler. uploader may be nil when
// object storage is not configured.
func NewCourseHandler(catalog *services.CatalogService, uploader services.ImageUploader, log *zap.Logger) *CourseHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CourseHandler{
		catalog:   catalog,
		uploader:  uploader,
		validator: validation.NewValidator(),
		log:       log.Named("courses"),
	}
}

// CourseRequest represents the request body for creating or updating a course
type CourseRequest struct {
	Title         string             `json:"title" form:"title" validate:"required,min=3,max=500"`
	Price         int64              `json:"price" form:"price" validate:"min=0"`
	Discount      *int               `json:"discount" form:"discount" validate:"omitempty,min=0,max=100"`
	CategoryID    uint               `json:"category_id" form:"category_id" validate:"required,min=1"`
	LevelID       *uint              `json:"level_id" form:"level_id" validate:"omitempty,min=1"`
	AuthorID      *uint              `json:"author_id" form:"author_id" validate:"omitempty,min=1"`
	Status        model.CourseStatus `json:"status" form:"status" validate:"omitempty,oneof=PUBLISH DRAFT"`
	FeaturedVideo string             `json:"featured_video" form:"featured_video" validate:"omitempty,max=300"`
	Description   string             `json:"description" form:"description"`
	Language      string             `json:"language" form:"language" validate:"omitempty,max=100"`
	Deadline      string             `json:"deadline" form:"deadline" validate:"omitempty,max=100"`
}

func (r CourseRequest) apply(course *model.Course) {
	course.Title = validation.SanitizeString(r.Title)
	course.Price = r.Price
	course.Discount = r.Discount
	course.CategoryID = r.CategoryID
	course.LevelID = r.LevelID
	course.AuthorID = r.AuthorID
	course.Status = r.Status
	course.FeaturedVideo = validation.SanitizeString(r.FeaturedVideo)
	course.Description = validation.SanitizeString(r.Description)
	course.Language = validation.SanitizeString(r.Language)
	course.Deadline = validation.SanitizeString(r.Deadline)
}

// Home handles GET /api/v1/home
func (h *CourseHandler) Home(c *fiber.Ctx) error {
	page, err := h.catalog.Home(c.UserContext())
	if err != nil {
		h.log.Error("failed to load home page", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch courses")
	}
	return response.Success(c, page)
}

// ListCourses handles GET /api/v1/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	listing, err := h.catalog.ListCourses(c.UserContext())
	if err != nil {
		h.log.Error("failed to list courses", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch courses")
	}
	return response.Success(c, listing)
}

// FilterCourses handles GET /api/v1/courses/filter?price=&category=&level=
// category and level may repeat or be comma separated.
func (h *CourseHandler) FilterCourses(c *fiber.Ctx) error {
	filter := services.CourseFilter{
		Price: services.PriceFilter(strings.ToLower(c.Query("price", string(services.PriceAll)))),
	}
	switch filter.Price {
	case services.PriceAll, services.PriceFree, services.PricePaid:
	default:
		return response.BadRequest(c, "price must be one of all, free, paid")
	}

	var err error
	if filter.CategoryIDs, err = queryIDs(c, "category"); err != nil {
		return response.BadRequest(c, "Invalid category id")
	}
	if filter.LevelIDs, err = queryIDs(c, "level"); err != nil {
		return response.BadRequest(c, "Invalid level id")
	}

	courses, err := h.catalog.FilterCourses(c.UserContext(), filter)
	if err != nil {
		h.log.Error("failed to filter courses", zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch courses")
	}
	return response.Success(c, courses)
}

// SearchCourses handles GET /api/v1/courses/search?q=
func (h *CourseHandler) SearchCourses(c *fiber.Ctx) error {
	courses, err := h.catalog.SearchCourses(c.UserContext(), c.Query("q"))
	if err != nil {
		h.log.Error("failed to search courses", zap.Error(err))
		return response.InternalServerError(c, "Failed to search courses")
	}
	return response.Success(c, courses)
}

// GetCourse handles GET /api/v1/courses/:slug
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	userID, _ := middleware.GetUserID(c)

	detail, err := h.catalog.CourseDetail(c.UserContext(), c.Params("slug"), userID)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		h.log.Error("failed to fetch course", zap.String("slug", c.Params("slug")), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch course")
	}
	return response.Success(c, detail)
}

// CreateCourse handles POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	req.apply(&course)
	if err := h.catalog.SaveCourse(c.UserContext(), &course); err != nil {
		return h.saveFailed(c, err)
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.catalog.GetCourse(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	req.apply(course)
	if err := h.catalog.SaveCourse(c.UserContext(), course); err != nil {
		return h.saveFailed(c, err)
	}

	return response.Success(c, course)
}

// UploadImage handles POST /api/v1/courses/:id/image (multipart field "image")
func (h *CourseHandler) UploadImage(c *fiber.Ctx) error {
	if h.uploader == nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Image storage is not configured", "STORAGE_UNAVAILABLE")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "image file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read image")
	}
	defer file.Close()

	url, err := h.uploader.UploadImage(c.UserContext(), "courses/"+strconv.Itoa(id), fileHeader.Filename, file)
	if err != nil {
		h.log.Error("failed to upload course image", zap.Int("course_id", id), zap.Error(err))
		return response.BadRequest(c, "Failed to upload image")
	}

	if err := h.catalog.SetFeaturedImage(c.UserContext(), uint(id), url); err != nil {
		if delErr := h.uploader.DeleteImage(c.UserContext(), url); delErr != nil {
			h.log.Warn("failed to remove orphaned course image", zap.String("url", url), zap.Error(delErr))
		}
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.Success(c, fiber.Map{"featured_image": url})
}

func (h *CourseHandler) saveFailed(c *fiber.Ctx, err error) error {
	if errors.Is(err, slug.ErrExhausted) {
		return response.Conflict(c, "Could not derive a unique slug from this title")
	}
	h.log.Error("failed to save course", zap.Error(err))
	return response.InternalServerError(c, "Failed to save course")
}

// queryIDs collects positive integer ids from a repeated or comma separated query parameter
func queryIDs(c *fiber.Ctx, key string) ([]uint, error) {
	var ids []uint
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, errors.New("invalid id")
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}
