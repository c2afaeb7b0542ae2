package review

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/services/digitalocean"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
)

// maxPhotoSize caps review photo uploads
const maxPhotoSize = 5 << 20

// ReviewHandler handles course reviews
type ReviewHandler struct {
	reviews *services.ReviewService
	log     *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService, log *zap.Logger) *ReviewHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewHandler{reviews: reviews, log: log.Named("reviews")}
}

// Create handles POST /api/v1/courses/:id/reviews (multipart fields
// "review" and optional "photo")
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	body := validation.SanitizeString(c.FormValue("review"))
	if body == "" {
		return response.FieldErrors(c, map[string]string{"review": "review is required"})
	}

	in := services.CreateReviewInput{
		CourseID: uint(courseID),
		UserID:   userID,
		Body:     body,
	}

	if fileHeader, err := c.FormFile("photo"); err == nil {
		if fileHeader.Size > maxPhotoSize {
			return response.FieldErrors(c, map[string]string{"photo": "photo must be at most 5MB"})
		}
		if _, err := digitalocean.ImageContentType(fileHeader.Filename); err != nil {
			return response.FieldErrors(c, map[string]string{"photo": "photo must be a jpg, png, gif or webp image"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return response.BadRequest(c, "Failed to read photo")
		}
		defer file.Close()
		in.Photo = &services.PhotoUpload{Filename: fileHeader.Filename, Data: file}
	}

	review, err := h.reviews.Create(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		h.log.Error("failed to create review", zap.Int("course_id", courseID), zap.Error(err))
		return response.InternalServerError(c, "Failed to save review")
	}

	return response.Created(c, review)
}

// List handles GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return response.BadRequest(c, "Invalid course id")
	}

	reviews, err := h.reviews.ListForCourse(c.UserContext(), uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch reviews")
	}
	return response.Success(c, reviews)
}
