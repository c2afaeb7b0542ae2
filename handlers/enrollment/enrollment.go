package enrollment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
)

// EnrollmentHandler serves the courses a learner owns
type EnrollmentHandler struct {
	ledger  *services.EnrollmentService
	catalog *services.CatalogService
	log     *zap.Logger
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(ledger *services.EnrollmentService, catalog *services.CatalogService, log *zap.Logger) *EnrollmentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EnrollmentHandler{ledger: ledger, catalog: catalog, log: log.Named("enrollment")}
}

// MyCourses handles GET /api/v1/my-courses
func (h *EnrollmentHandler) MyCourses(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	enrollments, err := h.ledger.ListForUser(c.UserContext(), userID)
	if err != nil {
		h.log.Error("failed to list enrollments", zap.Uint("user_id", userID), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch your courses")
	}
	return response.Success(c, enrollments)
}

// Watch handles GET /api/v1/courses/:slug/watch
func (h *EnrollmentHandler) Watch(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	content, err := h.catalog.WatchCourse(c.UserContext(), c.Params("slug"), userID)
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrNotEnrolled):
		return response.Forbidden(c, "Enroll in this course to watch it")
	case err != nil:
		h.log.Error("failed to load course content", zap.String("slug", c.Params("slug")), zap.Error(err))
		return response.InternalServerError(c, "Failed to fetch course content")
	}
	return response.Success(c, content)
}
