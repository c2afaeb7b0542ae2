package contact

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContactHandler stores messages from the public contact form
type ContactHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	log       *zap.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(db *gorm.DB, log *zap.Logger) *ContactHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactHandler{
		db:        db,
		validator: validation.NewValidator(),
		log:       log.Named("contact"),
	}
}

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,email,max=254"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}

// Create handles POST /api/v1/contact
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Email = strings.ToLower(validation.SanitizeString(req.Email))
	req.Message = validation.SanitizeString(req.Message)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	msg := model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&msg).Error; err != nil {
		h.log.Error("failed to store contact message", zap.Error(err))
		return response.InternalServerError(c, "Failed to send message")
	}

	return response.CreatedWithMessage(c, "Thanks, we will get back to you soon", msg)
}
