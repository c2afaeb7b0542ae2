package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
)

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username" form:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" form:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" form:"last_name" validate:"omitempty,max=150"`
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Username = validation.SanitizeString(req.Username)
	req.Email = strings.ToLower(validation.SanitizeString(req.Email))
	req.FirstName = validation.SanitizeString(req.FirstName)
	req.LastName = validation.SanitizeString(req.LastName)

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if ok, msg := validation.ValidateUsername(req.Username); !ok {
		return response.FieldErrors(c, map[string]string{"username": msg})
	}

	conflict, err := h.identityTaken(req.Email, req.Username, 0)
	if err != nil {
		return response.InternalServerError(c, "Failed to check existing users")
	}
	if conflict != "" {
		return response.Conflict(c, conflict)
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         "student",
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.log.Error("failed to create user", zap.Error(err))
		return response.InternalServerError(c, "Failed to create user")
	}

	pair, err := h.jwtManager.IssuePair(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	h.log.Info("user registered", zap.Uint("user_id", user.ID))
	return response.Created(c, AuthResponse{User: toUserResponse(&user), TokenPair: pair})
}
