package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Login handles user login by email
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		h.bruteForceProtection.RecordFailedAttempt(c.UserContext(), ip)
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.bruteForceProtection.RecordFailedAttempt(c.UserContext(), ip)
		return response.Unauthorized(c, "Invalid email or password")
	}

	h.bruteForceProtection.RecordSuccessfulAttempt(c.UserContext(), ip)

	pair, err := h.jwtManager.IssuePair(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, AuthResponse{User: toUserResponse(&user), TokenPair: pair})
}
