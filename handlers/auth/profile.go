package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateProfileRequest represents a profile update request. Empty fields are
// left unchanged.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" form:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" form:"last_name" validate:"omitempty,max=150"`
	Username  string `json:"username" form:"username" validate:"omitempty,min=3,max=150"`
	Email     string `json:"email" form:"email" validate:"omitempty,email"`
	Password  string `json:"password" form:"password" validate:"omitempty,min=8"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, toUserResponse(user))
}

// UpdateProfile updates the current user's profile and optionally the
// password. A password change signs the user out everywhere.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.FirstName = validation.SanitizeString(req.FirstName)
	req.LastName = validation.SanitizeString(req.LastName)
	req.Username = validation.SanitizeString(req.Username)
	req.Email = strings.ToLower(validation.SanitizeString(req.Email))

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Username != "" {
		if ok, msg := validation.ValidateUsername(req.Username); !ok {
			return response.FieldErrors(c, map[string]string{"username": msg})
		}
	}

	conflict, err := h.identityTaken(req.Email, req.Username, user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check existing users")
	}
	if conflict != "" {
		return response.Conflict(c, conflict)
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.Username != "" {
		updates["username"] = req.Username
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}

	passwordChanged := req.Password != ""
	if passwordChanged {
		hashed, err := authutil.HashPassword(req.Password)
		if err != nil {
			return response.InternalServerError(c, "Failed to process password")
		}
		updates["password_hash"] = hashed
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if passwordChanged {
			return h.blacklistService.RevokeAllUserTokens(c.UserContext(), tx, user.ID)
		}
		return nil
	})
	if err != nil {
		h.log.Error("failed to update profile", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to update profile")
	}

	var updated model.User
	if err := h.db.First(&updated, user.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	if passwordChanged {
		return response.SuccessWithMessage(c, "Password changed. Please login again with your new password", toUserResponse(&updated))
	}
	return response.SuccessWithMessage(c, "Profile updated", toUserResponse(&updated))
}
