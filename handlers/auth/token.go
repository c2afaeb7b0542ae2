package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken rotates a refresh token into a new token pair
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	claims, err := h.jwtManager.ValidateTokenOfType(req.RefreshToken, authutil.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	isRevoked, err := h.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Unauthorized(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	// The old refresh token is single use
	if err := h.blacklistService.RevokeToken(c.UserContext(), claims, model.RevokedOnRefresh); err != nil {
		return response.InternalServerError(c, "Failed to rotate refresh token")
	}

	pair, err := h.jwtManager.IssuePair(&user)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Success(c, AuthResponse{TokenPair: pair})
}

// Logout blacklists the access token the request was made with
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.blacklistService.RevokeToken(c.UserContext(), claims, model.RevokedOnLogout); err != nil {
		h.log.Error("failed to revoke token", zap.Uint("user_id", claims.UserID), zap.Error(err))
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
