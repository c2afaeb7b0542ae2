package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authError carries the status and message an auth failure is reported with
type authError struct {
	status  int
	message string
}

func (e *authError) Error() string { return e.message }

func unauthorized(message string) *authError {
	return &authError{status: fiber.StatusUnauthorized, message: message}
}

// authenticate resolves the bearer token of the request to its claims and user
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, *authError) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, nil, unauthorized("Missing authorization token")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, unauthorized("Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateTokenOfType(parts[1], auth.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, nil, unauthorized("Token has expired")
		}
		return nil, nil, unauthorized("Invalid token")
	}

	isRevoked, err := m.blacklistService.IsTokenRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return nil, nil, &authError{status: fiber.StatusInternalServerError, message: "Failed to check token status"}
	}
	if isRevoked {
		return nil, nil, unauthorized("Token has been revoked")
	}

	var user model.User
	if err := m.db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, unauthorized("User not found")
		}
		return nil, nil, &authError{status: fiber.StatusInternalServerError, message: "Failed to load user"}
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, unauthorized("Token has been invalidated")
	}

	return claims, &user, nil
}

func storeIdentity(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", user.ID)
	c.Locals("user_role", user.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, aerr := m.authenticate(c)
		if aerr != nil {
			if aerr.status == fiber.StatusInternalServerError {
				return response.InternalServerError(c, aerr.message)
			}
			return response.Unauthorized(c, aerr.message)
		}

		storeIdentity(c, claims, user)
		return c.Next()
	}
}

// Optional is middleware that identifies the user when a valid token is sent
// and lets anonymous requests through otherwise
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}

		claims, user, aerr := m.authenticate(c)
		if aerr == nil {
			storeIdentity(c, claims, user)
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires specific user role. It must run
// after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(string)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin is middleware that requires admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole("admin")
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals("user").(*model.User)
	return u, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals("claims").(*auth.Claims)
	return claims, ok
}
