package auth

import (
	"time"

	"github.com/sahilchouksey/skill-academy/model"
	authutil "github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/sahilchouksey/skill-academy/utils/middleware"
	"github.com/sahilchouksey/skill-academy/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
	log                  *zap.Logger
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
		log:                  log.Named("auth"),
	}
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User *UserResponse `json:"user,omitempty"`
	*authutil.TokenPair
}

func toUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// identityTaken reports which unique identity field another user already holds
func (h *AuthHandler) identityTaken(email, username string, excludeID uint) (string, error) {
	checks := []struct {
		column, value, message string
	}{
		{"email", email, "Email already exists"},
		{"username", username, "Username already exists"},
	}

	for _, check := range checks {
		if check.value == "" {
			continue
		}
		query := h.db.Unscoped().Model(&model.User{}).Where(check.column+" = ?", check.value)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			return check.message, nil
		}
	}
	return "", nil
}
