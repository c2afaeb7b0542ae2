package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/skill-academy/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlacklistService handles JWT token revocation
type BlacklistService struct {
	db *gorm.DB
}

// NewBlacklistService creates a new blacklist service
func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// RevokeToken adds a token to the blacklist. Revoking twice is a no-op.
func (s *BlacklistService) RevokeToken(ctx context.Context, claims *Claims, reason model.RevocationReason) error {
	entry := model.JWTTokenBlacklist{
		Token:     claims.ID,
		UserID:    claims.UserID,
		Reason:    reason,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&entry).Error
}

// IsTokenRevoked checks if a token is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).
		Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RevokeAllUserTokens increments user's token version to invalidate all tokens
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, tx *gorm.DB, userID uint) error {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}
