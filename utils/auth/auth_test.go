package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/skill-academy/database/dbtest"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

func testManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "skill-academy-test"})
}

func TestIssuePairAndValidate(t *testing.T) {
	m := testManager()
	user := &model.User{ID: 7, Email: "jane@example.com", Role: "student", TokenVersion: 3}

	pair, err := m.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)

	claims, err := m.ValidateTokenOfType(pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.ID)

	_, err = m.ValidateTokenOfType(pair.AccessToken, auth.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	refresh, err := m.ValidateTokenOfType(pair.RefreshToken, auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	pair, err := testManager().IssuePair(&model.User{ID: 1})
	require.NoError(t, err)

	other := auth.NewJWTManager(auth.JWTConfig{Secret: "another-secret", Issuer: "skill-academy-test"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	wrongIssuer := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	_, err = wrongIssuer.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	m := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Expiry: -time.Minute})
	pair, err := m.IssuePair(&model.User{ID: 1})
	require.NoError(t, err)

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestPasswordHashing(t *testing.T) {
	_, err := auth.HashPassword("short")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, auth.VerifyPassword(hash, "battery staple"), auth.ErrPasswordMismatch)
}

func TestBlacklist(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.SeedUser(t, db, "revoke@example.com")
	m := testManager()
	svc := auth.NewBlacklistService(db)
	ctx := context.Background()

	pair, err := m.IssuePair(user)
	require.NoError(t, err)
	claims, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)

	revoked, err := svc.IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.RevokeToken(ctx, claims, model.RevokedOnLogout))
	require.NoError(t, svc.RevokeToken(ctx, claims, model.RevokedOnLogout), "revoking twice is harmless")

	revoked, err = svc.IsTokenRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, svc.RevokeAllUserTokens(ctx, nil, user.ID))
	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, user.TokenVersion+1, reloaded.TokenVersion)
}
