package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database/dbtest"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthApp(t *testing.T) (*fiber.App, *auth.JWTManager, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "middleware_test_secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "skill-academy-test",
	})

	m := NewAuthMiddleware(jwtManager, db)
	app := fiber.New()
	app.Get("/me", m.Required(), func(c *fiber.Ctx) error {
		id, _ := GetUserID(c)
		return c.JSON(fiber.Map{"user_id": id})
	})
	app.Get("/admin", m.Required(), m.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, jwtManager, db
}

func bearerGet(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequired_AcceptsValidAccessToken(t *testing.T) {
	app, jwtManager, db := newAuthApp(t)
	user := dbtest.SeedUser(t, db, "member@example.com")

	pair, err := jwtManager.IssuePair(user)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, bearerGet(t, app, "/me", pair.AccessToken))
}

func TestRequired_RejectsMissingAndRefreshTokens(t *testing.T) {
	app, jwtManager, db := newAuthApp(t)
	user := dbtest.SeedUser(t, db, "member@example.com")

	pair, err := jwtManager.IssuePair(user)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusUnauthorized, bearerGet(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, bearerGet(t, app, "/me", pair.RefreshToken))
}

func TestRequired_RejectsRevokedToken(t *testing.T) {
	app, jwtManager, db := newAuthApp(t)
	user := dbtest.SeedUser(t, db, "member@example.com")

	pair, err := jwtManager.IssuePair(user)
	require.NoError(t, err)
	claims, err := jwtManager.ValidateTokenOfType(pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	require.NoError(t, auth.NewBlacklistService(db).RevokeToken(context.Background(), claims, model.RevokedOnLogout))

	assert.Equal(t, fiber.StatusUnauthorized, bearerGet(t, app, "/me", pair.AccessToken))
}

func TestRequireAdmin(t *testing.T) {
	app, jwtManager, db := newAuthApp(t)
	student := dbtest.SeedUser(t, db, "student@example.com")
	admin := dbtest.SeedUser(t, db, "boss@example.com")
	require.NoError(t, db.Model(admin).Update("role", "admin").Error)

	studentPair, err := jwtManager.IssuePair(student)
	require.NoError(t, err)
	adminPair, err := jwtManager.IssuePair(admin)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, bearerGet(t, app, "/admin", studentPair.AccessToken))
	assert.Equal(t, fiber.StatusOK, bearerGet(t, app, "/admin", adminPair.AccessToken))
}
