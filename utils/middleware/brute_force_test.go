package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sahilchouksey/skill-academy/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(t *testing.T) (*fiber.App, *BruteForceProtection, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rc.Close() })

	bf := NewBruteForceProtection(rc, nil)
	app := fiber.New()
	app.Post("/login", bf.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, bf, mr
}

func TestLockoutFor(t *testing.T) {
	assert.Equal(t, time.Duration(0), lockoutFor(4))
	assert.Equal(t, 2*time.Minute, lockoutFor(5))
	assert.Equal(t, time.Hour, lockoutFor(10))
	assert.Equal(t, 24*time.Hour, lockoutFor(25))
}

func TestBruteForceProtection_LocksAfterFiveFailures(t *testing.T) {
	app, bf, mr := newProtectedApp(t)
	ctx := context.Background()
	// app.Test requests come from 0.0.0.0
	const ip = "0.0.0.0"

	for i := 0; i < 4; i++ {
		bf.RecordFailedAttempt(ctx, ip)
	}
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	bf.RecordFailedAttempt(ctx, ip)
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get("Retry-After"))

	mr.FastForward(2*time.Minute + time.Second)
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBruteForceProtection_SuccessClearsAttempts(t *testing.T) {
	app, bf, _ := newProtectedApp(t)
	ctx := context.Background()
	const ip = "0.0.0.0"

	for i := 0; i < 5; i++ {
		bf.RecordFailedAttempt(ctx, ip)
	}
	bf.RecordSuccessfulAttempt(ctx, ip)

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBruteForceProtection_DisabledWithoutRedis(t *testing.T) {
	bf := NewBruteForceProtection(nil, nil)
	bf.RecordFailedAttempt(context.Background(), "1.2.3.4")

	app := fiber.New()
	app.Get("/", bf.CheckAndRecordAttempt(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
