package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/utils/cache"
	"github.com/sahilchouksey/skill-academy/utils/response"
	"go.uber.org/zap"
)

const attemptWindow = 15 * time.Minute

// BruteForceProtection handles brute force protection using Redis. A nil
// cache disables it.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
	log        *zap.Logger
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache, log *zap.Logger) *BruteForceProtection {
	if log == nil {
		log = zap.NewNop()
	}
	return &BruteForceProtection{
		redisCache: redisCache,
		log:        log.Named("brute_force"),
	}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// lockoutFor maps a failed attempt count to a progressive lockout
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// CheckAndRecordAttempt middleware rejects requests from locked out IPs
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil || b.redisCache == nil {
			return c.Next()
		}

		key := lockKey(c.IP())
		locked, err := b.redisCache.Exists(c.UserContext(), key)
		if err != nil {
			// Redis trouble must not lock out legitimate users
			b.log.Warn("lock lookup failed", zap.Error(err))
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(c.UserContext(), key)
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt records a failed login attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip string) {
	if b == nil || b.redisCache == nil {
		return
	}

	attempts, err := b.redisCache.IncrementWithWindow(ctx, attemptKey(ip), attemptWindow)
	if err != nil {
		b.log.Warn("failed to record attempt", zap.String("ip", ip), zap.Error(err))
		return
	}

	lockDuration := lockoutFor(attempts)
	if lockDuration == 0 {
		return
	}

	if err := b.redisCache.Set(ctx, lockKey(ip), "locked", lockDuration); err != nil {
		b.log.Warn("failed to apply lockout", zap.String("ip", ip), zap.Error(err))
		return
	}
	b.log.Info("ip locked out", zap.String("ip", ip), zap.Int64("attempts", attempts), zap.Duration("duration", lockDuration))
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) {
	if b == nil || b.redisCache == nil {
		return
	}
	if err := b.redisCache.Delete(ctx, attemptKey(ip), lockKey(ip)); err != nil {
		b.log.Warn("failed to clear attempts", zap.String("ip", ip), zap.Error(err))
	}
}
