package cron

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/skill-academy/model"
)

// CleanupExpiredTokens removes blacklisted JTIs whose tokens have expired.
// An expired token is rejected on its own, so its blacklist row is dead weight.
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := m.db.WithContext(ctx).
		Where("expires_at < ?", m.config.Clock()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean token blacklist: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeAbandonedPayments soft-deletes pending payments older than the
// retention window. Soft deletion keeps the rows for reconciliation.
func (m *CronManager) PurgeAbandonedPayments(ctx context.Context) (int64, error) {
	cutoff := m.config.Clock().Add(-m.config.PendingPaymentRetention)
	result := m.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Delete(&model.Payment{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge abandoned payments: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PruneCronLogs removes job logs past the log retention window
func (m *CronManager) PruneCronLogs(ctx context.Context) (int64, error) {
	cutoff := m.config.Clock().Add(-m.config.CronLogRetention)
	result := m.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune cron logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
