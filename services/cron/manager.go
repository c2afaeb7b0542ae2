package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/utils/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobCleanupExpiredTokens   = "cleanup_expired_tokens"
	JobPurgeAbandonedPayments = "purge_abandoned_payments"
	JobPruneCronLogs          = "prune_cron_logs"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 10 * time.Minute

// Config tunes the retention windows of the cleanup jobs
type Config struct {
	PendingPaymentRetention time.Duration
	CronLogRetention        time.Duration
	Clock                   func() time.Time
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	log    *zap.Logger
	config Config
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, config Config, log *zap.Logger) *CronManager {
	if config.PendingPaymentRetention <= 0 {
		config.PendingPaymentRetention = 7 * 24 * time.Hour
	}
	if config.CronLogRetention <= 0 {
		config.CronLogRetention = 30 * 24 * time.Hour
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &CronManager{
		// Create cron with seconds precision
		cron:   cron.New(cron.WithSeconds()),
		db:     db,
		log:    log.Named("cron"),
		config: config,
	}
}

func (m *CronManager) jobs() []job {
	return []job{
		// Every hour
		{name: JobCleanupExpiredTokens, schedule: "0 0 * * * *", run: m.CleanupExpiredTokens},
		// Daily at 3 AM
		{name: JobPurgeAbandonedPayments, schedule: "0 0 3 * * *", run: m.PurgeAbandonedPayments},
		// Sundays at 4 AM
		{name: JobPruneCronLogs, schedule: "0 0 4 * * 0", run: m.PruneCronLogs},
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	for _, j := range m.jobs() {
		j := j
		if _, err := m.cron.AddFunc(j.schedule, func() { _ = m.runJob(j) }); err != nil {
			return fmt.Errorf("failed to register job %s: %w", j.name, err)
		}
	}

	m.cron.Start()
	m.log.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// RunNow runs a registered job immediately, outside its schedule
func (m *CronManager) RunNow(name string) error {
	for _, j := range m.jobs() {
		if j.name == name {
			return m.runJob(j)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (m *CronManager) runJob(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry := m.logJobStart(j.name)
	rows, err := j.run(ctx)
	if err != nil {
		m.logJobError(entry, err)
		metrics.CronJobRunsTotal.WithLabelValues(j.name, string(model.JobStatusFailed)).Inc()
		return err
	}

	m.logJobComplete(entry, rows)
	metrics.CronJobRunsTotal.WithLabelValues(j.name, string(model.JobStatusCompleted)).Inc()
	return nil
}

// logJobStart records the start of a job run
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	m.log.Info("starting job", zap.String("job", jobName))

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.JobStatusRunning,
		StartedAt: m.config.Clock(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(entry).Error; err != nil {
		m.log.Warn("failed to record job start", zap.String("job", jobName), zap.Error(err))
	}
	return entry
}

// logJobComplete marks a job run as completed
func (m *CronManager) logJobComplete(entry *model.CronJobLog, rows int64) {
	now := m.config.Clock()
	duration := now.Sub(entry.StartedAt)
	message := fmt.Sprintf("%d rows affected", rows)

	m.log.Info("completed job",
		zap.String("job", entry.JobName),
		zap.Int64("rows_affected", rows),
		zap.Duration("duration", duration))

	m.finishEntry(entry, map[string]interface{}{
		"status":        model.JobStatusCompleted,
		"completed_at":  now,
		"duration_ms":   duration.Milliseconds(),
		"rows_affected": rows,
		"message":       message,
	})
}

// logJobError marks a job run as failed
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	now := m.config.Clock()
	m.log.Error("job failed", zap.String("job", entry.JobName), zap.Error(err))

	m.finishEntry(entry, map[string]interface{}{
		"status":       model.JobStatusFailed,
		"completed_at": now,
		"duration_ms":  now.Sub(entry.StartedAt).Milliseconds(),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) finishEntry(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(entry).Updates(updates).Error; err != nil {
		m.log.Warn("failed to record job result", zap.String("job", entry.JobName), zap.Error(err))
	}
}
