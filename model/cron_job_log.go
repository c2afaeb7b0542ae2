package model

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the state of a background job run
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// CronJobLog records one execution of a scheduled job
type CronJobLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobName      string         `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status       JobStatus      `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null;index" json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	DurationMS   int64          `json:"duration_ms"`
	RowsAffected int64          `json:"rows_affected"`
	Message      string         `gorm:"type:text" json:"message"`
	ErrorMsg     string         `gorm:"type:text" json:"error_msg"`
	Metadata     datatypes.JSON `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for CronJobLog
func (CronJobLog) TableName() string {
	return "cron_job_logs"
}
