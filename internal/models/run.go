package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus tracks lifecycle of a generation run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// GenerationRun is the persisted record of one engine invocation.
type GenerationRun struct {
	ID             string         `db:"id" json:"id"`
	ScheduleID     *string        `db:"schedule_id" json:"schedule_id,omitempty"`
	Status         RunStatus      `db:"status" json:"status"`
	Algorithm      string         `db:"algorithm" json:"algorithm"`
	Score          float64        `db:"score" json:"score"`
	HardViolations int            `db:"hard_violations" json:"hard_violations"`
	Simulation     bool           `db:"simulation" json:"simulation"`
	InitiatedBy    *string        `db:"initiated_by" json:"initiated_by,omitempty"`
	Report         types.JSONText `db:"report" json:"report,omitempty"`
	Error          *string        `db:"error" json:"error,omitempty"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	FinishedAt     *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}

// HealthPoint is one entry in the schedule-health trend.
type HealthPoint struct {
	RunID          string    `db:"run_id" json:"run_id"`
	Score          float64   `db:"score" json:"score"`
	HardViolations int       `db:"hard_violations" json:"hard_violations"`
	FinishedAt     time.Time `db:"finished_at" json:"finished_at"`
}

// Pagination describes list slicing metadata for API responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
