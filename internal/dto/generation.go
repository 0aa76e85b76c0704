package dto

import (
	"time"

	"github.com/arborview/timetable-api/internal/models"
)

// SchoolDayRequest describes the bell schedule for a generation run. Times
// are minutes since midnight.
type SchoolDayRequest struct {
	FirstPeriodStart      int   `json:"firstPeriodStart" validate:"min=0,lt=1440"`
	PeriodDuration        int   `json:"periodDuration" validate:"required,min=10,max=240"`
	PassingPeriodDuration int   `json:"passingPeriodDuration" validate:"min=0,max=60"`
	SchoolEnd             int   `json:"schoolEnd" validate:"required,gt=0,lte=1440"`
	LunchEnabled          bool  `json:"lunchEnabled"`
	LunchStart            int   `json:"lunchStart" validate:"omitempty,min=0,lt=1440"`
	LunchDuration         int   `json:"lunchDuration" validate:"omitempty,min=10,max=120"`
	SchoolDays            []int `json:"schoolDays" validate:"omitempty,dive,min=0,max=6"`
}

// GenerateRequest triggers one timetable generation run.
type GenerateRequest struct {
	Name              string           `json:"name" validate:"required,min=1,max=120"`
	Type              string           `json:"type" validate:"omitempty,oneof=TRADITIONAL BLOCK ROTATING"`
	Algorithm         string           `json:"algorithm" validate:"omitempty"`
	TimeBudgetSeconds int              `json:"timeBudgetSeconds" validate:"omitempty,min=1,max=3600"`
	Seed              int64            `json:"seed"`
	Simulation        bool             `json:"simulation"`
	InitiatedBy       string           `json:"initiatedBy" validate:"omitempty,max=120"`
	SchoolDay         SchoolDayRequest `json:"schoolDay" validate:"required"`
	LunchWaves        int              `json:"lunchWaves" validate:"omitempty,min=1,max=8"`
	LunchWaveCapacity int              `json:"lunchWaveCapacity" validate:"omitempty,min=1"`
	Async             bool             `json:"async"`
}

// SchoolDayConfig converts the request into the engine's configuration.
func (r SchoolDayRequest) SchoolDayConfig() models.SchoolDayConfig {
	cfg := models.SchoolDayConfig{
		FirstPeriodStart:      r.FirstPeriodStart,
		PeriodDuration:        r.PeriodDuration,
		PassingPeriodDuration: r.PassingPeriodDuration,
		SchoolEnd:             r.SchoolEnd,
		LunchEnabled:          r.LunchEnabled,
		LunchStart:            r.LunchStart,
		LunchDuration:         r.LunchDuration,
	}
	for _, d := range r.SchoolDays {
		cfg.SchoolDays = append(cfg.SchoolDays, time.Weekday(d))
	}
	return cfg
}

// GenerateResponse acknowledges a run. Async runs return immediately with
// the run id; synchronous runs carry the full report.
type GenerateResponse struct {
	RunID      string            `json:"runId"`
	Status     models.RunStatus  `json:"status"`
	ScheduleID string            `json:"scheduleId,omitempty"`
	Report     *GenerationReport `json:"report,omitempty"`
}

// GenerationReport is the API shape of a finished run's outcome.
type GenerationReport struct {
	RunID          string                       `json:"runId"`
	ScheduleID     string                       `json:"scheduleId,omitempty"`
	Algorithm      string                       `json:"algorithm"`
	Simulation     bool                         `json:"simulation"`
	DurationMs     int64                        `json:"durationMs"`
	QualityScore   float64                      `json:"qualityScore"`
	HardViolations int                          `json:"hardViolations"`
	SoftPenalty    float64                      `json:"softPenalty"`
	Feasible       bool                         `json:"feasible"`
	SuccessRate    float64                      `json:"successRate"`
	FairnessScore  float64                      `json:"fairnessScore"`
	BalanceScore   float64                      `json:"balanceScore"`
	CoursesStaffed int                          `json:"coursesStaffed"`
	CoursesFailed  int                          `json:"coursesFailed"`
	Conflicts      []models.ConflictRanking     `json:"conflicts,omitempty"`
	Suggestions    []models.ResolutionSuggestion `json:"suggestions,omitempty"`
	LunchWaves     []models.LunchWave           `json:"lunchWaves,omitempty"`
	Issues         []string                     `json:"issues,omitempty"`
	Warnings       []string                     `json:"warnings,omitempty"`
}

// RunStatusResponse is the polling shape for an in-flight run.
type RunStatusResponse struct {
	RunID      string           `json:"runId"`
	Status     models.RunStatus `json:"status"`
	Progress   int              `json:"progress"`
	Message    string           `json:"message,omitempty"`
	ScheduleID string           `json:"scheduleId,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// HistoryItem is one row of the run history listing.
type HistoryItem struct {
	RunID          string     `json:"runId"`
	ScheduleID     string     `json:"scheduleId,omitempty"`
	Status         string     `json:"status"`
	Algorithm      string     `json:"algorithm"`
	Score          float64    `json:"score"`
	HardViolations int        `json:"hardViolations"`
	Simulation     bool       `json:"simulation"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}
