package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus represents lifecycle phases for generated schedules.
type ScheduleStatus string

const (
	ScheduleStatusDraft      ScheduleStatus = "DRAFT"
	ScheduleStatusInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleStatusReview     ScheduleStatus = "REVIEW"
	ScheduleStatusPublished  ScheduleStatus = "PUBLISHED"
	ScheduleStatusArchived   ScheduleStatus = "ARCHIVED"
)

// ScheduleType selects the bell-schedule family for a generation run.
type ScheduleType string

const (
	ScheduleTypeTraditional ScheduleType = "TRADITIONAL"
	ScheduleTypeBlock       ScheduleType = "BLOCK"
	ScheduleTypeRotating    ScheduleType = "ROTATING"
)

// ScheduleSlot binds a time slot to a course, teacher, room, and the
// students attending. Owned exclusively by one Schedule.
type ScheduleSlot struct {
	Slot           TimeSlot `json:"slot"`
	CourseID       string   `json:"course_id,omitempty"`
	TeacherID      string   `json:"teacher_id,omitempty"`
	RoomID         string   `json:"room_id,omitempty"`
	StudentIDs     []string `json:"student_ids,omitempty"`
	Conflict       bool     `json:"conflict"`
	ConflictReason string   `json:"conflict_reason,omitempty"`
}

// Key returns the identity of the slot binding. Parallel classes share a
// time slot, so the course id qualifies the time key; a free slot keeps the
// bare time key.
func (s ScheduleSlot) Key() string {
	if s.CourseID == "" {
		return s.Slot.Key()
	}
	return s.Slot.Key() + ":" + s.CourseID
}

// Clone deep-copies the slot so candidate schedules never share state.
func (s ScheduleSlot) Clone() ScheduleSlot {
	out := s
	if s.StudentIDs != nil {
		out.StudentIDs = make([]string, len(s.StudentIDs))
		copy(out.StudentIDs, s.StudentIDs)
	}
	return out
}

// Schedule is the aggregate root for a generated timetable.
type Schedule struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         ScheduleType   `json:"type"`
	Status       ScheduleStatus `json:"status"`
	Slots        []ScheduleSlot `json:"slots"`
	QualityScore float64        `json:"quality_score"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Clone deep-copies the schedule for independent candidate evaluation.
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Slots = make([]ScheduleSlot, len(s.Slots))
	for i, slot := range s.Slots {
		out.Slots[i] = slot.Clone()
	}
	return &out
}

// ScheduleRecord is the persisted form of a schedule header.
type ScheduleRecord struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Type      string         `db:"type" json:"type"`
	Status    ScheduleStatus `db:"status" json:"status"`
	Score     float64        `db:"score" json:"score"`
	Meta      types.JSONText `db:"meta" json:"meta"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleSlotRecord is the persisted form of one slot assignment.
type ScheduleSlotRecord struct {
	ID          string  `db:"id" json:"id"`
	ScheduleID  string  `db:"schedule_id" json:"schedule_id"`
	DayOfWeek   int     `db:"day_of_week" json:"day_of_week"`
	Period      int     `db:"period" json:"period"`
	StartMinute int     `db:"start_minute" json:"start_minute"`
	EndMinute   int     `db:"end_minute" json:"end_minute"`
	CourseID    *string `db:"course_id" json:"course_id,omitempty"`
	TeacherID   *string `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID      *string `db:"room_id" json:"room_id,omitempty"`
	Conflict    bool    `db:"conflict" json:"conflict"`
	Reason      *string `db:"conflict_reason" json:"conflict_reason,omitempty"`
}
