package models

import "time"

// RoomAssignmentType distinguishes the role of a room within a multi-room course.
type RoomAssignmentType string

const (
	RoomAssignmentPrimary   RoomAssignmentType = "PRIMARY"
	RoomAssignmentSecondary RoomAssignmentType = "SECONDARY"
	RoomAssignmentOverflow  RoomAssignmentType = "OVERFLOW"
	RoomAssignmentBreakout  RoomAssignmentType = "BREAKOUT"
	RoomAssignmentRotating  RoomAssignmentType = "ROTATING"
)

// UsagePattern describes when a room assignment applies.
type UsagePattern string

const (
	UsageAlways          UsagePattern = "ALWAYS"
	UsageAlternatingDays UsagePattern = "ALTERNATING_DAYS"
	UsageOddDays         UsagePattern = "ODD_DAYS"
	UsageEvenDays        UsagePattern = "EVEN_DAYS"
	UsageFirstHalf       UsagePattern = "FIRST_HALF"
	UsageSecondHalf      UsagePattern = "SECOND_HALF"
	UsageSpecificDays    UsagePattern = "SPECIFIC_DAYS"
	UsageWeeklyRotation  UsagePattern = "WEEKLY_ROTATION"
)

// DayBased reports whether the pattern filters by calendar day.
func (p UsagePattern) DayBased() bool {
	switch p {
	case UsageAlways, UsageAlternatingDays, UsageOddDays, UsageEvenDays, UsageSpecificDays, UsageWeeklyRotation:
		return true
	}
	return false
}

// TimeBased reports whether the pattern splits the period's time range.
func (p UsagePattern) TimeBased() bool {
	return p == UsageFirstHalf || p == UsageSecondHalf
}

// CourseRoomAssignment maps a course to one of its rooms.
type CourseRoomAssignment struct {
	ID           string             `db:"id" json:"id"`
	CourseID     string             `db:"course_id" json:"course_id"`
	RoomID       string             `db:"room_id" json:"room_id"`
	Type         RoomAssignmentType `db:"assignment_type" json:"assignment_type"`
	Pattern      UsagePattern       `db:"usage_pattern" json:"usage_pattern"`
	SpecificDays []time.Weekday     `db:"-" json:"specific_days,omitempty"`
	Priority     int                `db:"priority" json:"priority"`
	Active       bool               `db:"active" json:"active"`
}

// AppliesOn evaluates a day-based pattern for the given weekday and date.
// Time-based patterns always apply day-wise; the caller splits the period.
func (a CourseRoomAssignment) AppliesOn(day time.Weekday, date time.Time) bool {
	switch a.Pattern {
	case UsageAlways, UsageFirstHalf, UsageSecondHalf:
		return true
	case UsageOddDays:
		return date.Day()%2 == 1
	case UsageEvenDays:
		return date.Day()%2 == 0
	case UsageAlternatingDays:
		// Alternates on the ISO day-of-year parity so the cadence survives
		// month boundaries.
		return date.YearDay()%2 == 0
	case UsageSpecificDays:
		for _, d := range a.SpecificDays {
			if d == day {
				return true
			}
		}
		return false
	case UsageWeeklyRotation:
		_, week := date.ISOWeek()
		return week%2 == 1
	}
	return false
}
