package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Teacher represents an instructor record from the catalog.
type Teacher struct {
	ID            string         `db:"id" json:"id"`
	FullName      string         `db:"full_name" json:"full_name"`
	Email         *string        `db:"email" json:"email,omitempty"`
	Department    *string        `db:"department" json:"department,omitempty"`
	Active        bool           `db:"active" json:"active"`
	RoomPrefsJSON types.JSONText `db:"room_preferences" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// SubjectCertification records that a teacher is certified to teach a subject.
type SubjectCertification struct {
	ID        string     `db:"id" json:"id"`
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	Subject   string     `db:"subject" json:"subject"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// Room represents a physical teaching space.
type Room struct {
	ID        string         `db:"id" json:"id"`
	Number    string         `db:"number" json:"number"`
	Building  string         `db:"building" json:"building"`
	Floor     int            `db:"floor" json:"floor"`
	Zone      string         `db:"zone" json:"zone"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Equipment pq.StringArray `db:"equipment" json:"equipment"`
	Active    bool           `db:"active" json:"active"`
}

// Course represents one schedulable course section.
type Course struct {
	ID                     string         `db:"id" json:"id"`
	Name                   string         `db:"name" json:"name"`
	Subject                string         `db:"subject" json:"subject"`
	SequenceName           *string        `db:"sequence_name" json:"sequence_name,omitempty"`
	Priority               int            `db:"priority" json:"priority"`
	Difficulty             int            `db:"difficulty" json:"difficulty"`
	GradeLevel             *string        `db:"grade_level" json:"grade_level,omitempty"`
	MeetingsPerWeek        int            `db:"meetings_per_week" json:"meetings_per_week"`
	TeacherID              *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	RequiredEquipment      pq.StringArray `db:"required_equipment" json:"required_equipment"`
	UsesMultipleRooms      bool           `db:"uses_multiple_rooms" json:"uses_multiple_rooms"`
	MaxRoomDistanceMinutes int            `db:"max_room_distance_minutes" json:"max_room_distance_minutes"`
	Active                 bool           `db:"active" json:"active"`
}

// Student represents an enrolled student and the course sections they take.
type Student struct {
	ID         string   `db:"id" json:"id"`
	FullName   string   `db:"full_name" json:"full_name"`
	GradeLevel string   `db:"grade_level" json:"grade_level"`
	Active     bool     `db:"active" json:"active"`
	CourseIDs  []string `db:"-" json:"course_ids"`
}

// Enrollment links a student to a course section. ChoiceRank records which
// preference the enrollment satisfied during registration (1 = first
// choice); rows predating choice tracking default to 1.
type Enrollment struct {
	StudentID  string `db:"student_id" json:"student_id"`
	CourseID   string `db:"course_id" json:"course_id"`
	ChoiceRank int    `db:"choice_rank" json:"choice_rank"`
}

// PeriodPreference is one period a teacher prefers to teach in.
type PeriodPreference struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Period    int    `db:"period" json:"period"`
}
