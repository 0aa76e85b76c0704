package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

// testCatalog builds a small but fully connected catalog: three teachers,
// four rooms in two buildings, four courses, and six students enrolled
// across them.
func testCatalog() CatalogInput {
	return CatalogInput{
		Teachers: []models.Teacher{
			{ID: "t-alvarez", FullName: "Maria Alvarez", Active: true},
			{ID: "t-chen", FullName: "Wei Chen", Active: true},
			{ID: "t-okafor", FullName: "Ngozi Okafor", Active: true},
		},
		Certifications: []models.SubjectCertification{
			{ID: "c1", TeacherID: "t-alvarez", Subject: "Math"},
			{ID: "c2", TeacherID: "t-chen", Subject: "Math"},
			{ID: "c3", TeacherID: "t-chen", Subject: "Science"},
			{ID: "c4", TeacherID: "t-okafor", Subject: "English"},
		},
		Rooms: []models.Room{
			{ID: "r-101", Number: "101", Building: "Main", Floor: 1, Zone: "East", Capacity: 30, Active: true},
			{ID: "r-105", Number: "105", Building: "Main", Floor: 1, Zone: "East", Capacity: 25, Active: true},
			{ID: "r-210", Number: "210", Building: "Main", Floor: 2, Zone: "West", Capacity: 30, Active: true},
			{ID: "r-annex", Number: "12", Building: "Annex", Floor: 1, Zone: "East", Capacity: 40, Active: true,
				Equipment: []string{"lab-bench"}},
		},
		Courses: []models.Course{
			{ID: "alg1", Name: "Algebra I", Subject: "Math", Priority: 5, Difficulty: 3, MeetingsPerWeek: 3, Active: true},
			{ID: "alg2", Name: "Algebra II", Subject: "Math", SequenceName: strPtr("Algebra"), Priority: 4, Difficulty: 4, MeetingsPerWeek: 3, Active: true},
			{ID: "bio", Name: "Biology", Subject: "Science", Priority: 3, Difficulty: 3, MeetingsPerWeek: 2, Active: true,
				RequiredEquipment: []string{"lab-bench"}},
			{ID: "lit", Name: "American Literature", Subject: "English", Priority: 2, Difficulty: 2, MeetingsPerWeek: 2, Active: true},
		},
		Students: []models.Student{
			{ID: "s1", GradeLevel: "9", Active: true},
			{ID: "s2", GradeLevel: "9", Active: true},
			{ID: "s3", GradeLevel: "10", Active: true},
			{ID: "s4", GradeLevel: "10", Active: true},
			{ID: "s5", GradeLevel: "11", Active: true},
			{ID: "s6", GradeLevel: "11", Active: true},
		},
		Enrollments: []models.Enrollment{
			{StudentID: "s1", CourseID: "alg1"},
			{StudentID: "s2", CourseID: "alg1"},
			{StudentID: "s3", CourseID: "alg2"},
			{StudentID: "s4", CourseID: "alg2"},
			{StudentID: "s5", CourseID: "bio"},
			{StudentID: "s6", CourseID: "bio"},
			{StudentID: "s1", CourseID: "lit"},
			{StudentID: "s3", CourseID: "lit"},
		},
	}
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(testCatalog())
	require.NoError(t, err)
	return snap
}

func testDayConfig() models.SchoolDayConfig {
	return models.SchoolDayConfig{
		FirstPeriodStart:      8 * 60,
		PeriodDuration:        50,
		PassingPeriodDuration: 5,
		SchoolEnd:             15 * 60,
		LunchEnabled:          true,
		LunchStart:            11*60 + 30,
		LunchDuration:         45,
		SchoolDays:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
}

// testProblem assembles a staffed problem with generated slots so scoring
// and optimization tests start from a realistic state.
func testProblem(t *testing.T) *Problem {
	t.Helper()
	snap := testSnapshot(t)
	var result models.AssignmentResult
	NewTeacherAssigner(nil).AssignAll(snap, &result)
	slots, err := GenerateTimeSlots(testDayConfig())
	require.NoError(t, err)
	return NewProblem(snap, slots)
}
