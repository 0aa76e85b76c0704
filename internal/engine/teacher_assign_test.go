package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

func TestAssignAllStaffsEveryCourse(t *testing.T) {
	snap := testSnapshot(t)
	var result models.AssignmentResult

	processed := NewTeacherAssigner(nil).AssignAll(snap, &result)
	assert.Equal(t, 4, processed)

	for _, id := range snap.CourseIDs {
		course := snap.Courses[id]
		require.NotNil(t, course.TeacherID, "course %s left unstaffed", id)
		assert.True(t, snap.Certified(*course.TeacherID, course.Subject),
			"course %s staffed with uncertified teacher", id)
	}
	assert.Empty(t, result.Issues)
}

func TestAssignAllIsIdempotent(t *testing.T) {
	snap := testSnapshot(t)
	assigner := NewTeacherAssigner(nil)

	var first models.AssignmentResult
	assigner.AssignAll(snap, &first)
	staffed := make(map[string]string)
	for id, c := range snap.Courses {
		staffed[id] = *c.TeacherID
	}
	loads := make(map[string]int)
	for _, id := range snap.TeacherIDs {
		loads[id] = snap.Workload.Count(id)
	}

	var second models.AssignmentResult
	processed := assigner.AssignAll(snap, &second)
	assert.Zero(t, processed, "second pass must process no courses")
	assert.Equal(t, 4, second.CoursesSkipped)
	for id, c := range snap.Courses {
		assert.Equal(t, staffed[id], *c.TeacherID)
	}
	for _, id := range snap.TeacherIDs {
		assert.Equal(t, loads[id], snap.Workload.Count(id), "workload for %s changed on re-run", id)
	}
}

func TestAssignAllRespectsHardCeiling(t *testing.T) {
	in := testCatalog()
	// One math teacher, four math courses: the fourth must fail rather
	// than push the teacher past three courses.
	in.Certifications = []models.SubjectCertification{
		{ID: "c1", TeacherID: "t-alvarez", Subject: "Math"},
	}
	in.Courses = []models.Course{
		{ID: "m1", Name: "Math 1", Subject: "Math", Priority: 4, MeetingsPerWeek: 1, Active: true},
		{ID: "m2", Name: "Math 2", Subject: "Math", Priority: 3, MeetingsPerWeek: 1, Active: true},
		{ID: "m3", Name: "Math 3", Subject: "Math", Priority: 2, MeetingsPerWeek: 1, Active: true},
		{ID: "m4", Name: "Math 4", Subject: "Math", Priority: 1, MeetingsPerWeek: 1, Active: true},
	}
	in.Enrollments = []models.Enrollment{{StudentID: "s1", CourseID: "m1"}}
	snap, err := NewSnapshot(in)
	require.NoError(t, err)

	var result models.AssignmentResult
	NewTeacherAssigner(nil).AssignAll(snap, &result)

	assert.Equal(t, 3, snap.Workload.Count("t-alvarez"))
	assert.Nil(t, snap.Courses["m4"].TeacherID, "lowest priority course must absorb the shortage")
	require.NotEmpty(t, result.Issues)
	assert.Contains(t, result.Issues[0], "hire a certified teacher for subject Math")
	assert.NotEmpty(t, result.Warnings, "third course per teacher must warn about optimal load")
}

func TestAssignAllPrefersSequenceContinuity(t *testing.T) {
	in := testCatalog()
	in.Courses = []models.Course{
		{ID: "alg1", Name: "Algebra I", Subject: "Math", SequenceName: strPtr("Algebra"), Priority: 5, MeetingsPerWeek: 1, Active: true, TeacherID: strPtr("t-chen")},
		{ID: "alg2", Name: "Algebra II", Subject: "Math", SequenceName: strPtr("Algebra"), Priority: 4, MeetingsPerWeek: 1, Active: true},
	}
	in.Enrollments = []models.Enrollment{{StudentID: "s1", CourseID: "alg1"}}
	snap, err := NewSnapshot(in)
	require.NoError(t, err)

	var result models.AssignmentResult
	NewTeacherAssigner(nil).AssignAll(snap, &result)

	// t-chen already teaches Algebra I, so Algebra II follows despite
	// t-alvarez carrying a lighter load.
	require.NotNil(t, snap.Courses["alg2"].TeacherID)
	assert.Equal(t, "t-chen", *snap.Courses["alg2"].TeacherID)
}

func TestAssignAllBalancesLoad(t *testing.T) {
	in := testCatalog()
	in.Courses = []models.Course{
		{ID: "m1", Name: "Math 1", Subject: "Math", Priority: 2, MeetingsPerWeek: 1, Active: true},
		{ID: "m2", Name: "Math 2", Subject: "Math", Priority: 1, MeetingsPerWeek: 1, Active: true},
	}
	in.Enrollments = []models.Enrollment{{StudentID: "s1", CourseID: "m1"}}
	snap, err := NewSnapshot(in)
	require.NoError(t, err)

	var result models.AssignmentResult
	NewTeacherAssigner(nil).AssignAll(snap, &result)

	// Two courses, two certified math teachers: one each.
	assert.Equal(t, 1, snap.Workload.Count("t-alvarez"))
	assert.Equal(t, 1, snap.Workload.Count("t-chen"))
}

func TestAssignAllRecordsOutcomes(t *testing.T) {
	snap := testSnapshot(t)
	var result models.AssignmentResult
	NewTeacherAssigner(nil).AssignAll(snap, &result)

	require.Len(t, result.CourseOutcomes, 4)
	for id, outcome := range result.CourseOutcomes {
		assert.True(t, outcome.Assigned, "outcome for %s", id)
		assert.True(t, strings.HasPrefix(outcome.TeacherID, "t-"))
	}
}
