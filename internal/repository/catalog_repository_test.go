package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepositoryTeachers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "department", "active", "room_preferences", "created_at", "updated_at"}).
		AddRow("t-1", "R. Alvarez", nil, nil, true, []byte(`{"preferred_room_ids":["r-101"]}`), time.Now(), time.Now())
	mock.ExpectQuery("FROM teachers WHERE active = true").WillReturnRows(rows)

	teachers, err := repo.Teachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "R. Alvarez", teachers[0].FullName)
	assert.True(t, teachers[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryCertificationsFiltersExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject", "expires_at"}).
		AddRow("c-1", "t-1", "Math", nil)
	mock.ExpectQuery(`expires_at IS NULL OR expires_at > NOW\(\)`).WillReturnRows(rows)

	certs, err := repo.Certifications(context.Background())
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Math", certs[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryRooms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "number", "building", "floor", "zone", "capacity", "equipment", "active"}).
		AddRow("r-1", "101", "Main", 1, "East", 30, "{projector,lab-bench}", true)
	mock.ExpectQuery("FROM rooms ORDER BY id").WillReturnRows(rows)

	rooms, err := repo.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "101", rooms[0].Number)
	assert.Equal(t, []string{"projector", "lab-bench"}, []string(rooms[0].Equipment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	seq := "Algebra"
	rows := sqlmock.NewRows([]string{"id", "name", "subject", "sequence_name", "priority", "difficulty", "grade_level",
		"meetings_per_week", "teacher_id", "required_equipment", "uses_multiple_rooms", "max_room_distance_minutes", "active"}).
		AddRow("alg1", "Algebra I", "Math", &seq, 5, 3, nil, 3, nil, "{}", false, 0, true)
	mock.ExpectQuery("FROM courses ORDER BY id").WillReturnRows(rows)

	courses, err := repo.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Algebra I", courses[0].Name)
	require.NotNil(t, courses[0].SequenceName)
	assert.Equal(t, "Algebra", *courses[0].SequenceName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "course_id", "choice_rank"}).
		AddRow("s-1", "alg1", 1).
		AddRow("s-2", "alg1", 2)
	mock.ExpectQuery(`COALESCE\(choice_rank, 1\).+FROM enrollments`).WillReturnRows(rows)

	enrollments, err := repo.Enrollments(context.Background())
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.Equal(t, "s-1", enrollments[0].StudentID)
	assert.Equal(t, 1, enrollments[0].ChoiceRank)
	assert.Equal(t, 2, enrollments[1].ChoiceRank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryPeriodPreferences(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "period"}).
		AddRow("t-1", 1).
		AddRow("t-1", 2)
	mock.ExpectQuery("FROM teacher_period_preferences").WillReturnRows(rows)

	prefs, err := repo.PeriodPreferences(context.Background())
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, "t-1", prefs[0].TeacherID)
	assert.Equal(t, []int{1, 2}, []int{prefs[0].Period, prefs[1].Period})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepositoryRoomAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "room_id", "assignment_type", "usage_pattern", "priority", "active"}).
		AddRow("ra-1", "bio", "r-lab", "PRIMARY", "ALWAYS", 10, true)
	mock.ExpectQuery("FROM course_room_assignments").WillReturnRows(rows)

	assignments, err := repo.RoomAssignments(context.Background())
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "bio", assignments[0].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
