package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/arborview/timetable-api/internal/models"
)

// CatalogRepository loads the resource catalog a generation run snapshots.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Teachers returns all active teachers with their stored room preferences.
func (r *CatalogRepository) Teachers(ctx context.Context) ([]models.Teacher, error) {
	query := `SELECT id, full_name, email, department, active, room_preferences, created_at, updated_at
		FROM teachers WHERE active = true ORDER BY id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, err
	}
	return teachers, nil
}

// Certifications returns unexpired subject certifications.
func (r *CatalogRepository) Certifications(ctx context.Context) ([]models.SubjectCertification, error) {
	query := `SELECT id, teacher_id, subject, expires_at
		FROM subject_certifications
		WHERE expires_at IS NULL OR expires_at > NOW()
		ORDER BY teacher_id, subject`
	var certs []models.SubjectCertification
	if err := r.db.SelectContext(ctx, &certs, query); err != nil {
		return nil, err
	}
	return certs, nil
}

// Rooms returns every room; the snapshot filters inactive ones.
func (r *CatalogRepository) Rooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT id, number, building, floor, zone, capacity, equipment, active
		FROM rooms ORDER BY id`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Courses returns every course section.
func (r *CatalogRepository) Courses(ctx context.Context) ([]models.Course, error) {
	query := `SELECT id, name, subject, sequence_name, priority, difficulty, grade_level,
		meetings_per_week, teacher_id, required_equipment, uses_multiple_rooms,
		max_room_distance_minutes, active
		FROM courses ORDER BY id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, err
	}
	return courses, nil
}

// Students returns all active students.
func (r *CatalogRepository) Students(ctx context.Context) ([]models.Student, error) {
	query := `SELECT id, full_name, grade_level, active FROM students WHERE active = true ORDER BY id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, err
	}
	return students, nil
}

// Enrollments returns the student/course join rows with the registration
// choice each one satisfied.
func (r *CatalogRepository) Enrollments(ctx context.Context) ([]models.Enrollment, error) {
	query := `SELECT student_id, course_id, COALESCE(choice_rank, 1) AS choice_rank
		FROM enrollments ORDER BY student_id, course_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// PeriodPreferences returns the periods each teacher prefers to teach in.
func (r *CatalogRepository) PeriodPreferences(ctx context.Context) ([]models.PeriodPreference, error) {
	query := `SELECT teacher_id, period FROM teacher_period_preferences ORDER BY teacher_id, period`
	var prefs []models.PeriodPreference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, err
	}
	return prefs, nil
}

// RoomAssignments returns every course room assignment.
func (r *CatalogRepository) RoomAssignments(ctx context.Context) ([]models.CourseRoomAssignment, error) {
	query := `SELECT id, course_id, room_id, assignment_type, usage_pattern, priority, active
		FROM course_room_assignments ORDER BY course_id, priority DESC`
	var assignments []models.CourseRoomAssignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, err
	}
	return assignments, nil
}
