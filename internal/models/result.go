package models

import "time"

// CourseAssignmentOutcome captures the per-course result of teacher assignment.
type CourseAssignmentOutcome struct {
	CourseID  string `json:"course_id"`
	TeacherID string `json:"teacher_id,omitempty"`
	Assigned  bool   `json:"assigned"`
	Reason    string `json:"reason,omitempty"`
}

// AssignmentResult aggregates everything a generation run produced. It is
// mutated while the run executes and frozen by CalculateDerivedMetrics.
type AssignmentResult struct {
	RunID       string    `json:"run_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMs  int64     `json:"duration_ms"`
	InitiatedBy string    `json:"initiated_by,omitempty"`
	Simulation  bool      `json:"simulation"`

	TotalCoursesProcessed int `json:"total_courses_processed"`
	CoursesAssigned       int `json:"courses_assigned"`
	CoursesFailed         int `json:"courses_failed"`
	CoursesSkipped        int `json:"courses_skipped"`

	TotalStudentsProcessed        int     `json:"total_students_processed"`
	StudentsWithCompleteSchedules int     `json:"students_with_complete_schedules"`
	StudentsWithPartialSchedules  int     `json:"students_with_partial_schedules"`
	StudentsGotFirstChoice        int     `json:"students_got_first_choice"`
	StudentsGotSecondChoice       int     `json:"students_got_second_choice"`
	StudentsGotThirdChoice        int     `json:"students_got_third_choice"`
	AverageCoursesPerStudent      float64 `json:"average_courses_per_student"`

	HardViolations   int     `json:"hard_violations"`
	SoftPenaltyTotal float64 `json:"soft_penalty_total"`
	QualityScore     float64 `json:"quality_score"`

	SuccessRate                 float64 `json:"success_rate"`
	FirstChoiceSatisfactionRate float64 `json:"first_choice_satisfaction_rate"`
	FairnessScore               float64 `json:"fairness_score"`
	BalanceScore                float64 `json:"balance_score"`

	CourseOutcomes  map[string]CourseAssignmentOutcome `json:"course_outcomes,omitempty"`
	StudentCourses  map[string]int                     `json:"student_courses,omitempty"`
	RankedConflicts []ConflictRanking                  `json:"ranked_conflicts,omitempty"`
	Issues          []string                           `json:"issues,omitempty"`
	Warnings        []string                           `json:"warnings,omitempty"`

	derived bool
}

// AddIssue records a non-fatal failure for the report.
func (r *AssignmentResult) AddIssue(msg string) {
	if r.derived {
		return
	}
	r.Issues = append(r.Issues, msg)
}

// AddWarning records an advisory message for the report.
func (r *AssignmentResult) AddWarning(msg string) {
	if r.derived {
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

// RecordCourseOutcome stores the per-course detail and bumps the counters.
func (r *AssignmentResult) RecordCourseOutcome(out CourseAssignmentOutcome) {
	if r.derived {
		return
	}
	if r.CourseOutcomes == nil {
		r.CourseOutcomes = make(map[string]CourseAssignmentOutcome)
	}
	r.CourseOutcomes[out.CourseID] = out
	r.TotalCoursesProcessed++
	if out.Assigned {
		r.CoursesAssigned++
	} else {
		r.CoursesFailed++
	}
}

// CalculateDerivedMetrics computes the rates and scores and freezes the
// result; further mutation calls become no-ops.
func (r *AssignmentResult) CalculateDerivedMetrics() {
	if r.derived {
		return
	}
	r.EndTime = time.Now().UTC()
	if !r.StartTime.IsZero() {
		r.DurationMs = r.EndTime.Sub(r.StartTime).Milliseconds()
	}
	if r.TotalCoursesProcessed > 0 {
		r.SuccessRate = float64(r.CoursesAssigned) / float64(r.TotalCoursesProcessed) * 100
	}
	if r.TotalStudentsProcessed > 0 {
		r.FirstChoiceSatisfactionRate = float64(r.StudentsGotFirstChoice) / float64(r.TotalStudentsProcessed) * 100
		total := 0
		for _, n := range r.StudentCourses {
			total += n
		}
		r.AverageCoursesPerStudent = float64(total) / float64(r.TotalStudentsProcessed)
	}
	r.derived = true
}

// Derived reports whether the result has been frozen.
func (r *AssignmentResult) Derived() bool { return r.derived }
