package engine

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/arborview/timetable-api/internal/models"
)

// TeacherAssigner staffs unassigned courses with certified, under-capacity
// teachers, preferring sequence continuity and balanced load.
type TeacherAssigner struct {
	logger *zap.Logger
}

// NewTeacherAssigner builds the assigner.
func NewTeacherAssigner(logger *zap.Logger) *TeacherAssigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssigner{logger: logger}
}

// AssignAll walks every unassigned course in the snapshot and attempts to
// staff it, recording per-course outcomes on the result. Courses that
// already carry a teacher are skipped, so re-running over an unchanged
// snapshot processes zero courses.
func (a *TeacherAssigner) AssignAll(snap *Snapshot, result *models.AssignmentResult) int {
	unassigned := make([]*models.Course, 0, len(snap.CourseIDs))
	for _, id := range snap.CourseIDs {
		course := snap.Courses[id]
		if course.TeacherID == nil || *course.TeacherID == "" {
			unassigned = append(unassigned, course)
		} else {
			result.CoursesSkipped++
		}
	}
	if len(unassigned) == 0 {
		result.AddWarning("no courses requiring teacher assignment")
		return 0
	}

	// Highest priority first; ties grouped by subject so sequence courses
	// are staffed back to back.
	sort.SliceStable(unassigned, func(i, j int) bool {
		if unassigned[i].Priority != unassigned[j].Priority {
			return unassigned[i].Priority > unassigned[j].Priority
		}
		if unassigned[i].Subject != unassigned[j].Subject {
			return unassigned[i].Subject < unassigned[j].Subject
		}
		return unassigned[i].ID < unassigned[j].ID
	})

	shortageSubjects := make(map[string]struct{})
	processed := 0
	for _, course := range unassigned {
		processed++
		teacherID, overOptimal := a.pickTeacher(snap, course)
		if teacherID == "" {
			shortageSubjects[course.Subject] = struct{}{}
			reason := fmt.Sprintf("no certified teacher available for %s; hire a certified teacher for subject %s", course.Name, course.Subject)
			result.RecordCourseOutcome(models.CourseAssignmentOutcome{CourseID: course.ID, Assigned: false, Reason: reason})
			result.AddIssue(reason)
			continue
		}
		// Commit is atomic: the course gets the teacher and the workload
		// count moves in the same step.
		id := teacherID
		course.TeacherID = &id
		snap.Workload.Increment(teacherID)
		result.RecordCourseOutcome(models.CourseAssignmentOutcome{CourseID: course.ID, TeacherID: teacherID, Assigned: true})
		if overOptimal {
			result.AddWarning(fmt.Sprintf("teacher %s exceeds optimal load (%d) taking %s", teacherID, snap.Workload.OptimalCeiling, course.Name))
		}
		a.logger.Debug("course staffed",
			zap.String("course_id", course.ID),
			zap.String("teacher_id", teacherID),
			zap.Int("teacher_load", snap.Workload.Count(teacherID)))
	}

	for subject := range shortageSubjects {
		a.logger.Warn("certification shortage", zap.String("subject", subject))
	}
	return processed
}

// pickTeacher returns the best candidate for the course and whether the
// pick lands at or above the optimal ceiling. Empty when no certified
// teacher is below the hard ceiling.
func (a *TeacherAssigner) pickTeacher(snap *Snapshot, course *models.Course) (string, bool) {
	candidates := make([]string, 0)
	for _, teacherID := range snap.TeachersBySubject[course.Subject] {
		if snap.Workload.BelowHardCeiling(teacherID) {
			candidates = append(candidates, teacherID)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	// Sequence continuity: a teacher already carrying another course in the
	// same sequence wins outright.
	if course.SequenceName != nil && *course.SequenceName != "" {
		for _, candidate := range candidates {
			if a.teachesSequence(snap, candidate, *course.SequenceName, course.ID) {
				return candidate, snap.Workload.AtOrAboveOptimal(candidate)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := snap.Workload.Count(candidates[i]), snap.Workload.Count(candidates[j])
		if ci != cj {
			return ci < cj
		}
		// Ties break toward the teacher furthest below the optimal ceiling;
		// equal-count candidates share that distance, so fall back to id for
		// a stable order.
		return candidates[i] < candidates[j]
	})
	best := candidates[0]
	return best, snap.Workload.AtOrAboveOptimal(best)
}

func (a *TeacherAssigner) teachesSequence(snap *Snapshot, teacherID, sequence, excludeCourseID string) bool {
	for _, id := range snap.CourseIDs {
		if id == excludeCourseID {
			continue
		}
		c := snap.Courses[id]
		if c.TeacherID == nil || *c.TeacherID != teacherID {
			continue
		}
		if c.SequenceName != nil && *c.SequenceName == sequence {
			return true
		}
	}
	return false
}
