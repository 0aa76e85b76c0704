package engine

// Default workload ceilings for concurrent course assignments per teacher.
const (
	DefaultHardWorkloadCeiling    = 3
	DefaultOptimalWorkloadCeiling = 2
)

// WorkloadIndex tracks per-teacher assigned-course counts against the hard
// and optimal ceilings. It is rebuilt from the snapshot and updated as the
// assignment engine commits courses; a course is either assigned and the
// count incremented together, or neither.
type WorkloadIndex struct {
	HardCeiling    int
	OptimalCeiling int
	counts         map[string]int
}

// NewWorkloadIndex seeds counts from courses already carrying a teacher.
func NewWorkloadIndex(s *Snapshot) *WorkloadIndex {
	idx := &WorkloadIndex{
		HardCeiling:    DefaultHardWorkloadCeiling,
		OptimalCeiling: DefaultOptimalWorkloadCeiling,
		counts:         make(map[string]int),
	}
	for _, course := range s.Courses {
		if course.TeacherID != nil && *course.TeacherID != "" {
			idx.counts[*course.TeacherID]++
		}
	}
	return idx
}

// Count returns the number of courses currently assigned to the teacher.
func (w *WorkloadIndex) Count(teacherID string) int {
	return w.counts[teacherID]
}

// BelowHardCeiling reports whether the teacher can take another course.
func (w *WorkloadIndex) BelowHardCeiling(teacherID string) bool {
	return w.counts[teacherID] < w.HardCeiling
}

// AtOrAboveOptimal reports whether assigning another course would push the
// teacher past the target load.
func (w *WorkloadIndex) AtOrAboveOptimal(teacherID string) bool {
	return w.counts[teacherID] >= w.OptimalCeiling
}

// Increment records a committed assignment.
func (w *WorkloadIndex) Increment(teacherID string) {
	w.counts[teacherID]++
}

// Decrement releases an assignment, never dropping below zero.
func (w *WorkloadIndex) Decrement(teacherID string) {
	if w.counts[teacherID] > 0 {
		w.counts[teacherID]--
	}
}
