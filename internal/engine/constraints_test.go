package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

func slotAt(day time.Weekday, period int) models.TimeSlot {
	start := 8*60 + (period-1)*55
	return models.TimeSlot{Day: day, StartMinute: start, EndMinute: start + 50, Period: period}
}

// feasibleTestSchedule places every course meeting without any overlap:
// distinct periods per teacher, room, and student.
func feasibleTestSchedule(snap *Snapshot) *models.Schedule {
	s := &models.Schedule{ID: "sched-1", Name: "test", Type: models.ScheduleTypeTraditional, Status: models.ScheduleStatusDraft}
	add := func(day time.Weekday, period int, courseID, teacherID, roomID string, students ...string) {
		s.Slots = append(s.Slots, models.ScheduleSlot{
			Slot: slotAt(day, period), CourseID: courseID, TeacherID: teacherID, RoomID: roomID, StudentIDs: students,
		})
	}
	// alg1 x3, alg2 x3, bio x2, lit x2 per MeetingsPerWeek.
	add(time.Monday, 1, "alg1", "t-alvarez", "r-101", "s1", "s2")
	add(time.Tuesday, 1, "alg1", "t-alvarez", "r-101", "s1", "s2")
	add(time.Wednesday, 1, "alg1", "t-alvarez", "r-101", "s1", "s2")
	add(time.Monday, 2, "alg2", "t-chen", "r-105", "s3", "s4")
	add(time.Tuesday, 2, "alg2", "t-chen", "r-105", "s3", "s4")
	add(time.Wednesday, 2, "alg2", "t-chen", "r-105", "s3", "s4")
	add(time.Thursday, 1, "bio", "t-chen", "r-annex", "s5", "s6")
	add(time.Friday, 1, "bio", "t-chen", "r-annex", "s5", "s6")
	add(time.Thursday, 2, "lit", "t-okafor", "r-210", "s1", "s3")
	add(time.Friday, 2, "lit", "t-okafor", "r-210", "s1", "s3")
	return s
}

func TestScoreFeasibleSchedule(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)

	breakdown := engine.Score(feasibleTestSchedule(snap))
	assert.Zero(t, breakdown.HardViolations, "conflicts: %+v", breakdown.Conflicts)
	assert.True(t, breakdown.Feasible())
}

func TestScoreDetectsTeacherOverlap(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	// Put Chen's biology on top of his Monday algebra period.
	s.Slots[6].Slot = slotAt(time.Monday, 2)

	breakdown := engine.Score(s)
	assert.False(t, breakdown.Feasible())
	assert.True(t, hasConflict(breakdown, "no-teacher-overlap"))
}

func TestScoreDetectsRoomOverlap(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	s.Slots[3].RoomID = "r-101"
	s.Slots[3].Slot = slotAt(time.Monday, 1)

	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "no-room-overlap"))
}

func TestScoreDetectsStudentOverlap(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	// s1 attends alg1 and lit; collide their Monday/Thursday periods.
	s.Slots[8].Slot = slotAt(time.Monday, 1)

	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "no-student-overlap"))
}

func TestScoreDetectsCapacityAndQualification(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	s.Slots[0].TeacherID = "t-okafor" // English teacher on a math course
	many := make([]string, 41)
	for i := range many {
		many[i] = "x"
	}
	s.Slots[6].StudentIDs = many // 41 students in the 40-seat annex

	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "teacher-qualification"))
	assert.True(t, hasConflict(breakdown, "room-capacity"))
}

func TestScoreDetectsMissingEquipment(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	s.Slots[6].RoomID = "r-210" // biology needs a lab bench; 210 has none
	s.Slots[7].RoomID = "r-210"

	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "equipment-availability"))
}

func TestScoreDetectsUnscheduledMeetings(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	s.Slots = s.Slots[:9] // drop one of lit's two meetings

	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "all-courses-scheduled"))
}

func TestScoreDetectsRoomRestriction(t *testing.T) {
	in := testCatalog()
	in.Teachers[0].RoomPrefsJSON = []byte(`{"preferred_room_ids":["r-105"],"restricted":true,"strength":"HIGH"}`)
	snap, err := NewSnapshot(in)
	require.NoError(t, err)
	engine := NewScoreEngine(snap)

	s := feasibleTestSchedule(snap) // alvarez teaches alg1 in r-101
	breakdown := engine.Score(s)
	assert.True(t, hasConflict(breakdown, "room-restriction"))

	for i := range s.Slots {
		if s.Slots[i].TeacherID == "t-alvarez" {
			s.Slots[i].RoomID = "r-105"
		}
	}
	breakdown = engine.Score(s)
	assert.False(t, hasConflict(breakdown, "room-restriction"))
}

func TestScoreSoftRoomPreference(t *testing.T) {
	in := testCatalog()
	in.Teachers[0].RoomPrefsJSON = []byte(`{"preferred_room_ids":["r-105"],"restricted":false,"strength":"HIGH"}`)
	snap, err := NewSnapshot(in)
	require.NoError(t, err)
	engine := NewScoreEngine(snap)

	s := feasibleTestSchedule(snap)
	breakdown := engine.Score(s)
	assert.True(t, breakdown.Feasible(), "a non-restricted preference is never a hard violation")
	assert.True(t, hasConflict(breakdown, "honor-room-preferences"))
	assert.Greater(t, breakdown.SoftPenalty, float64(0))
}

func TestBreakdownComparisonFeasibilityDominates(t *testing.T) {
	feasibleBad := ScoreBreakdown{HardViolations: 0, SoftPenalty: 100000}
	infeasibleClean := ScoreBreakdown{HardViolations: 1, SoftPenalty: 0}

	assert.True(t, feasibleBad.BetterThan(infeasibleClean))
	assert.False(t, infeasibleClean.BetterThan(feasibleBad))

	lessSoft := ScoreBreakdown{SoftPenalty: 10}
	moreSoft := ScoreBreakdown{SoftPenalty: 20}
	assert.True(t, lessSoft.BetterThan(moreSoft))
}

func TestQualityScoreBounds(t *testing.T) {
	assert.Equal(t, float64(100), ScoreBreakdown{}.Quality())
	assert.Equal(t, float64(0), ScoreBreakdown{HardViolations: 50}.Quality())
	assert.InDelta(t, 89.5, ScoreBreakdown{HardViolations: 1, SoftPenalty: 50}.Quality(), 0.001)
}

func TestApplyConflictFlags(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	s.Slots[6].Slot = slotAt(time.Monday, 2) // teacher overlap with slot 3

	breakdown := engine.Score(s)
	engine.ApplyConflictFlags(s, breakdown.Conflicts)

	flagged := 0
	for _, slot := range s.Slots {
		if slot.Conflict {
			flagged++
			assert.NotEmpty(t, slot.ConflictReason)
		}
	}
	assert.GreaterOrEqual(t, flagged, 2, "both sides of the overlap flagged")
}

func TestApplyConflictFlagsSparesParallelClasses(t *testing.T) {
	snap := testSnapshot(t)
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	// Three classes share Monday P1: alg1 and alg2 double-book Alvarez,
	// while bio runs in parallel with its own teacher, room, and students.
	s.Slots[3].Slot = slotAt(time.Monday, 1)
	s.Slots[3].TeacherID = "t-alvarez"
	s.Slots[6].Slot = slotAt(time.Monday, 1)

	breakdown := engine.Score(s)
	require.True(t, hasConflict(breakdown, "no-teacher-overlap"))
	engine.ApplyConflictFlags(s, breakdown.Conflicts)

	assert.True(t, s.Slots[0].Conflict, "alg1 side of the double-booking")
	assert.True(t, s.Slots[3].Conflict, "alg2 side of the double-booking")
	assert.False(t, s.Slots[6].Conflict, "a parallel class with its own teacher and room is innocent")
	assert.Empty(t, s.Slots[6].ConflictReason)
}

func TestScoreIsSafeForConcurrentEvaluation(t *testing.T) {
	snap := testSnapshot(t)
	// Preferences exercise the shared read-only lookup path that parallel
	// population scoring hits from every worker.
	snap.RoomPrefs["t-alvarez"] = &models.RoomPreference{
		PreferredRoomIDs: []string{"r-210"},
		Strength:         models.PreferenceHigh,
	}
	engine := NewScoreEngine(snap)
	s := feasibleTestSchedule(snap)
	want := engine.Score(s)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				got := engine.Score(s.Clone())
				assert.Equal(t, want.HardViolations, got.HardViolations)
				assert.InDelta(t, want.SoftPenalty, got.SoftPenalty, 0.001)
			}
		}()
	}
	wg.Wait()
}

func hasConflict(b ScoreBreakdown, constraint string) bool {
	for _, c := range b.Conflicts {
		if c.Constraint == constraint {
			return true
		}
	}
	return false
}
