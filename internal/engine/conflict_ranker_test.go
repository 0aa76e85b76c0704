package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

// rankingSchedule holds four course slots with known rosters so blast
// radius expectations are exact. Two classes run in parallel on Monday P1.
func rankingSchedule() *models.Schedule {
	s := &models.Schedule{ID: "sched-rank", Name: "rank", Type: models.ScheduleTypeTraditional}
	add := func(day time.Weekday, period int, courseID, teacherID, roomID string, students ...string) {
		s.Slots = append(s.Slots, models.ScheduleSlot{
			Slot: slotAt(day, period), CourseID: courseID, TeacherID: teacherID, RoomID: roomID, StudentIDs: students,
		})
	}
	add(time.Monday, 1, "alg1", "t-alvarez", "r-101", "s1", "s2", "s3")
	add(time.Monday, 1, "lit", "t-okafor", "r-210", "s4", "s5")
	add(time.Monday, 2, "bio", "t-alvarez", "r-annex", "s1", "s2")
	add(time.Tuesday, 1, "alg2", "t-chen", "r-105", "s6")
	return s
}

func TestRankOrdersBySeverityThenBlastRadius(t *testing.T) {
	ranker := NewConflictRanker(testProblem(t))
	s := rankingSchedule()
	keyOf := func(i int) string { return s.Slots[i].Key() }

	breakdown := ScoreBreakdown{Conflicts: []models.Conflict{
		{Constraint: "honor-room-preferences", Hard: false, Penalty: 3, SlotKeys: []string{keyOf(1)}},
		{Constraint: "room-capacity", Hard: true, Penalty: 1000, SlotKeys: []string{keyOf(3)}},
		{Constraint: "no-teacher-overlap", Hard: true, Penalty: 1000, SlotKeys: []string{keyOf(0), keyOf(2)}},
		{Constraint: "no-room-overlap", Hard: true, Penalty: 1000, SlotKeys: []string{keyOf(0), keyOf(1)}},
		{Constraint: "minimize-student-gaps", Hard: false, Penalty: 100, SlotKeys: []string{keyOf(2)}},
	}}

	rankings := ranker.Rank(s, breakdown)
	require.Len(t, rankings, 5)

	assert.Equal(t, "no-room-overlap", rankings[0].Type, "critical with widest blast radius first")
	assert.Equal(t, "no-teacher-overlap", rankings[1].Type)
	assert.Equal(t, "room-capacity", rankings[2].Type, "non-overlap hard violations rank high, not critical")
	assert.Equal(t, models.SeverityCritical, rankings[0].Severity)
	assert.Equal(t, models.SeverityHigh, rankings[2].Severity)
	assert.Equal(t, models.SeverityMedium, rankings[3].Severity)
	assert.Equal(t, models.SeverityLow, rankings[4].Severity)
}

func TestRankCountsAffectedPeople(t *testing.T) {
	ranker := NewConflictRanker(testProblem(t))
	s := rankingSchedule()

	// alg1 and lit collide: five students plus two teachers.
	breakdown := ScoreBreakdown{Conflicts: []models.Conflict{
		{Constraint: "no-room-overlap", Hard: true, Penalty: 1000,
			SlotKeys: []string{s.Slots[0].Key(), s.Slots[1].Key()}},
		// alg1 and bio share t-alvarez and students s1, s2: people are
		// counted once no matter how many slots they sit in.
		{Constraint: "no-teacher-overlap", Hard: true, Penalty: 1000,
			SlotKeys: []string{s.Slots[0].Key(), s.Slots[2].Key()}},
	}}

	rankings := ranker.Rank(s, breakdown)
	require.Len(t, rankings, 2)
	assert.Equal(t, 7, rankings[0].AffectedCount, "s1-s5 plus both teachers")
	assert.Equal(t, 4, rankings[1].AffectedCount, "s1-s3 plus t-alvarez, deduplicated")
}

func TestRankCountsUnscheduledCourseEnrollment(t *testing.T) {
	p := testProblem(t)
	ranker := NewConflictRanker(p)
	s := rankingSchedule()

	breakdown := ScoreBreakdown{Conflicts: []models.Conflict{
		{Constraint: "all-courses-scheduled", Hard: true, Penalty: 1000, CourseID: "alg1"},
	}}

	rankings := ranker.Rank(s, breakdown)
	require.Len(t, rankings, 1)
	// The staffed problem has a teacher on alg1, so the population is the
	// whole enrollment plus that teacher.
	assert.Equal(t, len(p.Snap.StudentsByCourse["alg1"])+1, rankings[0].AffectedCount)
	assert.Positive(t, rankings[0].AffectedCount)
}

func TestSlotIndexByKeyDistinguishesParallelClasses(t *testing.T) {
	s := rankingSchedule()

	// alg1 and lit share Monday P1; each key must resolve to its own slot.
	assert.Equal(t, 0, slotIndexByKey(s, s.Slots[0].Key()))
	assert.Equal(t, 1, slotIndexByKey(s, s.Slots[1].Key()))
	assert.Equal(t, -1, slotIndexByKey(s, s.Slots[0].Slot.Key()),
		"a bare time key matches no course slot")
}

func conflictedSchedule(t *testing.T, p *Problem) (*models.Schedule, ScoreBreakdown) {
	t.Helper()
	s := p.BuildInitialSchedule("fall", models.ScheduleTypeTraditional)
	// Force a teacher double-booking on the first two course slots.
	var indices []int
	for i, slot := range s.Slots {
		if slot.CourseID != "" {
			indices = append(indices, i)
		}
	}
	require.GreaterOrEqual(t, len(indices), 2)
	first, second := indices[0], indices[1]
	s.Slots[second].TeacherID = s.Slots[first].TeacherID
	s.Slots[second].Slot = s.Slots[first].Slot

	breakdown := p.Scorer.Score(s)
	require.False(t, breakdown.Feasible())
	return s, breakdown
}

func TestSuggestResolutionsEvaluatesRealMoves(t *testing.T) {
	p := testProblem(t)
	ranker := NewConflictRanker(p)
	s, breakdown := conflictedSchedule(t, p)

	suggestions := ranker.SuggestResolutions(s, breakdown, 3)
	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), 3)

	for _, suggestion := range suggestions {
		assert.NotEmpty(t, suggestion.Description)
		assert.NotEmpty(t, suggestion.SlotKey)
		switch suggestion.Kind {
		case models.ResolutionSwapTeacher, models.ResolutionSwapRoom, models.ResolutionMoveSlot:
		default:
			t.Fatalf("unexpected suggestion kind %q", suggestion.Kind)
		}
	}
}

func TestSuggestResolutionsConfidenceIsBoundedAndOrdered(t *testing.T) {
	p := testProblem(t)
	ranker := NewConflictRanker(p)
	s, breakdown := conflictedSchedule(t, p)

	suggestions := ranker.SuggestResolutions(s, breakdown, 5)
	require.NotEmpty(t, suggestions)

	for i, suggestion := range suggestions {
		assert.GreaterOrEqual(t, suggestion.Confidence, 0.5, "band floor")
		assert.LessOrEqual(t, suggestion.Confidence, 0.9, "band ceiling")
		if i > 0 {
			assert.LessOrEqual(t, suggestion.Confidence, suggestions[i-1].Confidence,
				"suggestions ordered by confidence")
		}
	}
	assert.Greater(t, suggestions[0].Confidence, 0.6,
		"a forced double-booking must yield an improving fix above its band floor")
}

func TestConfidenceForBands(t *testing.T) {
	assert.InDelta(t, 0.6, confidenceFor(models.ResolutionSwapTeacher, 0), 0.001)
	assert.InDelta(t, 0.9, confidenceFor(models.ResolutionSwapTeacher, 2*HardConstraintWeight), 0.001,
		"large gains saturate at the ceiling")
	assert.InDelta(t, 0.5, confidenceFor(models.ResolutionMoveSlot, -50), 0.001,
		"worsening trials sit on the floor")
	mid := confidenceFor(models.ResolutionSwapRoom, HardConstraintWeight/2)
	assert.Greater(t, mid, 0.55)
	assert.Less(t, mid, 0.85)
}

func TestApplyResolutionRescores(t *testing.T) {
	p := testProblem(t)
	ranker := NewConflictRanker(p)
	s, breakdown := conflictedSchedule(t, p)

	suggestions := ranker.SuggestResolutions(s, breakdown, 5)
	require.NotEmpty(t, suggestions)
	best := suggestions[0]

	before := energy(breakdown)
	after, ok := ranker.ApplyResolution(s, best)
	require.True(t, ok)
	assert.Less(t, energy(after), before,
		"the highest-confidence suggestion must improve the schedule it was evaluated on")
}

func TestApplyResolutionRejectsUnknownTargets(t *testing.T) {
	p := testProblem(t)
	ranker := NewConflictRanker(p)
	s := p.BuildInitialSchedule("fall", models.ScheduleTypeTraditional)

	_, ok := ranker.ApplyResolution(s, models.ResolutionSuggestion{
		Kind:    models.ResolutionMoveSlot,
		SlotKey: "no-such-slot",
	})
	assert.False(t, ok)

	idx := -1
	for i, slot := range s.Slots {
		if slot.CourseID != "" {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	_, ok = ranker.ApplyResolution(s, models.ResolutionSuggestion{
		Kind:     models.ResolutionMoveSlot,
		SlotKey:  s.Slots[idx].Key(),
		TargetID: "99:99",
	})
	assert.False(t, ok)
}

func TestConflictSeverityTiers(t *testing.T) {
	assert.Less(t, models.SeverityCritical.Tier(), models.SeverityHigh.Tier())
	assert.Less(t, models.SeverityHigh.Tier(), models.SeverityMedium.Tier())
	assert.Less(t, models.SeverityMedium.Tier(), models.SeverityLow.Tier())
}

func TestRankedConflictsSurviveFlagging(t *testing.T) {
	p := testProblem(t)
	s, breakdown := conflictedSchedule(t, p)

	p.Scorer.ApplyConflictFlags(s, breakdown.Conflicts)
	var flaggedKeys []string
	for _, slot := range s.Slots {
		if slot.Conflict {
			flaggedKeys = append(flaggedKeys, slot.Key())
		}
	}
	require.NotEmpty(t, flaggedKeys)

	rankings := NewConflictRanker(p).Rank(s, breakdown)
	require.NotEmpty(t, rankings)
	assert.Equal(t, models.SeverityCritical, rankings[0].Severity)
}
