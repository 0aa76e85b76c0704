package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/arborview/timetable-api/internal/models"
)

// ConstraintCategory splits rules into hard (must hold) and soft (preferred).
type ConstraintCategory string

const (
	CategoryHard ConstraintCategory = "HARD"
	CategorySoft ConstraintCategory = "SOFT"
)

// Default contribution weights per violation.
const (
	HardConstraintWeight = 1000.0
	SoftConstraintWeight = 100.0
)

// Constraint is a named, categorized scheduling rule.
type Constraint struct {
	Name       string
	Category   ConstraintCategory
	Multiplier float64
	Eval       func(s *models.Schedule) []models.Conflict
}

// Weight returns the scaled penalty per violation of this constraint.
func (c Constraint) Weight() float64 {
	mult := c.Multiplier
	if mult <= 0 {
		mult = 1
	}
	if c.Category == CategoryHard {
		return HardConstraintWeight * mult
	}
	return SoftConstraintWeight * mult
}

// ScoreBreakdown is the result of evaluating a schedule against the registry.
type ScoreBreakdown struct {
	HardViolations int
	SoftPenalty    float64
	Conflicts      []models.Conflict
}

// Feasible reports whether the schedule satisfies every hard constraint.
func (b ScoreBreakdown) Feasible() bool { return b.HardViolations == 0 }

// BetterThan compares two breakdowns. Feasibility is binary and dominates:
// an infeasible schedule is never preferred over a feasible one, and two
// feasible schedules compare by soft penalty only.
func (b ScoreBreakdown) BetterThan(other ScoreBreakdown) bool {
	if b.HardViolations != other.HardViolations {
		return b.HardViolations < other.HardViolations
	}
	return b.SoftPenalty < other.SoftPenalty
}

// Quality folds the breakdown into a 0-100 score for reports.
func (b ScoreBreakdown) Quality() float64 {
	return math.Max(0, 100-float64(b.HardViolations)*10-b.SoftPenalty/100)
}

// ScoreEngine evaluates candidate schedules against the constraint registry.
type ScoreEngine struct {
	snap        *Snapshot
	multiRoom   *MultiRoomEngine
	constraints []Constraint
	refDate     time.Time
}

// NewScoreEngine builds the engine with the default rule registry.
func NewScoreEngine(snap *Snapshot) *ScoreEngine {
	e := &ScoreEngine{
		snap:      snap,
		multiRoom: NewMultiRoomEngine(snap),
		refDate:   time.Now(),
	}
	e.constraints = []Constraint{
		{Name: "no-teacher-overlap", Category: CategoryHard, Eval: e.noTeacherOverlap},
		{Name: "no-room-overlap", Category: CategoryHard, Eval: e.noRoomOverlap},
		{Name: "no-student-overlap", Category: CategoryHard, Eval: e.noStudentOverlap},
		{Name: "room-capacity", Category: CategoryHard, Eval: e.roomCapacity},
		{Name: "teacher-qualification", Category: CategoryHard, Eval: e.teacherQualification},
		{Name: "equipment-availability", Category: CategoryHard, Eval: e.equipmentAvailability},
		{Name: "all-courses-scheduled", Category: CategoryHard, Eval: e.allCoursesScheduled},
		{Name: "multi-room-availability", Category: CategoryHard, Eval: e.multiRoomAvailability},
		{Name: "room-restriction", Category: CategoryHard, Eval: e.roomRestriction},
		{Name: "minimize-student-gaps", Category: CategorySoft, Eval: e.minimizeStudentGaps},
		{Name: "balance-teacher-load", Category: CategorySoft, Eval: e.balanceTeacherLoad},
		{Name: "lunch-break-provided", Category: CategorySoft, Eval: e.lunchBreakProvided},
		{Name: "minimize-teacher-travel", Category: CategorySoft, Eval: e.minimizeTeacherTravel},
		{Name: "honor-teacher-time-preferences", Category: CategorySoft, Eval: e.teacherTimePreferences},
		{Name: "honor-room-preferences", Category: CategorySoft, Eval: e.roomPreferences},
		{Name: "spread-difficult-courses", Category: CategorySoft, Eval: e.spreadDifficultCourses},
		{Name: "balance-class-sizes", Category: CategorySoft, Eval: e.balanceClassSizes},
		{Name: "multi-room-proximity", Category: CategorySoft, Eval: e.multiRoomProximity},
	}
	return e
}

// Constraints exposes the registry, mainly for diagnostics endpoints.
func (e *ScoreEngine) Constraints() []Constraint { return e.constraints }

// Score evaluates the schedule against every registered constraint.
func (e *ScoreEngine) Score(s *models.Schedule) ScoreBreakdown {
	var breakdown ScoreBreakdown
	for _, c := range e.constraints {
		conflicts := c.Eval(s)
		for i := range conflicts {
			conflicts[i].Constraint = c.Name
			conflicts[i].Hard = c.Category == CategoryHard
			if conflicts[i].Penalty == 0 {
				conflicts[i].Penalty = c.Weight()
			}
			if conflicts[i].Hard {
				breakdown.HardViolations++
			} else {
				breakdown.SoftPenalty += conflicts[i].Penalty
			}
		}
		breakdown.Conflicts = append(breakdown.Conflicts, conflicts...)
	}
	return breakdown
}

// ApplyConflictFlags stamps conflict flags and reasons onto the schedule's
// slots so residual violations stay visible to the caller.
func (e *ScoreEngine) ApplyConflictFlags(s *models.Schedule, conflicts []models.Conflict) {
	byKey := make(map[string]string)
	for _, c := range conflicts {
		if !c.Hard {
			continue
		}
		for _, key := range c.SlotKeys {
			if _, exists := byKey[key]; !exists {
				byKey[key] = c.Reason
			}
		}
	}
	for i := range s.Slots {
		reason, flagged := byKey[s.Slots[i].Key()]
		s.Slots[i].Conflict = flagged
		s.Slots[i].ConflictReason = reason
	}
}

// --- Hard rules ---

func (e *ScoreEngine) noTeacherOverlap(s *models.Schedule) []models.Conflict {
	return e.overlapConflicts(s, func(slot models.ScheduleSlot) string { return slot.TeacherID }, "teacher")
}

func (e *ScoreEngine) noRoomOverlap(s *models.Schedule) []models.Conflict {
	return e.overlapConflicts(s, func(slot models.ScheduleSlot) string { return slot.RoomID }, "room")
}

func (e *ScoreEngine) overlapConflicts(s *models.Schedule, keyOf func(models.ScheduleSlot) string, kind string) []models.Conflict {
	grouped := make(map[string][]int)
	for i, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		if key := keyOf(slot); key != "" {
			grouped[key] = append(grouped[key], i)
		}
	}
	var conflicts []models.Conflict
	for key, indices := range grouped {
		for i := 0; i < len(indices); i++ {
			for j := i + 1; j < len(indices); j++ {
				a, b := s.Slots[indices[i]], s.Slots[indices[j]]
				if a.Slot.Overlaps(b.Slot) {
					conflicts = append(conflicts, models.Conflict{
						Reason:   fmt.Sprintf("%s %s double-booked at %s", kind, key, a.Slot.Label()),
						SlotKeys: []string{a.Key(), b.Key()},
					})
				}
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) noStudentOverlap(s *models.Schedule) []models.Conflict {
	byStudent := make(map[string][]int)
	for i, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		for _, studentID := range slot.StudentIDs {
			byStudent[studentID] = append(byStudent[studentID], i)
		}
	}
	seenPairs := make(map[string]struct{})
	var conflicts []models.Conflict
	for studentID, indices := range byStudent {
		for i := 0; i < len(indices); i++ {
			for j := i + 1; j < len(indices); j++ {
				a, b := s.Slots[indices[i]], s.Slots[indices[j]]
				if !a.Slot.Overlaps(b.Slot) {
					continue
				}
				pair := a.Key() + "|" + b.Key()
				if _, dup := seenPairs[pair]; dup {
					continue
				}
				seenPairs[pair] = struct{}{}
				conflicts = append(conflicts, models.Conflict{
					Reason:   fmt.Sprintf("student %s enrolled in overlapping classes at %s", studentID, a.Slot.Label()),
					SlotKeys: []string{a.Key(), b.Key()},
				})
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) roomCapacity(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" || slot.RoomID == "" {
			continue
		}
		room, ok := e.snap.Rooms[slot.RoomID]
		if !ok {
			continue
		}
		if len(slot.StudentIDs) > room.Capacity {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("room %s capacity %d exceeded by %d students", room.Number, room.Capacity, len(slot.StudentIDs)),
				SlotKeys: []string{slot.Key()},
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) teacherQualification(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" || slot.TeacherID == "" {
			continue
		}
		course, ok := e.snap.Courses[slot.CourseID]
		if !ok {
			continue
		}
		if !e.snap.Certified(slot.TeacherID, course.Subject) {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("teacher %s not certified for %s", slot.TeacherID, course.Subject),
				SlotKeys: []string{slot.Key()},
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) equipmentAvailability(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" || slot.RoomID == "" {
			continue
		}
		course, ok := e.snap.Courses[slot.CourseID]
		if !ok || len(course.RequiredEquipment) == 0 {
			continue
		}
		room := e.snap.Rooms[slot.RoomID]
		available := make(map[string]struct{}, len(room.Equipment))
		for _, item := range room.Equipment {
			available[item] = struct{}{}
		}
		for _, needed := range course.RequiredEquipment {
			if _, ok := available[needed]; !ok {
				conflicts = append(conflicts, models.Conflict{
					Reason:   fmt.Sprintf("room %s lacks %s required by %s", room.Number, needed, course.Name),
					SlotKeys: []string{slot.Key()},
				})
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) allCoursesScheduled(s *models.Schedule) []models.Conflict {
	meetings := make(map[string]int)
	for _, slot := range s.Slots {
		if slot.CourseID != "" {
			meetings[slot.CourseID]++
		}
	}
	var conflicts []models.Conflict
	for _, id := range e.snap.CourseIDs {
		course := e.snap.Courses[id]
		if meetings[id] < course.MeetingsPerWeek {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("%s scheduled %d of %d weekly meetings", course.Name, meetings[id], course.MeetingsPerWeek),
				CourseID: id,
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) multiRoomAvailability(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		course := e.snap.Courses[slot.CourseID]
		if course == nil || !course.UsesMultipleRooms {
			continue
		}
		rooms := e.multiRoom.GetEffectiveRooms(slot.CourseID, slot.Slot.Day, e.refDate)
		if len(rooms) == 0 {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("multi-room course %s has no effective rooms on %s", course.Name, slot.Slot.Day),
				SlotKeys: []string{slot.Key()},
			})
			continue
		}
		if v := e.multiRoom.ValidateMultiRoomAssignment(slot.CourseID, rooms); !v.Valid {
			for _, msg := range v.Errors {
				conflicts = append(conflicts, models.Conflict{
					Reason:   msg,
					SlotKeys: []string{slot.Key()},
				})
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) roomRestriction(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.TeacherID == "" || slot.RoomID == "" {
			continue
		}
		pref := e.snap.RoomPrefs[slot.TeacherID]
		if !pref.CanUseRoom(slot.RoomID) {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("teacher %s is restricted from room %s", slot.TeacherID, slot.RoomID),
				SlotKeys: []string{slot.Key()},
			})
		}
	}
	return conflicts
}

// --- Soft rules ---

func (e *ScoreEngine) minimizeStudentGaps(s *models.Schedule) []models.Conflict {
	type dayKey struct {
		student string
		day     time.Weekday
	}
	periods := make(map[dayKey][]int)
	for _, slot := range s.Slots {
		if slot.CourseID == "" || slot.Slot.Lunch {
			continue
		}
		for _, studentID := range slot.StudentIDs {
			k := dayKey{studentID, slot.Slot.Day}
			periods[k] = append(periods[k], slot.Slot.Period)
		}
	}
	var conflicts []models.Conflict
	for k, ps := range periods {
		if len(ps) < 2 {
			continue
		}
		sort.Ints(ps)
		gaps := 0
		for i := 0; i < len(ps)-1; i++ {
			if d := ps[i+1] - ps[i]; d > 1 {
				gaps += d - 1
			}
		}
		if gaps > 0 {
			conflicts = append(conflicts, models.Conflict{
				Reason:  fmt.Sprintf("student %s has %d idle periods on %s", k.student, gaps, k.day),
				Penalty: SoftConstraintWeight * float64(gaps) / 10,
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) balanceTeacherLoad(s *models.Schedule) []models.Conflict {
	counts := make(map[string]int)
	total := 0
	for _, slot := range s.Slots {
		if slot.TeacherID != "" && slot.CourseID != "" {
			counts[slot.TeacherID]++
			total++
		}
	}
	if len(counts) < 2 {
		return nil
	}
	avg := float64(total) / float64(len(counts))
	var conflicts []models.Conflict
	for teacherID, n := range counts {
		if dev := math.Abs(float64(n) - avg); dev > 1.5 {
			conflicts = append(conflicts, models.Conflict{
				Reason:  fmt.Sprintf("teacher %s carries %d slots against an average of %.1f", teacherID, n, avg),
				Penalty: SoftConstraintWeight * (dev - 1.5) / 2,
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) lunchBreakProvided(s *models.Schedule) []models.Conflict {
	var lunchSlots []models.TimeSlot
	for _, slot := range s.Slots {
		if slot.Slot.Lunch {
			lunchSlots = append(lunchSlots, slot.Slot)
		}
	}
	if len(lunchSlots) == 0 {
		return nil
	}
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" || slot.Slot.Lunch {
			continue
		}
		for _, lunch := range lunchSlots {
			if slot.Slot.Overlaps(lunch) {
				conflicts = append(conflicts, models.Conflict{
					Reason:   fmt.Sprintf("class scheduled through the lunch window at %s", slot.Slot.Label()),
					SlotKeys: []string{slot.Key()},
				})
				break
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) minimizeTeacherTravel(s *models.Schedule) []models.Conflict {
	type slotRef struct {
		period int
		roomID string
	}
	byTeacherDay := make(map[string]map[time.Weekday][]slotRef)
	for _, slot := range s.Slots {
		if slot.TeacherID == "" || slot.RoomID == "" || slot.CourseID == "" {
			continue
		}
		if byTeacherDay[slot.TeacherID] == nil {
			byTeacherDay[slot.TeacherID] = make(map[time.Weekday][]slotRef)
		}
		byTeacherDay[slot.TeacherID][slot.Slot.Day] = append(
			byTeacherDay[slot.TeacherID][slot.Slot.Day],
			slotRef{slot.Slot.Period, slot.RoomID})
	}
	var conflicts []models.Conflict
	for teacherID, days := range byTeacherDay {
		for day, refs := range days {
			sort.Slice(refs, func(i, j int) bool { return refs[i].period < refs[j].period })
			for i := 0; i < len(refs)-1; i++ {
				if refs[i+1].period != refs[i].period+1 || refs[i].roomID == refs[i+1].roomID {
					continue
				}
				a, b := e.snap.Rooms[refs[i].roomID], e.snap.Rooms[refs[i+1].roomID]
				if p := CalculateRoomProximity(a, b); p > 1 {
					conflicts = append(conflicts, models.Conflict{
						Reason:  fmt.Sprintf("teacher %s travels %d minutes between consecutive periods on %s", teacherID, p, day),
						Penalty: SoftConstraintWeight * float64(p) / 10,
					})
				}
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) teacherTimePreferences(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.TeacherID == "" || slot.CourseID == "" {
			continue
		}
		preferred, ok := e.snap.PreferredPeriods[slot.TeacherID]
		if !ok || len(preferred) == 0 {
			continue
		}
		if _, ok := preferred[slot.Slot.Period]; !ok {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("teacher %s scheduled outside preferred periods at %s", slot.TeacherID, slot.Slot.Label()),
				SlotKeys: []string{slot.Key()},
				Penalty:  SoftConstraintWeight / 4,
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) roomPreferences(s *models.Schedule) []models.Conflict {
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.TeacherID == "" || slot.RoomID == "" || slot.CourseID == "" {
			continue
		}
		pref := e.snap.RoomPrefs[slot.TeacherID]
		if pref == nil || pref.Restricted || len(pref.PreferredRoomIDs) == 0 {
			continue
		}
		if !pref.PrefersRoom(slot.RoomID) {
			conflicts = append(conflicts, models.Conflict{
				Reason:   fmt.Sprintf("teacher %s placed outside preferred rooms at %s", slot.TeacherID, slot.Slot.Label()),
				SlotKeys: []string{slot.Key()},
				Penalty:  SoftConstraintWeight * float64(pref.Strength.PenaltyWeight()) / 5,
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) spreadDifficultCourses(s *models.Schedule) []models.Conflict {
	const difficultThreshold = 4
	type ref struct {
		period   int
		courseID string
		students []string
	}
	byDay := make(map[time.Weekday][]ref)
	for _, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		course := e.snap.Courses[slot.CourseID]
		if course == nil || course.Difficulty < difficultThreshold {
			continue
		}
		byDay[slot.Slot.Day] = append(byDay[slot.Slot.Day], ref{slot.Slot.Period, slot.CourseID, slot.StudentIDs})
	}
	var conflicts []models.Conflict
	for day, refs := range byDay {
		sort.Slice(refs, func(i, j int) bool { return refs[i].period < refs[j].period })
		for i := 0; i < len(refs)-1; i++ {
			if refs[i+1].period != refs[i].period+1 {
				continue
			}
			if !shareAnyStudent(refs[i].students, refs[i+1].students) {
				continue
			}
			conflicts = append(conflicts, models.Conflict{
				Reason: fmt.Sprintf("back-to-back difficult courses on %s periods %d-%d", day, refs[i].period, refs[i+1].period),
			})
		}
	}
	return conflicts
}

func (e *ScoreEngine) balanceClassSizes(s *models.Schedule) []models.Conflict {
	sizes := make(map[string][]int)
	for _, id := range e.snap.CourseIDs {
		course := e.snap.Courses[id]
		sizes[course.Subject] = append(sizes[course.Subject], len(e.snap.EnrolledStudents(id)))
	}
	var conflicts []models.Conflict
	for subject, list := range sizes {
		if len(list) < 2 {
			continue
		}
		total := 0
		for _, n := range list {
			total += n
		}
		avg := float64(total) / float64(len(list))
		for _, n := range list {
			if math.Abs(float64(n)-avg) > 8 {
				conflicts = append(conflicts, models.Conflict{
					Reason:  fmt.Sprintf("%s sections unbalanced: %d students against an average of %.0f", subject, n, avg),
					Penalty: SoftConstraintWeight / 2,
				})
			}
		}
	}
	return conflicts
}

func (e *ScoreEngine) multiRoomProximity(s *models.Schedule) []models.Conflict {
	seen := make(map[string]struct{})
	var conflicts []models.Conflict
	for _, slot := range s.Slots {
		if slot.CourseID == "" {
			continue
		}
		course := e.snap.Courses[slot.CourseID]
		if course == nil || !course.UsesMultipleRooms {
			continue
		}
		if _, dup := seen[slot.CourseID]; dup {
			continue
		}
		seen[slot.CourseID] = struct{}{}
		rooms := e.multiRoom.GetEffectiveRooms(slot.CourseID, slot.Slot.Day, e.refDate)
		v := e.multiRoom.ValidateMultiRoomAssignment(slot.CourseID, rooms)
		for _, msg := range v.Warnings {
			conflicts = append(conflicts, models.Conflict{Reason: msg, Penalty: SoftConstraintWeight / 2})
		}
	}
	return conflicts
}

func shareAnyStudent(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
