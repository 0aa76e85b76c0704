package engine

import (
	"fmt"
	"sort"

	"github.com/arborview/timetable-api/internal/models"
)

// ConflictRanker orders residual violations so reviewers see the worst
// problems first and get concrete, pre-evaluated fixes for each.
type ConflictRanker struct {
	problem *Problem
}

func NewConflictRanker(p *Problem) *ConflictRanker {
	return &ConflictRanker{problem: p}
}

// Rank orders the conflicts of a scored schedule by severity tier, then by
// blast radius (more affected people first), then by priority score.
func (r *ConflictRanker) Rank(s *models.Schedule, breakdown ScoreBreakdown) []models.ConflictRanking {
	slotsByKey := make(map[string]models.ScheduleSlot, len(s.Slots))
	for _, slot := range s.Slots {
		slotsByKey[slot.Key()] = slot
	}
	rankings := make([]models.ConflictRanking, 0, len(breakdown.Conflicts))
	for _, c := range breakdown.Conflicts {
		rankings = append(rankings, models.ConflictRanking{
			Type:          c.Constraint,
			Description:   c.Reason,
			Severity:      classifySeverity(c),
			PriorityScore: priorityScore(c),
			SlotKeys:      c.SlotKeys,
			AffectedCount: r.affectedPopulation(c, slotsByKey),
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Severity.Tier() != b.Severity.Tier() {
			return a.Severity.Tier() < b.Severity.Tier()
		}
		if a.AffectedCount != b.AffectedCount {
			return a.AffectedCount > b.AffectedCount
		}
		return a.PriorityScore > b.PriorityScore
	})
	return rankings
}

// affectedPopulation counts the distinct students and teachers touched by
// the conflict's slots. A conflict about an unplaced course has no slots;
// its population is the course's enrollment plus its assigned teacher.
func (r *ConflictRanker) affectedPopulation(c models.Conflict, slotsByKey map[string]models.ScheduleSlot) int {
	people := make(map[string]struct{})
	for _, key := range c.SlotKeys {
		slot, ok := slotsByKey[key]
		if !ok {
			continue
		}
		for _, id := range slot.StudentIDs {
			people[id] = struct{}{}
		}
		if slot.TeacherID != "" {
			people["t|"+slot.TeacherID] = struct{}{}
		}
	}
	if len(c.SlotKeys) == 0 && c.CourseID != "" {
		for _, id := range r.problem.Snap.StudentsByCourse[c.CourseID] {
			people[id] = struct{}{}
		}
		if course := r.problem.Snap.Courses[c.CourseID]; course != nil && course.TeacherID != nil {
			people["t|"+*course.TeacherID] = struct{}{}
		}
	}
	return len(people)
}

// classifySeverity maps constraint violations to reviewer-facing tiers.
// Double-bookings are always critical; other hard violations are high.
func classifySeverity(c models.Conflict) models.ConflictSeverity {
	if c.Hard {
		switch c.Constraint {
		case "no-teacher-overlap", "no-room-overlap", "no-student-overlap":
			return models.SeverityCritical
		default:
			return models.SeverityHigh
		}
	}
	if c.Penalty >= 5 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

func priorityScore(c models.Conflict) float64 {
	score := c.Penalty
	if c.Hard {
		score += HardConstraintWeight
	}
	return score + float64(len(c.SlotKeys))
}

// SuggestResolutions proposes moves for the top-ranked conflicts. Each
// suggestion is trial-applied to a clone and scored, and the realized delta
// sets its confidence, so a high-confidence suggestion is one that actually
// improved the trial schedule.
func (r *ConflictRanker) SuggestResolutions(s *models.Schedule, breakdown ScoreBreakdown, limit int) []models.ResolutionSuggestion {
	if limit <= 0 {
		limit = 5
	}
	rankings := r.Rank(s, breakdown)
	baseline := energy(breakdown)

	var suggestions []models.ResolutionSuggestion
	seen := make(map[string]struct{})
	for _, ranking := range rankings {
		if len(suggestions) >= limit {
			break
		}
		for _, key := range ranking.SlotKeys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			idx := slotIndexByKey(s, key)
			if idx < 0 {
				continue
			}
			if suggestion, ok := r.bestMoveForSlot(s, idx, ranking, baseline); ok {
				suggestions = append(suggestions, suggestion)
				break
			}
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

// Confidence bands per move family. A trial that improved the schedule
// lands between the band's floor and ceiling in proportion to the realized
// gain; a neutral or worsening trial sits at the floor.
var confidenceBands = map[models.ResolutionMoveKind][2]float64{
	models.ResolutionSwapTeacher: {0.6, 0.9},
	models.ResolutionSwapRoom:    {0.55, 0.85},
	models.ResolutionMoveSlot:    {0.5, 0.8},
}

func confidenceFor(kind models.ResolutionMoveKind, gain float64) float64 {
	band, ok := confidenceBands[kind]
	if !ok {
		band = [2]float64{0.5, 0.8}
	}
	if gain <= 0 {
		return band[0]
	}
	ratio := gain / HardConstraintWeight
	if ratio > 1 {
		ratio = 1
	}
	return band[0] + (band[1]-band[0])*ratio
}

// bestMoveForSlot tries each move family against the conflicted slot and
// keeps the one with the largest score improvement.
func (r *ConflictRanker) bestMoveForSlot(s *models.Schedule, idx int, ranking models.ConflictRanking, baseline float64) (models.ResolutionSuggestion, bool) {
	slot := s.Slots[idx]
	course, ok := r.problem.Snap.Courses[slot.CourseID]
	if !ok {
		return models.ResolutionSuggestion{}, false
	}

	var best models.ResolutionSuggestion
	var bestGain float64
	found := false

	consider := func(kind models.ResolutionMoveKind, target, description string, mutate func(*models.Schedule)) {
		candidate := s.Clone()
		mutate(candidate)
		gain := baseline - energy(r.problem.Scorer.Score(candidate))
		if !found || gain > bestGain {
			found = true
			bestGain = gain
			best = models.ResolutionSuggestion{
				Kind:        kind,
				Description: description,
				SlotKey:     slot.Key(),
				TargetID:    target,
				Confidence:  confidenceFor(kind, gain),
			}
		}
	}

	// Alternative certified teachers.
	for _, tid := range r.problem.Snap.TeachersBySubject[course.Subject] {
		if tid == slot.TeacherID {
			continue
		}
		teacher := r.problem.Snap.Teachers[tid]
		consider(models.ResolutionSwapTeacher, tid,
			fmt.Sprintf("reassign %s to %s", course.Name, teacher.FullName),
			func(c *models.Schedule) { c.Slots[idx].TeacherID = tid })
		break
	}

	// Alternative rooms with enough capacity.
	enrollment := len(slot.StudentIDs)
	for _, rid := range r.problem.Snap.RoomIDs {
		if rid == slot.RoomID {
			continue
		}
		room := r.problem.Snap.Rooms[rid]
		if !room.Active || room.Capacity < enrollment {
			continue
		}
		consider(models.ResolutionSwapRoom, rid,
			fmt.Sprintf("move %s to room %s", course.Name, room.Number),
			func(c *models.Schedule) { c.Slots[idx].RoomID = rid })
		break
	}

	// A different teaching slot, preferring another day.
	for _, ts := range r.problem.TeachingSlots() {
		if ts.Key() == slot.Slot.Key() || ts.Day == slot.Slot.Day {
			continue
		}
		target := ts
		consider(models.ResolutionMoveSlot, target.Key(),
			fmt.Sprintf("move %s to %s", course.Name, target.Label()),
			func(c *models.Schedule) { c.Slots[idx].Slot = target })
		break
	}

	return best, found
}

// ApplyResolution commits a suggestion and returns the re-scored breakdown.
// The caller decides whether to keep the result; nothing is persisted here.
func (r *ConflictRanker) ApplyResolution(s *models.Schedule, suggestion models.ResolutionSuggestion) (ScoreBreakdown, bool) {
	idx := slotIndexByKey(s, suggestion.SlotKey)
	if idx < 0 {
		return ScoreBreakdown{}, false
	}
	switch suggestion.Kind {
	case models.ResolutionSwapTeacher:
		s.Slots[idx].TeacherID = suggestion.TargetID
	case models.ResolutionSwapRoom:
		s.Slots[idx].RoomID = suggestion.TargetID
	case models.ResolutionMoveSlot:
		moved := false
		for _, ts := range r.problem.TeachingSlots() {
			if ts.Key() == suggestion.TargetID {
				s.Slots[idx].Slot = ts
				moved = true
				break
			}
		}
		if !moved {
			return ScoreBreakdown{}, false
		}
	default:
		return ScoreBreakdown{}, false
	}
	return r.problem.Scorer.Score(s), true
}

func slotIndexByKey(s *models.Schedule, key string) int {
	for i, slot := range s.Slots {
		if slot.CourseID != "" && slot.Key() == key {
			return i
		}
	}
	return -1
}
