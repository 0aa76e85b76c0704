package engine

import (
	"math/rand"

	"github.com/arborview/timetable-api/internal/models"
)

// MoveKind enumerates the shared move operators every strategy draws from.
type MoveKind int

const (
	MoveReassignTeacher MoveKind = iota
	MoveReassignRoom
	MoveSwapSlots
	MoveTimeSlot
)

// Move records one applied mutation so tabu search can forbid its reversal.
type Move struct {
	Kind  MoveKind
	SlotA int
	SlotB int
	From  string
	To    string
}

// Signature returns a comparable key for tabu memory.
func (m Move) Signature() [4]int64 {
	return [4]int64{int64(m.Kind), int64(m.SlotA), int64(m.SlotB), hashPair(m.From, m.To)}
}

// Reverse returns the move that would undo this one.
func (m Move) Reverse() Move {
	r := m
	r.From, r.To = m.To, m.From
	if m.Kind == MoveSwapSlots {
		r.SlotA, r.SlotB = m.SlotB, m.SlotA
	}
	return r
}

func hashPair(a, b string) int64 {
	var h int64 = 1469598103934665603
	for _, s := range []string{a, "|", b} {
		for i := 0; i < len(s); i++ {
			h ^= int64(s[i])
			h *= 1099511628211
		}
	}
	return h
}

// RandomMove applies one randomly chosen operator to the schedule in place
// and reports what it did. Returns ok=false when no applicable mutation
// exists (e.g. a schedule with no course slots).
func (p *Problem) RandomMove(s *models.Schedule, rng *rand.Rand) (Move, bool) {
	courseSlots := courseSlotIndices(s)
	if len(courseSlots) == 0 {
		return Move{}, false
	}
	for attempt := 0; attempt < 8; attempt++ {
		kind := MoveKind(rng.Intn(4))
		var move Move
		var ok bool
		switch kind {
		case MoveReassignTeacher:
			move, ok = p.reassignTeacher(s, courseSlots[rng.Intn(len(courseSlots))], rng)
		case MoveReassignRoom:
			move, ok = p.reassignRoom(s, courseSlots[rng.Intn(len(courseSlots))], rng)
		case MoveSwapSlots:
			if len(courseSlots) < 2 {
				continue
			}
			i, j := rng.Intn(len(courseSlots)), rng.Intn(len(courseSlots))
			if i == j {
				continue
			}
			move, ok = p.swapSlots(s, courseSlots[i], courseSlots[j]), true
		case MoveTimeSlot:
			move, ok = p.moveTimeSlot(s, courseSlots[rng.Intn(len(courseSlots))], rng)
		}
		if ok {
			return move, true
		}
	}
	return Move{}, false
}

// Apply replays a recorded move, used when the resolver commits a suggestion.
func (p *Problem) Apply(s *models.Schedule, m Move) bool {
	switch m.Kind {
	case MoveReassignTeacher:
		if m.SlotA >= len(s.Slots) {
			return false
		}
		s.Slots[m.SlotA].TeacherID = m.To
		return true
	case MoveReassignRoom:
		if m.SlotA >= len(s.Slots) {
			return false
		}
		s.Slots[m.SlotA].RoomID = m.To
		return true
	case MoveSwapSlots:
		if m.SlotA >= len(s.Slots) || m.SlotB >= len(s.Slots) {
			return false
		}
		p.swapSlots(s, m.SlotA, m.SlotB)
		return true
	case MoveTimeSlot:
		if m.SlotA >= len(s.Slots) {
			return false
		}
		for _, slot := range p.Slots {
			if slot.Key() == m.To {
				s.Slots[m.SlotA].Slot = slot
				return true
			}
		}
	}
	return false
}

func (p *Problem) reassignTeacher(s *models.Schedule, idx int, rng *rand.Rand) (Move, bool) {
	slot := &s.Slots[idx]
	course := p.Snap.Courses[slot.CourseID]
	if course == nil {
		return Move{}, false
	}
	candidates := p.Snap.TeachersBySubject[course.Subject]
	if len(candidates) == 0 {
		return Move{}, false
	}
	pick := candidates[rng.Intn(len(candidates))]
	if pick == slot.TeacherID {
		return Move{}, false
	}
	move := Move{Kind: MoveReassignTeacher, SlotA: idx, From: slot.TeacherID, To: pick}
	slot.TeacherID = pick
	return move, true
}

func (p *Problem) reassignRoom(s *models.Schedule, idx int, rng *rand.Rand) (Move, bool) {
	slot := &s.Slots[idx]
	if len(p.Snap.RoomIDs) < 2 {
		return Move{}, false
	}
	pick := p.Snap.RoomIDs[rng.Intn(len(p.Snap.RoomIDs))]
	if pick == slot.RoomID {
		return Move{}, false
	}
	move := Move{Kind: MoveReassignRoom, SlotA: idx, From: slot.RoomID, To: pick}
	slot.RoomID = pick
	return move, true
}

// swapSlots exchanges the resource assignments of two slots, keeping each
// slot's time fixed.
func (p *Problem) swapSlots(s *models.Schedule, i, j int) Move {
	a, b := &s.Slots[i], &s.Slots[j]
	a.CourseID, b.CourseID = b.CourseID, a.CourseID
	a.TeacherID, b.TeacherID = b.TeacherID, a.TeacherID
	a.RoomID, b.RoomID = b.RoomID, a.RoomID
	a.StudentIDs, b.StudentIDs = b.StudentIDs, a.StudentIDs
	return Move{Kind: MoveSwapSlots, SlotA: i, SlotB: j}
}

func (p *Problem) moveTimeSlot(s *models.Schedule, idx int, rng *rand.Rand) (Move, bool) {
	teaching := p.TeachingSlots()
	if len(teaching) < 2 {
		return Move{}, false
	}
	slot := &s.Slots[idx]
	pick := teaching[rng.Intn(len(teaching))]
	if pick.Key() == slot.Slot.Key() {
		return Move{}, false
	}
	move := Move{Kind: MoveTimeSlot, SlotA: idx, From: slot.Slot.Key(), To: pick.Key()}
	slot.Slot = pick
	return move, true
}

func courseSlotIndices(s *models.Schedule) []int {
	var out []int
	for i, slot := range s.Slots {
		if slot.CourseID != "" {
			out = append(out, i)
		}
	}
	return out
}
