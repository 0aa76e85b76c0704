package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/arborview/timetable-api/internal/models"
)

// Problem bundles everything the optimizer needs: the frozen snapshot, the
// slot universe, and the scoring engine.
type Problem struct {
	Snap   *Snapshot
	Slots  []models.TimeSlot
	Scorer *ScoreEngine
}

// NewProblem constructs the optimization problem for one run.
func NewProblem(snap *Snapshot, slots []models.TimeSlot) *Problem {
	return &Problem{Snap: snap, Slots: slots, Scorer: NewScoreEngine(snap)}
}

// TeachingSlots returns the non-lunch slots courses can occupy.
func (p *Problem) TeachingSlots() []models.TimeSlot {
	out := make([]models.TimeSlot, 0, len(p.Slots))
	for _, s := range p.Slots {
		if !s.Lunch {
			out = append(out, s)
		}
	}
	return out
}

// BuildInitialSchedule produces a greedy starting point: each course meeting
// gets a time slot spread across distinct days where possible, the best
// fitting room, its assigned teacher, and its enrolled students. Lunch slots
// are carried as empty markers so lunch constraints can see them.
func (p *Problem) BuildInitialSchedule(name string, schedType models.ScheduleType) *models.Schedule {
	now := time.Now().UTC()
	sched := &models.Schedule{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      schedType,
		Status:    models.ScheduleStatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	teaching := p.TeachingSlots()
	if len(teaching) == 0 {
		return sched
	}

	// Heaviest courses first so large sections get first pick of rooms.
	ordered := make([]*models.Course, 0, len(p.Snap.CourseIDs))
	for _, id := range p.Snap.CourseIDs {
		ordered = append(ordered, p.Snap.Courses[id])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		ei, ej := len(p.Snap.EnrolledStudents(ordered[i].ID)), len(p.Snap.EnrolledStudents(ordered[j].ID))
		if ei != ej {
			return ei > ej
		}
		return ordered[i].ID < ordered[j].ID
	})

	cursor := 0
	for _, course := range ordered {
		students := p.Snap.EnrolledStudents(course.ID)
		usedDays := make(map[time.Weekday]struct{})
		for meeting := 0; meeting < course.MeetingsPerWeek; meeting++ {
			slot := p.pickSlot(teaching, &cursor, usedDays)
			usedDays[slot.Day] = struct{}{}
			entry := models.ScheduleSlot{
				Slot:     slot,
				CourseID: course.ID,
				RoomID:   p.pickRoom(course, len(students)),
			}
			if course.TeacherID != nil {
				entry.TeacherID = *course.TeacherID
			}
			if len(students) > 0 {
				entry.StudentIDs = make([]string, len(students))
				copy(entry.StudentIDs, students)
			}
			sched.Slots = append(sched.Slots, entry)
		}
	}

	for _, slot := range p.Slots {
		if slot.Lunch {
			sched.Slots = append(sched.Slots, models.ScheduleSlot{Slot: slot})
		}
	}
	return sched
}

// pickSlot advances round-robin through the universe, preferring a day the
// course has not met on yet.
func (p *Problem) pickSlot(teaching []models.TimeSlot, cursor *int, usedDays map[time.Weekday]struct{}) models.TimeSlot {
	for tries := 0; tries < len(teaching); tries++ {
		candidate := teaching[(*cursor+tries)%len(teaching)]
		if _, used := usedDays[candidate.Day]; !used {
			*cursor = (*cursor + tries + 1) % len(teaching)
			return candidate
		}
	}
	slot := teaching[*cursor%len(teaching)]
	*cursor = (*cursor + 1) % len(teaching)
	return slot
}

// pickRoom returns the primary room for multi-room courses, otherwise the
// smallest equipped room that fits the enrollment.
func (p *Problem) pickRoom(course *models.Course, enrollment int) string {
	if course.UsesMultipleRooms {
		for _, a := range p.Snap.ActiveRoomAssignments(course.ID) {
			if a.Type == models.RoomAssignmentPrimary {
				return a.RoomID
			}
		}
	}
	bestID := ""
	bestCapacity := -1
	for _, roomID := range p.Snap.RoomIDs {
		room := p.Snap.Rooms[roomID]
		if room.Capacity < enrollment {
			continue
		}
		if !roomHasEquipment(room, course.RequiredEquipment) {
			continue
		}
		if bestCapacity == -1 || room.Capacity < bestCapacity {
			bestID, bestCapacity = roomID, room.Capacity
		}
	}
	if bestID == "" && len(p.Snap.RoomIDs) > 0 {
		// Nothing fits; take the largest room and let capacity scoring
		// surface the violation.
		for _, roomID := range p.Snap.RoomIDs {
			room := p.Snap.Rooms[roomID]
			if room.Capacity > bestCapacity {
				bestID, bestCapacity = roomID, room.Capacity
			}
		}
	}
	return bestID
}

func roomHasEquipment(room models.Room, required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(room.Equipment))
	for _, item := range room.Equipment {
		have[item] = struct{}{}
	}
	for _, item := range required {
		if _, ok := have[item]; !ok {
			return false
		}
	}
	return true
}
