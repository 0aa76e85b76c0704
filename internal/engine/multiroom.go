package engine

import (
	"fmt"
	"time"

	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
)

// ProximityFar is returned when two rooms are in different buildings and
// therefore not comparable by the floor/zone heuristic.
const ProximityFar = 99

// MultiRoomValidation reports the outcome of validating a multi-room
// assignment set. Capacity problems are hard failures; proximity problems
// inside the configured maximum are soft warnings.
type MultiRoomValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// MultiRoomEngine validates and resolves room sets for courses flagged as
// needing more than one room.
type MultiRoomEngine struct {
	snap *Snapshot
}

// NewMultiRoomEngine binds the engine to a catalog snapshot.
func NewMultiRoomEngine(snap *Snapshot) *MultiRoomEngine {
	return &MultiRoomEngine{snap: snap}
}

// AssignRoomsToCourse replaces the course's active assignment set. Exactly
// one active Primary must remain, and usesMultipleRooms is re-derived.
func (e *MultiRoomEngine) AssignRoomsToCourse(courseID string, assignments []models.CourseRoomAssignment) error {
	course, ok := e.snap.Courses[courseID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found in snapshot")
	}
	primaries := 0
	for _, a := range assignments {
		if _, ok := e.snap.Rooms[a.RoomID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room %s not found in snapshot", a.RoomID))
		}
		if a.Active && a.Type == models.RoomAssignmentPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("exactly one active primary room required, got %d", primaries))
	}
	replaced := make([]models.CourseRoomAssignment, len(assignments))
	copy(replaced, assignments)
	for i := range replaced {
		replaced[i].CourseID = courseID
	}
	e.snap.RoomAssignments[courseID] = replaced

	activeCount := 0
	for _, a := range replaced {
		if a.Active {
			activeCount++
		}
	}
	course.UsesMultipleRooms = activeCount >= 2
	return nil
}

// GetPrimaryRoom returns the room tagged Primary among active assignments.
func (e *MultiRoomEngine) GetPrimaryRoom(courseID string) (models.Room, bool) {
	for _, a := range e.snap.ActiveRoomAssignments(courseID) {
		if a.Type == models.RoomAssignmentPrimary {
			room, ok := e.snap.Rooms[a.RoomID]
			return room, ok
		}
	}
	return models.Room{}, false
}

// CalculateRoomProximity returns the heuristic walking cost between two
// rooms in minute-equivalent units: same room 0, same building/floor/zone 1,
// same floor different zone 3, different floor adds 2 on top of the zone
// penalty. Different buildings are not comparable and return ProximityFar.
// The additive rule is preserved exactly; downstream distance thresholds
// are calibrated against it.
func CalculateRoomProximity(a, b models.Room) int {
	if a.ID == b.ID {
		return 0
	}
	if a.Building != b.Building {
		return ProximityFar
	}
	cost := 1
	if a.Zone != b.Zone {
		cost += 2 // 1 + 2 = 3 for a zone change on the same floor
	}
	if a.Floor != b.Floor {
		cost += 2
	}
	return cost
}

// AreRoomsNearby reports whether every pairwise proximity among the rooms
// is within maxMinutes.
func AreRoomsNearby(rooms []models.Room, maxMinutes int) bool {
	for i := 0; i < len(rooms); i++ {
		for j := i + 1; j < len(rooms); j++ {
			if CalculateRoomProximity(rooms[i], rooms[j]) > maxMinutes {
				return false
			}
		}
	}
	return true
}

// CalculateTotalCapacity sums room capacity over active assignments only.
func (e *MultiRoomEngine) CalculateTotalCapacity(assignments []models.CourseRoomAssignment) int {
	total := 0
	for _, a := range assignments {
		if !a.Active {
			continue
		}
		if room, ok := e.snap.Rooms[a.RoomID]; ok {
			total += room.Capacity
		}
	}
	return total
}

// GetEffectiveRooms evaluates each active assignment's usage pattern against
// the given weekday and date and returns the union of rooms that apply.
// Time-based patterns (first/second half) split the period rather than
// filtering by day, so they always contribute their room here.
func (e *MultiRoomEngine) GetEffectiveRooms(courseID string, day time.Weekday, date time.Time) []models.Room {
	var rooms []models.Room
	seen := make(map[string]struct{})
	for _, a := range e.snap.ActiveRoomAssignments(courseID) {
		if !a.AppliesOn(day, date) {
			continue
		}
		if _, dup := seen[a.RoomID]; dup {
			continue
		}
		if room, ok := e.snap.Rooms[a.RoomID]; ok {
			seen[a.RoomID] = struct{}{}
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// ValidateMultiRoomAssignment checks a candidate room set for one course
// meeting. Insufficient combined capacity or rooms beyond the course's max
// distance are hard failures; merely sub-optimal proximity is a warning.
func (e *MultiRoomEngine) ValidateMultiRoomAssignment(courseID string, rooms []models.Room) MultiRoomValidation {
	v := MultiRoomValidation{Valid: true}
	course, ok := e.snap.Courses[courseID]
	if !ok {
		v.Valid = false
		v.Errors = append(v.Errors, "course not found in snapshot")
		return v
	}

	maxDistance := course.MaxRoomDistanceMinutes
	if maxDistance <= 0 {
		maxDistance = 5
	}
	for i := 0; i < len(rooms); i++ {
		for j := i + 1; j < len(rooms); j++ {
			p := CalculateRoomProximity(rooms[i], rooms[j])
			if p > maxDistance {
				v.Valid = false
				v.Errors = append(v.Errors, fmt.Sprintf(
					"rooms %s and %s are %d minutes apart, exceeding the %d minute maximum",
					rooms[i].Number, rooms[j].Number, p, maxDistance))
			} else if p > 1 {
				v.Warnings = append(v.Warnings, fmt.Sprintf(
					"rooms %s and %s are %d minutes apart; students lose passing time", rooms[i].Number, rooms[j].Number, p))
			}
		}
	}

	enrolled := len(e.snap.EnrolledStudents(courseID))
	capacity := 0
	for _, r := range rooms {
		capacity += r.Capacity
	}
	if capacity < enrolled {
		v.Valid = false
		v.Errors = append(v.Errors, fmt.Sprintf(
			"combined capacity %d is below enrollment %d for %s", capacity, enrolled, course.Name))
	}
	return v
}
