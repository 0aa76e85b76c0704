package models

import (
	"fmt"
	"strconv"
	"strings"
)

// LunchCohort groups students who should eat lunch together, derived from
// the class they share during the lunch period (or grade level when the
// period is free). Immutable once built for a run.
type LunchCohort struct {
	Name       string   `json:"name"`
	StudentIDs []string `json:"student_ids"`
	RoomNumber string   `json:"room_number,omitempty"`
	RoomZone   string   `json:"room_zone,omitempty"`
	CourseName string   `json:"course_name,omitempty"`
	GradeLevel string   `json:"grade_level,omitempty"`
}

// NewLunchCohort derives room, zone, course and grade metadata from the
// cohort name, e.g. "Room 101 - Algebra I" or "Grade 9 - Free Period".
func NewLunchCohort(name string, studentIDs []string) LunchCohort {
	members := make([]string, len(studentIDs))
	copy(members, studentIDs)
	c := LunchCohort{Name: name, StudentIDs: members}
	c.RoomNumber = extractRoomNumber(name)
	c.RoomZone = RoomNumberZone(c.RoomNumber)
	c.CourseName = extractCourseName(name)
	c.GradeLevel = extractGradeLevel(name)
	return c
}

// Size returns the number of students in the cohort.
func (c LunchCohort) Size() int { return len(c.StudentIDs) }

// RoomBased reports whether the cohort comes from a scheduled class.
func (c LunchCohort) RoomBased() bool { return c.RoomNumber != "" }

// GradeBased reports whether the cohort is a grade-level group.
func (c LunchCohort) GradeBased() bool { return c.GradeLevel != "" }

func (c LunchCohort) String() string {
	if c.RoomZone != "" {
		return fmt.Sprintf("%s (%d students, %s)", c.Name, c.Size(), c.RoomZone)
	}
	return fmt.Sprintf("%s (%d students)", c.Name, c.Size())
}

// RoomNumberZone maps a room number to its coarse spatial zone. The banding
// (fifty-room halves per floor) matches the building layout the downstream
// cohesion thresholds were calibrated against.
func RoomNumberZone(roomNumber string) string {
	if roomNumber == "" {
		return ""
	}
	num, err := strconv.Atoi(roomNumber)
	if err != nil {
		return "Other"
	}
	switch {
	case num < 100:
		return "Ground Floor"
	case num < 150:
		return "1st Floor East"
	case num < 200:
		return "1st Floor West"
	case num < 250:
		return "2nd Floor East"
	case num < 300:
		return "2nd Floor West"
	case num < 350:
		return "3rd Floor East"
	case num < 400:
		return "3rd Floor West"
	default:
		return "Upper Floors"
	}
}

func extractRoomNumber(name string) string {
	if !strings.HasPrefix(name, "Room ") {
		return ""
	}
	rest := name[len("Room "):]
	if idx := strings.Index(rest, " - "); idx > 0 {
		return strings.TrimSpace(rest[:idx])
	}
	return strings.TrimSpace(rest)
}

func extractCourseName(name string) string {
	idx := strings.Index(name, " - ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(name[idx+3:])
}

func extractGradeLevel(name string) string {
	if !strings.HasPrefix(name, "Grade ") {
		return ""
	}
	rest := strings.TrimSpace(name[len("Grade "):])
	if idx := strings.IndexByte(rest, ' '); idx > 0 {
		rest = rest[:idx]
	}
	return rest
}

// LunchWave is one time-shifted lunch seating composed of multiple cohorts
// under a shared capacity limit.
type LunchWave struct {
	Number      int           `json:"number"`
	Cohorts     []LunchCohort `json:"cohorts"`
	TotalSize   int           `json:"total_size"`
	MaxCapacity int           `json:"max_capacity"`
	StartMinute int           `json:"start_minute"`
	EndMinute   int           `json:"end_minute"`
}

// RemainingCapacity returns free seats in the wave.
func (w LunchWave) RemainingCapacity() int { return w.MaxCapacity - w.TotalSize }

// Zones lists the distinct room zones represented in the wave.
func (w LunchWave) Zones() []string {
	seen := make(map[string]struct{})
	var zones []string
	for _, c := range w.Cohorts {
		if c.RoomZone == "" {
			continue
		}
		if _, ok := seen[c.RoomZone]; ok {
			continue
		}
		seen[c.RoomZone] = struct{}{}
		zones = append(zones, c.RoomZone)
	}
	return zones
}

// DominantZone returns the zone with the most room-based cohorts.
func (w LunchWave) DominantZone() string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, c := range w.Cohorts {
		if !c.RoomBased() {
			continue
		}
		counts[c.RoomZone]++
		if counts[c.RoomZone] > bestCount {
			best, bestCount = c.RoomZone, counts[c.RoomZone]
		}
	}
	return best
}

// CohesionScore is the percentage of room-based cohorts sharing the wave's
// dominant zone. Grade-based cohorts do not count either way.
func (w LunchWave) CohesionScore() float64 {
	roomBased := 0
	for _, c := range w.Cohorts {
		if c.RoomBased() {
			roomBased++
		}
	}
	if roomBased == 0 {
		return 0
	}
	dominant := w.DominantZone()
	inZone := 0
	for _, c := range w.Cohorts {
		if c.RoomBased() && c.RoomZone == dominant {
			inZone++
		}
	}
	return float64(inZone) / float64(roomBased) * 100
}
