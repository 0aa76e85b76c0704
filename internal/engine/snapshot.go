package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
)

// CatalogInput is the raw point-in-time catalog supplied by the caller.
type CatalogInput struct {
	Teachers         []models.Teacher
	Certifications   []models.SubjectCertification
	Rooms            []models.Room
	Courses          []models.Course
	Students         []models.Student
	Enrollments      []models.Enrollment
	RoomAssignments  []models.CourseRoomAssignment
	PreferredPeriods map[string][]int
}

// Snapshot is the frozen, fully-materialized view of the catalog a
// generation run operates on. Engine code reads indices on the snapshot and
// never touches the caller's slices, so concurrent edits to live records
// cannot be observed mid-run.
type Snapshot struct {
	Teachers   map[string]models.Teacher
	TeacherIDs []string

	Rooms   map[string]models.Room
	RoomIDs []string

	Courses   map[string]*models.Course
	CourseIDs []string

	Students   map[string]models.Student
	StudentIDs []string

	CertsByTeacher    map[string]map[string]struct{}
	TeachersBySubject map[string][]string
	StudentsByCourse  map[string][]string
	CoursesByStudent  map[string][]string
	RoomAssignments   map[string][]models.CourseRoomAssignment
	RoomPrefs         map[string]*models.RoomPreference
	PreferredPeriods  map[string]map[int]struct{}
	ChoiceRanks       map[string]map[string]int

	Workload *WorkloadIndex
}

// NewSnapshot materializes catalog indices for one run. It fails fast with a
// resource-shortage error when any resource dimension is empty, so a run
// never starts against a degenerate catalog.
func NewSnapshot(in CatalogInput) (*Snapshot, error) {
	active := func(kind string, n int) error {
		if n == 0 {
			return appErrors.Clone(appErrors.ErrResourceShortage, fmt.Sprintf("no active %s available in catalog", kind))
		}
		return nil
	}

	s := &Snapshot{
		Teachers:          make(map[string]models.Teacher),
		Rooms:             make(map[string]models.Room),
		Courses:           make(map[string]*models.Course),
		Students:          make(map[string]models.Student),
		CertsByTeacher:    make(map[string]map[string]struct{}),
		TeachersBySubject: make(map[string][]string),
		StudentsByCourse:  make(map[string][]string),
		CoursesByStudent:  make(map[string][]string),
		RoomAssignments:   make(map[string][]models.CourseRoomAssignment),
		RoomPrefs:         make(map[string]*models.RoomPreference),
		PreferredPeriods:  make(map[string]map[int]struct{}),
		ChoiceRanks:       make(map[string]map[string]int),
	}

	for _, t := range in.Teachers {
		if !t.Active {
			continue
		}
		s.Teachers[t.ID] = t
		s.TeacherIDs = append(s.TeacherIDs, t.ID)
		if len(t.RoomPrefsJSON) > 0 {
			var pref models.RoomPreference
			if err := json.Unmarshal(t.RoomPrefsJSON, &pref); err == nil {
				s.RoomPrefs[t.ID] = &pref
			}
		}
	}
	if err := active("teachers", len(s.TeacherIDs)); err != nil {
		return nil, err
	}

	for _, r := range in.Rooms {
		if !r.Active {
			continue
		}
		s.Rooms[r.ID] = r
		s.RoomIDs = append(s.RoomIDs, r.ID)
	}
	if err := active("rooms", len(s.RoomIDs)); err != nil {
		return nil, err
	}

	for i := range in.Courses {
		c := in.Courses[i]
		if !c.Active {
			continue
		}
		if c.MeetingsPerWeek <= 0 {
			c.MeetingsPerWeek = 1
		}
		s.Courses[c.ID] = &c
		s.CourseIDs = append(s.CourseIDs, c.ID)
	}
	if err := active("courses", len(s.CourseIDs)); err != nil {
		return nil, err
	}

	for _, st := range in.Students {
		if !st.Active {
			continue
		}
		s.Students[st.ID] = st
		s.StudentIDs = append(s.StudentIDs, st.ID)
	}
	if err := active("students", len(s.StudentIDs)); err != nil {
		return nil, err
	}

	for _, cert := range in.Certifications {
		if _, ok := s.Teachers[cert.TeacherID]; !ok {
			continue
		}
		if s.CertsByTeacher[cert.TeacherID] == nil {
			s.CertsByTeacher[cert.TeacherID] = make(map[string]struct{})
		}
		if _, dup := s.CertsByTeacher[cert.TeacherID][cert.Subject]; dup {
			continue
		}
		s.CertsByTeacher[cert.TeacherID][cert.Subject] = struct{}{}
		s.TeachersBySubject[cert.Subject] = append(s.TeachersBySubject[cert.Subject], cert.TeacherID)
	}
	for subject := range s.TeachersBySubject {
		sort.Strings(s.TeachersBySubject[subject])
	}

	for _, e := range in.Enrollments {
		if _, ok := s.Students[e.StudentID]; !ok {
			continue
		}
		if _, ok := s.Courses[e.CourseID]; !ok {
			continue
		}
		s.StudentsByCourse[e.CourseID] = append(s.StudentsByCourse[e.CourseID], e.StudentID)
		s.CoursesByStudent[e.StudentID] = append(s.CoursesByStudent[e.StudentID], e.CourseID)
		if s.ChoiceRanks[e.StudentID] == nil {
			s.ChoiceRanks[e.StudentID] = make(map[string]int)
		}
		rank := e.ChoiceRank
		if rank <= 0 {
			rank = 1
		}
		s.ChoiceRanks[e.StudentID][e.CourseID] = rank
	}
	// Students loaded with inline course lists (catalog providers that skip
	// the enrollment join) are folded in as well.
	for _, st := range in.Students {
		for _, courseID := range st.CourseIDs {
			if _, ok := s.Courses[courseID]; !ok {
				continue
			}
			if containsString(s.StudentsByCourse[courseID], st.ID) {
				continue
			}
			s.StudentsByCourse[courseID] = append(s.StudentsByCourse[courseID], st.ID)
			s.CoursesByStudent[st.ID] = append(s.CoursesByStudent[st.ID], courseID)
		}
	}

	for _, a := range in.RoomAssignments {
		if _, ok := s.Courses[a.CourseID]; !ok {
			continue
		}
		s.RoomAssignments[a.CourseID] = append(s.RoomAssignments[a.CourseID], a)
	}
	// usesMultipleRooms is re-derived from active assignments, never trusted
	// from the stored flag.
	for id, course := range s.Courses {
		activeCount := 0
		for _, a := range s.RoomAssignments[id] {
			if a.Active {
				activeCount++
			}
		}
		course.UsesMultipleRooms = activeCount >= 2
	}

	for teacherID, periods := range in.PreferredPeriods {
		if _, ok := s.Teachers[teacherID]; !ok {
			continue
		}
		set := make(map[int]struct{}, len(periods))
		for _, p := range periods {
			set[p] = struct{}{}
		}
		s.PreferredPeriods[teacherID] = set
	}

	sort.Strings(s.TeacherIDs)
	sort.Strings(s.RoomIDs)
	sort.Strings(s.CourseIDs)
	sort.Strings(s.StudentIDs)

	s.Workload = NewWorkloadIndex(s)
	return s, nil
}

// Certified reports whether the teacher holds a certification for the subject.
func (s *Snapshot) Certified(teacherID, subject string) bool {
	subjects, ok := s.CertsByTeacher[teacherID]
	if !ok {
		return false
	}
	_, ok = subjects[subject]
	return ok
}

// ChoiceRank returns which registration choice the enrollment satisfied,
// defaulting to first choice when the catalog does not track it.
func (s *Snapshot) ChoiceRank(studentID, courseID string) int {
	if rank, ok := s.ChoiceRanks[studentID][courseID]; ok {
		return rank
	}
	return 1
}

// EnrolledStudents returns the student ids enrolled in the course.
func (s *Snapshot) EnrolledStudents(courseID string) []string {
	return s.StudentsByCourse[courseID]
}

// ActiveRoomAssignments filters the course's room assignments to active ones.
func (s *Snapshot) ActiveRoomAssignments(courseID string) []models.CourseRoomAssignment {
	var out []models.CourseRoomAssignment
	for _, a := range s.RoomAssignments[courseID] {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
