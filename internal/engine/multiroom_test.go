package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

func TestCalculateRoomProximity(t *testing.T) {
	base := models.Room{ID: "a", Building: "Main", Floor: 1, Zone: "East"}
	cases := []struct {
		name  string
		other models.Room
		want  int
	}{
		{"same room", base, 0},
		{"same floor and zone", models.Room{ID: "b", Building: "Main", Floor: 1, Zone: "East"}, 1},
		{"same floor different zone", models.Room{ID: "c", Building: "Main", Floor: 1, Zone: "West"}, 3},
		{"different floor and zone", models.Room{ID: "d", Building: "Main", Floor: 2, Zone: "West"}, 5},
		{"different building", models.Room{ID: "e", Building: "Annex", Floor: 1, Zone: "East"}, ProximityFar},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateRoomProximity(base, tc.other))
			assert.Equal(t, tc.want, CalculateRoomProximity(tc.other, base), "proximity must be symmetric")
		})
	}
}

func TestAreRoomsNearby(t *testing.T) {
	snap := testSnapshot(t)
	r101, r105, r210 := snap.Rooms["r-101"], snap.Rooms["r-105"], snap.Rooms["r-210"]

	assert.True(t, AreRoomsNearby([]models.Room{r101, r105}, 5))
	assert.True(t, AreRoomsNearby([]models.Room{r101, r210}, 5))
	assert.False(t, AreRoomsNearby([]models.Room{r101, r210}, 4))
	assert.False(t, AreRoomsNearby([]models.Room{r101, snap.Rooms["r-annex"]}, 10))
}

func TestAssignRoomsToCourseRequiresSinglePrimary(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)

	err := eng.AssignRoomsToCourse("bio", []models.CourseRoomAssignment{
		{ID: "a1", RoomID: "r-101", Type: models.RoomAssignmentSecondary, Pattern: models.UsageAlways, Active: true},
	})
	assert.Error(t, err, "no primary")

	err = eng.AssignRoomsToCourse("bio", []models.CourseRoomAssignment{
		{ID: "a1", RoomID: "r-101", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: true},
		{ID: "a2", RoomID: "r-105", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: true},
	})
	assert.Error(t, err, "two primaries")

	// An inactive primary does not count toward the limit.
	err = eng.AssignRoomsToCourse("bio", []models.CourseRoomAssignment{
		{ID: "a1", RoomID: "r-101", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: true},
		{ID: "a2", RoomID: "r-105", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: false},
		{ID: "a3", RoomID: "r-210", Type: models.RoomAssignmentSecondary, Pattern: models.UsageAlways, Active: true},
	})
	require.NoError(t, err)
	assert.True(t, snap.Courses["bio"].UsesMultipleRooms)

	primary, ok := eng.GetPrimaryRoom("bio")
	require.True(t, ok)
	assert.Equal(t, "r-101", primary.ID)
}

func TestAssignRoomsToCourseUnknownReferences(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)

	err := eng.AssignRoomsToCourse("missing", nil)
	assert.Error(t, err)

	err = eng.AssignRoomsToCourse("bio", []models.CourseRoomAssignment{
		{ID: "a1", RoomID: "r-ghost", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: true},
	})
	assert.Error(t, err)
}

func TestCalculateTotalCapacityCountsActiveOnly(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)

	total := eng.CalculateTotalCapacity([]models.CourseRoomAssignment{
		{RoomID: "r-101", Active: true},
		{RoomID: "r-105", Active: true},
		{RoomID: "r-210", Active: false},
	})
	assert.Equal(t, 55, total)
}

func TestGetEffectiveRoomsHonorsUsagePatterns(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)
	require.NoError(t, eng.AssignRoomsToCourse("bio", []models.CourseRoomAssignment{
		{ID: "a1", RoomID: "r-101", Type: models.RoomAssignmentPrimary, Pattern: models.UsageAlways, Active: true},
		{ID: "a2", RoomID: "r-105", Type: models.RoomAssignmentSecondary, Pattern: models.UsageOddDays, Active: true},
	}))

	odd := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	even := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

	oddRooms := eng.GetEffectiveRooms("bio", odd.Weekday(), odd)
	evenRooms := eng.GetEffectiveRooms("bio", even.Weekday(), even)
	assert.Len(t, oddRooms, 2)
	assert.Len(t, evenRooms, 1)
	assert.Equal(t, "r-101", evenRooms[0].ID)
}

func TestValidateMultiRoomAssignment(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)
	r101, r105, r210 := snap.Rooms["r-101"], snap.Rooms["r-105"], snap.Rooms["r-210"]

	v := eng.ValidateMultiRoomAssignment("bio", []models.Room{r101, r105})
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)

	// Floor change costs 5 minutes, at the default maximum: valid but noted.
	v = eng.ValidateMultiRoomAssignment("bio", []models.Room{r101, r210})
	assert.True(t, v.Valid)
	assert.NotEmpty(t, v.Warnings)

	// Different buildings exceed any distance limit.
	v = eng.ValidateMultiRoomAssignment("bio", []models.Room{r101, snap.Rooms["r-annex"]})
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Errors)
}

func TestValidateMultiRoomAssignmentCapacity(t *testing.T) {
	snap := testSnapshot(t)
	eng := NewMultiRoomEngine(snap)

	tiny := models.Room{ID: "r-closet", Number: "102", Building: "Main", Floor: 1, Zone: "East", Capacity: 1, Active: true}
	v := eng.ValidateMultiRoomAssignment("bio", []models.Room{tiny})
	assert.False(t, v.Valid, "two enrolled students cannot fit a capacity-1 room")
}

func TestUsagePatternAppliesOn(t *testing.T) {
	odd := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	even := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

	a := models.CourseRoomAssignment{Pattern: models.UsageOddDays}
	assert.True(t, a.AppliesOn(odd.Weekday(), odd))
	assert.False(t, a.AppliesOn(even.Weekday(), even))

	a.Pattern = models.UsageEvenDays
	assert.False(t, a.AppliesOn(odd.Weekday(), odd))
	assert.True(t, a.AppliesOn(even.Weekday(), even))

	a.Pattern = models.UsageSpecificDays
	a.SpecificDays = []time.Weekday{time.Monday, time.Wednesday}
	assert.True(t, a.AppliesOn(time.Monday, odd))
	assert.False(t, a.AppliesOn(time.Friday, odd))

	a.Pattern = models.UsageFirstHalf
	assert.True(t, a.AppliesOn(time.Friday, odd), "time-based patterns always apply day-wise")
}
