package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborview/timetable-api/internal/models"
)

func TestGenerateTimeSlotsCarvesOutLunch(t *testing.T) {
	slots, err := GenerateTimeSlots(testDayConfig())
	require.NoError(t, err)

	lunchCount := 0
	for _, s := range slots {
		if s.Lunch {
			lunchCount++
			assert.Equal(t, 11*60+30, s.StartMinute)
			assert.Equal(t, 12*60+15, s.EndMinute)
			continue
		}
		// No teaching period may straddle the lunch window.
		assert.False(t, s.StartMinute < 12*60+15 && 11*60+30 < s.EndMinute,
			"slot %s overlaps lunch", s.Label())
	}
	assert.Equal(t, 5, lunchCount, "one lunch slot per school day")
}

func TestGenerateTimeSlotsIsDeterministic(t *testing.T) {
	cfg := testDayConfig()
	a, err := GenerateTimeSlots(cfg)
	require.NoError(t, err)
	b, err := GenerateTimeSlots(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateTimeSlotsOrderingAndKeys(t *testing.T) {
	slots, err := GenerateTimeSlots(testDayConfig())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i, s := range slots {
		if i > 0 {
			prev := slots[i-1]
			ok := prev.Day < s.Day || (prev.Day == s.Day && prev.StartMinute <= s.StartMinute)
			assert.True(t, ok, "slots out of order at %d", i)
		}
		_, dup := seen[s.Key()]
		assert.False(t, dup, "duplicate slot key %s", s.Key())
		seen[s.Key()] = struct{}{}
	}
}

func TestGenerateTimeSlotsValidation(t *testing.T) {
	cfg := testDayConfig()
	cfg.PeriodDuration = 0
	_, err := GenerateTimeSlots(cfg)
	assert.Error(t, err)

	cfg = testDayConfig()
	cfg.SchoolEnd = cfg.FirstPeriodStart
	_, err = GenerateTimeSlots(cfg)
	assert.Error(t, err)
}

func TestGenerateTimeSlotsDefaultsToWeekdays(t *testing.T) {
	cfg := testDayConfig()
	cfg.SchoolDays = nil
	slots, err := GenerateTimeSlots(cfg)
	require.NoError(t, err)

	days := make(map[time.Weekday]struct{})
	for _, s := range slots {
		days[s.Day] = struct{}{}
	}
	assert.Len(t, days, 5)
	assert.NotContains(t, days, time.Saturday)
	assert.NotContains(t, days, time.Sunday)
}

func TestSlotCacheReturnsSameSequence(t *testing.T) {
	cache := NewSlotCache()
	cfg := testDayConfig()

	first, err := cache.Get(cfg)
	require.NoError(t, err)
	second, err := cache.Get(cfg)
	require.NoError(t, err)
	assert.Equal(t, &first[0], &second[0], "cache must reuse the generated slice")

	other := cfg
	other.PeriodDuration = 45
	third, err := cache.Get(other)
	require.NoError(t, err)
	assert.NotEqual(t, len(first), 0)
	assert.NotEqual(t, first, third)
}

func TestTimeSlotOverlaps(t *testing.T) {
	a := models.TimeSlot{Day: time.Monday, StartMinute: 480, EndMinute: 530}
	b := models.TimeSlot{Day: time.Monday, StartMinute: 525, EndMinute: 575}
	c := models.TimeSlot{Day: time.Tuesday, StartMinute: 480, EndMinute: 530}
	d := models.TimeSlot{Day: time.Monday, StartMinute: 530, EndMinute: 580}

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c), "different days never overlap")
	assert.False(t, a.Overlaps(d), "shared boundary minute is not an overlap")
}
