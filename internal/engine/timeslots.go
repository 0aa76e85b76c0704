package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arborview/timetable-api/internal/models"
	appErrors "github.com/arborview/timetable-api/pkg/errors"
)

// GenerateTimeSlots derives the ordered, deduplicated set of schedulable
// period slots from the school-day configuration. Pure function of the
// configuration: identical configs yield identical slot sequences.
func GenerateTimeSlots(cfg models.SchoolDayConfig) ([]models.TimeSlot, error) {
	if cfg.PeriodDuration <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period duration must be positive")
	}
	if cfg.SchoolEnd <= cfg.FirstPeriodStart {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school end must be after first period start")
	}
	days := cfg.SchoolDays
	if len(days) == 0 {
		days = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}

	lunchStart, lunchEnd := -1, -1
	if cfg.LunchEnabled && cfg.LunchDuration > 0 {
		lunchStart = cfg.LunchStart
		lunchEnd = cfg.LunchStart + cfg.LunchDuration
	}

	var slots []models.TimeSlot
	seen := make(map[string]struct{})
	for _, day := range days {
		period := 1
		start := cfg.FirstPeriodStart
		for start+cfg.PeriodDuration <= cfg.SchoolEnd {
			end := start + cfg.PeriodDuration
			// The lunch window is carved out as its own fixed slot rather
			// than a regular period.
			if lunchStart >= 0 && start < lunchEnd && lunchStart < end {
				start = lunchEnd + cfg.PassingPeriodDuration
				continue
			}
			slot := models.TimeSlot{Day: day, StartMinute: start, EndMinute: end, Period: period}
			if _, dup := seen[slot.Key()]; !dup {
				seen[slot.Key()] = struct{}{}
				slots = append(slots, slot)
			}
			period++
			start = end + cfg.PassingPeriodDuration
		}
		if lunchStart >= 0 {
			lunch := models.TimeSlot{Day: day, StartMinute: lunchStart, EndMinute: lunchEnd, Period: 0, Lunch: true}
			if _, dup := seen[lunch.Key()]; !dup {
				seen[lunch.Key()] = struct{}{}
				slots = append(slots, lunch)
			}
		}
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "configuration yields no schedulable slots")
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots, nil
}

// SlotCache memoizes slot generation per run so repeated calls with the
// same configuration reuse the derived sequence.
type SlotCache struct {
	mu    sync.Mutex
	items map[string][]models.TimeSlot
}

// NewSlotCache returns an empty cache.
func NewSlotCache() *SlotCache {
	return &SlotCache{items: make(map[string][]models.TimeSlot)}
}

// Get returns the slot sequence for the config, generating it at most once.
func (c *SlotCache) Get(cfg models.SchoolDayConfig) ([]models.TimeSlot, error) {
	key := slotCacheKey(cfg)
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.items[key]; ok {
		return cached, nil
	}
	slots, err := GenerateTimeSlots(cfg)
	if err != nil {
		return nil, err
	}
	c.items[key] = slots
	return slots, nil
}

func slotCacheKey(cfg models.SchoolDayConfig) string {
	days := make([]int, 0, len(cfg.SchoolDays))
	for _, d := range cfg.SchoolDays {
		days = append(days, int(d))
	}
	sort.Ints(days)
	return fmt.Sprintf("%d|%d|%d|%d|%t|%d|%d|%v",
		cfg.FirstPeriodStart, cfg.PeriodDuration, cfg.PassingPeriodDuration,
		cfg.SchoolEnd, cfg.LunchEnabled, cfg.LunchStart, cfg.LunchDuration, days)
}
