package models

import (
	"fmt"
	"time"
)

// SchoolDayConfig describes the daily bell schedule used to derive slots.
// Times are minutes since midnight.
type SchoolDayConfig struct {
	FirstPeriodStart      int            `json:"first_period_start" validate:"gte=0,lt=1440"`
	PeriodDuration        int            `json:"period_duration" validate:"gt=0"`
	PassingPeriodDuration int            `json:"passing_period_duration" validate:"gte=0"`
	SchoolEnd             int            `json:"school_end" validate:"gt=0,lte=1440"`
	LunchEnabled          bool           `json:"lunch_enabled"`
	LunchStart            int            `json:"lunch_start"`
	LunchDuration         int            `json:"lunch_duration"`
	SchoolDays            []time.Weekday `json:"school_days"`
}

// TimeSlot is one schedulable period on one weekday. Immutable once
// generated; identity is (Day, Period).
type TimeSlot struct {
	Day         time.Weekday `json:"day"`
	StartMinute int          `json:"start_minute"`
	EndMinute   int          `json:"end_minute"`
	Period      int          `json:"period"`
	Lunch       bool         `json:"lunch"`
}

// Key returns the identity of the slot.
func (t TimeSlot) Key() string {
	return fmt.Sprintf("%d:%d", int(t.Day), t.Period)
}

// Overlaps reports whether two slots share wall-clock time on the same day.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartMinute < other.EndMinute && other.StartMinute < t.EndMinute
}

// Label renders the slot for reports, e.g. "Monday P3 08:50-09:40".
func (t TimeSlot) Label() string {
	return fmt.Sprintf("%s P%d %02d:%02d-%02d:%02d",
		t.Day, t.Period,
		t.StartMinute/60, t.StartMinute%60,
		t.EndMinute/60, t.EndMinute%60)
}
