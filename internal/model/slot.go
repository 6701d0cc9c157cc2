package model

import (
	"fmt"
	"strings"
	"time"
)

type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
)

// AfternoonStartHour is the first local hour that belongs to the afternoon slot.
const AfternoonStartHour = 13

func (s TimeSlot) Valid() bool {
	return s == TimeSlotMorning || s == TimeSlotAfternoon
}

// ResolveSlot returns the weekday and service window of now, read in now's
// own location. It is the single source of truth for the current window.
func ResolveSlot(now time.Time) (time.Weekday, TimeSlot) {
	if now.Hour() < AfternoonStartHour {
		return now.Weekday(), TimeSlotMorning
	}
	return now.Weekday(), TimeSlotAfternoon
}

// IsClinicDay reports whether the clinic runs services on d.
func IsClinicDay(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}

// DateOf truncates t to its calendar date in t's location, returned as
// midnight UTC so that it compares equal to DATE columns.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
