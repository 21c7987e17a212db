package slots

import (
	"fmt"
	"time"
)

// Slot is one bookable half-hour window within a business day. Slots are
// derived from the calendar, never persisted.
type Slot struct {
	Label string `json:"label"` // 12-hour display form, e.g. "8:00 AM"
	Value string `json:"value"` // 24-hour start time, e.g. "08:00"
}

const (
	openHour = 8
	stepMin  = 30
)

// Generate returns the ordered bookable slots for the given calendar date.
// Sundays are closed and yield no slots. Saturdays run 08:00-13:30, every
// other day 08:00-19:30, one slot every 30 minutes inclusive of both
// endpoints. The time component of date is ignored. A zero date yields no
// slots. Generate is pure: the same date always produces the same sequence.
func Generate(date time.Time) []Slot {
	if date.IsZero() {
		return nil
	}

	var closeHour, closeMin int
	switch date.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		closeHour, closeMin = 13, 30
	default:
		closeHour, closeMin = 19, 30
	}

	var out []Slot
	for h, m := openHour, 0; h < closeHour || (h == closeHour && m <= closeMin); {
		out = append(out, Slot{
			Label: label(h, m),
			Value: fmt.Sprintf("%02d:%02d", h, m),
		})
		m += stepMin
		if m >= 60 {
			m -= 60
			h++
		}
	}
	return out
}

// Contains reports whether value is one of the generated slot start times.
func Contains(slots []Slot, value string) bool {
	for _, s := range slots {
		if s.Value == value {
			return true
		}
	}
	return false
}

// ValidStart reports whether the instant, viewed in its own location, lands
// exactly on a bookable slot start for its calendar day.
func ValidStart(t time.Time) bool {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	return Contains(Generate(t), fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()))
}

func label(h, m int) string {
	suffix := "AM"
	display := h
	switch {
	case h == 12:
		suffix = "PM"
	case h > 12:
		suffix = "PM"
		display = h - 12
	case h == 0:
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m, suffix)
}
