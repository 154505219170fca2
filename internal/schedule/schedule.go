package schedule

import (
	"time"

	"github.com/fennwick/hearth/internal/model"
)

// NextDueDate returns the next due date for a chore of the given frequency,
// starting from its current due date. For FrequencyOnce the input is
// returned unchanged; the caller is expected to delete the chore instead of
// rescheduling it. For recurring frequencies the date is advanced one
// period at a time until its calendar day lands strictly after today, so a
// chore overdue for several periods skips past all of them in one call.
func NextDueDate(freq model.Frequency, from, today time.Time) time.Time {
	if freq == model.FrequencyOnce {
		return from
	}

	cutoff := StartOfDay(today)
	candidate := from
	for !StartOfDay(candidate).After(cutoff) {
		next := advance(freq, candidate)
		if next.Equal(candidate) {
			// Calendar edge case: the step made no progress. Return the
			// last good value instead of looping forever.
			return candidate
		}
		candidate = next
	}
	return candidate
}

// IsOverdue reports whether the chore's due date falls on a calendar day
// strictly before today. Paused chores are never overdue.
func IsOverdue(chore model.Chore, today time.Time) bool {
	if chore.Paused {
		return false
	}
	return StartOfDay(chore.DueDate).Before(StartOfDay(today))
}

// StartOfDay truncates t to its calendar day boundary.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func advance(freq model.Frequency, t time.Time) time.Time {
	switch freq {
	case model.FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case model.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t
}
