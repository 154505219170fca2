package schedule

import (
	"testing"
	"time"

	"github.com/fennwick/hearth/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDateOnce(t *testing.T) {
	from := date(2026, 3, 1)
	today := date(2026, 3, 10)

	got := NextDueDate(model.FrequencyOnce, from, today)
	if !got.Equal(from) {
		t.Errorf("next = %v, want input unchanged %v", got, from)
	}
}

func TestNextDueDateDaily(t *testing.T) {
	from := date(2026, 3, 10)
	today := date(2026, 3, 10)

	got := NextDueDate(model.FrequencyDaily, from, today)
	want := date(2026, 3, 11)
	if !got.Equal(want) {
		t.Errorf("next = %v, want %v", got, want)
	}
}

func TestNextDueDateWeeklySkipsMissedPeriods(t *testing.T) {
	// Due two weeks ago: the missed occurrence one week ago is skipped too.
	today := date(2026, 3, 15)
	from := date(2026, 3, 1)

	got := NextDueDate(model.FrequencyWeekly, from, today)
	want := date(2026, 3, 22)
	if !got.Equal(want) {
		t.Errorf("next = %v, want %v", got, want)
	}
}

func TestNextDueDateMonthly(t *testing.T) {
	from := date(2026, 1, 31)
	today := date(2026, 2, 10)

	got := NextDueDate(model.FrequencyMonthly, from, today)
	if !StartOfDay(got).After(StartOfDay(today)) {
		t.Errorf("next = %v, want a day strictly after %v", got, today)
	}
}

func TestNextDueDateAlwaysAfterToday(t *testing.T) {
	today := date(2026, 6, 17)
	freqs := []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly}
	starts := []time.Time{
		date(2025, 1, 1),
		date(2026, 6, 16),
		date(2026, 6, 17),
	}

	for _, f := range freqs {
		for _, from := range starts {
			got := NextDueDate(f, from, today)
			if !StartOfDay(got).After(StartOfDay(today)) {
				t.Errorf("NextDueDate(%s, %v) = %v, not after today", f, from, got)
			}
		}
	}
}

func TestNextDueDatePreservesTimeOfDay(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)

	got := NextDueDate(model.FrequencyDaily, from, today)
	want := date(2026, 3, 6)
	if !got.Equal(want) {
		t.Errorf("next = %v, want %v", got, want)
	}
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		chore model.Chore
		want  bool
	}{
		{"due yesterday", model.Chore{DueDate: date(2026, 3, 9)}, true},
		{"due today", model.Chore{DueDate: date(2026, 3, 10)}, false},
		{"due tomorrow", model.Chore{DueDate: date(2026, 3, 11)}, false},
		{"paused", model.Chore{DueDate: date(2026, 3, 1), Paused: true}, false},
		{"long overdue", model.Chore{DueDate: date(2026, 1, 1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.chore, today); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}
