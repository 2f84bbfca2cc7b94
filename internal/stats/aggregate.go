// Package stats derives productivity metrics from day aggregate rows. All
// functions are pure and deterministic: they take the rows and a reference
// time, do arithmetic, and never touch the store.
package stats

import (
	"sort"
	"time"

	"daily-charge/internal/model"
)

// window is how many past days feed the rolling averages.
const window = 7

// DayOf normalizes a time to the calendar-day string used for comparisons.
func DayOf(t time.Time) string {
	return t.Format(model.DateLayout)
}

// PastDays filters to rows strictly before ref's calendar day, sorted most
// recent first. "Today" never contributes to a statistic: its counts are
// still in flux.
func PastDays(days []model.Day, ref time.Time) []model.Day {
	today := DayOf(ref)
	past := make([]model.Day, 0, len(days))
	for _, d := range days {
		if d.Date < today {
			past = append(past, d)
		}
	}
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].Date > past[j].Date
	})
	return past
}

// CompletionRate averages done/total as a percentage over the most recent
// seven past days that had at least one task. Days with Total == 0 are
// skipped rather than counted as zero. Returns 0 when no day qualifies.
func CompletionRate(days []model.Day, ref time.Time) float64 {
	var sum float64
	n := 0
	for _, d := range PastDays(days, ref) {
		if d.Total == 0 {
			continue
		}
		sum += float64(d.DoneCount) / float64(d.Total) * 100
		n++
		if n == window {
			break
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Charge averages the task count over the most recent seven past days.
// Unlike CompletionRate it does not skip zero-total rows; any such row would
// pull the average down. Returns 0 when there are no past days.
func Charge(days []model.Day, ref time.Time) float64 {
	past := PastDays(days, ref)
	if len(past) > window {
		past = past[:window]
	}
	if len(past) == 0 {
		return 0
	}
	var sum float64
	for _, d := range past {
		sum += float64(d.Total)
	}
	return sum / float64(len(past))
}

// Streak counts consecutive fully-completed days walking backwards from the
// day before ref. A calendar day with no row breaks the streak the same way
// an incomplete day does, so the walk follows a date cursor rather than the
// rows themselves.
func Streak(days []model.Day, ref time.Time) int {
	byDate := make(map[string]model.Day, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	cursor := ref.AddDate(0, 0, -1)
	count := 0
	for {
		d, ok := byDate[DayOf(cursor)]
		if !ok || d.Total == 0 || d.DoneCount < d.Total {
			break
		}
		count++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return count
}

// Summary bundles every derived metric for one user at one point in time.
type Summary struct {
	CompletionRate float64 `json:"completionRate"`
	Charge         float64 `json:"charge"`
	Streak         int     `json:"streak"`
	Status         string  `json:"status"`
}

// Summarize computes all metrics from the same set of rows.
func Summarize(days []model.Day, ref time.Time) Summary {
	completion := CompletionRate(days, ref)
	charge := Charge(days, ref)
	return Summary{
		CompletionRate: completion,
		Charge:         charge,
		Streak:         Streak(days, ref),
		Status:         Status(completion, charge),
	}
}
