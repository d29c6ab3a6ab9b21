// Package streak derives journaling streaks and weekly progress from entry
// timestamps. Results depend on now and are recomputed on every call.
package streak

import (
	"sort"
	"time"
)

// WeeklyGoal is the number of distinct journaling days targeted per week.
const WeeklyGoal = 5

type Streak struct {
	Current       int  `json:"current"`
	Longest       int  `json:"longest"`
	HasEntryToday bool `json:"has_entry_today"`
}

type WeeklyProgress struct {
	EntriesThisWeek int     `json:"entries_this_week"`
	Goal            int     `json:"goal"`
	Progress        float64 `json:"progress"`
}

// Compute returns the current and longest streak. Day boundaries are local
// midnight in now's location. Entries dated after today count as today.
func Compute(entries []time.Time, now time.Time) Streak {
	today := startOfDay(now)
	days := uniqueDays(entries, today)
	if len(days) == 0 {
		return Streak{}
	}

	s := Streak{
		Longest:       longestRun(days),
		HasEntryToday: days[0].Equal(today),
	}

	mostRecent := days[0]
	if !mostRecent.Equal(today) && !mostRecent.Equal(addDays(today, -1)) {
		return s
	}

	check := mostRecent
	for _, d := range days {
		if !d.Equal(check) {
			break
		}
		s.Current++
		check = addDays(check, -1)
	}
	return s
}

// Weekly counts distinct entry days since Monday of now's week.
func Weekly(entries []time.Time, now time.Time) WeeklyProgress {
	today := startOfDay(now)
	weekStart := addDays(today, -daysSinceMonday(today))

	count := 0
	for _, d := range uniqueDays(entries, today) {
		if d.Before(weekStart) {
			break
		}
		count++
	}

	progress := float64(count) / WeeklyGoal
	if progress > 1 {
		progress = 1
	}
	return WeeklyProgress{EntriesThisWeek: count, Goal: WeeklyGoal, Progress: progress}
}

// uniqueDays collapses entries to distinct calendar days, newest first.
func uniqueDays(entries []time.Time, today time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(entries))
	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d := startOfDay(e.In(today.Location()))
		if d.After(today) {
			d = today
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

func longestRun(days []time.Time) int {
	longest, run := 0, 0
	var expect time.Time
	for i, d := range days {
		if i > 0 && d.Equal(expect) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		expect = addDays(d, -1)
	}
	return longest
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// addDays steps whole calendar days so DST shifts don't skew the boundary.
func addDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
