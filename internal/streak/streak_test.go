package streak

import (
	"testing"
	"time"
)

// Thursday.
var now = time.Date(2026, 2, 5, 15, 30, 0, 0, time.UTC)

func daysAgo(n int, hour int) time.Time {
	return time.Date(2026, 2, 5-n, hour, 0, 0, 0, time.UTC)
}

func TestCurrentStreakConsecutive(t *testing.T) {
	entries := []time.Time{daysAgo(0, 9), daysAgo(1, 9), daysAgo(2, 9)}
	s := Compute(entries, now)
	if s.Current != 3 {
		t.Errorf("current = %d, want 3", s.Current)
	}
	if !s.HasEntryToday {
		t.Error("expected has_entry_today")
	}
}

func TestCurrentStreakGap(t *testing.T) {
	entries := []time.Time{daysAgo(0, 9), daysAgo(2, 9)}
	s := Compute(entries, now)
	if s.Current != 1 {
		t.Errorf("current = %d, want 1", s.Current)
	}
	if s.Longest != 1 {
		t.Errorf("longest = %d, want 1", s.Longest)
	}
}

func TestCurrentStreakFromYesterday(t *testing.T) {
	entries := []time.Time{daysAgo(1, 22), daysAgo(2, 7)}
	s := Compute(entries, now)
	if s.Current != 2 {
		t.Errorf("current = %d, want 2", s.Current)
	}
	if s.HasEntryToday {
		t.Error("did not expect has_entry_today")
	}
}

func TestBrokenStreakStillReportsLongest(t *testing.T) {
	entries := []time.Time{daysAgo(5, 9), daysAgo(6, 9), daysAgo(7, 9), daysAgo(10, 9)}
	s := Compute(entries, now)
	if s.Current != 0 {
		t.Errorf("current = %d, want 0", s.Current)
	}
	if s.Longest != 3 {
		t.Errorf("longest = %d, want 3", s.Longest)
	}
}

func TestDuplicateSameDayEntriesCollapse(t *testing.T) {
	entries := []time.Time{daysAgo(0, 1), daysAgo(0, 12), daysAgo(0, 23), daysAgo(1, 8), daysAgo(1, 9)}
	s := Compute(entries, now)
	if s.Current != 2 {
		t.Errorf("current = %d, want 2", s.Current)
	}
	if s.Longest != 2 {
		t.Errorf("longest = %d, want 2", s.Longest)
	}
}

func TestLongestAcrossHistory(t *testing.T) {
	var entries []time.Time
	// Five-day run two weeks ago, two-day run ending today.
	for i := 14; i < 19; i++ {
		entries = append(entries, daysAgo(i, 10))
	}
	entries = append(entries, daysAgo(0, 10), daysAgo(1, 10))

	s := Compute(entries, now)
	if s.Current != 2 {
		t.Errorf("current = %d, want 2", s.Current)
	}
	if s.Longest != 5 {
		t.Errorf("longest = %d, want 5", s.Longest)
	}
}

func TestFutureEntryCountsAsToday(t *testing.T) {
	entries := []time.Time{now.Add(36 * time.Hour), daysAgo(1, 9)}
	s := Compute(entries, now)
	if s.Current != 2 {
		t.Errorf("current = %d, want 2", s.Current)
	}
	if !s.HasEntryToday {
		t.Error("expected future entry to count as today")
	}
}

func TestNoEntries(t *testing.T) {
	s := Compute(nil, now)
	if s.Current != 0 || s.Longest != 0 || s.HasEntryToday {
		t.Errorf("streak = %+v, want zero", s)
	}
	w := Weekly(nil, now)
	if w.EntriesThisWeek != 0 || w.Goal != WeeklyGoal || w.Progress != 0 {
		t.Errorf("weekly = %+v", w)
	}
}

func TestLocalMidnightBoundary(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	localNow := time.Date(2026, 2, 5, 10, 0, 0, 0, loc)
	// 03:00 UTC on Feb 5 is still Feb 4 at 22:00 local.
	entries := []time.Time{time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)}

	s := Compute(entries, localNow)
	if s.HasEntryToday {
		t.Error("entry should fall on the previous local day")
	}
	if s.Current != 1 {
		t.Errorf("current = %d, want 1", s.Current)
	}
}

func TestWeeklyStartsMonday(t *testing.T) {
	// Monday Feb 2 through Thursday Feb 5, plus Sunday Feb 1 which is last week.
	entries := []time.Time{daysAgo(0, 9), daysAgo(0, 18), daysAgo(2, 9), daysAgo(3, 9), daysAgo(4, 9)}
	w := Weekly(entries, now)
	if w.EntriesThisWeek != 3 {
		t.Errorf("entries_this_week = %d, want 3", w.EntriesThisWeek)
	}
	if w.Progress != 0.6 {
		t.Errorf("progress = %v, want 0.6", w.Progress)
	}
}

func TestWeeklyProgressCapped(t *testing.T) {
	sunday := time.Date(2026, 2, 8, 20, 0, 0, 0, time.UTC)
	var entries []time.Time
	for d := 2; d <= 8; d++ {
		entries = append(entries, time.Date(2026, 2, d, 9, 0, 0, 0, time.UTC))
	}
	w := Weekly(entries, sunday)
	if w.EntriesThisWeek != 7 {
		t.Errorf("entries_this_week = %d, want 7", w.EntriesThisWeek)
	}
	if w.Progress != 1 {
		t.Errorf("progress = %v, want 1", w.Progress)
	}
}
