package focus

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/north/internal/model"
)

var now = time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

func TestRecordCompletedSessionFresh(t *testing.T) {
	res, err := RecordSession(model.DefaultFocusGameState(), 25, true, now)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	s := res.State
	if s.SuccessfulSessions != 1 {
		t.Errorf("successful = %d, want 1", s.SuccessfulSessions)
	}
	if s.CurrentFocusStreak != 1 {
		t.Errorf("current streak = %d, want 1", s.CurrentFocusStreak)
	}
	if s.TotalFocusedMinutes != 25 {
		t.Errorf("minutes = %d, want 25", s.TotalFocusedMinutes)
	}
	if s.StarsBuilt != 2 {
		t.Errorf("stars = %d, want 2", s.StarsBuilt)
	}
	if s.WorkshopLevel != 1 {
		t.Errorf("workshop level = %d, want 1", s.WorkshopLevel)
	}
	if s.LongestFocusStreak != 1 {
		t.Errorf("longest = %d, want 1", s.LongestFocusStreak)
	}
	if s.LastSessionAt == nil || !s.LastSessionAt.Equal(now) {
		t.Errorf("last session = %v, want %v", s.LastSessionAt, now)
	}
	if res.XP != 22 {
		t.Errorf("xp = %d, want 22", res.XP)
	}
}

func TestRecordInterruptedSessionResetsStreak(t *testing.T) {
	state := model.DefaultFocusGameState()
	state.CurrentFocusStreak = 3
	state.LongestFocusStreak = 3
	state.SuccessfulSessions = 3

	res, err := RecordSession(state, 25, false, now)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	s := res.State
	if s.CurrentFocusStreak != 0 {
		t.Errorf("current streak = %d, want 0", s.CurrentFocusStreak)
	}
	if s.LongestFocusStreak != 3 {
		t.Errorf("longest = %d, want 3", s.LongestFocusStreak)
	}
	if s.FailedSessions != 1 {
		t.Errorf("failed = %d, want 1", s.FailedSessions)
	}
	if s.TotalFocusedMinutes != 0 || s.StarsBuilt != 0 {
		t.Errorf("interrupted session credited output: %+v", s)
	}
	if res.XP != 0 {
		t.Errorf("xp = %d, want 0", res.XP)
	}
}

func TestShortSessionBuildsOneStar(t *testing.T) {
	res, err := RecordSession(model.DefaultFocusGameState(), 5, true, now)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if res.State.StarsBuilt != 1 {
		t.Errorf("stars = %d, want 1", res.State.StarsBuilt)
	}
	if res.XP != 10 {
		t.Errorf("xp = %d, want 10", res.XP)
	}
}

func TestWorkshopLevelRises(t *testing.T) {
	state := model.DefaultFocusGameState()
	for i := 0; i < 4; i++ {
		res, err := RecordSession(state, 20, true, now)
		if err != nil {
			t.Fatalf("RecordSession: %v", err)
		}
		state = res.State
	}
	if state.StarsBuilt != 8 {
		t.Errorf("stars = %d, want 8", state.StarsBuilt)
	}
	if state.WorkshopLevel != 2 {
		t.Errorf("workshop level = %d, want 2", state.WorkshopLevel)
	}
	if state.LongestFocusStreak != 4 {
		t.Errorf("longest = %d, want 4", state.LongestFocusStreak)
	}
}

func TestInvalidMinutes(t *testing.T) {
	state := model.DefaultFocusGameState()
	for _, m := range []int{0, -5} {
		res, err := RecordSession(state, m, true, now)
		if !errors.Is(err, ErrInvalidMinutes) {
			t.Errorf("minutes %d: err = %v, want ErrInvalidMinutes", m, err)
		}
		if res.State != state {
			t.Errorf("minutes %d: state changed", m)
		}
	}
}
