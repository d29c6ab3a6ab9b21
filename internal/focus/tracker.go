// Package focus records focus-session outcomes against the workshop game
// counters.
package focus

import (
	"errors"
	"time"

	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/reward"
)

var ErrInvalidMinutes = errors.New("planned minutes must be positive")

const minutesPerStar = 10

// Result is the outcome of one recorded session. XP is zero for
// interrupted sessions.
type Result struct {
	State model.FocusGameState `json:"focus"`
	XP    int                  `json:"xp_awarded"`
}

// WorkshopLevel derives the workshop tier from stars built.
func WorkshopLevel(stars int) int {
	return model.WorkshopLevelFor(stars)
}

// RecordSession applies a finished or interrupted session to state. The
// caller awards Result.XP through the reward ledger.
func RecordSession(state model.FocusGameState, minutes int, completed bool, now time.Time) (Result, error) {
	if minutes <= 0 {
		return Result{State: state}, ErrInvalidMinutes
	}

	var xp int
	if completed {
		state.TotalFocusedMinutes += minutes
		state.StarsBuilt += max(1, minutes/minutesPerStar)
		state.SuccessfulSessions++
		state.CurrentFocusStreak++
		xp = reward.FocusXP(minutes)
	} else {
		state.FailedSessions++
		state.CurrentFocusStreak = 0
	}

	state.LongestFocusStreak = max(state.LongestFocusStreak, state.CurrentFocusStreak)
	state.WorkshopLevel = WorkshopLevel(state.StarsBuilt)
	at := now
	state.LastSessionAt = &at

	return Result{State: state, XP: xp}, nil
}
