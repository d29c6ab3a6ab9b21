// Package reward implements the XP ledger: level and heart accrual,
// companion unlocks, and collectible drops.
package reward

import (
	"errors"
	"slices"

	"github.com/dukerupert/north/internal/model"
)

var ErrCompanionLocked = errors.New("companion not unlocked")

// XP amounts per triggering event.
const (
	JournalXP  = 8
	ActionXP   = 18
	ContractXP = 24
	ProofXP    = 40

	minFocusXP = 10
	xpPerHeart = 8
)

// FocusXP is the award for a completed focus session of the given length.
func FocusXP(minutes int) int {
	return max(minFocusXP, minutes*9/10)
}

// LevelFor returns the level reached at xp.
func LevelFor(xp int) int {
	return model.LevelForXP(xp)
}

// Award adds amount XP to state and returns the result. Negative amounts are
// ignored so xp, level, hearts and the unlocked set never shrink.
func Award(state model.RewardState, amount int) model.RewardState {
	if amount < 0 {
		amount = 0
	}

	next := state
	next.UnlockedCompanions = slices.Clone(state.UnlockedCompanions)
	next.XP = state.XP + amount
	next.Level = LevelFor(next.XP)
	next.Hearts = state.Hearts + max(1, amount/xpPerHeart)
	next.UnlockCompanions()
	return next
}

// SelectCompanion sets the current companion. Only unlocked companions may
// be selected.
func SelectCompanion(state model.RewardState, name string) (model.RewardState, error) {
	if !state.HasCompanion(name) {
		return state, ErrCompanionLocked
	}
	state.CurrentCompanion = name
	return state, nil
}
