package model

import "time"

const (
	StarterCompanion = "Sprout"

	XPPerLevel = 120
)

type companionUnlock struct {
	level     int
	companion string
}

// Cumulative: every tier at or below the current level is unlocked.
var companionUnlocks = []companionUnlock{
	{2, "Bunny"},
	{4, "Fox"},
	{6, "Star Bear"},
}

// LevelForXP returns the level reached at xp.
func LevelForXP(xp int) int {
	return max(1, xp/XPPerLevel+1)
}

type RewardState struct {
	XP                 int      `json:"xp"`
	Level              int      `json:"level"`
	Hearts             int      `json:"hearts"`
	UnlockedCompanions []string `json:"unlocked_companions"`
	CurrentCompanion   string   `json:"current_companion"`
}

func DefaultRewardState() RewardState {
	return RewardState{
		Level:              1,
		UnlockedCompanions: []string{StarterCompanion},
		CurrentCompanion:   StarterCompanion,
	}
}

// UnlockCompanions appends every companion earned at the current level that
// is not yet in the unlocked set. The slice is extended in place.
func (r *RewardState) UnlockCompanions() {
	for _, u := range companionUnlocks {
		if r.Level >= u.level && !r.HasCompanion(u.companion) {
			r.UnlockedCompanions = append(r.UnlockedCompanions, u.companion)
		}
	}
}

// HasCompanion reports whether name has been unlocked.
func (r RewardState) HasCompanion(name string) bool {
	for _, c := range r.UnlockedCompanions {
		if c == name {
			return true
		}
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

type Collectible struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji"`
	Rarity     Rarity    `json:"rarity"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
