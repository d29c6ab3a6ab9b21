package model

import "time"

type FocusGameState struct {
	MascotName          string     `json:"mascot_name"`
	WorldName           string     `json:"world_name"`
	StarsBuilt          int        `json:"stars_built"`
	WorkshopLevel       int        `json:"workshop_level"`
	SuccessfulSessions  int        `json:"successful_sessions"`
	FailedSessions      int        `json:"failed_sessions"`
	CurrentFocusStreak  int        `json:"current_focus_streak"`
	LongestFocusStreak  int        `json:"longest_focus_streak"`
	TotalFocusedMinutes int        `json:"total_focused_minutes"`
	LastSessionAt       *time.Time `json:"last_session_at,omitempty"`
}

const StarsPerWorkshopLevel = 8

// WorkshopLevelFor derives the workshop tier from stars built.
func WorkshopLevelFor(stars int) int {
	return max(1, stars/StarsPerWorkshopLevel+1)
}

func DefaultFocusGameState() FocusGameState {
	return FocusGameState{
		MascotName:    "Nova",
		WorldName:     "North Star Workshop",
		WorkshopLevel: 1,
	}
}
