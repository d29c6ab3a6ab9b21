package contract

import (
	"time"

	"github.com/dukerupert/north/internal/model"
)

type Mood string

const (
	MoodCalm   Mood = "calm"
	MoodActive Mood = "active"
	MoodPanic  Mood = "panic"

	activeMoodWindow = 6 * time.Hour
	keepsPerLevel    = 3
)

// Summary is the header view over all contracts.
type Summary struct {
	Mood            Mood       `json:"mood"`
	Level           int        `json:"level"`
	Progress        float64    `json:"progress"`
	Completed       int        `json:"completed"`
	AwaitingProof   int        `json:"awaiting_proof"`
	NearestDeadline *time.Time `json:"nearest_deadline,omitempty"`
}

// Summarize derives the mascot mood and keep-level from the contract list.
func Summarize(contracts []model.Contract, now time.Time) Summary {
	var s Summary
	for _, c := range contracts {
		switch c.Status {
		case model.ContractCompleted:
			s.Completed++
		case model.ContractAwaitingProof:
			s.AwaitingProof++
		}
		if c.Status == model.ContractActive || c.Status == model.ContractAwaitingProof {
			if s.NearestDeadline == nil || c.DeadlineAt.Before(*s.NearestDeadline) {
				d := c.DeadlineAt
				s.NearestDeadline = &d
			}
		}
	}

	s.Level = s.Completed/keepsPerLevel + 1
	s.Progress = float64(s.Completed%keepsPerLevel) / keepsPerLevel

	switch {
	case s.AwaitingProof > 0:
		s.Mood = MoodPanic
	case s.NearestDeadline != nil && s.NearestDeadline.Sub(now) < activeMoodWindow:
		s.Mood = MoodActive
	default:
		s.Mood = MoodCalm
	}
	return s
}
