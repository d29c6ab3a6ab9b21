package engine

import (
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/north/internal/focus"
	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/reward"
	"github.com/dukerupert/north/internal/streak"
)

type SessionResult struct {
	Focus     model.FocusGameState `json:"focus"`
	XPAwarded int                  `json:"xp_awarded"`
	Rewards   model.RewardState    `json:"rewards"`
}

type RewardsView struct {
	model.RewardState
	Collectibles  []model.Collectible `json:"collectibles"`
	RoomCondition model.RoomCondition `json:"room_condition"`
}

type StreakView struct {
	streak.Streak
	Weekly streak.WeeklyProgress `json:"weekly"`
}

type JournalDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

type ActionDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// RecordFocusSession applies a session outcome and awards XP for completed
// sessions.
func (e *Engine) RecordFocusSession(minutes int, completed bool) (*SessionResult, error) {
	e.mu.Lock()
	res, err := focus.RecordSession(e.state.Focus, minutes, completed, e.now())
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.state.Focus = res.State
	if res.XP > 0 {
		e.award(res.XP)
	}
	out := &SessionResult{
		Focus:     res.State,
		XPAwarded: res.XP,
		Rewards:   cloneRewards(e.state.Rewards),
	}
	e.mu.Unlock()

	e.logger.Info("focus session recorded", "minutes", minutes, "completed", completed, "xp", res.XP)
	e.commit("focus", "recorded", "")
	return out, nil
}

func (e *Engine) Focus() model.FocusGameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Focus
}

func (e *Engine) Rewards() RewardsView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RewardsView{
		RewardState:   cloneRewards(e.state.Rewards),
		Collectibles:  slices.Clone(e.state.Collectibles),
		RoomCondition: e.state.RoomCondition,
	}
}

// SelectCompanion switches the current companion to an unlocked one.
func (e *Engine) SelectCompanion(name string) (model.RewardState, error) {
	e.mu.Lock()
	next, err := reward.SelectCompanion(e.state.Rewards, name)
	if err != nil {
		e.mu.Unlock()
		return model.RewardState{}, err
	}
	e.state.Rewards = next
	out := cloneRewards(next)
	e.mu.Unlock()

	e.commit("rewards", "companion", name)
	return out, nil
}

// AddJournalEntry stores a new entry, newest first.
func (e *Engine) AddJournalEntry(d JournalDraft) (*model.JournalEntry, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	e.mu.Lock()
	entry := model.JournalEntry{
		ID:        e.newID(),
		Title:     title,
		Content:   d.Content,
		Mood:      d.Mood,
		WordCount: len(strings.Fields(d.Content)),
		CreatedAt: e.now(),
	}
	e.state.JournalEntries = slices.Insert(e.state.JournalEntries, 0, entry)
	e.award(reward.JournalXP)
	e.mu.Unlock()

	e.commit("journal", "created", entry.ID)
	return &entry, nil
}

// DeleteJournalEntry removes an entry. It reports whether the id existed.
func (e *Engine) DeleteJournalEntry(id string) bool {
	e.mu.Lock()
	n := len(e.state.JournalEntries)
	e.state.JournalEntries = slices.DeleteFunc(e.state.JournalEntries, func(j model.JournalEntry) bool {
		return j.ID == id
	})
	removed := len(e.state.JournalEntries) != n
	e.mu.Unlock()

	if removed {
		e.commit("journal", "deleted", id)
	}
	return removed
}

func (e *Engine) JournalEntries() []model.JournalEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.state.JournalEntries)
}

// Streak computes the journaling streak and weekly progress as of now.
func (e *Engine) Streak() StreakView {
	e.mu.Lock()
	entries := make([]time.Time, len(e.state.JournalEntries))
	for i, j := range e.state.JournalEntries {
		entries[i] = j.CreatedAt
	}
	e.mu.Unlock()

	now := e.localNow()
	return StreakView{
		Streak: streak.Compute(entries, now),
		Weekly: streak.Weekly(entries, now),
	}
}

func (e *Engine) AddSuggestedAction(d ActionDraft) (*model.SuggestedAction, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	e.mu.Lock()
	a := model.SuggestedAction{
		ID:          e.newID(),
		Title:       title,
		Description: d.Description,
		Category:    d.Category,
		CreatedAt:   e.now(),
	}
	e.state.SuggestedActions = append(e.state.SuggestedActions, a)
	e.mu.Unlock()

	e.commit("action", "created", a.ID)
	return &a, nil
}

// CompleteSuggestedAction marks an action done and awards XP once. Completing
// it again returns the action unchanged.
func (e *Engine) CompleteSuggestedAction(id string) (*model.SuggestedAction, error) {
	e.mu.Lock()
	idx := slices.IndexFunc(e.state.SuggestedActions, func(a model.SuggestedAction) bool {
		return a.ID == id
	})
	if idx < 0 {
		e.mu.Unlock()
		return nil, nil
	}
	a := &e.state.SuggestedActions[idx]
	if a.IsCompleted {
		out := *a
		e.mu.Unlock()
		return &out, nil
	}
	a.IsCompleted = true
	e.award(reward.ActionXP)
	out := *a
	e.mu.Unlock()

	e.commit("action", "completed", id)
	return &out, nil
}

func (e *Engine) SuggestedActions() []model.SuggestedAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.state.SuggestedActions)
}
