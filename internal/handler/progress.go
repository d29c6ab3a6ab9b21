package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/north/internal/engine"
)

// ProgressHandler serves focus sessions, rewards, journal entries, the
// streak and suggested actions.
type ProgressHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewProgressHandler(e *engine.Engine, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{engine: e, logger: logger}
}

type focusSessionRequest struct {
	Minutes   int  `json:"minutes"`
	Completed bool `json:"completed"`
}

type companionRequest struct {
	Name string `json:"name"`
}

// RecordSession handles POST /api/focus/sessions
func (h *ProgressHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req focusSessionRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.RecordFocusSession(req.Minutes, req.Completed)
	if err != nil {
		writeEngineError(w, h.logger, "record focus session", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Focus handles GET /api/focus
func (h *ProgressHandler) Focus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Focus())
}

// Rewards handles GET /api/rewards
func (h *ProgressHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Rewards())
}

// SelectCompanion handles PUT /api/rewards/companion
func (h *ProgressHandler) SelectCompanion(w http.ResponseWriter, r *http.Request) {
	var req companionRequest
	if !decode(w, r, &req) {
		return
	}
	state, err := h.engine.SelectCompanion(req.Name)
	if err != nil {
		writeEngineError(w, h.logger, "select companion", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ListJournal handles GET /api/journal
func (h *ProgressHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.JournalEntries())
}

// AddJournal handles POST /api/journal
func (h *ProgressHandler) AddJournal(w http.ResponseWriter, r *http.Request) {
	var req engine.JournalDraft
	if !decode(w, r, &req) {
		return
	}
	entry, err := h.engine.AddJournalEntry(req)
	if err != nil {
		writeEngineError(w, h.logger, "add journal entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DeleteJournal handles DELETE /api/journal/{id}
func (h *ProgressHandler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if !h.engine.DeleteJournalEntry(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "journal entry not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Streak handles GET /api/streak
func (h *ProgressHandler) Streak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Streak())
}

// ListActions handles GET /api/actions
func (h *ProgressHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.SuggestedActions())
}

// AddAction handles POST /api/actions
func (h *ProgressHandler) AddAction(w http.ResponseWriter, r *http.Request) {
	var req engine.ActionDraft
	if !decode(w, r, &req) {
		return
	}
	a, err := h.engine.AddSuggestedAction(req)
	if err != nil {
		writeEngineError(w, h.logger, "add suggested action", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// CompleteAction handles POST /api/actions/{id}/complete
func (h *ProgressHandler) CompleteAction(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.CompleteSuggestedAction(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, h.logger, "complete suggested action", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "suggested action not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
