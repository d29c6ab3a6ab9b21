package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/north/internal/contract"
	"github.com/dukerupert/north/internal/engine"
	"github.com/dukerupert/north/internal/focus"
	"github.com/dukerupert/north/internal/reward"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// writeEngineError maps engine errors onto HTTP statuses. Validation errors
// are 400, rule violations 409 and anything else is logged and returned as 500.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, contract.ErrPromiseRequired),
		errors.Is(err, contract.ErrDeadlineRequired),
		errors.Is(err, contract.ErrProofRequired),
		errors.Is(err, focus.ErrInvalidMinutes),
		errors.Is(err, engine.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contract.ErrInvalidTransition),
		errors.Is(err, reward.ErrCompanionLocked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}
