package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/accounts"
	"github.com/battleslot/arena/internal/repos/sessions"
	"github.com/battleslot/arena/internal/services/booking"
	"github.com/battleslot/arena/internal/services/lobby"
	"github.com/battleslot/arena/internal/services/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unmapped is an internal error and gets logged without leaking detail.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, sessions.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, sessions.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "no slots available")
	case errors.Is(err, accounts.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient wallet balance")
	case errors.Is(err, accounts.ErrAccountInactive):
		writeError(w, http.StatusConflict, "account deactivated")
	case errors.Is(err, accounts.ErrAccountExists):
		writeError(w, http.StatusConflict, "account already exists")
	case errors.Is(err, sessions.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, booking.ErrTransactionAborted):
		writeError(w, http.StatusServiceUnavailable, "booking aborted, retry with the same idempotency key")
	case errors.Is(err, booking.ErrMissingIdempotencyKey):
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
	case errors.Is(err, lobby.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseIDFromPath reads a UUID path parameter from chi routes like
// GET /accounts/{accountId}/balance.
func parseIDFromPath(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s", param)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", param, err)
	}

	return id, nil
}

// money renders minor currency units as a 2-decimal string.
func money(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100.0)
}
