package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/services/booking"
)

type bookSlotRequest struct {
	AccountID string `json:"accountId"`
}

// BookSlotHandler handles POST /sessions/{sessionId}/book.
//
// The Idempotency-Key header is required: replaying a request with the
// same key returns the original outcome without booking twice.
func (h *HandlerProvider) BookSlotHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseIDFromPath(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sessionId in path")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey == "" {
		writeDomainError(w, booking.ErrMissingIdempotencyKey)
		return
	}

	var req bookSlotRequest

	if !decodeBody(w, r, &req) {
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId")
		return
	}

	res, err := h.booking.BookSlot(r.Context(), accountID, sessionID, idempotencyKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"position": res.Position,
		"balance":  money(res.NewBalanceMinor),
		"replayed": res.Replayed,
	})
}
