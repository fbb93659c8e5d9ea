package api

import (
	"net/http"
	"strings"

	"github.com/battleslot/arena/internal/repos/sessions"
	"github.com/battleslot/arena/internal/services/lobby"
)

type createSessionRequest struct {
	Title    string            `json:"title"`
	EntryFee string            `json:"entryFee"`
	MaxSlots int               `json:"maxSlots"`
	Prizes   map[string]string `json:"prizes"`
}

// CreateSessionHandler handles POST /sessions
func (h *HandlerProvider) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest

	if !decodeBody(w, r, &req) {
		return
	}

	fee, err := parseAmountMinor(req.EntryFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entryFee: "+err.Error())
		return
	}

	prizeTable := make(sessions.PrizeTable, len(req.Prizes))

	for label, raw := range req.Prizes {
		amount, perr := parseAmountMinor(raw)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid prize for "+label+": "+perr.Error())
			return
		}

		prizeTable[label] = amount
	}

	sess, err := h.lobby.Create(r.Context(), lobby.CreateParams{
		Title:         req.Title,
		EntryFeeMinor: fee,
		MaxSlots:      req.MaxSlots,
		PrizeTable:    prizeTable,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse(sess))
}

// ListSessionsHandler handles GET /sessions (open sessions only, matching
// the public lobby view).
func (h *HandlerProvider) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	open, err := h.lobby.ListOpen(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(open))
	for _, s := range open {
		out = append(out, sessionResponse(s))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetSessionHandler handles GET /sessions/{sessionId}
func (h *HandlerProvider) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sessionId in path")
		return
	}

	sess, err := h.lobby.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

type advanceSessionRequest struct {
	Status string `json:"status"`
}

// AdvanceSessionHandler handles POST /sessions/{sessionId}/advance
func (h *HandlerProvider) AdvanceSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sessionId in path")
		return
	}

	var req advanceSessionRequest

	if !decodeBody(w, r, &req) {
		return
	}

	target := sessions.Status(strings.TrimSpace(req.Status))

	sess, err := h.lobby.Advance(r.Context(), id, target)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func sessionResponse(s sessions.Session) map[string]any {
	prizes := make(map[string]string, len(s.PrizeTable))
	for label, amount := range s.PrizeTable {
		prizes[label] = money(amount)
	}

	return map[string]any{
		"id":          s.ID,
		"title":       s.Title,
		"entryFee":    money(s.EntryFeeMinor),
		"maxSlots":    s.MaxSlots,
		"filledSlots": s.FilledSlots,
		"status":      s.Status,
		"prizes":      prizes,
		"createdAt":   s.CreatedAt,
	}
}
