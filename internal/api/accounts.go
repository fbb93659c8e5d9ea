package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/battleslot/arena/internal/repos/accounts"
)

type createAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateAccountHandler handles POST /accounts
func (h *HandlerProvider) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest

	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "username and email required")
		return
	}

	acct, err := h.wallet.CreateAccount(r.Context(), req.Username, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse(acct))
}

// GetBalanceHandler handles GET /accounts/{accountId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	acct, err := h.wallet.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": acct.ID,
		"balance":   money(acct.BalanceMinor),
		"active":    acct.Active,
	})
}

type topUpRequest struct {
	Amount string `json:"amount"`
}

// TopUpHandler handles POST /accounts/{accountId}/topup
func (h *HandlerProvider) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	var req topUpRequest

	if !decodeBody(w, r, &req) {
		return
	}

	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	newBalance, err := h.wallet.TopUp(r.Context(), id, amountMinor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId": id,
		"balance":   money(newBalance),
	})
}

// GetHistoryHandler handles GET /accounts/{accountId}/history
func (h *HandlerProvider) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	history, err := h.wallet.GetHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	walletEntries := make([]map[string]any, 0, len(history.WalletEntries))
	for _, e := range history.WalletEntries {
		walletEntries = append(walletEntries, map[string]any{
			"amount": money(e.AmountMinor),
			"kind":   e.Kind,
			"status": e.Status,
			"date":   e.CreatedAt,
		})
	}

	slotEntries := make([]map[string]any, 0, len(history.SlotEntries))
	for _, e := range history.SlotEntries {
		entry := map[string]any{
			"sessionId": e.SessionID,
			"mode":      e.Mode,
			"entryFee":  money(e.EntryFeeMinor),
			"position":  e.Position,
			"date":      e.CreatedAt,
		}
		if e.PrizeMinor != nil {
			entry["prize"] = money(*e.PrizeMinor)
		}

		slotEntries = append(slotEntries, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accountId":      id,
		"paymentHistory": walletEntries,
		"gameHistory":    slotEntries,
	})
}

// DeactivateAccountHandler handles DELETE /accounts/{accountId}
func (h *HandlerProvider) DeactivateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDFromPath(r, "accountId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountId in path")
		return
	}

	err = h.wallet.DeactivateAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func accountResponse(acct accounts.Account) map[string]any {
	return map[string]any{
		"id":       acct.ID,
		"username": acct.Username,
		"email":    acct.Email,
		"balance":  money(acct.BalanceMinor),
		"active":   acct.Active,
	}
}

// decodeBody reads a size-capped JSON body with unknown fields rejected.
// Writes the error response itself and reports whether decoding worked.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}

	return true
}
