package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/battleslot/arena/internal/repos/accounts"
	"github.com/battleslot/arena/internal/repos/sessions"
	"github.com/battleslot/arena/internal/services/booking"
	"github.com/battleslot/arena/internal/services/lobby"
	"github.com/battleslot/arena/internal/services/wallet"
)

type stubBooking struct {
	res     booking.Result
	err     error
	gotKey  string
	gotAcct uuid.UUID
	gotSess uuid.UUID
}

func (s *stubBooking) BookSlot(_ context.Context, accountID, sessionID uuid.UUID, idempotencyKey string) (booking.Result, error) {
	s.gotAcct = accountID
	s.gotSess = sessionID
	s.gotKey = idempotencyKey

	return s.res, s.err
}

type stubWallet struct {
	account accounts.Account
	balance int64
	history wallet.History
	err     error
}

func (s *stubWallet) CreateAccount(context.Context, string, string) (accounts.Account, error) {
	return s.account, s.err
}

func (s *stubWallet) DeactivateAccount(context.Context, uuid.UUID) error {
	return s.err
}

func (s *stubWallet) GetAccount(context.Context, uuid.UUID) (accounts.Account, error) {
	return s.account, s.err
}

func (s *stubWallet) TopUp(context.Context, uuid.UUID, int64) (int64, error) {
	return s.balance, s.err
}

func (s *stubWallet) GetHistory(context.Context, uuid.UUID) (wallet.History, error) {
	return s.history, s.err
}

type stubLobby struct {
	session sessions.Session
	list    []sessions.Session
	err     error
}

func (s *stubLobby) Create(context.Context, lobby.CreateParams) (sessions.Session, error) {
	return s.session, s.err
}

func (s *stubLobby) Get(context.Context, uuid.UUID) (sessions.Session, error) {
	return s.session, s.err
}

func (s *stubLobby) ListOpen(context.Context) ([]sessions.Session, error) {
	return s.list, s.err
}

func (s *stubLobby) Advance(context.Context, uuid.UUID, sessions.Status) (sessions.Session, error) {
	return s.session, s.err
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestBookSlotHandler(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	accountID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		b := &stubBooking{res: booking.Result{Position: 7, NewBalanceMinor: 500}}
		router := NewRouter(b, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/book",
			map[string]string{"accountId": accountID.String()},
			map[string]string{"Idempotency-Key": "key_1"},
		)

		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeResponse(t, rec)
		require.Equal(t, float64(7), body["position"])
		require.Equal(t, "5.00", body["balance"])
		require.Equal(t, false, body["replayed"])

		require.Equal(t, accountID, b.gotAcct)
		require.Equal(t, sessionID, b.gotSess)
		require.Equal(t, "key_1", b.gotKey)
	})

	t.Run("missing_idempotency_key", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(&stubBooking{}, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/book",
			map[string]string{"accountId": accountID.String()}, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("slot_unavailable_conflict", func(t *testing.T) {
		t.Parallel()

		b := &stubBooking{err: sessions.ErrSlotUnavailable}
		router := NewRouter(b, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/book",
			map[string]string{"accountId": accountID.String()},
			map[string]string{"Idempotency-Key": "key_2"},
		)

		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("insufficient_funds_conflict", func(t *testing.T) {
		t.Parallel()

		b := &stubBooking{err: accounts.ErrInsufficientFunds}
		router := NewRouter(b, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/book",
			map[string]string{"accountId": accountID.String()},
			map[string]string{"Idempotency-Key": "key_3"},
		)

		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("aborted_maps_to_503", func(t *testing.T) {
		t.Parallel()

		b := &stubBooking{err: booking.ErrTransactionAborted}
		router := NewRouter(b, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/book",
			map[string]string{"accountId": accountID.String()},
			map[string]string{"Idempotency-Key": "key_4"},
		)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("bad_session_id", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(&stubBooking{}, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions/not-a-uuid/book",
			map[string]string{"accountId": accountID.String()},
			map[string]string{"Idempotency-Key": "key_5"},
		)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountHandlers(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()

	t.Run("create_account", func(t *testing.T) {
		t.Parallel()

		w := &stubWallet{account: accounts.Account{
			ID: accountID, Username: "alice", Email: "alice@example.com", Active: true,
		}}
		router := NewRouter(&stubBooking{}, w, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/accounts",
			map[string]string{"username": "alice", "email": "alice@example.com"}, nil)

		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeResponse(t, rec)
		require.Equal(t, "alice", body["username"])
		require.Equal(t, "0.00", body["balance"])
	})

	t.Run("create_account_missing_fields", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(&stubBooking{}, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/accounts",
			map[string]string{"username": "  "}, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("balance", func(t *testing.T) {
		t.Parallel()

		w := &stubWallet{account: accounts.Account{ID: accountID, BalanceMinor: 12345, Active: true}}
		router := NewRouter(&stubBooking{}, w, &stubLobby{})

		rec := doRequest(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/balance", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeResponse(t, rec)
		require.Equal(t, "123.45", body["balance"])
	})

	t.Run("balance_not_found", func(t *testing.T) {
		t.Parallel()

		w := &stubWallet{err: accounts.ErrAccountNotFound}
		router := NewRouter(&stubBooking{}, w, &stubLobby{})

		rec := doRequest(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/balance", nil, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("topup", func(t *testing.T) {
		t.Parallel()

		w := &stubWallet{balance: 4500}
		router := NewRouter(&stubBooking{}, w, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/accounts/"+accountID.String()+"/topup",
			map[string]string{"amount": "45.00"}, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeResponse(t, rec)
		require.Equal(t, "45.00", body["balance"])
	})

	t.Run("topup_bad_amount", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(&stubBooking{}, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/accounts/"+accountID.String()+"/topup",
			map[string]string{"amount": "-10"}, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history_includes_both_ledgers", func(t *testing.T) {
		t.Parallel()

		prize := int64(20000)
		w := &stubWallet{history: wallet.History{
			WalletEntries: []accounts.WalletEntry{
				{AmountMinor: 1500, Kind: accounts.KindDebit, Status: accounts.StatusCompleted},
			},
			SlotEntries: []accounts.SlotEntry{
				{SessionID: uuid.New(), Mode: "Solo 50 Players", EntryFeeMinor: 1500, Position: 3, PrizeMinor: &prize},
			},
		}}
		router := NewRouter(&stubBooking{}, w, &stubLobby{})

		rec := doRequest(t, router, http.MethodGet, "/accounts/"+accountID.String()+"/history", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeResponse(t, rec)

		payments, ok := body["paymentHistory"].([]any)
		require.True(t, ok)
		require.Len(t, payments, 1)

		games, ok := body["gameHistory"].([]any)
		require.True(t, ok)
		require.Len(t, games, 1)

		game := games[0].(map[string]any)
		require.Equal(t, "200.00", game["prize"])
		require.Equal(t, "15.00", game["entryFee"])
	})
}

func TestSessionHandlers(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	sample := sessions.Session{
		ID:            sessionID,
		Title:         "Solo 50 Players",
		EntryFeeMinor: 1500,
		MaxSlots:      50,
		FilledSlots:   3,
		Status:        sessions.StatusOpen,
		PrizeTable:    sessions.PrizeTable{"1": 20000, "4-10": 2000},
	}

	t.Run("list_open", func(t *testing.T) {
		t.Parallel()

		l := &stubLobby{list: []sessions.Session{sample}}
		router := NewRouter(&stubBooking{}, &stubWallet{}, l)

		rec := doRequest(t, router, http.MethodGet, "/sessions", nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		var out []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		require.Equal(t, "15.00", out[0]["entryFee"])

		prizes := out[0]["prizes"].(map[string]any)
		require.Equal(t, "200.00", prizes["1"])
		require.Equal(t, "20.00", prizes["4-10"])
	})

	t.Run("get_session", func(t *testing.T) {
		t.Parallel()

		l := &stubLobby{session: sample}
		router := NewRouter(&stubBooking{}, &stubWallet{}, l)

		rec := doRequest(t, router, http.MethodGet, "/sessions/"+sessionID.String(), nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeResponse(t, rec)
		require.Equal(t, "Solo 50 Players", body["title"])
		require.Equal(t, float64(3), body["filledSlots"])
	})

	t.Run("get_session_not_found", func(t *testing.T) {
		t.Parallel()

		l := &stubLobby{err: sessions.ErrSessionNotFound}
		router := NewRouter(&stubBooking{}, &stubWallet{}, l)

		rec := doRequest(t, router, http.MethodGet, "/sessions/"+sessionID.String(), nil, nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("create_session", func(t *testing.T) {
		t.Parallel()

		l := &stubLobby{session: sample}
		router := NewRouter(&stubBooking{}, &stubWallet{}, l)

		rec := doRequest(t, router, http.MethodPost, "/sessions", map[string]any{
			"title":    "Solo 50 Players",
			"entryFee": "15.00",
			"maxSlots": 50,
			"prizes":   map[string]string{"1": "200.00", "4-10": "20.00"},
		}, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("create_session_bad_fee", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(&stubBooking{}, &stubWallet{}, &stubLobby{})

		rec := doRequest(t, router, http.MethodPost, "/sessions", map[string]any{
			"title":    "Bad",
			"entryFee": "free",
			"maxSlots": 50,
		}, nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("advance_invalid_transition", func(t *testing.T) {
		t.Parallel()

		l := &stubLobby{err: sessions.ErrInvalidTransition}
		router := NewRouter(&stubBooking{}, &stubWallet{}, l)

		rec := doRequest(t, router, http.MethodPost, "/sessions/"+sessionID.String()+"/advance",
			map[string]string{"status": "open"}, nil)

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}
