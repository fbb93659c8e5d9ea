package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(b BookingService, w WalletService, l LobbyService) http.Handler {
	h := NewHandler(b, w, l)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/accounts", h.CreateAccountHandler)
	r.Get("/accounts/{accountId}/balance", h.GetBalanceHandler)
	r.Get("/accounts/{accountId}/history", h.GetHistoryHandler)
	r.Post("/accounts/{accountId}/topup", h.TopUpHandler)
	r.Delete("/accounts/{accountId}", h.DeactivateAccountHandler)

	r.Get("/sessions", h.ListSessionsHandler)
	r.Post("/sessions", h.CreateSessionHandler)
	r.Get("/sessions/{sessionId}", h.GetSessionHandler)
	r.Post("/sessions/{sessionId}/book", h.BookSlotHandler)
	r.Post("/sessions/{sessionId}/advance", h.AdvanceSessionHandler)

	return r
}
