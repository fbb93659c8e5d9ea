package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/accounts"
	"github.com/battleslot/arena/internal/repos/sessions"
	"github.com/battleslot/arena/internal/services/booking"
	"github.com/battleslot/arena/internal/services/lobby"
	"github.com/battleslot/arena/internal/services/wallet"
)

// Service surfaces the handlers depend on; the concrete implementations
// live under internal/services.
type (
	BookingService interface {
		BookSlot(ctx context.Context, accountID, sessionID uuid.UUID, idempotencyKey string) (booking.Result, error)
	}

	WalletService interface {
		CreateAccount(ctx context.Context, username, email string) (accounts.Account, error)
		DeactivateAccount(ctx context.Context, id uuid.UUID) error
		GetAccount(ctx context.Context, id uuid.UUID) (accounts.Account, error)
		TopUp(ctx context.Context, id uuid.UUID, amountMinor int64) (int64, error)
		GetHistory(ctx context.Context, id uuid.UUID) (wallet.History, error)
	}

	LobbyService interface {
		Create(ctx context.Context, params lobby.CreateParams) (sessions.Session, error)
		Get(ctx context.Context, id uuid.UUID) (sessions.Session, error)
		ListOpen(ctx context.Context) ([]sessions.Session, error)
		Advance(ctx context.Context, id uuid.UUID, target sessions.Status) (sessions.Session, error)
	}
)

// HandlerProvider bundles the services and exposes HTTP handlers.
type HandlerProvider struct {
	booking BookingService
	wallet  WalletService
	lobby   LobbyService
}

func NewHandler(b BookingService, w WalletService, l LobbyService) *HandlerProvider {
	return &HandlerProvider{booking: b, wallet: w, lobby: l}
}
