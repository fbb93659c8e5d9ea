package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/battleslot/arena/internal/api"
	"github.com/battleslot/arena/internal/config"
	"github.com/battleslot/arena/internal/infra/logging"
	"github.com/battleslot/arena/internal/infra/pgutils"
	"github.com/battleslot/arena/internal/notify"
	"github.com/battleslot/arena/internal/services/booking"
	"github.com/battleslot/arena/internal/services/lobby"
	"github.com/battleslot/arena/internal/services/wallet"
	"github.com/battleslot/arena/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg, err := config.LoadAPI()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "arena-api")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close db pool")

		return dbConns.Close()
	})

	notifier, err := buildNotifier(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}

	// --- Services ---
	bookingSrv := booking.New(dbConns, notifier,
		booking.WithRetry(cfg.Booking.MaxAttempts, cfg.Booking.RetryBackoff))
	walletSrv := wallet.New(dbConns)
	lobbySrv := lobby.New(dbConns)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, bookingSrv, walletSrv, lobbySrv)

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// buildNotifier picks Redis Pub/Sub when REDIS_URL is set, otherwise the
// in-process fan-out.
func buildNotifier(ctx context.Context, cfg config.RedisConfig) (notify.Notifier, error) {
	if cfg.URL == "" {
		slog.Info("Using in-process slot update fan-out")

		return notify.NewFanout(), nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close redis client")

		return client.Close()
	})

	slog.Info("Using redis slot update notifier")

	return notify.NewRedis(client), nil
}
