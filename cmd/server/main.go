package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ugaemi/jetlagged-server/internal/config"
	"github.com/ugaemi/jetlagged-server/internal/geocode"
	"github.com/ugaemi/jetlagged-server/internal/handler"
	"github.com/ugaemi/jetlagged-server/internal/locator"
	"github.com/ugaemi/jetlagged-server/internal/session"
	"github.com/ugaemi/jetlagged-server/internal/store"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogger(cfg)

	archive, checks, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer archive.Close()

	nominatim := geocode.NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent)
	sm := session.NewManager(session.Deps{
		Locator:      locator.FromConfig(cfg, nominatim, uint64(time.Now().UnixNano())),
		Archive:      archive,
		TickInterval: cfg.TickInterval,
		LetterChance: cfg.LetterChance,
	})

	hub := ws.NewHub()
	router := handler.NewRouter(sm, nominatim)
	hub.OnConnect = router.HandleConnect
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           handler.NewHTTP(nominatim, hub, checks).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "ai", cfg.AIEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sm.StopAll()
		return err
	})

	return g.Wait()
}

// openArchive uses Postgres when DATABASE_URL is set and memory otherwise.
func openArchive(ctx context.Context, cfg *config.Config) (store.RoundArchive, map[string]handler.Checker, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, archiving rounds in memory")
		return store.NewMemoryArchive(), nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pg, err := store.NewPostgresArchive(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	slog.Info("connected to postgres")
	return pg, map[string]handler.Checker{"archive": pg}, nil
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
