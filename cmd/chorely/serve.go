package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/eventbus"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/logging"
	"github.com/dukerupert/chorely/internal/server"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and WebSocket change feed",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	hub := ws.NewHub(logger.With("component", "websocket"))
	var notifier handler.Notifier = hub
	if cfg.NATS.URL != "" {
		bridge, err := eventbus.Connect(eventbus.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, hub, logger)
		if err != nil {
			return err
		}
		defer bridge.Close()
		notifier = bridge
	}

	srv := server.New(db, issuer, hub, notifier, server.Options{
		DevSignin:      cfg.Auth.DevSignin,
		SecureCookie:   strings.HasPrefix(cfg.HTTP.BaseURL, "https://"),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Location:       loc,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit entries", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	if cfg.Auth.DevSignin {
		slog.Warn("development sign-in is enabled; anyone can sign in as any email")
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("chorely starting", "addr", httpServer.Addr, "base_url", cfg.HTTP.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
