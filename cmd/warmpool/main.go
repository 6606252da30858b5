// Package main is the entry point for the warming orchestrator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"

	"warmpool/internal/api"
	"warmpool/internal/autoreply"
	"warmpool/internal/config"
	"warmpool/internal/credential"
	"warmpool/internal/netguard"
	"warmpool/internal/protocol"
	"warmpool/internal/session"
	"warmpool/internal/store"
	"warmpool/internal/warmer"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to config file")
	logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.Info("warmpool starting", "config", *configPath, "log_level", cfg.LogLevel)

	for _, dir := range []string{filepath.Dir(cfg.StorePath), cfg.CredentialDir, cfg.MediaDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			logger.Error("Failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	st, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	creds, err := credential.NewStore(cfg.CredentialDir)
	if err != nil {
		logger.Error("Failed to initialize credential store", "error", err)
		os.Exit(1)
	}

	guard := netguard.New(cfg.LookupURL, cfg.ProbeTimeout, logger)
	factory := protocol.NewWhatsmeowFactory(logger)

	manager := session.NewManager(st.Accounts, st.Proxies, creds, factory, guard, session.Options{
		AllowFallback:      cfg.BindingAllowFallback,
		ReconnectBaseDelay: cfg.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.ReconnectMaxDelay,
	}, logger)
	defer manager.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Print scan codes to the terminal so accounts can be paired without
	// the HTTP endpoints.
	manager.OnNotification(func(n session.Notification) {
		if n.Type != session.NotifyQR {
			return
		}
		fmt.Fprintf(os.Stderr, "\nScan to pair account %s:\n", n.AccountID)
		qrterminal.GenerateHalfBlock(n.Code, qrterminal.L, os.Stderr)
		fmt.Fprintln(os.Stderr, "")
	})

	warm := warmer.New(manager, st.Templates, st.Media, st.Interactions, st.Configs, logger)
	defer warm.Stop()

	replies := autoreply.New(manager, manager, st.Templates, st.Media, st.Configs, logger)
	go replies.Run(ctx)

	go manager.RestoreAll(ctx)

	router := api.NewRouter(st, manager, guard, warm, logger)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		errChan <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig)
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	cancel()
	replies.Wait()
	logger.Info("warmpool stopped")
}
