package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/newsgrab/articles"
	"github.com/pevans/newsgrab/config"
	"github.com/pevans/newsgrab/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("NEWSGRAB_CONFIG"), "Path to config file (NEWSGRAB_CONFIG)")
	addr := flag.String("addr", "", "Listen address, overriding api.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.API.Addr = *addr
	}

	l := logger.New(cfg.Log.Level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.Info("opening article store", "type", cfg.Storage.Type, "dsn", cfg.Storage.DSN)
	store, err := articles.Open(ctx, cfg.Storage.Type, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("Failed to open article store: %v", err)
	}
	defer store.Close()

	server := articles.NewAPIServer(store)
	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		l.Info("starting article API", "addr", cfg.API.Addr, "base", "/api/v1")
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		l.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Error("shutdown failed", "error", err)
		}
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server failed", "error", err)
			store.Close()
			os.Exit(1)
		}
	}
}
