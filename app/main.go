package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nwohater/lackeynews/app/api"
	"github.com/nwohater/lackeynews/app/cache"
	"github.com/nwohater/lackeynews/app/cfg"
	"github.com/nwohater/lackeynews/app/news"
	"github.com/nwohater/lackeynews/app/sources"
)

func main() {
	godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Lackey News server", "version", cfg.GetVersion())

	registry, err := sources.LoadRegistry(c.SourcesFile)
	if err != nil {
		slog.Error("Failed to load source registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry loaded", "feeds", len(registry.Feeds), "topics", len(registry.Topics()))

	client := &http.Client{Timeout: time.Duration(c.FetchTimeout) * time.Second}

	var store *cache.Store
	if c.CachePath != "" {
		store, err = cache.Open(c.CachePath, time.Duration(c.CacheTTL)*time.Second)
		if err != nil {
			slog.Error("Failed to open response cache", "path", c.CachePath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		client.Transport = cache.NewTransport(nil, store)

		if pruned, err := store.Prune(); err != nil {
			slog.Warn("Cache prune failed", "error", err)
		} else if pruned > 0 {
			slog.Info("Pruned stale cache entries", "count", pruned)
		}
	} else {
		slog.Info("Response cache disabled")
	}

	aggregator := news.NewAggregator(
		sources.NewReddit(client, registry, c.UserAgent),
		sources.NewHackerNews(client, c.UserAgent),
		sources.NewDevTo(client, c.UserAgent),
		sources.NewRSS(client, registry.Feeds, c.UserAgent, c.MaxFeeds, time.Duration(c.FeedTimeout)*time.Second),
	)

	handler := api.NewHandler(aggregator, registry, c.DefaultLimit)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
