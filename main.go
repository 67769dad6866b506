package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/agent-election/cliparse"
	"github.com/danielhkuo/agent-election/db"
	"github.com/danielhkuo/agent-election/election"
	"github.com/danielhkuo/agent-election/metrics"
	"github.com/danielhkuo/agent-election/middleware"
	"github.com/danielhkuo/agent-election/reputation"
	"github.com/danielhkuo/agent-election/router"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	registry, m, err := metrics.NewRegistry()
	if err != nil {
		slog.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	var rep reputation.Lookup = reputation.NewStatic()
	if cfg.ReputationURL != "" {
		rep = reputation.NewClient(cfg.ReputationURL, nil)
	} else {
		slog.Warn("no reputation service configured; verified registrations will have no activity signals")
	}

	engine := election.New(election.Config{
		Store:      db.NewStore(dbConn),
		Reputation: rep,
		Metrics:    m,
		Logger:     slog.Default(),
	})

	// Create server
	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(engine, registry, cfg)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	g, gctx := errgroup.WithContext(ctx)

	// Phase scheduler
	g.Go(func() error {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for {
			if err := engine.TickAll(gctx, time.Now()); err != nil {
				slog.Error("scheduled tick failed", "error", err)
			}
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "tick", cfg.TickInterval)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// Wait for Ctrl-C signal
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}
