// Command pipeboardd serves the pipeboard dashboard API. With DATABASE_URL
// set it persists to PostgreSQL; without it, it runs on a seeded in-memory
// store so the dashboard works standalone.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pipeboard/pipeboard"
	"github.com/pipeboard/pipeboard/memory"
	"github.com/pipeboard/pipeboard/postgres"
	"github.com/pipeboard/pipeboard/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	addr := os.Getenv("PIPEBOARD_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	var store pipeboard.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = postgres.New(pool)
		logger.Info("using postgres store")
	} else {
		mem := memory.New()
		if err := mem.Seed(ctx); err != nil {
			logger.Error("seed memory store", "error", err)
			os.Exit(1)
		}
		store = mem
		logger.Info("no DATABASE_URL set, using seeded in-memory store")
	}

	if err := store.CreateSchema(ctx); err != nil {
		logger.Error("create schema", "error", err)
		os.Exit(1)
	}

	app := server.New(store, logger)
	logger.Info("listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}
