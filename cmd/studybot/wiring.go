package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/studybot/internal/config"
	"github.com/kalambet/studybot/internal/dedup"
	"github.com/kalambet/studybot/internal/pending"
	"github.com/kalambet/studybot/internal/storage"
)

func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openSeenStore returns the configured seen-set backend and a close func.
func openSeenStore(cfg config.Config) (dedup.Store, func(), error) {
	if cfg.Dedup.Backend == "sqlite" {
		db, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage: %w", err)
		}
		return dedup.NewSQLiteStore(db), func() {
			if err := db.Close(); err != nil {
				slog.Warn("closing storage", "error", err)
			}
		}, nil
	}
	return dedup.NewFileStore(cfg.SeenPath()), func() {}, nil
}

// openPendingStore returns the configured pending-action backend and a close func.
func openPendingStore(ctx context.Context, cfg config.Config) (pending.Store, func(), error) {
	if cfg.Pending.Backend == "redis" {
		client, err := pending.OpenRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return pending.NewRedisStore(client, cfg.Pending.TTL), func() { client.Close() }, nil
	}
	return pending.NewMemoryStore(cfg.Pending.TTL, cfg.Pending.MaxEntries), func() {}, nil
}
