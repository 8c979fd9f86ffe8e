package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"manga_bot/internal/announcer"
	"manga_bot/internal/bot"
	"manga_bot/internal/config"
	"manga_bot/internal/core"
	"manga_bot/internal/fetch"
	"manga_bot/internal/gofer"
	"manga_bot/internal/scheduler"
	"manga_bot/internal/storage"
)

func main() {
	oneshot := flag.Bool("oneshot", false, "fetch and announce once, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	// A crash mid-announce leaves a flag stuck; nothing can be running
	// yet, so clear them all.
	if err := store.ResetAnnouncingFlags(context.Background()); err != nil {
		log.Error("reset announcing flags", "error", err)
		os.Exit(1)
	}

	targets, err := config.LoadTargets(cfg.TargetsPath)
	if err != nil {
		log.Error("load targets", "path", cfg.TargetsPath, "error", err)
		os.Exit(1)
	}
	log.Info("targets loaded", "path", cfg.TargetsPath, "count", len(targets))

	g := gofer.New(fetch.New(http.DefaultClient), store, targets, log)
	a := announcer.New(store, log)

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	c := core.New(g, a, b, log)
	b.SetDispatcher(c)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *oneshot {
		log.Info("starting one-shot run")
		if err := c.RunOnce(ctx); err != nil {
			log.Error("one-shot run failed", "error", err)
			os.Exit(1)
		}
		log.Info("one-shot run finished")
		return
	}

	sched, err := scheduler.New(cfg.FetchSchedule, c.TriggerFetch, log)
	if err != nil {
		log.Error("create schedule", "spec", cfg.FetchSchedule, "error", err)
		os.Exit(1)
	}

	log.Info("starting bot")

	sched.Start()
	c.Run(ctx)
	sched.Stop()

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
