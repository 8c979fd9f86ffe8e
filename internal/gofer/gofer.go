package gofer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"manga_bot/internal/fetch"
	"manga_bot/internal/model"
	"manga_bot/internal/parser"
	"manga_bot/internal/storage"
)

// maxAttempts bounds both the fetch+parse loop and the persist loop.
const maxAttempts = 5

// Gofer pulls chapter lists from the configured targets and stores the
// ones that are new.
type Gofer struct {
	client  *fetch.Client
	store   storage.Storage
	targets []model.Target
	log     *slog.Logger
}

// New creates a Gofer over the given HTTP client, store and targets.
func New(client *fetch.Client, store storage.Storage, targets []model.Target, log *slog.Logger) *Gofer {
	return &Gofer{
		client:  client,
		store:   store,
		targets: targets,
		log:     log,
	}
}

// FetchTarget fetches and parses one target, then persists the result.
// Fetch+parse gets up to maxAttempts tries, and so does the persist; if
// either budget runs out the last error is returned.
func (g *Gofer) FetchTarget(ctx context.Context, target model.Target) error {
	var chapters []model.Chapter
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := g.client.Get(ctx, target.Source, target.RequestHeaders)
		if err != nil {
			lastErr = err
			g.log.Warn("fetch target", "target", target.Name, "attempt", attempt, "error", err)
			continue
		}

		chapters, err = parser.Parse(target, body)
		if err != nil {
			lastErr = err
			g.log.Warn("parse target", "target", target.Name, "attempt", attempt, "error", err)
			continue
		}

		lastErr = nil
		break
	}
	if lastErr != nil {
		return fmt.Errorf("fetch %s: %w", target.Name, lastErr)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		saved, err := g.store.SaveChapters(ctx, chapters)
		if err != nil {
			lastErr = err
			g.log.Warn("save chapters", "target", target.Name, "attempt", attempt, "error", err)
			continue
		}

		g.log.Info("target fetched", "target", target.Name, "chapters", len(chapters), "new", saved)
		return nil
	}
	return fmt.Errorf("save %s: %w", target.Name, lastErr)
}

// FetchAll runs FetchTarget for every target concurrently and waits for
// all of them. Per-target failures are joined into one error.
func (g *Gofer) FetchAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(g.targets))

	for i, target := range g.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = g.FetchTarget(ctx, target)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
