// Package announcer delivers stored chapters to their feed channels.
package announcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"manga_bot/internal/bot"
	"manga_bot/internal/filter"
	"manga_bot/internal/model"
	"manga_bot/internal/storage"
)

// sendPause keeps consecutive sends under Telegram's rate limit
// (roughly 20 messages per second).
const sendPause = 50 * time.Millisecond

// Sender is the live delivery connection announcements go through.
type Sender interface {
	SendChapter(ctx context.Context, channelID string, ch model.Chapter) error
	SendText(ctx context.Context, channelID, text string) error
}

// Announcer pushes unannounced chapters to servers and advances their
// watermarks.
type Announcer struct {
	store storage.Storage
	log   *slog.Logger
	pause time.Duration
}

// New creates an Announcer over the given store.
func New(store storage.Storage, log *slog.Logger) *Announcer {
	return &Announcer{
		store: store,
		log:   log,
		pause: sendPause,
	}
}

// SetSendPause overrides the pause between consecutive sends (useful for testing).
func (a *Announcer) SetSendPause(d time.Duration) {
	a.pause = d
}

// AnnounceServer runs one announce pass for a single server.
//
// A server without a feed channel, or one whose announcing flag is
// already held, is skipped and counts as success. Otherwise the run
// owns the flag until it returns: chapters due at a single "now" are
// sent oldest release first, the watermark advances to that same now
// when at least one went out, and the flag is cleared no matter how
// the run ended.
func (a *Announcer) AnnounceServer(ctx context.Context, sender Sender, server model.Server) error {
	log := a.log.With("server", server.Identifier)

	if server.ChannelID == "" {
		log.Info("no feed channel configured, skipping announce")
		return nil
	}

	acquired, err := a.store.BeginAnnouncing(ctx, server.Identifier)
	if err != nil {
		return fmt.Errorf("acquire announcing flag: %w", err)
	}
	if !acquired {
		log.Info("announce already in progress, skipping")
		return nil
	}
	defer func() {
		if err := a.store.SetAnnouncingFlag(ctx, server.Identifier, false); err != nil {
			log.Error("clear announcing flag", "error", err)
		}
	}()

	now := time.Now().UTC()
	chapters, err := a.store.GetUnannouncedChapters(ctx, server.Identifier, now)
	if err != nil {
		return fmt.Errorf("load unannounced chapters: %w", err)
	}
	if len(chapters) == 0 {
		log.Debug("nothing to announce")
		return nil
	}

	sent := 0
	var sendErr error
	for _, ch := range chapters {
		if err := sender.SendChapter(ctx, server.ChannelID, ch); err != nil {
			sendErr = fmt.Errorf("send chapter %s %s: %w", ch.Manga, ch.Number, err)
			break
		}
		sent++
		time.Sleep(a.pause)
	}

	if sent > 0 {
		if err := a.store.SetLastAnnouncedTime(ctx, server.Identifier, now); err != nil {
			return errors.Join(sendErr, fmt.Errorf("advance watermark: %w", err))
		}
		log.Info("announced chapters", "sent", sent, "due", len(chapters))
		a.pingSubscribers(ctx, sender, server, chapters[:sent])
	}
	return sendErr
}

// pingSubscribers mentions, once per manga, every user subscribed to a
// manga that just got a chapter. Ping failures never fail the run.
func (a *Announcer) pingSubscribers(ctx context.Context, sender Sender, server model.Server, sent []model.Chapter) {
	subs, err := a.store.ListSubscriptions(ctx, server.Identifier)
	if err != nil {
		a.log.Error("list subscriptions", "server", server.Identifier, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	seen := make(map[string]bool)
	for _, ch := range sent {
		if seen[ch.Manga] {
			continue
		}
		seen[ch.Manga] = true

		matched := filter.Match(ch.Manga, subs)
		if len(matched) == 0 {
			continue
		}

		var users []string
		mentioned := make(map[string]bool)
		for _, sub := range matched {
			if mentioned[sub.UserID] {
				continue
			}
			mentioned[sub.UserID] = true
			users = append(users, sub.UserID)
		}

		text := bot.FormatSubscriberPing(ch.Manga, users)
		if err := sender.SendText(ctx, server.ChannelID, text); err != nil {
			a.log.Error("ping subscribers", "server", server.Identifier, "manga", ch.Manga, "error", err)
		}
		time.Sleep(a.pause)
	}
}

// AnnounceAll runs AnnounceServer for every known server concurrently
// and waits for all of them. Per-server failures are joined into one
// error.
func (a *Announcer) AnnounceAll(ctx context.Context, sender Sender) error {
	servers, err := a.store.GetServers(ctx)
	if err != nil {
		return fmt.Errorf("load servers: %w", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(servers))

	for i, srv := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = a.AnnounceServer(ctx, sender, srv)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
