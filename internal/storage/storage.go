// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"manga_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	// SaveChapters persists chapters, silently skipping ones already
	// known by their (manga, title, number) identity. Returns the
	// number of newly inserted rows.
	SaveChapters(ctx context.Context, chapters []model.Chapter) (int, error)
	// GetUnannouncedChapters returns the chapters due for the server:
	// announce time strictly after the server's watermark and at or
	// before now, ordered by release date, oldest first.
	GetUnannouncedChapters(ctx context.Context, identifier string, now time.Time) ([]model.Chapter, error)

	GetServers(ctx context.Context) ([]model.Server, error)
	GetServer(ctx context.Context, identifier string) (*model.Server, error)
	GetFeedChannel(ctx context.Context, identifier string) (string, error)
	// SetFeedChannel records the announcement channel for a server,
	// creating the server row if it does not exist yet.
	SetFeedChannel(ctx context.Context, identifier, channelID string) error
	GetLastAnnouncedTime(ctx context.Context, identifier string) (*time.Time, error)
	SetLastAnnouncedTime(ctx context.Context, identifier string, t time.Time) error
	GetAnnouncingFlag(ctx context.Context, identifier string) (bool, error)
	SetAnnouncingFlag(ctx context.Context, identifier string, announcing bool) error
	// BeginAnnouncing atomically sets the announcing flag and reports
	// whether this caller acquired it. False means another announce
	// run holds the flag.
	BeginAnnouncing(ctx context.Context, identifier string) (bool, error)
	// ResetAnnouncingFlags clears every server's announcing flag. Only
	// safe when no announce run can be in flight, i.e. at startup.
	ResetAnnouncingFlags(ctx context.Context) error

	AddSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	RemoveSubscription(ctx context.Context, id int64) error
	ListSubscriptions(ctx context.Context, identifier string) ([]model.Subscription, error)
	ListUserSubscriptions(ctx context.Context, identifier, userID string) ([]model.Subscription, error)

	Close() error
}
