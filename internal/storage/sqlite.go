package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"manga_bot/internal/model"
	"manga_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveChapters inserts chapters that are not yet known. A chapter whose
// (manga, title, number) identity already exists is skipped silently.
func (s *SQLite) SaveChapters(ctx context.Context, chapters []model.Chapter) (int, error) {
	saved := 0
	for _, ch := range chapters {
		now := time.Now().UTC().Format(timeLayout)
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO chapters (manga, title, number, url, date, logged_at, announced_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ch.Manga, ch.Title, ch.Number, ch.URL,
			ch.Date.UTC().Format(timeLayout), now, ch.AnnouncedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return saved, fmt.Errorf("insert chapter: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return saved, fmt.Errorf("rows affected: %w", err)
		}
		saved += int(rows)
	}
	return saved, nil
}

// GetUnannouncedChapters returns the chapters due for a server, ordered
// by release date, oldest first. Due means the announce time is
// strictly after the server's watermark and at or before now. A server
// that has never announced gets everything at or before now.
func (s *SQLite) GetUnannouncedChapters(ctx context.Context, identifier string, now time.Time) ([]model.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, manga, title, number, url, date, logged_at, announced_at
		 FROM chapters
		 WHERE announced_at > COALESCE((SELECT last_announced_at FROM servers WHERE identifier = ?), '')
		   AND announced_at <= ?
		 ORDER BY date, id`,
		identifier, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query unannounced chapters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chapters []model.Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

// GetServers returns all known servers.
func (s *SQLite) GetServers(ctx context.Context) ([]model.Server, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identifier, channel_id, last_announced_at, is_announcing FROM servers ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var servers []model.Server
	for rows.Next() {
		srv, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, *srv)
	}
	return servers, rows.Err()
}

// GetServer returns a single server by its identifier.
func (s *SQLite) GetServer(ctx context.Context, identifier string) (*model.Server, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, identifier, channel_id, last_announced_at, is_announcing
		 FROM servers WHERE identifier = ?`, identifier,
	)
	return scanServer(row)
}

// GetFeedChannel returns the announcement channel for a server.
func (s *SQLite) GetFeedChannel(ctx context.Context, identifier string) (string, error) {
	var channel string
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id FROM servers WHERE identifier = ?`, identifier,
	).Scan(&channel)
	if err != nil {
		return "", fmt.Errorf("get feed channel: %w", err)
	}
	return channel, nil
}

// SetFeedChannel records the announcement channel for a server,
// creating the server row if it does not exist yet.
func (s *SQLite) SetFeedChannel(ctx context.Context, identifier, channelID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO servers (identifier, channel_id) VALUES (?, ?)
		 ON CONFLICT (identifier) DO UPDATE SET channel_id = excluded.channel_id`,
		identifier, channelID,
	)
	if err != nil {
		return fmt.Errorf("set feed channel: %w", err)
	}
	return nil
}

// GetLastAnnouncedTime returns the server's announce watermark, or nil
// if it has never announced.
func (s *SQLite) GetLastAnnouncedTime(ctx context.Context, identifier string) (*time.Time, error) {
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT last_announced_at FROM servers WHERE identifier = ?`, identifier,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("get last announced time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	t, _ := time.Parse(timeLayout, last.String)
	return &t, nil
}

// SetLastAnnouncedTime advances the server's announce watermark.
func (s *SQLite) SetLastAnnouncedTime(ctx context.Context, identifier string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE servers SET last_announced_at = ? WHERE identifier = ?`,
		t.UTC().Format(timeLayout), identifier,
	)
	if err != nil {
		return fmt.Errorf("set last announced time: %w", err)
	}
	return nil
}

// GetAnnouncingFlag reports whether an announce run is recorded as in
// flight for the server.
func (s *SQLite) GetAnnouncingFlag(ctx context.Context, identifier string) (bool, error) {
	var announcing int
	err := s.db.QueryRowContext(ctx,
		`SELECT is_announcing FROM servers WHERE identifier = ?`, identifier,
	).Scan(&announcing)
	if err != nil {
		return false, fmt.Errorf("get announcing flag: %w", err)
	}
	return announcing == 1, nil
}

// SetAnnouncingFlag overwrites the server's announcing flag.
func (s *SQLite) SetAnnouncingFlag(ctx context.Context, identifier string, announcing bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE servers SET is_announcing = ? WHERE identifier = ?`,
		boolToInt(announcing), identifier,
	)
	if err != nil {
		return fmt.Errorf("set announcing flag: %w", err)
	}
	return nil
}

// BeginAnnouncing atomically acquires the server's announcing flag.
// Returns false when another run already holds it.
func (s *SQLite) BeginAnnouncing(ctx context.Context, identifier string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE servers SET is_announcing = 1 WHERE identifier = ? AND is_announcing = 0`,
		identifier,
	)
	if err != nil {
		return false, fmt.Errorf("begin announcing: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

// ResetAnnouncingFlags clears every server's announcing flag. A crash
// mid-announce leaves the flag stuck, so this runs once at startup.
func (s *SQLite) ResetAnnouncingFlags(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE servers SET is_announcing = 0`)
	if err != nil {
		return fmt.Errorf("reset announcing flags: %w", err)
	}
	return nil
}

// AddSubscription inserts a subscription and populates its ID and
// CreatedAt. Adding an identical subscription twice is a no-op.
func (s *SQLite) AddSubscription(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (server_identifier, user_id, title, created_at)
		 VALUES (?, ?, ?, ?)`,
		sub.ServerIdentifier, sub.UserID, sub.Title, now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		sub.ID = id
		sub.CreatedAt, _ = time.Parse(timeLayout, now)
	}
	return nil
}

// GetSubscription returns a single subscription by its ID.
func (s *SQLite) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, server_identifier, user_id, title, created_at
		 FROM subscriptions WHERE id = ?`, id,
	)
	var sub model.Subscription
	var created string
	if err := row.Scan(&sub.ID, &sub.ServerIdentifier, &sub.UserID, &sub.Title, &created); err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	sub.CreatedAt, _ = time.Parse(timeLayout, created)
	return &sub, nil
}

// RemoveSubscription deletes a subscription by its ID.
func (s *SQLite) RemoveSubscription(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns all subscriptions in a server.
func (s *SQLite) ListSubscriptions(ctx context.Context, identifier string) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_identifier, user_id, title, created_at
		 FROM subscriptions WHERE server_identifier = ? ORDER BY id`, identifier,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// ListUserSubscriptions returns one user's subscriptions in a server.
func (s *SQLite) ListUserSubscriptions(ctx context.Context, identifier, userID string) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_identifier, user_id, title, created_at
		 FROM subscriptions WHERE server_identifier = ? AND user_id = ? ORDER BY id`,
		identifier, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChapter(row scannable) (model.Chapter, error) {
	var ch model.Chapter
	var date, logged, announced string
	err := row.Scan(&ch.ID, &ch.Manga, &ch.Title, &ch.Number, &ch.URL, &date, &logged, &announced)
	if err != nil {
		return ch, fmt.Errorf("scan chapter: %w", err)
	}
	ch.Date, _ = time.Parse(timeLayout, date)
	ch.LoggedAt, _ = time.Parse(timeLayout, logged)
	ch.AnnouncedAt, _ = time.Parse(timeLayout, announced)
	return ch, nil
}

func scanServer(row scannable) (*model.Server, error) {
	var srv model.Server
	var announcing int
	var last sql.NullString
	err := row.Scan(&srv.ID, &srv.Identifier, &srv.ChannelID, &last, &announcing)
	if err != nil {
		return nil, fmt.Errorf("scan server: %w", err)
	}
	srv.IsAnnouncing = announcing == 1
	if last.Valid {
		t, _ := time.Parse(timeLayout, last.String)
		srv.LastAnnouncedAt = &t
	}
	return &srv, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var created string
		if err := rows.Scan(&sub.ID, &sub.ServerIdentifier, &sub.UserID, &sub.Title, &created); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.CreatedAt, _ = time.Parse(timeLayout, created)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
