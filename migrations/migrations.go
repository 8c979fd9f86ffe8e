// Package migrations embeds the SQL schema migrations and runs them
// through goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

// commands maps migrate CLI verbs to goose operations. Every goose
// function here shares the same signature.
var commands = map[string]func(*sql.DB, string, ...goose.OptionsFunc) error{
	"up":      goose.Up,
	"up-one":  goose.UpByOne,
	"down":    goose.Down,
	"status":  goose.Status,
	"version": goose.Version,
	"reset":   goose.Reset,
}

// Up brings the schema to the latest version. The storage layer calls
// this every time it opens a database.
func Up(db *sql.DB) error {
	return Command(db, "up")
}

// Command executes a single migration command by its CLI verb.
func Command(db *sql.DB, verb string) error {
	cmd, ok := commands[verb]
	if !ok {
		return fmt.Errorf("unknown migration command %q", verb)
	}

	goose.SetBaseFS(files)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := cmd(db, "."); err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	return nil
}
