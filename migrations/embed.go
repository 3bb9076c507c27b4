// Package migrations ships the Postgres schema as goose migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// Commands accepted by Run.
var Commands = []string{"up", "down", "status", "version"}

// Run applies a goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string) error {
	known := false
	for _, c := range Commands {
		known = known || c == command
	}
	if !known {
		return fmt.Errorf("unknown migration command %q", command)
	}

	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
