package state

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var layoutMigrations embed.FS

// errNotOpen is returned by store methods called before Open.
var errNotOpen = errors.New("database not opened")

func (s *SQLiteStore) migrationProvider() (*goose.Provider, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	fsys, err := fs.Sub(layoutMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return p, nil
}

// Migrate brings the database layout up to date. Running it on a current
// database is a no-op.
func (s *SQLiteStore) Migrate() error {
	ctx := context.Background()
	p, err := s.migrationProvider()
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Debug("state migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("took", r.Duration))
	}
	return nil
}

// LayoutVersion returns the latest applied layout migration.
func (s *SQLiteStore) LayoutVersion(ctx context.Context) (int64, error) {
	p, err := s.migrationProvider()
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
