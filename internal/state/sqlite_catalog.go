package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/leapstack-labs/boardkit/pkg/core"
)

// SaveCatalog writes the catalog snapshot and records its schema version.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	if s.db == nil {
		return errNotOpen
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return writeSnapshot(ctx, tx, c)
	})
}

// LoadCatalog rebuilds the catalog from the last snapshot. It returns
// ErrNotFound when the store was never initialised.
func (s *SQLiteStore) LoadCatalog(ctx context.Context, cfg catalog.Config) (*catalog.Catalog, error) {
	schemaDoc, err := s.Get(ctx, KeySchema)
	if err != nil {
		return nil, err
	}
	recordsDoc, err := s.Get(ctx, KeyRecords)
	if err != nil {
		return nil, err
	}
	boardDoc, err := s.Get(ctx, KeyBoard)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	storedHash, err := s.Get(ctx, KeySchemaHash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var schema core.Schema
	if err := json.Unmarshal(schemaDoc, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode stored schema: %w", err)
	}
	var records []core.Record
	if err := json.Unmarshal(recordsDoc, &records); err != nil {
		return nil, fmt.Errorf("failed to decode stored records: %w", err)
	}
	cfg.Schema = &schema
	cfg.Records = records
	if boardDoc != nil {
		var b core.Board
		if err := json.Unmarshal(boardDoc, &b); err != nil {
			return nil, fmt.Errorf("failed to decode stored board: %w", err)
		}
		cfg.Board = &b
	}

	c, err := catalog.New(cfg)
	if err != nil {
		return nil, err
	}
	if storedHash != nil && string(storedHash) != c.SchemaHash() {
		s.logger.Warn("stored schema hash differs from schema content",
			slog.String("stored", string(storedHash)),
			slog.String("computed", c.SchemaHash()))
	}
	return c, nil
}

// CommitMigration persists a migrated catalog together with its migration
// log entry. Either both are written or neither is.
func (s *SQLiteStore) CommitMigration(ctx context.Context, c *catalog.Catalog, res *catalog.ChangeResult) (*MigrationRecord, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	plan, err := json.Marshal(res.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migration plan: %w", err)
	}
	rec := &MigrationRecord{
		ID:          generateID(),
		FromHash:    res.OldHash,
		ToHash:      res.NewHash,
		Added:       len(res.Plan.Added),
		Removed:     len(res.Plan.Removed),
		Destructive: res.Plan.Destructive(),
		Records:     res.Migrated,
		Plan:        plan,
		AppliedAt:   time.Now().UTC(),
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := writeSnapshot(ctx, tx, c); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO migrations (id, from_hash, to_hash, added, removed, destructive, records, plan, applied_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.FromHash, rec.ToHash, rec.Added, rec.Removed, rec.Destructive, rec.Records, rec.Plan,
			formatTime(rec.AppliedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("migration committed",
		slog.String("id", rec.ID),
		slog.String("from", rec.FromHash),
		slog.String("to", rec.ToHash))
	return rec, nil
}

// ListMigrations returns the migration log, newest first.
func (s *SQLiteStore) ListMigrations(ctx context.Context) ([]MigrationRecord, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_hash, to_hash, added, removed, destructive, records, plan, applied_at
		 FROM migrations ORDER BY applied_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []MigrationRecord
	for rows.Next() {
		var m MigrationRecord
		var appliedAt string
		if err := rows.Scan(&m.ID, &m.FromHash, &m.ToHash, &m.Added, &m.Removed, &m.Destructive,
			&m.Records, &m.Plan, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		m.AppliedAt = parseTime(appliedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetSchemaVersion returns a previously active schema by hash.
func (s *SQLiteStore) GetSchemaVersion(ctx context.Context, hash string) (*SchemaVersion, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	v := &SchemaVersion{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, schema_id, document, created_at FROM schema_versions WHERE hash = ?`, hash,
	).Scan(&v.Hash, &v.SchemaID, &v.Document, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: schema %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	v.CreatedAt = parseTime(createdAt)
	return v, nil
}

func writeSnapshot(ctx context.Context, tx *sql.Tx, c *catalog.Catalog) error {
	schemaDoc, err := json.Marshal(c.Schema())
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	recordsDoc, err := json.Marshal(c.Records())
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	boardDoc, err := json.Marshal(c.Board())
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}

	for _, kv := range []struct {
		key   string
		value []byte
	}{
		{KeySchema, schemaDoc},
		{KeySchemaHash, []byte(c.SchemaHash())},
		{KeyRecords, recordsDoc},
		{KeyBoard, boardDoc},
	} {
		if err := setKV(ctx, tx, kv.key, kv.value); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_versions (hash, schema_id, document, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		c.SchemaHash(), c.Schema().SchemaID, schemaDoc, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
