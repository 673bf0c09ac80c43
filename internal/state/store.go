// Package state persists boardkit catalogs in SQLite.
//
// The store is a key-value table plus two history tables: every schema
// version ever activated, and a log of applied migrations. Catalog snapshots
// are written in a single transaction so a crash never leaves the schema and
// the cards out of step.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("state: not found")

// KV is the opaque key-value contract the catalog layer persists through.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Catalog snapshot keys.
const (
	KeySchema     = "schema"
	KeySchemaHash = "schema_hash"
	KeyRecords    = "records"
	KeyBoard      = "board"
)

// MigrationRecord is one entry of the migration log.
type MigrationRecord struct {
	ID          string
	FromHash    string
	ToHash      string
	Added       int
	Removed     int
	Destructive bool
	Records     int
	Plan        []byte
	AppliedAt   time.Time
}

// SchemaVersion is a schema document that was active at some point.
type SchemaVersion struct {
	Hash      string
	SchemaID  string
	Document  []byte
	CreatedAt time.Time
}
