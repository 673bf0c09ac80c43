package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/schema"
)

// Session export identity.
const (
	SessionType    = "journal-session"
	SessionVersion = 1
)

// SessionExport is the whole catalog as a portable document.
type SessionExport struct {
	Type       string        `json:"type"`
	Version    int           `json:"version"`
	SchemaID   string        `json:"schemaId"`
	Schema     *core.Schema  `json:"schema"`
	SchemaHash string        `json:"schemaHash"`
	ExportedAt time.Time     `json:"exportedAt"`
	Records    []core.Record `json:"records"`
	Board      core.Board    `json:"board"`
}

// Export snapshots the catalog.
func (c *Catalog) Export() *SessionExport {
	return &SessionExport{
		Type:       SessionType,
		Version:    SessionVersion,
		SchemaID:   c.schema.SchemaID,
		Schema:     c.schema,
		SchemaHash: c.schemaHash,
		ExportedAt: c.now().UTC(),
		Records:    c.Records(),
		Board:      c.Board(),
	}
}

// DecodeSession parses a session export document.
func DecodeSession(data []byte) (*SessionExport, error) {
	var exp SessionExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse session export: %w", err)
	}
	return &exp, nil
}

// Import builds a catalog from an export. The recorded schema hash must
// match the embedded schema.
func Import(exp *SessionExport, cfg Config) (*Catalog, error) {
	if exp == nil || exp.Type != SessionType {
		return nil, invalid("import session", []string{"File is not a recognized session export"})
	}
	if exp.Version != SessionVersion {
		return nil, invalid("import session", []string{"Unsupported session version"})
	}
	if exp.Schema == nil {
		return nil, invalid("import session", []string{"Session export is missing its schema"})
	}
	hash, err := schema.Hash(exp.Schema)
	if err != nil {
		return nil, err
	}
	if exp.SchemaHash != hash {
		return nil, invalid("import session", []string{
			fmt.Sprintf("Schema hash mismatch: export says %s, schema hashes to %s", exp.SchemaHash, hash),
		})
	}

	cfg.Schema = exp.Schema
	cfg.Records = exp.Records
	b := exp.Board
	cfg.Board = &b
	return New(cfg)
}

// ExportCard wraps one card in a transfer bundle.
func (c *Catalog) ExportCard(id string) (*card.Bundle, error) {
	rec, err := c.Card(id)
	if err != nil {
		return nil, err
	}
	return card.NewExportBundle(c.schema.SchemaID, c.schemaHash, rec, c.now())
}

// ImportCard adds the card from a bundle authored against the active schema.
func (c *Catalog) ImportCard(b *card.Bundle) (core.Record, error) {
	rec, problems := card.ImportBundle(b, card.ImportOptions{
		Schema:     c.schema,
		SchemaHash: c.schemaHash,
		Existing:   c.records,
		NewID:      c.newID,
		Now:        c.now,
	})
	if len(problems) > 0 {
		return core.Record{}, invalid("import card", problems)
	}
	c.records = append(c.records, rec)
	c.logger.Debug("card imported", slog.String("card_id", rec.ID))
	return rec.Clone(), nil
}
