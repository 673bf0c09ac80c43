package card

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

// Bundle identity.
const (
	BundleType    = "journal-card"
	BundleVersion = 1
)

// Bundle is a single exported card tagged with the schema it was authored
// against.
type Bundle struct {
	Type       string       `json:"type"`
	Version    int          `json:"version"`
	SchemaID   string       `json:"schemaId"`
	SchemaHash string       `json:"schemaHash"`
	ExportedAt time.Time    `json:"exportedAt"`
	Card       *core.Record `json:"card"`
}

// NewExportBundle wraps a deep copy of rec for export.
func NewExportBundle(schemaID, schemaHash string, rec core.Record, now time.Time) (*Bundle, error) {
	if schemaID == "" || schemaHash == "" {
		return nil, fmt.Errorf("schema id and hash are required to export a card")
	}
	cp := rec.Clone()
	if cp.Notes == nil {
		cp.Notes = []core.Note{}
	}
	return &Bundle{
		Type:       BundleType,
		Version:    BundleVersion,
		SchemaID:   schemaID,
		SchemaHash: schemaHash,
		ExportedAt: now.UTC(),
		Card:       &cp,
	}, nil
}

// DecodeBundle parses a bundle file.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse card bundle: %w", err)
	}
	return &b, nil
}

// ImportOptions describes the catalog a bundle is imported into.
type ImportOptions struct {
	Schema     *core.Schema
	SchemaHash string
	Existing   []core.Record

	// NewID defaults to a random UUID.
	NewID func() string
	// Now defaults to time.Now.
	Now func() time.Time
}

// CheckBundle reports problems with the bundle envelope.
func CheckBundle(b *Bundle, schemaID, schemaHash string) []string {
	if b == nil {
		return []string{"Bundle must be an object"}
	}
	var errs []string
	if b.Type != BundleType {
		errs = append(errs, "Invalid bundle type")
	}
	if b.Version != BundleVersion {
		errs = append(errs, "Unsupported bundle version")
	}
	if schemaID != "" && b.SchemaID != schemaID {
		errs = append(errs, "Schema ID mismatch")
	}
	if schemaHash != "" && b.SchemaHash != schemaHash {
		errs = append(errs, "Schema hash mismatch")
	}
	if b.Card == nil {
		errs = append(errs, "Bundle is missing card data")
	}
	return errs
}

// ImportBundle turns a bundle into a record ready to add to the catalog.
// The returned problems are user-facing; a non-empty slice means the card
// was rejected.
func ImportBundle(b *Bundle, opts ImportOptions) (core.Record, []string) {
	if opts.Schema == nil {
		return core.Record{}, []string{"Active schema context is required"}
	}
	if errs := CheckBundle(b, opts.Schema.SchemaID, opts.SchemaHash); len(errs) > 0 {
		return core.Record{}, errs
	}

	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	rec := b.Card.Clone()
	if strings.TrimSpace(rec.ID) == "" || hasID(opts.Existing, rec.ID) {
		rec.ID = newID()
		for hasID(opts.Existing, rec.ID) {
			rec.ID = newID()
		}
	}

	notes := make([]core.Note, 0, len(rec.Notes))
	for _, n := range rec.Notes {
		if n.ID == "" {
			n.ID = newID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now().UTC()
		}
		notes = append(notes, n)
	}
	rec.Notes = notes

	if errs := Validate(opts.Schema, rec.Data); len(errs) > 0 {
		return core.Record{}, errs
	}
	if errs := UniqueConflicts(opts.Schema, rec, opts.Existing); len(errs) > 0 {
		return core.Record{}, errs
	}

	return rec, nil
}

// UniqueConflicts reports unique string fields whose value in rec is already
// used by another record in existing.
func UniqueConflicts(schema *core.Schema, rec core.Record, existing []core.Record) []string {
	var errs []string
	for i := range schema.Fields {
		f := &schema.Fields[i]
		if !f.Unique || (f.Type != core.FieldString && f.Type != core.FieldText) {
			continue
		}
		value, ok := rec.Data[f.ID].(string)
		if !ok || value == "" {
			continue
		}
		for _, other := range existing {
			if other.ID == rec.ID {
				continue
			}
			if v, ok := other.Data[f.ID].(string); ok && v == value {
				errs = append(errs, fmt.Sprintf("A card with that %s already exists.", strings.ToLower(f.Label)))
				break
			}
		}
	}
	return errs
}

func hasID(records []core.Record, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a card name into a file-name-safe slug of at most 80 bytes.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	return slug
}
