// Package catalog is the editing session: one schema, its cards and the
// board, kept consistent across card edits and schema changes.
//
// Every mutation either completes or leaves the catalog untouched. Schema
// changes go through PlanSchemaChange and ApplySchemaChange; card data is
// only written while the schema is stable.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/boardkit/pkg/board"
	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/schema"
)

var (
	// ErrNotFound is returned for an unknown card id.
	ErrNotFound = errors.New("card not found")
	// ErrNeedsConfirmation is returned when a destructive schema change is
	// applied without confirmation.
	ErrNeedsConfirmation = errors.New("schema change is destructive and needs confirmation")
)

// ValidationError carries user-facing problems that blocked an operation.
type ValidationError struct {
	Op       string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, strings.Join(e.Problems, "; "))
}

func invalid(op string, problems []string) error {
	return &ValidationError{Op: op, Problems: problems}
}

// Config holds the initial contents of a catalog.
type Config struct {
	Schema  *core.Schema
	Records []core.Record
	// Board defaults to the protected slots with no assignments.
	Board  *core.Board
	Logger *slog.Logger
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Catalog is a single-user editing session.
type Catalog struct {
	schema     *core.Schema
	schemaHash string
	records    []core.Record
	board      core.Board

	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New validates the schema and builds a catalog over deep copies of the
// given records and board.
func New(cfg Config) (*Catalog, error) {
	if cfg.Schema == nil {
		return nil, errors.New("schema is required")
	}
	if problems := schema.Validate(cfg.Schema); len(problems) > 0 {
		return nil, invalid("load schema", problems)
	}
	hash, err := schema.Hash(cfg.Schema)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		schema:     cfg.Schema,
		schemaHash: hash,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}

	c.records = cloneRecords(cfg.Records)
	if cfg.Board != nil {
		c.board = cloneBoard(*cfg.Board)
	} else {
		c.board = board.DefaultBoard(c.newID())
	}
	return c, nil
}

// Schema returns the active schema. Callers must not modify it.
func (c *Catalog) Schema() *core.Schema { return c.schema }

// SchemaHash returns the content hash of the active schema.
func (c *Catalog) SchemaHash() string { return c.schemaHash }

// Records returns a deep copy of every card in insertion order.
func (c *Catalog) Records() []core.Record { return cloneRecords(c.records) }

// Board returns a copy of the board.
func (c *Catalog) Board() core.Board { return cloneBoard(c.board) }

// Card returns a copy of one card.
func (c *Catalog) Card(id string) (core.Record, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.records[idx].Clone(), nil
}

// SaveCard validates and stores rec, replacing any card with the same id.
// A card without an id is added with a fresh one.
func (c *Catalog) SaveCard(rec core.Record) (core.Record, error) {
	rec = rec.Clone()
	if rec.ID == "" {
		rec.ID = c.newID()
	}
	if problems := card.Validate(c.schema, rec.Data); len(problems) > 0 {
		return core.Record{}, invalid("save card", problems)
	}
	if problems := card.UniqueConflicts(c.schema, rec, c.records); len(problems) > 0 {
		return core.Record{}, invalid("save card", problems)
	}
	for i := range rec.Notes {
		if rec.Notes[i].ID == "" {
			rec.Notes[i].ID = c.newID()
		}
		if rec.Notes[i].CreatedAt.IsZero() {
			rec.Notes[i].CreatedAt = c.now().UTC()
		}
	}

	if idx := c.indexOf(rec.ID); idx >= 0 {
		c.records[idx] = rec
		c.logger.Debug("card updated", slog.String("card_id", rec.ID))
	} else {
		c.records = append(c.records, rec)
		c.logger.Debug("card added", slog.String("card_id", rec.ID))
	}
	return rec.Clone(), nil
}

// DeleteCard removes a card and its board assignments.
func (c *Catalog) DeleteCard(id string) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.records = append(c.records[:idx:idx], c.records[idx+1:]...)
	board.RemoveCard(&c.board, id)
	c.logger.Debug("card deleted", slog.String("card_id", id))
	return nil
}

// Compare lines up two cards field by field.
func (c *Catalog) Compare(leftID, rightID string) ([]card.Comparison, error) {
	left, err := c.Card(leftID)
	if err != nil {
		return nil, err
	}
	right, err := c.Card(rightID)
	if err != nil {
		return nil, err
	}
	return card.Compare(c.schema, left, right), nil
}

// Assign places a card in a slot at the next rank.
func (c *Catalog) Assign(slotID, cardID string) (core.Assignment, error) {
	if c.indexOf(cardID) < 0 {
		return core.Assignment{}, fmt.Errorf("%w: %s", ErrNotFound, cardID)
	}
	return board.Assign(&c.board, slotID, cardID)
}

// Unassign removes a card from a slot.
func (c *Catalog) Unassign(slotID, cardID string) error {
	return board.Unassign(&c.board, slotID, cardID)
}

// AddSlot adds a named slot to the board.
func (c *Catalog) AddSlot(name string) (core.Slot, error) {
	return board.AddSlot(&c.board, name)
}

// RemoveSlot deletes a non-default slot.
func (c *Catalog) RemoveSlot(slotID string) error {
	return board.DeleteSlot(&c.board, slotID)
}

// Profile aggregates the radar fields over first-choice assignments.
func (c *Catalog) Profile() []board.Axis {
	return board.Profile(c.schema, &c.board, c.records)
}

func (c *Catalog) indexOf(id string) int {
	for i := range c.records {
		if c.records[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRecords(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}

func cloneBoard(b core.Board) core.Board {
	out := core.Board{ID: b.ID}
	out.Slots = append([]core.Slot{}, b.Slots...)
	out.Assignments = append([]core.Assignment{}, b.Assignments...)
	return out
}
