package card

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

func testSchema() *core.Schema {
	return &core.Schema{
		SchemaID: "journal.cards.v1",
		Fields: []core.FieldDefinition{
			{ID: "fullName", Label: "Full Name", Type: core.FieldString, Required: true, Unique: true, MaxLength: 20},
			{ID: "governance", Label: "Governance", Type: core.FieldNumber, Min: core.Float(0), Max: core.Float(10)},
			{ID: "availability", Label: "Availability", Type: core.FieldEnum, Options: []string{"Unknown", "Warm"}},
			{ID: "categories", Label: "Categories", Type: core.FieldMultiSelect, Options: []string{"Legal", "Policy"}},
			{ID: "sources", Label: "Sources", Type: core.FieldList, ItemType: core.ItemURL},
			{ID: "powers", Label: "Powers", Type: core.FieldList, ItemType: core.ItemString},
			{ID: "conflicts", Label: "Conflicts", Type: core.FieldText},
			{ID: "site", Label: "Site", Type: core.FieldURL},
		},
	}
}

func TestValidateRequiredAndRange(t *testing.T) {
	errs := Validate(testSchema(), map[string]any{"fullName": "", "governance": 11.0})
	assert.Equal(t, []string{"Full Name is required", "Governance must be ≤ 10"}, errs)
}

func TestValidateTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{name: "string wrong type", field: "fullName", value: 12.0, want: "Full Name must be a string"},
		{name: "string too long", field: "fullName", value: "abcdefghijklmnopqrstuvwxyz", want: "Full Name is too long"},
		{name: "number wrong type", field: "governance", value: "7", want: "Governance must be a number"},
		{name: "number below min", field: "governance", value: -1.0, want: "Governance must be ≥ 0"},
		{name: "enum not option", field: "availability", value: "Cold", want: "Availability must be one of: Unknown, Warm"},
		{name: "multi not array", field: "categories", value: "Legal", want: "Categories must be an array"},
		{name: "multi invalid", field: "categories", value: []any{"Legal", "X", "Y"}, want: "Categories has invalid selections: X, Y"},
		{name: "list url invalid", field: "sources", value: []any{"https://ok.org", "nope", "also bad"}, want: "Sources contains an invalid URL"},
		{name: "list string non-text", field: "powers", value: []any{"a", 1.0}, want: "Powers entries must be text"},
		{name: "list not array", field: "powers", value: "a", want: "Powers must be an array"},
		{name: "text wrong type", field: "conflicts", value: true, want: "Conflicts must be text"},
		{name: "url invalid", field: "site", value: "example.org", want: "Site contains invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"fullName": "Ada", tt.field: tt.value}
			assert.Equal(t, []string{tt.want}, Validate(testSchema(), data))
		})
	}
}

func TestValidateAcceptsGoodCard(t *testing.T) {
	data := map[string]any{
		"fullName":     "Ada Lovelace",
		"governance":   7.0,
		"availability": "Warm",
		"categories":   []any{"Legal"},
		"sources":      []any{"https://example.org/ada"},
		"powers":       []any{"math"},
		"conflicts":    "",
		"site":         "https://ada.example.org",
	}
	assert.Empty(t, Validate(testSchema(), data))
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := core.Record{
		ID:    "ada",
		Image: "data:image/png;base64,AAAA",
		Data:  map[string]any{"fullName": "Ada", "governance": 7.0},
		Notes: []core.Note{{ID: "n1", Text: "hello", CreatedAt: now}},
	}

	b, err := NewExportBundle("journal.cards.v1", "hash", rec, now)
	require.NoError(t, err)
	assert.Equal(t, BundleType, b.Type)
	assert.Equal(t, BundleVersion, b.Version)

	got, errs := ImportBundle(b, ImportOptions{Schema: testSchema(), SchemaHash: "hash", NewID: sequentialIDs()})
	require.Empty(t, errs)
	assert.Equal(t, rec, got)
}

func TestImportAssignsFreshIDs(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	b := &Bundle{
		Type: BundleType, Version: BundleVersion, SchemaID: "journal.cards.v1", SchemaHash: "hash",
		Card: &core.Record{ID: "taken", Data: map[string]any{"fullName": "New"}, Notes: []core.Note{{Text: "n"}}},
	}
	existing := []core.Record{{ID: "taken", Data: map[string]any{"fullName": "Old"}}}

	got, errs := ImportBundle(b, ImportOptions{
		Schema: testSchema(), SchemaHash: "hash", Existing: existing,
		NewID: sequentialIDs(), Now: func() time.Time { return now },
	})
	require.Empty(t, errs)
	assert.Equal(t, "id-1", got.ID)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "id-2", got.Notes[0].ID)
	assert.Equal(t, now, got.Notes[0].CreatedAt)
}

func TestImportRejections(t *testing.T) {
	good := func() *Bundle {
		return &Bundle{
			Type: BundleType, Version: BundleVersion, SchemaID: "journal.cards.v1", SchemaHash: "hash",
			Card: &core.Record{ID: "x", Data: map[string]any{"fullName": "Ada"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(b *Bundle)
		want   string
	}{
		{name: "wrong type", mutate: func(b *Bundle) { b.Type = "other" }, want: "Invalid bundle type"},
		{name: "wrong version", mutate: func(b *Bundle) { b.Version = 2 }, want: "Unsupported bundle version"},
		{name: "schema id", mutate: func(b *Bundle) { b.SchemaID = "x" }, want: "Schema ID mismatch"},
		{name: "schema hash", mutate: func(b *Bundle) { b.SchemaHash = "x" }, want: "Schema hash mismatch"},
		{name: "no card", mutate: func(b *Bundle) { b.Card = nil }, want: "Bundle is missing card data"},
		{name: "invalid data", mutate: func(b *Bundle) { b.Card.Data["governance"] = 50.0 }, want: "Governance must be ≤ 10"},
		{name: "duplicate name", mutate: func(b *Bundle) { b.Card.Data["fullName"] = "Taken" }, want: "A card with that full name already exists."},
	}

	existing := []core.Record{{ID: "other", Data: map[string]any{"fullName": "Taken"}}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := good()
			tt.mutate(b)
			_, errs := ImportBundle(b, ImportOptions{Schema: testSchema(), SchemaHash: "hash", Existing: existing})
			assert.Contains(t, errs, tt.want)
		})
	}
}

func TestDecodeBundle(t *testing.T) {
	doc := `{"type":"journal-card","version":1,"schemaId":"s","schemaHash":"h",
"exportedAt":"2026-01-01T00:00:00Z","card":{"cardId":"a","image":"","data":{"fullName":"Ada"},"notes":[]}}`

	b, err := DecodeBundle([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Ada", b.Card.Data["fullName"])

	_, err = DecodeBundle([]byte("{"))
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Malala Yousafzai":         "malala-yousafzai",
		"  J. Robert Oppenheimer ": "j-robert-oppenheimer",
		"--Édith--":                "dith",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
	assert.Len(t, Slugify(strings.Repeat("ab ", 60)), 80)
}

func TestCompare(t *testing.T) {
	left := core.Record{Data: map[string]any{"fullName": "A", "categories": []any{"Legal"}}}
	right := core.Record{Data: map[string]any{"fullName": "B", "categories": []any{"Legal"}}}

	rows := Compare(testSchema(), left, right)
	require.Len(t, rows, len(testSchema().Fields))
	assert.True(t, rows[0].Differs)
	assert.False(t, rows[3].Differs)
}
