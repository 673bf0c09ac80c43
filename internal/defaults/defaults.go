// Package defaults embeds the schema and starter cards seeded by `boardkit init`.
package defaults

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/schema"
)

//go:embed schema.json cards.json
var files embed.FS

// SchemaJSON returns the raw embedded schema document.
func SchemaJSON() []byte {
	data, err := files.ReadFile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("embedded schema missing: %v", err))
	}
	return data
}

// Schema parses the embedded schema.
func Schema() (*core.Schema, error) {
	s, err := schema.Parse(SchemaJSON(), schema.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded schema: %w", err)
	}
	return s, nil
}

// Cards parses the embedded starter cards.
func Cards() ([]core.Record, error) {
	data, err := files.ReadFile("cards.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded cards: %w", err)
	}
	var cards []core.Record
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse embedded cards: %w", err)
	}
	return cards, nil
}
