package card

import (
	"reflect"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

// Comparison is one schema field shown side by side for two cards.
type Comparison struct {
	Field   core.FieldDefinition
	Left    any
	Right   any
	Differs bool
}

// Compare lines up two cards field by field in schema order.
func Compare(schema *core.Schema, left, right core.Record) []Comparison {
	rows := make([]Comparison, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		l, r := left.Data[f.ID], right.Data[f.ID]
		rows = append(rows, Comparison{
			Field:   f,
			Left:    l,
			Right:   r,
			Differs: !reflect.DeepEqual(l, r),
		})
	}
	return rows
}
