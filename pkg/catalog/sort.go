package catalog

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/fieldtype"
)

// Sorted returns the cards ordered by the schema's default sort. Numbers sort
// numerically, everything else case-insensitively; empty values go last in
// either direction.
func (c *Catalog) Sorted() []core.Record {
	out := c.Records()
	spec := c.schema.DefaultSort
	if spec == nil || spec.Field == "" {
		return out
	}
	f := c.schema.Field(spec.Field)
	if f == nil {
		return out
	}
	desc := spec.Direction == core.SortDesc

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Data[f.ID], out[j].Data[f.ID]
		aEmpty, bEmpty := fieldtype.IsEmpty(a), fieldtype.IsEmpty(b)
		if aEmpty || bEmpty {
			return !aEmpty && bEmpty
		}
		cmp := compareValues(f, a, b)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

func compareValues(f *core.FieldDefinition, a, b any) int {
	if f.Type == core.FieldNumber {
		x, okA := fieldtype.ToNumber(a)
		y, okB := fieldtype.ToNumber(b)
		switch {
		case okA && okB:
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		case okA:
			return -1
		case okB:
			return 1
		}
	}
	return strings.Compare(
		strings.ToLower(fieldtype.Stringify(a)),
		strings.ToLower(fieldtype.Stringify(b)),
	)
}
