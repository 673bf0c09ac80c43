// Package card validates card data against a schema and moves single cards
// between catalogs as self-describing bundles.
package card

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/fieldtype"
)

// Validate reports every constraint violation of data against schema, in
// field declaration order. It never modifies data.
func Validate(schema *core.Schema, data map[string]any) []string {
	if schema == nil {
		return nil
	}

	var errs []string
	for i := range schema.Fields {
		f := &schema.Fields[i]
		value := data[f.ID]

		if fieldtype.IsEmpty(value) {
			if f.Required {
				errs = append(errs, fmt.Sprintf("%s is required", f.Label))
			}
			continue
		}

		errs = append(errs, validateValue(f, value)...)
	}
	return errs
}

func validateValue(f *core.FieldDefinition, value any) []string {
	var errs []string
	label := f.Label

	switch f.Type {
	case core.FieldString:
		s, ok := value.(string)
		if !ok {
			errs = append(errs, label+" must be a string")
		} else if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			errs = append(errs, label+" is too long")
		}
	case core.FieldNumber:
		n, ok := number(value)
		if !ok {
			errs = append(errs, label+" must be a number")
			break
		}
		if f.Min != nil && n < *f.Min {
			errs = append(errs, fmt.Sprintf("%s must be ≥ %s", label, formatNumber(*f.Min)))
		}
		if f.Max != nil && n > *f.Max {
			errs = append(errs, fmt.Sprintf("%s must be ≤ %s", label, formatNumber(*f.Max)))
		}
	case core.FieldEnum:
		if s, ok := value.(string); !ok || !f.HasOption(s) {
			errs = append(errs, fmt.Sprintf("%s must be one of: %s", label, strings.Join(f.Options, ", ")))
		}
	case core.FieldMultiSelect:
		items, ok := sequence(value)
		if !ok {
			errs = append(errs, label+" must be an array")
			break
		}
		var invalid []string
		for _, item := range items {
			if s, ok := item.(string); !ok || !f.HasOption(s) {
				invalid = append(invalid, fieldtype.Stringify(item))
			}
		}
		if len(invalid) > 0 {
			errs = append(errs, fmt.Sprintf("%s has invalid selections: %s", label, strings.Join(invalid, ", ")))
		}
	case core.FieldList:
		items, ok := sequence(value)
		if !ok {
			errs = append(errs, label+" must be an array")
			break
		}
		for _, item := range items {
			s, isString := item.(string)
			if f.EffectiveItemType() == core.ItemURL {
				if !isString || !fieldtype.IsAbsoluteURL(s) {
					errs = append(errs, label+" contains an invalid URL")
					break
				}
			} else if !isString {
				errs = append(errs, label+" entries must be text")
				break
			}
		}
	case core.FieldText:
		if _, ok := value.(string); !ok {
			errs = append(errs, label+" must be text")
		}
	case core.FieldURL:
		if s, ok := value.(string); !ok || !fieldtype.IsAbsoluteURL(s) {
			errs = append(errs, label+" contains invalid URL")
		}
	}

	return errs
}

// number accepts only values that are already numeric; strings are not
// coerced here the way the sanitizer coerces them.
func number(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func sequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
