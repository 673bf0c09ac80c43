// Package fieldtype implements per-type defaults, emptiness and the value
// sanitizer shared by the migration executor and card auto-correct.
//
// Sanitize never fails: it maps any input to a value valid for the field or
// to the field's default. Output values are JSON-compatible (nil, string,
// float64, []any) so records survive a JSON round trip unchanged.
package fieldtype

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

// Default returns the empty value for the field's type.
func Default(f *core.FieldDefinition) any {
	if f == nil {
		return ""
	}
	switch f.Type {
	case core.FieldNumber:
		return nil
	case core.FieldMultiSelect, core.FieldList:
		return []any{}
	case core.FieldString, core.FieldText, core.FieldEnum, core.FieldURL:
		return ""
	default:
		return ""
	}
}

// IsEmpty reports whether v counts as unset: absent, nil or the empty string.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// IsAbsoluteURL reports whether s parses as a URL with both scheme and host.
func IsAbsoluteURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Sanitize maps v to a value valid for f, or to f's default.
func Sanitize(f *core.FieldDefinition, v any) any {
	if f == nil {
		return v
	}
	if IsEmpty(v) {
		return Default(f)
	}

	switch f.Type {
	case core.FieldNumber:
		return sanitizeNumber(f, v)
	case core.FieldEnum:
		s, ok := v.(string)
		if ok && f.HasOption(s) {
			return s
		}
		return ""
	case core.FieldMultiSelect:
		items, ok := toSlice(v)
		if !ok {
			return []any{}
		}
		out := []any{}
		for _, item := range items {
			if s, ok := item.(string); ok && f.HasOption(s) {
				out = append(out, s)
			}
		}
		return out
	case core.FieldList:
		items, ok := toSlice(v)
		if !ok {
			return []any{}
		}
		out := []any{}
		if f.EffectiveItemType() == core.ItemURL {
			for _, item := range items {
				if s, ok := item.(string); ok && IsAbsoluteURL(s) {
					out = append(out, s)
				}
			}
			return out
		}
		for _, item := range items {
			out = append(out, Stringify(item))
		}
		return out
	case core.FieldURL:
		s := Stringify(v)
		if !IsAbsoluteURL(s) {
			return ""
		}
		return s
	case core.FieldString, core.FieldText:
		s := Stringify(v)
		if f.Type == core.FieldString {
			s = truncate(s, f.MaxLength)
		}
		return s
	default:
		return v
	}
}

// ToNumber coerces v to a finite-or-infinite float64. ok is false when v has
// no numeric reading (including NaN).
func ToNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case bool:
		if x {
			n = 1
		}
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func sanitizeNumber(f *core.FieldDefinition, v any) any {
	n, ok := ToNumber(v)
	if !ok {
		return nil
	}
	if f.Min != nil && n < *f.Min {
		n = *f.Min
	}
	if f.Max != nil && n > *f.Max {
		n = *f.Max
	}
	if math.IsInf(n, 0) {
		return nil
	}
	return n
}

// Stringify renders v the way a user would read it back in a text box.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func toSlice(v any) ([]any, bool) {
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

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
