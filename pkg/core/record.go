package core

import "time"

// Record is one user-authored card. Data is keyed by field id and holds
// JSON-compatible values only (nil, string, float64, bool, []any, map[string]any).
// Image and Notes are opaque to the migration engine.
type Record struct {
	ID    string         `json:"cardId"`
	Image string         `json:"image"`
	Data  map[string]any `json:"data"`
	Notes []Note         `json:"notes"`
}

// Note is a free-form annotation attached to a card.
type Note struct {
	ID        string    `json:"noteId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{
		ID:    r.ID,
		Image: r.Image,
		Data:  CloneData(r.Data),
	}
	if r.Notes != nil {
		out.Notes = make([]Note, len(r.Notes))
		copy(out.Notes, r.Notes)
	}
	return out
}

// CloneData deep-copies a record data map.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-compatible value so the copy shares no
// mutable state with v.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = CloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = CloneValue(inner)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
