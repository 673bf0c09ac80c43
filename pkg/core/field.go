package core

// =============================================================================
// Field kinds
// =============================================================================

// FieldType is the closed set of value kinds a field can hold.
type FieldType string

// Supported field types.
const (
	FieldString      FieldType = "string"
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldEnum        FieldType = "enum"
	FieldMultiSelect FieldType = "multi-select"
	FieldList        FieldType = "list"
	FieldURL         FieldType = "url"
)

// FieldTypes returns every supported field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldString,
		FieldText,
		FieldNumber,
		FieldEnum,
		FieldMultiSelect,
		FieldList,
		FieldURL,
	}
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether fields of this type carry an options list.
func (t FieldType) HasOptions() bool {
	return t == FieldEnum || t == FieldMultiSelect
}

// ItemType is the element kind of a list field.
type ItemType string

// Supported list item types.
const (
	ItemString ItemType = "string"
	ItemURL    ItemType = "url"
)

// Valid reports whether t is a supported list item type.
func (t ItemType) Valid() bool {
	return t == ItemString || t == ItemURL
}

// Aggregate is the board-level reduction applied to a radar field.
type Aggregate string

// Supported board aggregates.
const (
	AggregateSum  Aggregate = "sum"
	AggregateMean Aggregate = "mean"
	AggregateMax  Aggregate = "max"
)

// Valid reports whether a is a supported aggregate.
func (a Aggregate) Valid() bool {
	return a == AggregateSum || a == AggregateMean || a == AggregateMax
}

// =============================================================================
// FieldDefinition
// =============================================================================

// FieldDefinition describes one attribute of a card.
// Type-specific attributes are only meaningful for the matching Type.
type FieldDefinition struct {
	ID    string    `json:"id" yaml:"id"`
	Label string    `json:"label" yaml:"label"`
	Type  FieldType `json:"type" yaml:"type"`

	Required  bool `json:"required,omitempty" yaml:"required,omitempty"`
	Unique    bool `json:"unique,omitempty" yaml:"unique,omitempty"`
	CardFront bool `json:"cardFront,omitempty" yaml:"cardFront,omitempty"`

	// string
	MaxLength int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	// number
	Min            *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max            *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Radar          bool      `json:"radar,omitempty" yaml:"radar,omitempty"`
	BoardAggregate Aggregate `json:"boardAggregate,omitempty" yaml:"boardAggregate,omitempty"`

	// enum, multi-select
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// list
	ItemType ItemType `json:"itemType,omitempty" yaml:"itemType,omitempty"`
	MaxItems int      `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
}

// HasOption reports whether opt is one of the field's options.
func (f *FieldDefinition) HasOption(opt string) bool {
	for _, o := range f.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// EffectiveItemType returns the list item type, defaulting to string.
func (f *FieldDefinition) EffectiveItemType() ItemType {
	if f.ItemType == "" {
		return ItemString
	}
	return f.ItemType
}

// Float returns a pointer to v. Handy for building number fields.
func Float(v float64) *float64 {
	return &v
}
