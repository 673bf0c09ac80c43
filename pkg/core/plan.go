package core

// Range is a closed numeric interval of a number field.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// TypeChange records a field whose type differs between schema versions.
type TypeChange struct {
	ID       string    `json:"id"`
	FromType FieldType `json:"fromType"`
	ToType   FieldType `json:"toType"`
}

// ItemTypeChange records a list field whose item type changed.
type ItemTypeChange struct {
	ID           string   `json:"id"`
	FromItemType ItemType `json:"fromItemType"`
	ToItemType   ItemType `json:"toItemType"`
}

// OptionsNarrowed records options an enum or multi-select field lost.
type OptionsNarrowed struct {
	ID             string   `json:"id"`
	RemovedOptions []string `json:"removedOptions"`
}

// RangeNarrowed records a number field whose bounds tightened.
type RangeNarrowed struct {
	ID       string `json:"id"`
	OldRange Range  `json:"oldRange"`
	NewRange Range  `json:"newRange"`
}

// FieldUpdate lists presentation-only changes to a field that never require
// rewriting record data.
type FieldUpdate struct {
	ID      string   `json:"id"`
	Changes []string `json:"changes"`
}

// MigrationPlan is the structured diff between two schema versions.
type MigrationPlan struct {
	Added           []FieldDefinition `json:"added"`
	Removed         []FieldDefinition `json:"removed"`
	TypeChanged     []TypeChange      `json:"typeChanged"`
	ItemTypeChanged []ItemTypeChange  `json:"itemTypeChanged"`
	OptionsNarrowed []OptionsNarrowed `json:"optionsNarrowed"`
	RangeNarrowed   []RangeNarrowed   `json:"rangeNarrowed"`

	// Informational only.
	OtherUpdates []FieldUpdate `json:"otherUpdates,omitempty"`
	MetaChanges  []string      `json:"metaChanges,omitempty"`
}

// RequiresMigration reports whether any record data must be rewritten.
func (p *MigrationPlan) RequiresMigration() bool {
	return len(p.Added)+len(p.Removed)+len(p.TypeChanged)+len(p.ItemTypeChanged)+
		len(p.OptionsNarrowed)+len(p.RangeNarrowed) > 0
}

// Destructive reports whether applying the plan can lose or alter existing
// values and therefore needs explicit user confirmation. Range narrowing is
// included because it can clip values.
func (p *MigrationPlan) Destructive() bool {
	return len(p.Removed)+len(p.TypeChanged)+len(p.ItemTypeChanged)+
		len(p.OptionsNarrowed)+len(p.RangeNarrowed) > 0
}

// IsIdentity reports whether the two schemas are equivalent for every
// purpose, including presentation-only attributes.
func (p *MigrationPlan) IsIdentity() bool {
	return !p.RequiresMigration() && len(p.OtherUpdates) == 0 && len(p.MetaChanges) == 0
}
