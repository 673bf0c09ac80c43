// Package migrate diffs schema versions and rewrites card data to match.
//
// Diff is pure and deterministic: every plan list follows schema field order
// (new order for added fields, old order for everything else). Apply works on
// a private copy of the records and returns it only after every record has
// migrated, so callers never observe a half-migrated collection.
package migrate

import (
	"reflect"
	"slices"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

// Diff compares two individually valid schemas and classifies the changes.
func Diff(oldSchema, newSchema *core.Schema) *core.MigrationPlan {
	plan := &core.MigrationPlan{}
	if oldSchema == nil || newSchema == nil {
		return plan
	}

	oldIndex := indexFields(oldSchema.Fields)
	newIndex := indexFields(newSchema.Fields)

	for _, f := range newSchema.Fields {
		if _, ok := oldIndex[f.ID]; !ok {
			plan.Added = append(plan.Added, f)
		}
	}

	for _, oldField := range oldSchema.Fields {
		next, ok := newIndex[oldField.ID]
		if !ok {
			plan.Removed = append(plan.Removed, oldField)
			continue
		}
		diffField(plan, &oldField, next)
	}

	if !reflect.DeepEqual(oldSchema.DefaultSort, newSchema.DefaultSort) {
		plan.MetaChanges = append(plan.MetaChanges, "defaultSort")
	}
	if !slices.Equal(oldSchema.RequiredCoreFields, newSchema.RequiredCoreFields) {
		plan.MetaChanges = append(plan.MetaChanges, "requiredCoreFields")
	}

	return plan
}

func diffField(plan *core.MigrationPlan, oldField, next *core.FieldDefinition) {
	id := oldField.ID

	if oldField.Type != next.Type {
		plan.TypeChanged = append(plan.TypeChanged, core.TypeChange{
			ID:       id,
			FromType: oldField.Type,
			ToType:   next.Type,
		})
	}

	if oldField.Type == core.FieldList && next.Type == core.FieldList &&
		oldField.EffectiveItemType() != next.EffectiveItemType() {
		plan.ItemTypeChanged = append(plan.ItemTypeChanged, core.ItemTypeChange{
			ID:           id,
			FromItemType: oldField.EffectiveItemType(),
			ToItemType:   next.EffectiveItemType(),
		})
	}

	if oldField.Type.HasOptions() && next.Type.HasOptions() &&
		oldField.Options != nil && next.Options != nil {
		var removed []string
		for _, opt := range oldField.Options {
			if !next.HasOption(opt) {
				removed = append(removed, opt)
			}
		}
		if len(removed) > 0 {
			plan.OptionsNarrowed = append(plan.OptionsNarrowed, core.OptionsNarrowed{
				ID:             id,
				RemovedOptions: removed,
			})
		}
	}

	if oldField.Type == core.FieldNumber && next.Type == core.FieldNumber {
		minTightened := oldField.Min != nil && next.Min != nil && *next.Min > *oldField.Min
		maxTightened := oldField.Max != nil && next.Max != nil && *next.Max < *oldField.Max
		if minTightened || maxTightened {
			plan.RangeNarrowed = append(plan.RangeNarrowed, core.RangeNarrowed{
				ID:       id,
				OldRange: core.Range{Min: oldField.Min, Max: oldField.Max},
				NewRange: core.Range{Min: next.Min, Max: next.Max},
			})
		}
	}

	if changes := presentationChanges(oldField, next); len(changes) > 0 {
		plan.OtherUpdates = append(plan.OtherUpdates, core.FieldUpdate{ID: id, Changes: changes})
	}
}

func presentationChanges(oldField, next *core.FieldDefinition) []string {
	var changes []string
	if oldField.Label != next.Label {
		changes = append(changes, "label")
	}
	if oldField.Required != next.Required {
		changes = append(changes, "required flag")
	}
	if oldField.CardFront != next.CardFront {
		changes = append(changes, "card front flag")
	}
	if oldField.Radar != next.Radar {
		changes = append(changes, "radar visibility")
	}
	if oldField.BoardAggregate != next.BoardAggregate {
		changes = append(changes, "board aggregate")
	}
	if oldField.MaxLength != next.MaxLength {
		changes = append(changes, "max length")
	}
	return changes
}

func indexFields(fields []core.FieldDefinition) map[string]*core.FieldDefinition {
	index := make(map[string]*core.FieldDefinition, len(fields))
	for i := range fields {
		if fields[i].ID != "" {
			index[fields[i].ID] = &fields[i]
		}
	}
	return index
}
