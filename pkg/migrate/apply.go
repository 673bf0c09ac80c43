package migrate

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/fieldtype"
)

// ErrStalePlan is returned when a plan does not match the schema it is applied
// against. It signals a caller bug, not bad user input.
var ErrStalePlan = errors.New("migration plan does not match schema")

// Verify reports ErrStalePlan unless plan is exactly the diff from oldSchema
// to newSchema. Nil and empty lists compare equal.
func Verify(plan *core.MigrationPlan, oldSchema, newSchema *core.Schema) error {
	if plan == nil || oldSchema == nil || newSchema == nil {
		return fmt.Errorf("%w: plan and schemas are required", ErrStalePlan)
	}
	if diff := cmp.Diff(Diff(oldSchema, newSchema), plan, cmpopts.EquateEmpty()); diff != "" {
		return fmt.Errorf("%w: plan differs from the current diff", ErrStalePlan)
	}
	return nil
}

// Result is the outcome of a successful migration.
type Result struct {
	Schema  *core.Schema
	Records []core.Record
}

// Apply rewrites every record to conform to newSchema following plan.
// defaults supplies caller-chosen values for added fields, keyed by field id;
// they are deep-copied into each record. The input records are never
// modified.
func Apply(plan *core.MigrationPlan, newSchema *core.Schema, records []core.Record, defaults map[string]any) (*Result, error) {
	if plan == nil || newSchema == nil {
		return nil, fmt.Errorf("%w: plan and schema are required", ErrStalePlan)
	}
	if err := checkPlan(plan, newSchema); err != nil {
		return nil, err
	}

	resanitize := resanitizeIDs(plan)

	working := make([]core.Record, len(records))
	for i := range records {
		rec := records[i].Clone()
		if rec.Data == nil {
			rec.Data = make(map[string]any)
		}
		migrateRecord(&rec, plan, newSchema, resanitize, defaults)
		working[i] = rec
	}

	return &Result{Schema: newSchema, Records: working}, nil
}

func migrateRecord(rec *core.Record, plan *core.MigrationPlan, newSchema *core.Schema, resanitize []string, defaults map[string]any) {
	for i := range plan.Added {
		added := &plan.Added[i]
		if _, ok := rec.Data[added.ID]; ok {
			continue
		}
		if v, ok := defaults[added.ID]; ok {
			rec.Data[added.ID] = core.CloneValue(v)
		} else {
			rec.Data[added.ID] = fieldtype.Default(newSchema.Field(added.ID))
		}
	}

	for _, removed := range plan.Removed {
		delete(rec.Data, removed.ID)
	}

	for _, id := range resanitize {
		f := newSchema.Field(id)
		rec.Data[id] = fieldtype.Sanitize(f, rec.Data[id])
	}

	for _, rn := range plan.RangeNarrowed {
		f := newSchema.Field(rn.ID)
		rec.Data[rn.ID] = fieldtype.Sanitize(f, rec.Data[rn.ID])
	}

	// Records that predate a field get its default so every schema field is present.
	for i := range newSchema.Fields {
		f := &newSchema.Fields[i]
		if _, ok := rec.Data[f.ID]; !ok {
			rec.Data[f.ID] = fieldtype.Default(f)
		}
	}
}

// resanitizeIDs collects type, item type and option changes in plan order,
// each id once.
func resanitizeIDs(plan *core.MigrationPlan) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range plan.TypeChanged {
		add(c.ID)
	}
	for _, c := range plan.ItemTypeChanged {
		add(c.ID)
	}
	for _, c := range plan.OptionsNarrowed {
		add(c.ID)
	}
	return ids
}

func checkPlan(plan *core.MigrationPlan, newSchema *core.Schema) error {
	missing := func(kind, id string) error {
		if newSchema.Field(id) == nil {
			return fmt.Errorf("%w: %s field %q is not in the new schema", ErrStalePlan, kind, id)
		}
		return nil
	}

	for _, f := range plan.Added {
		if err := missing("added", f.ID); err != nil {
			return err
		}
	}
	for _, f := range plan.Removed {
		if newSchema.Field(f.ID) != nil {
			return fmt.Errorf("%w: removed field %q is still in the new schema", ErrStalePlan, f.ID)
		}
	}
	for _, c := range plan.TypeChanged {
		if err := missing("type-changed", c.ID); err != nil {
			return err
		}
	}
	for _, c := range plan.ItemTypeChanged {
		if err := missing("item-type-changed", c.ID); err != nil {
			return err
		}
	}
	for _, c := range plan.OptionsNarrowed {
		if err := missing("options-narrowed", c.ID); err != nil {
			return err
		}
	}
	for _, c := range plan.RangeNarrowed {
		if err := missing("range-narrowed", c.ID); err != nil {
			return err
		}
	}
	return nil
}
