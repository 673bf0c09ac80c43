package catalog

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/migrate"
	"github.com/leapstack-labs/boardkit/pkg/schema"
)

// ChangeResult describes an applied schema change.
type ChangeResult struct {
	Plan     *core.MigrationPlan
	OldHash  string
	NewHash  string
	Migrated int
}

// PlanSchemaChange validates a draft schema and diffs it against the active
// one. Drafts that drop a required core field are rejected.
func (c *Catalog) PlanSchemaChange(draft *core.Schema) (*core.MigrationPlan, error) {
	if problems := schema.Validate(draft); len(problems) > 0 {
		return nil, invalid("validate schema", problems)
	}

	plan := migrate.Diff(c.schema, draft)

	var problems []string
	for _, f := range plan.Removed {
		if c.schema.IsRequiredCore(f.ID) {
			problems = append(problems, fmt.Sprintf("Field %q is a required core field and cannot be removed.", f.ID))
		}
	}
	if len(problems) > 0 {
		return nil, invalid("plan schema change", problems)
	}
	return plan, nil
}

// ApplySchemaChange migrates every card to draft and makes draft the active
// schema. plan may be nil; otherwise it must equal the plan PlanSchemaChange
// returns for draft or migrate.ErrStalePlan is returned. defaults holds values
// for added fields; each must be valid for its field. Destructive plans need
// confirmed.
func (c *Catalog) ApplySchemaChange(draft *core.Schema, plan *core.MigrationPlan, defaults map[string]any, confirmed bool) (*ChangeResult, error) {
	fresh, err := c.PlanSchemaChange(draft)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if err := migrate.Verify(plan, c.schema, draft); err != nil {
			return nil, err
		}
	}
	plan = fresh

	if plan.Destructive() && !confirmed {
		return nil, ErrNeedsConfirmation
	}
	if problems := checkDefaults(plan, defaults); len(problems) > 0 {
		return nil, invalid("apply schema change", problems)
	}

	newHash, err := schema.Hash(draft)
	if err != nil {
		return nil, err
	}
	result := &ChangeResult{Plan: plan, OldHash: c.schemaHash, NewHash: newHash}

	if !plan.RequiresMigration() {
		c.schema, c.schemaHash = draft, newHash
		c.logger.Info("schema updated without data changes", slog.String("schema_hash", newHash))
		return result, nil
	}

	migrated, err := migrate.Apply(plan, draft, c.records, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate cards: %w", err)
	}

	c.schema, c.schemaHash, c.records = migrated.Schema, newHash, migrated.Records
	result.Migrated = len(migrated.Records)

	c.logger.Info("schema migrated",
		slog.Int("cards", result.Migrated),
		slog.Int("added", len(plan.Added)),
		slog.Int("removed", len(plan.Removed)),
		slog.Bool("destructive", plan.Destructive()),
		slog.String("schema_hash", newHash))
	return result, nil
}

// checkDefaults validates caller defaults against the added field they fill.
func checkDefaults(plan *core.MigrationPlan, defaults map[string]any) []string {
	var problems []string
	added := make(map[string]bool, len(plan.Added))
	for i := range plan.Added {
		field := &plan.Added[i]
		added[field.ID] = true
		v, ok := defaults[field.ID]
		if !ok {
			continue
		}
		single := &core.Schema{Fields: []core.FieldDefinition{*field}}
		problems = append(problems, card.Validate(single, map[string]any{field.ID: v})...)
	}

	var unknown []string
	for id := range defaults {
		if !added[id] {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	for _, id := range unknown {
		problems = append(problems, fmt.Sprintf("Default given for %q, which is not an added field.", id))
	}
	return problems
}
