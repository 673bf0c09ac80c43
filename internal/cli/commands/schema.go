package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect, validate and migrate the card schema",
		Long: `Work with the schema that governs card fields.

Schema documents are JSON or YAML files with the same shape as the output of
'boardkit schema show -o json'. Changes are previewed with 'diff' and applied
with 'apply', which migrates every card in one step.`,
	}

	cmd.AddCommand(newSchemaShowCommand())
	cmd.AddCommand(newSchemaValidateCommand())
	cmd.AddCommand(newSchemaDiffCommand())
	cmd.AddCommand(newSchemaApplyCommand())
	cmd.AddCommand(newSchemaWatchCommand())
	cmd.AddCommand(newSchemaHistoryCommand())

	return cmd
}

func newSchemaShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderSchema(cmdCtx.Renderer, cmdCtx.Catalog.Schema(), cmdCtx.Catalog.SchemaHash())
		},
	}
}

func renderSchema(r *output.Renderer, s *core.Schema, hash string) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(s)
	}

	name := s.SchemaName
	if name == "" {
		name = "Schema"
	}
	r.Header(1, name)
	if s.SchemaVersion != "" {
		r.KeyValue("Version", s.SchemaVersion)
	}
	if s.SchemaID != "" {
		r.KeyValue("ID", s.SchemaID)
	}
	if hash != "" {
		r.KeyValue("Hash", hash)
	}
	if len(s.RequiredCoreFields) > 0 {
		r.KeyValue("Core fields", strings.Join(s.RequiredCoreFields, ", "))
	}
	if s.DefaultSort != nil {
		r.KeyValue("Default sort", fmt.Sprintf("%s %s", s.DefaultSort.Field, s.DefaultSort.Direction))
	}
	r.Println("")

	rows := make([][]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		rows = append(rows, []string{f.ID, f.Label, string(f.Type), yesNo(f.Required), fieldDetails(f)})
	}
	r.Table([]string{"ID", "Label", "Type", "Required", "Details"}, rows)
	return nil
}

func newSchemaValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <file>",
		Short:   "Validate a schema document",
		Example: `  boardkit schema validate draft.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := NewCommandContextWithoutStore(cmd).Renderer

			draft, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			if problems := schema.Validate(draft); len(problems) > 0 {
				return renderProblems(r, args[0], problems)
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"valid": true, "problems": []string{}})
			}
			r.Success(fmt.Sprintf("%s is valid (%d fields)", args[0], len(draft.Fields)))
			return nil
		},
	}
}

func newSchemaDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file>",
		Short: "Preview the migration from the active schema to a draft",
		Example: `  boardkit schema diff draft.yaml
  boardkit schema diff draft.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return diffDraft(cmdCtx.Renderer, cmdCtx.Catalog, args[0])
		},
	}
}

// diffDraft loads, validates and diffs a draft against the catalog.
func diffDraft(r *output.Renderer, cat *catalog.Catalog, path string) error {
	draft, err := schema.LoadFile(path)
	if err != nil {
		return err
	}
	plan, err := cat.PlanSchemaChange(draft)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			return renderProblems(r, path, verr.Problems)
		}
		return err
	}
	return renderPlan(r, plan)
}

func newSchemaApplyCommand() *cobra.Command {
	var (
		defaultFlags []string
		yes          bool
	)

	cmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Make a draft the active schema and migrate every card",
		Long: `Apply a draft schema. Every card is migrated in one step: new fields get
their default (or the value given with --default), removed fields are dropped,
and values no longer valid under the new field definitions are sanitised.

Changes that can lose or alter data need --yes, or migrate.auto_confirm in
the configuration.`,
		Example: `  # Add a field, filling it with a value on every card
  boardkit schema apply draft.yaml --default region='"North"'

  # Remove a field
  boardkit schema apply draft.yaml --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := parseDefaults(defaultFlags)
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			draft, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			plan, err := cmdCtx.Catalog.PlanSchemaChange(draft)
			if err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					return renderProblems(r, args[0], verr.Problems)
				}
				return err
			}
			if plan.IsIdentity() {
				r.Muted("Schema unchanged.")
				return nil
			}

			confirmed := yes || cmdCtx.Cfg.Migrate.AutoConfirm
			res, err := cmdCtx.Catalog.ApplySchemaChange(draft, plan, defaults, confirmed)
			if errors.Is(err, catalog.ErrNeedsConfirmation) {
				if rerr := renderPlan(r, plan); rerr != nil {
					return rerr
				}
				return fmt.Errorf("%w\nHint: re-run with --yes to apply", err)
			}
			if err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					return renderProblems(r, args[0], verr.Problems)
				}
				return err
			}

			rec, err := cmdCtx.Store.CommitMigration(cmd.Context(), cmdCtx.Catalog, res)
			if err != nil {
				return err
			}

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{
					"migration_id": rec.ID,
					"from_hash":    res.OldHash,
					"to_hash":      res.NewHash,
					"migrated":     res.Migrated,
					"plan":         res.Plan,
				})
			}
			if err := renderPlan(r, plan); err != nil {
				return err
			}
			r.Println("")
			r.Success(fmt.Sprintf("Schema applied; %d card(s) migrated", res.Migrated))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&defaultFlags, "default", nil, "Value for an added field as id=<json> (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm changes that can lose or alter card data")

	return cmd
}

// parseDefaults turns id=<json> pairs into a defaults map. A value that is
// not valid JSON is taken as a plain string.
func parseDefaults(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --default %q: want id=<json>", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[id] = v
	}
	return out, nil
}

func newSchemaHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List applied schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			migrations, err := cmdCtx.Store.ListMigrations(cmd.Context())
			if err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(migrations)
			}

			rows := make([][]string, 0, len(migrations))
			for _, m := range migrations {
				rows = append(rows, []string{
					m.AppliedAt.Format("2006-01-02 15:04:05"),
					shortHash(m.FromHash) + " -> " + shortHash(m.ToHash),
					fmt.Sprintf("+%d -%d", m.Added, m.Removed),
					yesNo(m.Destructive),
					fmt.Sprintf("%d", m.Records),
				})
			}
			r.Table([]string{"Applied", "Schema", "Fields", "Destructive", "Cards"}, rows)
			return nil
		},
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
