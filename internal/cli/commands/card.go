package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/spf13/cobra"
)

// NewCardCommand creates the card command group.
func NewCardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "List, edit and transfer cards",
		Long: `Work with the cards of the catalog.

Card documents are JSON objects of the form
  {"cardId": "...", "image": "...", "data": {...}, "notes": [...]}
where data is keyed by schema field id. A missing cardId adds a new card.`,
	}

	cmd.AddCommand(newCardListCommand())
	cmd.AddCommand(newCardShowCommand())
	cmd.AddCommand(newCardValidateCommand())
	cmd.AddCommand(newCardAddCommand())
	cmd.AddCommand(newCardDeleteCommand())
	cmd.AddCommand(newCardExportCommand())
	cmd.AddCommand(newCardImportCommand())
	cmd.AddCommand(newCardCompareCommand())

	return cmd
}

// summaryFields picks the columns of the card list: card-front fields, or
// the first three fields when the schema marks none.
func summaryFields(s *core.Schema) []core.FieldDefinition {
	var out []core.FieldDefinition
	for _, f := range s.Fields {
		if f.CardFront {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = s.Fields[:min(3, len(s.Fields))]
	}
	return out
}

func newCardListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cards in the schema's default order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			records := cmdCtx.Catalog.Sorted()
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(records)
			}

			fields := summaryFields(cmdCtx.Catalog.Schema())
			header := []string{"ID"}
			for _, f := range fields {
				header = append(header, f.Label)
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				row := []string{rec.ID}
				for _, f := range fields {
					row = append(row, formatValue(rec.Data[f.ID]))
				}
				rows = append(rows, row)
			}
			r.Table(header, rows)
			r.Muted(fmt.Sprintf("(%d cards)", len(records)))
			return nil
		},
	}
}

func newCardShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			rec, err := cmdCtx.Catalog.Card(args[0])
			if err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(rec)
			}

			r.Header(1, "Card "+rec.ID)
			for _, f := range cmdCtx.Catalog.Schema().Fields {
				r.KeyValue(f.Label, formatValue(rec.Data[f.ID]))
			}
			if rec.Image != "" {
				r.KeyValue("Image", abbreviate(rec.Image, 60))
			}
			if len(rec.Notes) > 0 {
				r.Println("")
				r.Header(2, "Notes")
				for _, n := range rec.Notes {
					r.Printf("- %s  %s\n", n.CreatedAt.Format("2006-01-02"), n.Text)
				}
			}
			return nil
		},
	}
}

func newCardValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a card document against the active schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}
			if problems := card.Validate(cmdCtx.Catalog.Schema(), rec.Data); len(problems) > 0 {
				return renderProblems(r, args[0], problems)
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"valid": true, "problems": []string{}})
			}
			r.Success(args[0] + " is valid")
			return nil
		},
	}
}

func newCardAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "add <file>",
		Short:   "Add a card, or replace the card with the same id",
		Example: `  boardkit card add new-card.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecord(args[0])
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			saved, err := cmdCtx.Catalog.SaveCard(rec)
			if err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					return renderProblems(r, args[0], verr.Problems)
				}
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(saved)
			}
			r.Success("Saved card " + saved.ID)
			return nil
		},
	}
}

func newCardDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a card and its board assignments",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Catalog.DeleteCard(args[0]); err != nil {
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("Deleted card " + args[0])
			return nil
		},
	}
}

func newCardExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a card as a transfer bundle",
		Long: `Write one card as a journal-card bundle. The bundle records the schema id
and hash so it can only be imported into a catalog with the same schema.

Without --file the bundle is written to stdout. When --file names a
directory the bundle is named after the card.`,
		Example: `  boardkit card export 7f3c... --file alex.json
  boardkit card export 7f3c... --file exports/`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			bundle, err := cmdCtx.Catalog.ExportCard(args[0])
			if err != nil {
				return err
			}
			if file == "" {
				return writeJSONFile(cmd.OutOrStdout(), "", bundle)
			}
			if info, err := os.Stat(file); err == nil && info.IsDir() {
				file = filepath.Join(file, defaultBundleName(*bundle.Card, cmdCtx.Catalog.Schema()))
			}
			if err := writeJSONFile(cmd.OutOrStdout(), file, bundle); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("Exported card to " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the bundle to this file instead of stdout")

	return cmd
}

// defaultBundleName suggests a file name for an exported card.
func defaultBundleName(rec core.Record, s *core.Schema) string {
	for _, id := range []string{"fullName", "name"} {
		if name, ok := rec.Data[id].(string); ok && s.Field(id) != nil {
			if slug := card.Slugify(name); slug != "" {
				return slug + ".json"
			}
		}
	}
	return "card-" + rec.ID + ".json"
}

func newCardImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a card bundle exported from a catalog with the same schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			bundle, err := card.DecodeBundle(data)
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			rec, err := cmdCtx.Catalog.ImportCard(bundle)
			if err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					return renderProblems(r, args[0], verr.Problems)
				}
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(rec)
			}
			r.Success("Imported card " + rec.ID)
			return nil
		},
	}
}

func newCardCompareCommand() *cobra.Command {
	var diffOnly bool

	cmd := &cobra.Command{
		Use:   "compare <id> <id>",
		Short: "Show two cards side by side",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer

			rows, err := cmdCtx.Catalog.Compare(args[0], args[1])
			if err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				out := make([]map[string]any, 0, len(rows))
				for _, c := range rows {
					if diffOnly && !c.Differs {
						continue
					}
					out = append(out, map[string]any{
						"field": c.Field.ID, "left": c.Left, "right": c.Right, "differs": c.Differs,
					})
				}
				return r.JSON(out)
			}

			table := make([][]string, 0, len(rows))
			for _, c := range rows {
				if diffOnly && !c.Differs {
					continue
				}
				mark := ""
				if c.Differs {
					mark = "*"
				}
				table = append(table, []string{c.Field.Label, formatValue(c.Left), formatValue(c.Right), mark})
			}
			r.Table([]string{"Field", args[0], args[1], ""}, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&diffOnly, "diff", false, "Only show fields that differ")

	return cmd
}

// readRecord reads a card document from a JSON file.
func readRecord(path string) (core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rec core.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return core.Record{}, fmt.Errorf("failed to parse card %s: %w", path, err)
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return rec, nil
}

func abbreviate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
