package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/pkg/core"
)

// planSection is one list of a migration plan flattened for display.
type planSection struct {
	Name  string
	Lines []string
}

func planSections(plan *core.MigrationPlan) []planSection {
	var added, removed, typed, items, options, ranges, other []string
	for _, f := range plan.Added {
		added = append(added, fmt.Sprintf("%s (%s)", f.ID, f.Type))
	}
	for _, f := range plan.Removed {
		removed = append(removed, fmt.Sprintf("%s (%s)", f.ID, f.Type))
	}
	for _, c := range plan.TypeChanged {
		typed = append(typed, fmt.Sprintf("%s: %s -> %s", c.ID, c.FromType, c.ToType))
	}
	for _, c := range plan.ItemTypeChanged {
		items = append(items, fmt.Sprintf("%s: %s -> %s", c.ID, c.FromItemType, c.ToItemType))
	}
	for _, c := range plan.OptionsNarrowed {
		options = append(options, fmt.Sprintf("%s: drops %s", c.ID, strings.Join(c.RemovedOptions, ", ")))
	}
	for _, c := range plan.RangeNarrowed {
		ranges = append(ranges, fmt.Sprintf("%s: %s -> %s", c.ID, formatRange(c.OldRange), formatRange(c.NewRange)))
	}
	for _, u := range plan.OtherUpdates {
		other = append(other, fmt.Sprintf("%s: %s", u.ID, strings.Join(u.Changes, ", ")))
	}
	other = append(other, plan.MetaChanges...)

	all := []planSection{
		{"added fields", added},
		{"removed fields", removed},
		{"type changes", typed},
		{"list item type changes", items},
		{"options removed", options},
		{"ranges narrowed", ranges},
		{"other updates", other},
	}
	out := all[:0]
	for _, s := range all {
		if len(s.Lines) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// renderPlan prints a migration plan in the renderer's mode.
func renderPlan(r *output.Renderer, plan *core.MigrationPlan) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(plan)
	}

	if plan.IsIdentity() {
		r.Muted("No changes.")
		return nil
	}

	titleCaser := cases.Title(language.English)
	styles := r.Styles()
	for _, s := range planSections(plan) {
		r.Header(2, titleCaser.String(s.Name))
		for _, line := range s.Lines {
			if r.EffectiveMode() == output.ModeText {
				r.Println("  " + line)
			} else {
				r.Printf("- %s\n", line)
			}
		}
		r.Println("")
	}

	switch {
	case plan.Destructive():
		msg := "This change can lose or alter existing card data."
		if r.EffectiveMode() == output.ModeText {
			msg = styles.Warning.Render(msg)
		}
		r.Println(msg)
	case plan.RequiresMigration():
		r.Println("Cards will be migrated; no existing values are lost.")
	default:
		r.Println("Presentation-only change; card data is untouched.")
	}
	return nil
}

// renderProblems prints validation problems and returns an error summarising them.
func renderProblems(r *output.Renderer, what string, problems []string) error {
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(map[string]any{"valid": false, "problems": problems}); err != nil {
			return err
		}
	} else {
		r.Header(2, "Problems")
		r.List(problems)
	}
	return fmt.Errorf("%s has %d problem(s)", what, len(problems))
}

func formatRange(rg core.Range) string {
	return "[" + formatBound(rg.Min) + ", " + formatBound(rg.Max) + "]"
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// fieldDetails summarises the type-specific attributes of a field.
func fieldDetails(f core.FieldDefinition) string {
	var parts []string
	switch f.Type {
	case core.FieldNumber:
		if f.Min != nil || f.Max != nil {
			parts = append(parts, "range "+formatRange(core.Range{Min: f.Min, Max: f.Max}))
		}
		if f.Radar {
			parts = append(parts, "radar")
		}
		if f.BoardAggregate != "" {
			parts = append(parts, "board "+string(f.BoardAggregate))
		}
	case core.FieldEnum, core.FieldMultiSelect:
		parts = append(parts, strings.Join(f.Options, " | "))
	case core.FieldList:
		parts = append(parts, "of "+string(f.EffectiveItemType()))
	case core.FieldString:
		if f.MaxLength > 0 {
			parts = append(parts, "max "+strconv.Itoa(f.MaxLength))
		}
	}
	if f.Unique {
		parts = append(parts, "unique")
	}
	return strings.Join(parts, "; ")
}

// formatValue renders a card value for a table cell.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatValue(item)
		}
		return strings.Join(items, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// writeJSONFile writes v as indented JSON to path, or to w when path is "" or "-".
func writeJSONFile(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
