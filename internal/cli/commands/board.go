package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/pkg/board"
	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/spf13/cobra"
)

// NewBoardCommand creates the board command group.
func NewBoardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Assign cards to board slots",
		Long: `The board has named slots. Cards are assigned to a slot in order of
preference; the first card of each slot is its first choice and feeds the
board profile of radar fields.

The director, secretary and treasurer slots always exist.`,
	}

	cmd.AddCommand(newBoardShowCommand())
	cmd.AddCommand(newBoardAssignCommand())
	cmd.AddCommand(newBoardUnassignCommand())
	cmd.AddCommand(newBoardAddSlotCommand())
	cmd.AddCommand(newBoardRemoveSlotCommand())

	return cmd
}

// boardView is the JSON shape of 'board show'.
type boardView struct {
	Board   core.Board    `json:"board"`
	Profile []profileAxis `json:"profile"`
}

type profileAxis struct {
	Field string  `json:"field"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Ratio float64 `json:"ratio"`
}

func newBoardShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show slots, assignments and the board profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			r := cmdCtx.Renderer
			cat := cmdCtx.Catalog

			b := cat.Board()
			axes := cat.Profile()
			if r.EffectiveMode() == output.ModeJSON {
				view := boardView{Board: b, Profile: make([]profileAxis, 0, len(axes))}
				for _, a := range axes {
					view.Profile = append(view.Profile, profileAxis{Field: a.Field.ID, Label: a.Field.Label, Value: a.Value, Ratio: a.Ratio})
				}
				return r.JSON(view)
			}

			names := cardNames(cat.Schema(), cat.Records())
			rows := make([][]string, 0, len(b.Assignments))
			for _, slot := range b.Slots {
				assigned := board.SlotAssignments(&b, slot.ID)
				if len(assigned) == 0 {
					rows = append(rows, []string{slot.Name, "", ""})
					continue
				}
				for _, a := range assigned {
					rows = append(rows, []string{slot.Name, strconv.Itoa(a.Rank), names(a.CardID)})
				}
			}
			r.Header(2, "Slots")
			r.Table([]string{"Slot", "Rank", "Card"}, rows)

			if len(axes) > 0 {
				r.Println("")
				r.Header(2, "Profile")
				prow := make([][]string, 0, len(axes))
				for _, a := range axes {
					prow = append(prow, []string{
						a.Field.Label,
						string(aggregateOf(a.Field)),
						strconv.FormatFloat(a.Value, 'f', -1, 64),
						fmt.Sprintf("%.0f%%", a.Ratio*100),
					})
				}
				r.Table([]string{"Field", "Aggregate", "Value", "Of range"}, prow)
			}
			return nil
		},
	}
}

func aggregateOf(f core.FieldDefinition) core.Aggregate {
	if f.BoardAggregate == "" {
		return core.AggregateMax
	}
	return f.BoardAggregate
}

// cardNames returns a lookup from card id to a display name.
func cardNames(s *core.Schema, records []core.Record) func(string) string {
	fields := summaryFields(s)
	byID := make(map[string]string, len(records))
	for _, rec := range records {
		name := rec.ID
		if len(fields) > 0 {
			if v := formatValue(rec.Data[fields[0].ID]); v != "" {
				name = v
			}
		}
		byID[rec.ID] = name
	}
	return func(id string) string {
		if name, ok := byID[id]; ok {
			return name
		}
		return id
	}
}

func newBoardAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <slot> <card>",
		Short: "Add a card to a slot at the next rank",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			a, err := cmdCtx.Catalog.Assign(args[0], args[1])
			if err != nil {
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Assigned %s to %s at rank %d", a.CardID, a.SlotID, a.Rank))
			return nil
		},
	}
}

func newBoardUnassignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <slot> <card>",
		Short: "Remove a card from a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Catalog.Unassign(args[0], args[1]); err != nil {
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Removed %s from %s", args[1], args[0]))
			return nil
		},
	}
}

func newBoardAddSlotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-slot <name>",
		Short: "Add a slot to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			slot, err := cmdCtx.Catalog.AddSlot(args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Added slot %s (%s)", slot.Name, slot.ID))
			return nil
		},
	}
}

func newBoardRemoveSlotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-slot <slot>",
		Short: "Remove a slot and its assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Catalog.RemoveSlot(args[0]); err != nil {
				return err
			}
			if err := cmdCtx.Save(cmd); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("Removed slot " + args[0])
			return nil
		},
	}
}
