package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/internal/state"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/spf13/cobra"
)

// NewSessionCommand creates the session command group.
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Export or restore the whole catalog",
		Long: `A session export holds the schema, every card and the board in one
journal-session document. Importing one replaces the current catalog.`,
	}

	cmd.AddCommand(newSessionExportCommand())
	cmd.AddCommand(newSessionImportCommand())

	return cmd
}

func newSessionExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the catalog as a session export",
		Example: `  boardkit session export --file backup.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			exp := cmdCtx.Catalog.Export()
			if err := writeJSONFile(cmd.OutOrStdout(), file, exp); err != nil {
				return err
			}
			if file != "" && file != "-" {
				cmdCtx.Renderer.Success(fmt.Sprintf("Exported %d cards to %s", len(exp.Records), file))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the export to this file instead of stdout")

	return cmd
}

func newSessionImportCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog with a session export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			exp, err := catalog.DecodeSession(data)
			if err != nil {
				return err
			}

			cmdCtx := NewCommandContextWithoutStore(cmd)
			r := cmdCtx.Renderer

			store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			_, err = store.Get(cmd.Context(), state.KeySchema)
			switch {
			case err == nil && !force:
				return fmt.Errorf("a catalog already exists in %s. Use --force to replace it", cmdCtx.Cfg.StatePath)
			case err != nil && !errors.Is(err, state.ErrNotFound):
				return err
			}

			cat, err := catalog.Import(exp, catalog.Config{Logger: cmdCtx.Logger})
			if err != nil {
				var verr *catalog.ValidationError
				if errors.As(err, &verr) {
					return renderProblems(r, args[0], verr.Problems)
				}
				return err
			}
			if err := store.SaveCatalog(cmd.Context(), cat); err != nil {
				return fmt.Errorf("failed to save catalog: %w", err)
			}

			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"cards": len(cat.Records()), "schema_hash": cat.SchemaHash()})
			}
			r.Success(fmt.Sprintf("Imported %d cards", len(cat.Records())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing catalog")

	return cmd
}
