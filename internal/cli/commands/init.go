package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/boardkit/internal/defaults"
	"github.com/leapstack-labs/boardkit/internal/state"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/spf13/cobra"
)

const configTemplate = `# boardkit configuration
state_path: .boardkit/state.db
output: auto

framing:
  width: 750
  height: 1050
  background: "#ffffff"
  max_zoom: 8

migrate:
  auto_confirm: false
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a catalog seeded with the default schema and cards",
		Long: `Create the state database and seed it with the built-in journal schema,
its six sample cards and an empty board.

A boardkit.yaml with default settings is written to the current directory
unless one already exists.`,
		Example: `  # Initialize in the current directory
  boardkit init

  # Discard the existing catalog and start over
  boardkit init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing catalog")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
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
		return fmt.Errorf("a catalog already exists in %s. Use --force to overwrite", cmdCtx.Cfg.StatePath)
	case err != nil && !errors.Is(err, state.ErrNotFound):
		return err
	}

	s, err := defaults.Schema()
	if err != nil {
		return fmt.Errorf("failed to load default schema: %w", err)
	}
	cards, err := defaults.Cards()
	if err != nil {
		return fmt.Errorf("failed to load default cards: %w", err)
	}
	cat, err := catalog.New(catalog.Config{Schema: s, Records: cards, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}
	if err := store.SaveCatalog(cmd.Context(), cat); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	r.StatusLine(cmdCtx.Cfg.StatePath, "success", fmt.Sprintf("%d cards", len(cards)))

	const configFile = "boardkit.yaml"
	if _, err := os.Stat(configFile); err == nil {
		r.StatusLine(configFile, "skip", "exists")
	} else {
		if err := os.WriteFile(configFile, []byte(configTemplate), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", configFile, err)
		}
		r.StatusLine(configFile, "success", "")
	}

	r.Println("")
	r.Success("boardkit catalog initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'boardkit card list' to see the sample cards")
	r.Println("  2. Run 'boardkit schema show' to inspect the fields")
	r.Println("  3. Edit a copy of the schema and preview it with 'boardkit schema diff'")

	return nil
}
