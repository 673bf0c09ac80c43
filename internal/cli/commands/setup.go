package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/boardkit/internal/cli/config"
	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/internal/state"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    *state.SQLiteStore
	Catalog  *catalog.Catalog
	Renderer *output.Renderer
}

// NewCommandContext opens the state store and loads the catalog.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = store.Close()
	}

	cat, err := store.LoadCatalog(cmd.Context(), catalog.Config{Logger: cmdCtx.Logger})
	if err != nil {
		cleanup()
		if errors.Is(err, state.ErrNotFound) {
			return nil, nil, fmt.Errorf("no catalog found in %s\nHint: run 'boardkit init' first", cmdCtx.Cfg.StatePath)
		}
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	cmdCtx.Store = store
	cmdCtx.Catalog = cat
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without opening state.
// The config and renderer come from the root command when it ran.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	logger := config.GetLogger(ctx)
	r, ok := output.FromContext(ctx)
	if !ok {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Save persists the catalog snapshot.
func (c *CommandContext) Save(cmd *cobra.Command) error {
	if err := c.Store.SaveCatalog(cmd.Context(), c.Catalog); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// getConfig prefers the configuration in ctx, then the last loaded one, then
// the environment.
func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := config.FromContext(ctx); ok {
		return cfg
	}
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := config.Default()
	cfg.StatePath = getEnvOrDefault(config.EnvPrefix+"STATE_PATH", config.DefaultStateFile)
	cfg.Verbose = os.Getenv(config.EnvPrefix+"VERBOSE") == "true"
	if v := os.Getenv(config.EnvPrefix + "OUTPUT"); v != "" {
		cfg.OutputFormat = config.OutputMode(v)
	}
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}
