package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes content to boardkit.yaml in a fresh temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boardkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "verbose: false\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, OutputAuto, cfg.OutputFormat)
	assert.Equal(t, DefaultWidth, cfg.Framing.Width)
	assert.Equal(t, DefaultHeight, cfg.Framing.Height)
	assert.Equal(t, DefaultBackground, cfg.Framing.Background)
	assert.InDelta(t, DefaultMaxZoom, cfg.Framing.MaxZoom, 1e-9)
	assert.False(t, cfg.Migrate.AutoConfirm)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `state_path: /tmp/cards.db
output: MD
framing:
  width: 600
  height: 840
  background: "#102030"
  max_zoom: 4
migrate:
  auto_confirm: true
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cards.db", cfg.StatePath)
	assert.Equal(t, OutputMarkdown, cfg.OutputFormat)
	assert.Equal(t, 600, cfg.Framing.Width)
	assert.Equal(t, 840, cfg.Framing.Height)
	assert.Equal(t, "#102030", cfg.Framing.Background)
	assert.InDelta(t, 4.0, cfg.Framing.MaxZoom, 1e-9)
	assert.True(t, cfg.Migrate.AutoConfirm)
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\nframing:\n  width: 600\n")

	t.Setenv("BOARDKIT_OUTPUT", "json")
	t.Setenv("BOARDKIT_FRAMING_WIDTH", "320")
	t.Setenv("BOARDKIT_MIGRATE_AUTO_CONFIRM", "true")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, OutputJSON, cfg.OutputFormat)
	assert.Equal(t, 320, cfg.Framing.Width)
	assert.True(t, cfg.Migrate.AutoConfirm)
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\nstate_path: from_file.db\n")
	t.Setenv("BOARDKIT_OUTPUT", "markdown")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output mode")
	flags.String("state", "", "state path")
	flags.String("config", "", "config file")
	require.NoError(t, flags.Set("output", "json"))
	require.NoError(t, flags.Set("state", "from_flag.db"))
	require.NoError(t, flags.Set("config", cfgPath))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, OutputJSON, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(wd, "from_flag.db"), cfg.StatePath)
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "output: text\n")
	t.Setenv("BOARDKIT_OUTPUT", "markdown")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "output mode")

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, OutputMarkdown, cfg.OutputFormat)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown output", "output: html\n", "unknown output mode"},
		{"bad background", "framing:\n  background: teal\n", "framing.background"},
		{"zero width", "framing:\n  width: 0\n", "framing size must be positive"},
		{"small zoom", "framing:\n  max_zoom: 0.5\n", "max_zoom"},
		{"broken yaml", "framing: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.Nil(t, GetCurrentConfig())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("errors are joined", func(t *testing.T) {
		cfg := Default()
		cfg.StatePath = ""
		cfg.Framing.Height = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "state_path is required")
		assert.Contains(t, err.Error(), "framing size must be positive")
	})
}

func TestOutputMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"", OutputAuto, false},
		{"TEXT", OutputText, false},
		{" md ", OutputMarkdown, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m OutputMode
			err := m.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "state_path", envKey("BOARDKIT_STATE_PATH"))
	assert.Equal(t, "framing.max_zoom", envKey("BOARDKIT_FRAMING_MAX_ZOOM"))
	assert.Equal(t, "migrate.auto_confirm", envKey("BOARDKIT_MIGRATE_AUTO_CONFIRM"))
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
}
