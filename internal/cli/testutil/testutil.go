// Package testutil holds fixtures and assertions for boardkit command tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardkit/internal/cli/config"
	"github.com/leapstack-labs/boardkit/internal/cli/output"
	"github.com/leapstack-labs/boardkit/internal/defaults"
	"github.com/leapstack-labs/boardkit/internal/state"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
)

// SetupTestCatalog creates a state database seeded with the default schema
// and cards in a temp directory, and points commands at it through
// BOARDKIT_STATE_PATH. It returns the temp directory.
func SetupTestCatalog(t *testing.T) string {
	t.Helper()

	dir := SetupEmptyState(t)
	statePath := filepath.Join(dir, "state.db")

	s, err := defaults.Schema()
	if err != nil {
		t.Fatalf("failed to load default schema: %v", err)
	}
	cards, err := defaults.Cards()
	if err != nil {
		t.Fatalf("failed to load default cards: %v", err)
	}
	cat, err := catalog.New(catalog.Config{Schema: s, Records: cards})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	store := state.NewSQLiteStore(nil)
	if err := store.Open(statePath); err != nil {
		t.Fatalf("failed to open state: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate state: %v", err)
	}
	if err := store.SaveCatalog(context.Background(), cat); err != nil {
		t.Fatalf("failed to save catalog: %v", err)
	}
	return dir
}

// SetupEmptyState points commands at a state database in a fresh temp
// directory without creating it. It returns the temp directory.
func SetupEmptyState(t *testing.T) string {
	t.Helper()

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	t.Setenv(config.EnvPrefix+"STATE_PATH", filepath.Join(dir, "state.db"))
	t.Setenv(config.EnvPrefix+"OUTPUT", "")
	return dir
}

// LoadCatalog reads the catalog a command left in the test state database.
func LoadCatalog(t *testing.T, dir string) *catalog.Catalog {
	t.Helper()

	store := state.NewSQLiteStore(nil)
	if err := store.Open(filepath.Join(dir, "state.db")); err != nil {
		t.Fatalf("failed to open state: %v", err)
	}
	defer func() { _ = store.Close() }()
	cat, err := store.LoadCatalog(context.Background(), catalog.Config{})
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return cat
}

// RunCommand executes cmd with args and returns its stdout and stderr.
func RunCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// WriteJSON writes v as JSON to name inside dir and returns the path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return WriteFile(t, dir, name, string(data))
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WritePNG writes a solid w x h PNG to name inside dir and returns the path.
func WritePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

// TestRenderer is a Renderer whose stdout and stderr land in buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer returns a renderer in the given mode, treating stdout as a
// terminal when isTTY is set.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns what was written to stderr.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches terminal colour and cursor sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails the test if s carries terminal escape sequences.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown fails on unbalanced code fences or empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
