package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardkit/internal/cli/testutil"
	"github.com/leapstack-labs/boardkit/pkg/card"
	"github.com/leapstack-labs/boardkit/pkg/catalog"
	"github.com/leapstack-labs/boardkit/pkg/core"
)

func TestCardList(t *testing.T) {
	testutil.SetupTestCatalog(t)

	out, _, err := testutil.RunCommand(t, NewCardCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Michelle Obama")
	assert.Contains(t, out, "| ID | Full Name | Tagline | Categories |")
	assert.Contains(t, out, "(6 cards)")
	testutil.AssertNoANSI(t, out)

	t.Setenv("BOARDKIT_OUTPUT", "json")
	out, _, err = testutil.RunCommand(t, NewCardCommand(), "ls")
	require.NoError(t, err)
	var records []core.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 6)
}

func TestCardShow(t *testing.T) {
	testutil.SetupTestCatalog(t)

	out, _, err := testutil.RunCommand(t, NewCardCommand(), "show", "michelle-obama")
	require.NoError(t, err)
	assert.Contains(t, out, "# Card michelle-obama")
	assert.Contains(t, out, "- **Full Name**: Michelle Obama")

	_, _, err = testutil.RunCommand(t, NewCardCommand(), "show", "nobody")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCardValidate(t *testing.T) {
	dir := testutil.SetupTestCatalog(t)

	good := testutil.WriteJSON(t, dir, "good.json", map[string]any{
		"data": map[string]any{"fullName": "Ada Lovelace", "governance": 7},
	})
	out, _, err := testutil.RunCommand(t, NewCardCommand(), "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := testutil.WriteJSON(t, dir, "bad.json", map[string]any{
		"data": map[string]any{"governance": 42},
	})
	out, _, err = testutil.RunCommand(t, NewCardCommand(), "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem(s)")
	assert.Contains(t, out, "## Problems")
}

func TestCardAddAndDelete(t *testing.T) {
	dir := testutil.SetupTestCatalog(t)

	path := testutil.WriteJSON(t, dir, "ada.json", map[string]any{
		"cardId": "ada",
		"data":   map[string]any{"fullName": "Ada Lovelace", "availability": "Warm"},
	})
	out, _, err := testutil.RunCommand(t, NewCardCommand(), "add", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved card ada")

	cat := testutil.LoadCatalog(t, dir)
	rec, err := cat.Card("ada")
	require.NoError(t, err)
	assert.Equal(t, "Warm", rec.Data["availability"])

	dup := testutil.WriteJSON(t, dir, "dup.json", map[string]any{
		"data": map[string]any{"fullName": "Michelle Obama"},
	})
	_, _, err = testutil.RunCommand(t, NewCardCommand(), "add", dup)
	require.Error(t, err, "fullName is unique")
	assert.Len(t, testutil.LoadCatalog(t, dir).Records(), 7)

	out, _, err = testutil.RunCommand(t, NewCardCommand(), "rm", "ada")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted card ada")
	assert.Len(t, testutil.LoadCatalog(t, dir).Records(), 6)

	_, _, err = testutil.RunCommand(t, NewCardCommand(), "delete", "ada")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCardDeleteDropsAssignments(t *testing.T) {
	dir := testutil.SetupTestCatalog(t)

	_, _, err := testutil.RunCommand(t, NewBoardCommand(), "assign", "director", "oppenheimer")
	require.NoError(t, err)
	_, _, err = testutil.RunCommand(t, NewCardCommand(), "delete", "oppenheimer")
	require.NoError(t, err)

	assert.Empty(t, testutil.LoadCatalog(t, dir).Board().Assignments)
}

func TestCardExportImport(t *testing.T) {
	dir := testutil.SetupTestCatalog(t)

	out, _, err := testutil.RunCommand(t, NewCardCommand(), "export", "alfred-nobel")
	require.NoError(t, err)
	bundle, err := card.DecodeBundle([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "alfred-nobel", bundle.Card.ID)

	exportDir := filepath.Join(dir, "exports")
	require.NoError(t, os.Mkdir(exportDir, 0o755))
	_, _, err = testutil.RunCommand(t, NewCardCommand(), "export", "alfred-nobel", "--file", exportDir)
	require.NoError(t, err)
	path := filepath.Join(exportDir, "alfred-nobel.json")
	assert.FileExists(t, path)

	// The bundle still collides with the original on the unique name.
	_, _, err = testutil.RunCommand(t, NewCardCommand(), "import", path)
	require.Error(t, err)

	_, _, err = testutil.RunCommand(t, NewCardCommand(), "delete", "alfred-nobel")
	require.NoError(t, err)
	out, _, err = testutil.RunCommand(t, NewCardCommand(), "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported card alfred-nobel")
	assert.Len(t, testutil.LoadCatalog(t, dir).Records(), 6)
}

func TestCardImportRejectsForeignSchema(t *testing.T) {
	dir := testutil.SetupTestCatalog(t)

	out, _, err := testutil.RunCommand(t, NewCardCommand(), "export", "oppenheimer")
	require.NoError(t, err)
	bundle, err := card.DecodeBundle([]byte(out))
	require.NoError(t, err)
	bundle.SchemaHash = "not-the-active-hash"
	bundle.Card.Data["fullName"] = "J. Robert Oppenheimer II"
	path := testutil.WriteJSON(t, dir, "foreign.json", bundle)

	_, _, err = testutil.RunCommand(t, NewCardCommand(), "import", path)
	require.Error(t, err)
	assert.Len(t, testutil.LoadCatalog(t, dir).Records(), 6)
}

func TestCardCompare(t *testing.T) {
	testutil.SetupTestCatalog(t)

	out, _, err := testutil.RunCommand(t, NewCardCommand(), "compare", "michelle-obama", "alfred-nobel")
	require.NoError(t, err)
	assert.Contains(t, out, "| Field | michelle-obama | alfred-nobel |")
	assert.Contains(t, out, "Full Name")

	t.Setenv("BOARDKIT_OUTPUT", "json")
	out, _, err = testutil.RunCommand(t, NewCardCommand(), "compare", "michelle-obama", "michelle-obama", "--diff")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Empty(t, rows, "a card never differs from itself")
}

func TestDefaultBundleName(t *testing.T) {
	s := &core.Schema{Fields: []core.FieldDefinition{{ID: "fullName", Label: "Name", Type: core.FieldString}}}

	tests := []struct {
		name string
		rec  core.Record
		want string
	}{
		{"from full name", core.Record{ID: "x1", Data: map[string]any{"fullName": "Amal Clooney"}}, "amal-clooney.json"},
		{"no name", core.Record{ID: "x1", Data: map[string]any{}}, "card-x1.json"},
		{"name of symbols only", core.Record{ID: "x2", Data: map[string]any{"fullName": "!!!"}}, "card-x2.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultBundleName(tt.rec, s))
		})
	}
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "short", abbreviate("  short ", 10))
	assert.Equal(t, "data:image...", abbreviate("data:image/png;base64,AAAAAAAAAAAAAAAA", 10))
}
