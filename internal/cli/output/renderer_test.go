package output

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTest(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		tty  bool
		want Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty defaults to auto", "", false, ModeMarkdown},
		{"md alias", "md", true, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"json", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTest(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)

	r.Header(2, "Fields")
	r.KeyValue("Schema", "journal")
	r.List([]string{"a", "b"})
	r.StatusLine("state.db", "success", "created")
	r.Warning("careful")

	assert.Equal(t, "## Fields\n- **Schema**: journal\n- a\n- b\n- [success] state.db (created)\n", out.String())
	assert.Equal(t, "Warning: careful\n", errOut.String())
}

func TestRenderer_Table(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTest(ModeMarkdown, false)
		r.Table([]string{"ID", "Type"}, [][]string{{"fullName", "string"}})
		s := out.String()
		assert.Contains(t, s, "| ID | Type |")
		assert.Contains(t, s, "| fullName | string |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTest(ModeText, false)
		r.Table([]string{"ID"}, [][]string{{"rank"}})
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, out.String(), "rank")
	})

	t.Run("empty", func(t *testing.T) {
		r, out, _ := newTest(ModeMarkdown, false)
		r.Table([]string{"ID"}, nil)
		assert.Equal(t, "(none)\n", out.String())
	})
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"cards": 6}))
	assert.Equal(t, "{\n  \"cards\": 6\n}\n", out.String())
}

func TestRenderer_TextStylesArePlainOffTerminal(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.Success("saved")
	r.Error("boom")
	assert.Equal(t, "✓ saved\n", out.String())
	assert.False(t, strings.Contains(errOut.String(), "\x1b["))
	assert.Contains(t, errOut.String(), "Error: boom")
}

func TestFormatCodeBlock(t *testing.T) {
	assert.Equal(t, "```json\n{}\n```", FormatCodeBlock("{}\n", "json", ModeMarkdown))
	assert.Equal(t, "{}\n", FormatCodeBlock("{}\n", "json", ModeText))
}

func TestRendererContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	r, _, _ := newTest(ModeText, false)
	got, ok := FromContext(NewContext(context.Background(), r))
	require.True(t, ok)
	assert.Same(t, r, got)
}
