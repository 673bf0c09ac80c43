// Package output renders command results for terminals, pipes and tools.
//
// Auto mode picks styled text on a terminal and markdown otherwise; json
// is always explicit.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode is an output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

type rendererKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r *Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// FromContext returns the renderer stored by NewContext.
func FromContext(ctx context.Context) (*Renderer, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(rendererKey{}).(*Renderer)
	return r, ok
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	switch mode {
	case "":
		mode = ModeAuto
	case "md":
		mode = ModeMarkdown
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(lipgloss.NewRenderer(out)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto to text on a terminal and markdown elsewhere.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether the output is a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header at the given level (1 or 2).
func (r *Renderer) Header(level int, title string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		r.Println(strings.Repeat("#", max(level, 1)) + " " + title)
	case ModeText:
		if level <= 1 {
			r.Println(r.styles.Header1.Render(title))
			return
		}
		r.Println(r.styles.Header.Render(title))
	default:
		r.Println(title)
	}
}

// StatusLine writes one item with a status marker: success, warn, error or skip.
func (r *Renderer) StatusLine(label, status, detail string) {
	line := label
	if detail != "" {
		line += " (" + detail + ")"
	}
	if r.EffectiveMode() != ModeText {
		r.Printf("- [%s] %s\n", status, line)
		return
	}
	var icon string
	switch status {
	case "success":
		icon = r.styles.Success.Render("✓")
	case "warn":
		icon = r.styles.Warning.Render("!")
	case "error":
		icon = r.styles.Error.Render("✗")
	default:
		icon = r.styles.Muted.Render("-")
	}
	r.Printf("  %s %s\n", icon, line)
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Success.Render("✓ " + msg))
		return
	}
	r.Println(msg)
}

// Muted writes a de-emphasised line.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Muted.Render(msg))
		return
	}
	r.Println(msg)
}

// Warning writes a warning to the error stream.
func (r *Renderer) Warning(msg string) {
	r.diagnostic("Warning", msg, r.styles.Warning)
}

// Error writes an error to the error stream.
func (r *Renderer) Error(msg string) {
	r.diagnostic("Error", msg, r.styles.Error)
}

func (r *Renderer) diagnostic(label, msg string, style lipgloss.Style) {
	line := label + ": " + msg
	if r.EffectiveMode() == ModeText {
		line = style.Render(line)
	}
	_, _ = fmt.Fprintln(r.errOut, line)
}

// List writes bullet items, one per line.
func (r *Renderer) List(items []string) {
	for _, item := range items {
		r.Printf("- %s\n", item)
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// KeyValue writes a labelled value.
func (r *Renderer) KeyValue(key, value string) {
	r.Println(FormatKeyValue(key, value, r.EffectiveMode(), r.styles))
}

// Table renders rows under header. Text mode draws a box table, markdown
// mode a pipe table.
func (r *Renderer) Table(header []string, rows [][]string) {
	if len(rows) == 0 {
		r.Muted("(none)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	t.AppendHeader(hr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

// FormatHeader formats a section header for mode.
func FormatHeader(title string, mode Mode, styles *Styles) string {
	switch mode {
	case ModeMarkdown:
		return "## " + title
	case ModeText:
		if styles != nil {
			return styles.Header.Render(title)
		}
	}
	return title
}

// FormatKeyValue formats a label and value for mode.
func FormatKeyValue(key, value string, mode Mode, styles *Styles) string {
	switch mode {
	case ModeMarkdown:
		return fmt.Sprintf("- **%s**: %s", key, value)
	case ModeText:
		if styles != nil {
			return styles.Bold.Render(key+":") + " " + value
		}
	}
	return key + ": " + value
}

// FormatCodeBlock wraps body in a fenced block in markdown mode.
func FormatCodeBlock(body, lang string, mode Mode) string {
	if mode != ModeMarkdown {
		return body
	}
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```"
}
