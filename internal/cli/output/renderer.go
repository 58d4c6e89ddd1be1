// Package output renders command results as styled text, markdown, JSON or
// CSV depending on the output mode and whether stdout is a terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutputMode selects the rendering format.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
	ModeCSV      OutputMode = "csv"
)

// Mode parses an output format name. Unknown names select auto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON, ModeCSV:
		return m
	case "md":
		return ModeMarkdown
	}
	return ModeAuto
}

// Renderer writes command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	styles := plainStyles()
	if isTTY {
		styles = DefaultStyles()
	}
	return &Renderer{out: out, errOut: errOut, isTTY: isTTY, mode: mode, styles: styles}
}

// EffectiveMode resolves auto: text on a terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the active styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a header in the current mode.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		r.Println()
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning writes a warning line to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error writes an error line to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// Muted writes a de-emphasized line.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// KeyValues writes label/value pairs in order.
func (r *Renderer) KeyValues(pairs [][2]string) {
	if r.EffectiveMode() == ModeMarkdown {
		for _, p := range pairs {
			r.Println(FormatKeyValue(p[0], p[1]))
		}
		r.Println()
		return
	}
	for _, p := range pairs {
		r.Println(r.styles.Key.Render(p[0]+":") + " " + p[1])
	}
}

// Warnings writes collected warnings once, as a list under a header. JSON
// and CSV callers include warnings in their payload instead.
func (r *Renderer) Warnings(list []swmm.Warning) {
	if len(list) == 0 {
		return
	}
	switch r.EffectiveMode() {
	case ModeMarkdown:
		r.Println(FormatHeader(2, fmt.Sprintf("Warnings (%d)", len(list))))
		r.Println()
		for _, w := range list {
			r.Printf("- **%s**: %s\n", w.Kind, w.Message)
		}
		r.Println()
	case ModeText:
		r.Println(r.styles.Warning.Render(fmt.Sprintf("Warnings (%d)", len(list))))
		for _, w := range list {
			r.Println(r.styles.Warning.Render("  ! ") + string(w.Kind) + ": " + w.Message)
		}
	}
}

// Table writes t in the current mode. Text uses a boxed table, markdown a
// pipe table, CSV the table's CSV form and JSON an array of objects.
func (r *Renderer) Table(t *table.Table) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(TableRecords(t))
	case ModeCSV:
		return table.WriteCSV(r.out, t)
	}

	if t.Len() == 0 {
		r.Muted("(0 rows)")
		return nil
	}
	tw := prettytable.NewWriter()
	tw.SetOutputMirror(r.out)
	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		cells := make(prettytable.Row, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = row.String(c)
		}
		tw.AppendRow(cells)
	}

	if r.EffectiveMode() == ModeMarkdown {
		tw.RenderMarkdown()
		r.Println()
		return nil
	}
	tw.SetStyle(prettytable.StyleLight)
	tw.Render()
	r.Muted(fmt.Sprintf("(%d rows)", t.Len()))
	return nil
}

// Record is a table row with columns kept in table order.
type Record struct {
	columns []string
	row     table.Row
}

// MarshalJSON writes the row as an object with keys in column order.
func (rec Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range rec.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := rec.row.Get(c).MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// TableRecords converts the rows of t for JSON output.
func TableRecords(t *table.Table) []Record {
	out := make([]Record, 0, t.Len())
	for _, row := range t.Rows {
		out = append(out, Record{columns: t.Columns, row: row})
	}
	return out
}

// FormatHeader returns a markdown header.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", max(level, 1)) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold label.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// Title turns an identifier such as "node_depth" into "Node Depth".
func Title(name string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}
