package inp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// sectionOrder is the order SWMM itself writes sections in. Sections not
// listed here are written afterwards in the order they were added.
var sectionOrder = []string{
	"TITLE", "OPTIONS", "EVAPORATION", "RAINGAGES", "SUBCATCHMENTS", "SUBAREAS", "INFILTRATION",
	"JUNCTIONS", "OUTFALLS", "DIVIDERS", "STORAGE", "CONDUITS", "PUMPS", "ORIFICES", "WEIRS", "OUTLETS",
	"XSECTIONS", "TRANSECTS", "STREETS", "INLETS", "INLET_USAGE", "LOSSES", "POLLUTANTS", "LANDUSES",
	"COVERAGES", "LOADINGS", "BUILDUP", "WASHOFF", "INFLOWS", "DWF", "HYDROGRAPHS", "RDII", "CURVES",
	"TIMESERIES", "PATTERNS", "REPORT", "TAGS", "MAP", "COORDINATES", "VERTICES", "POLYGONS", "SYMBOLS",
}

// Line is one line of a section. A line without tokens is a comment line.
type Line struct {
	Tokens  []string
	Comment string
}

// Section is a named block of an INP file.
type Section struct {
	Name  string
	Lines []Line
}

// Append adds a data line.
func (s *Section) Append(tokens ...string) {
	s.Lines = append(s.Lines, Line{Tokens: tokens})
}

// AppendComment adds a comment line.
func (s *Section) AppendComment(text string) {
	s.Lines = append(s.Lines, Line{Comment: text})
}

// Data returns the token lists of every data line.
func (s *Section) Data() [][]string {
	if s == nil {
		return nil
	}
	out := make([][]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		if len(l.Tokens) > 0 {
			out = append(out, l.Tokens)
		}
	}
	return out
}

// File is an INP file as an ordered list of sections.
type File struct {
	Sections []*Section
}

func normName(name string) string {
	return strings.ToUpper(strings.Trim(strings.TrimSpace(name), "[]"))
}

// Section returns the named section or nil. Names are case insensitive.
func (f *File) Section(name string) *Section {
	n := normName(name)
	for _, s := range f.Sections {
		if normName(s.Name) == n {
			return s
		}
	}
	return nil
}

// Add returns the named section, creating it when absent.
func (f *File) Add(name string) *Section {
	if s := f.Section(name); s != nil {
		return s
	}
	s := &Section{Name: name}
	f.Sections = append(f.Sections, s)
	return s
}

// Read parses INP text. Header comments starting with ";;" are dropped;
// single ";" comment lines are kept because curves, patterns and time
// series use them as descriptions.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	var cur *Section
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		switch {
		case raw == "", strings.HasPrefix(raw, ";;"):
			continue
		case strings.HasPrefix(raw, "["):
			end := strings.Index(raw, "]")
			if end < 0 {
				return nil, fmt.Errorf("line %d: unterminated section header %q", lineNo, raw)
			}
			cur = f.Add(raw[1:end])
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: data before first section header", lineNo)
		}
		if strings.HasPrefix(raw, ";") {
			cur.AppendComment(strings.TrimSpace(raw[1:]))
			continue
		}
		if normName(cur.Name) == "TITLE" {
			cur.Append(raw)
			continue
		}
		tokens, comment := Tokenize(raw)
		cur.Lines = append(cur.Lines, Line{Tokens: tokens, Comment: comment})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading inp: %w", err)
	}
	return f, nil
}

// Tokenize splits an INP data line on whitespace. Double quoted tokens may
// contain spaces; an empty quoted token is kept as the literal `""`.
// Anything after an unquoted ';' is returned as the comment.
func Tokenize(line string) (tokens []string, comment string) {
	var b strings.Builder
	inQuote, quoted := false, false
	flush := func() {
		switch {
		case b.Len() > 0:
			tokens = append(tokens, b.String())
		case quoted:
			tokens = append(tokens, `""`)
		}
		b.Reset()
		quoted = false
	}
	for i, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case inQuote:
			b.WriteRune(r)
		case r == ';':
			flush()
			return tokens, strings.TrimSpace(line[i+1:])
		case r == ' ' || r == '\t':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return tokens, ""
}

// WriteTo writes the file in SWMM's conventional section order with the
// columns of each section aligned.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(s string) {
		k, _ := bw.WriteString(s)
		n += int64(k)
	}
	for i, s := range f.ordered() {
		if i > 0 {
			write("\n")
		}
		write("[" + s.Name + "]\n")
		widths := columnWidths(s)
		title := normName(s.Name) == "TITLE"
		for _, l := range s.Lines {
			if title && len(l.Tokens) > 0 {
				write(strings.Join(l.Tokens, " ") + "\n")
				continue
			}
			if len(l.Tokens) == 0 {
				write(";" + l.Comment + "\n")
				continue
			}
			write(formatLine(l, widths) + "\n")
		}
	}
	return n, bw.Flush()
}

func (f *File) ordered() []*Section {
	out := make([]*Section, 0, len(f.Sections))
	used := make(map[*Section]bool)
	for _, name := range sectionOrder {
		if s := f.Section(name); s != nil && len(s.Lines) > 0 {
			out = append(out, s)
			used[s] = true
		}
	}
	for _, s := range f.Sections {
		if !used[s] && len(s.Lines) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func columnWidths(s *Section) []int {
	var widths []int
	for _, l := range s.Lines {
		for i, t := range l.Tokens {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len(quote(t)))
		}
	}
	return widths
}

func formatLine(l Line, widths []int) string {
	var b strings.Builder
	for i, t := range l.Tokens {
		t = quote(t)
		b.WriteString(t)
		if i < len(l.Tokens)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-len(t)+1))
		}
	}
	if l.Comment != "" {
		b.WriteString(" ;" + l.Comment)
	}
	return b.String()
}
