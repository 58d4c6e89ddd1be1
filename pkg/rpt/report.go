// Package rpt parses the summary sections of SWMM report files into tables.
package rpt

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Report is the normalized text of a report file.
type Report struct {
	Lines    []string
	Encoding string
	logger   *slog.Logger
}

// Load decodes and normalizes raw report bytes.
func Load(raw []byte, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	text, enc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded report", slog.String("encoding", enc), slog.Int("bytes", len(raw)))
	return &Report{Lines: Normalize(text), Encoding: enc, logger: logger}, nil
}

// Read loads a report from r.
func Read(r io.Reader, logger *slog.Logger) (*Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return Load(raw, logger)
}

// ParseSection parses one topic out of decoded report text. A topic that is
// absent from the report yields an empty table and no error.
func ParseSection(text, topic string) (*table.Table, error) {
	r := &Report{Lines: Normalize(text), logger: slog.New(slog.DiscardHandler)}
	return r.Section(topic)
}

func isMarker(line string, c string) bool {
	return len(line) >= 2 && strings.HasPrefix(line, c) && strings.HasSuffix(line, c)
}

func (r *Report) find(title string) int {
	for i, l := range r.Lines {
		if l == title {
			return i
		}
	}
	return -1
}

// Has reports whether the section of topic is present.
func (r *Report) Has(topic string) bool {
	t, err := LookupTopic(topic)
	return err == nil && r.find(t.Title) >= 0
}

// block returns the lines of a section from its title up to the next
// star marker that opens another section.
func (r *Report) block(start int) []string {
	lines := r.Lines[start:]
	stars := 0
	for i, l := range lines {
		if !isMarker(l, "**") {
			continue
		}
		stars++
		if stars == 2 {
			return lines[:i]
		}
	}
	return lines
}

// Section parses the table of topic.
func (r *Report) Section(topic string) (*table.Table, error) {
	t, err := LookupTopic(topic)
	if err != nil {
		return nil, err
	}
	start := r.find(t.Title)
	if start < 0 {
		r.logger.Debug("report section not present", slog.String("topic", t.Name))
		return table.New(t.Name), nil
	}

	lines := r.block(start)
	var dashes []int
	for i, l := range lines {
		if isMarker(l, "--") {
			dashes = append(dashes, i)
		}
	}
	if len(dashes) < 2 {
		return nil, &MalformedReportHeaderError{
			Topic: t.Name, Line: -1,
			Reason: fmt.Sprintf("expected two dash lines around the header, found %d", len(dashes)),
		}
	}
	end := len(lines)
	if len(dashes) > 2 {
		end = dashes[2]
	}

	columns, err := t.Columns(lines[dashes[0]+1 : dashes[1]])
	if err != nil {
		return nil, err
	}
	out := table.New(t.Name, columns...)
	for _, l := range lines[dashes[1]+1 : end] {
		out.Append(r.row(out, strings.Fields(l)))
	}
	r.logger.Debug("parsed report section", slog.String("topic", t.Name), slog.Int("rows", out.Len()))
	return out, nil
}

// row assigns tokens to columns left to right. Missing trailing values are
// null; surplus tokens get generated Column<N> names.
func (r *Report) row(t *table.Table, tokens []string) table.Row {
	rec := make(table.Row, max(len(tokens), len(t.Columns)))
	for i, c := range t.Columns {
		rec[c] = table.Null()
		if i < len(tokens) {
			rec[c] = value(i, tokens[i])
		}
	}
	for i := len(t.Columns); i < len(tokens); i++ {
		name := fmt.Sprintf("Column%d", i+1)
		t.Columns = append(t.Columns, name)
		rec[name] = value(i, tokens[i])
	}
	return rec
}

// value keeps the object name as text and parses the other cells.
func value(i int, tok string) table.Value {
	if i == 0 {
		return table.Text(tok)
	}
	return table.Parse(tok)
}

// Result is one parsed section.
type Result struct {
	Topic string
	Table *table.Table
}

// ParseAll parses every supported topic present in the report, in report
// order. Topics that are absent are skipped.
func (r *Report) ParseAll() ([]Result, error) {
	var out []Result
	for _, t := range topics {
		if r.find(t.Title) < 0 {
			continue
		}
		tbl, err := r.Section(t.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Result{Topic: t.Name, Table: tbl})
	}
	return out, nil
}
