package inp

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// continuationMarker in a Name cell marks a separator row, not data.
const continuationMarker = ";"

// CurveTypes are the legal curve types.
var CurveTypes = []string{
	"CONTROL", "DIVERSION", "PUMP1", "PUMP2", "PUMP3", "PUMP4", "PUMP5", "RATING", "SHAPE", "STORAGE", "TIDAL", "WEIR",
}

// PatternTypes are the legal time pattern types with their factor counts.
var PatternTypes = map[string]int{"HOURLY": 24, "DAILY": 7, "MONTHLY": 12, "WEEKEND": 24}

const patternFactorsPerLine = 6

// Date and time layouts accepted in time series tables, tried in order.
var (
	dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006"}
	dateNames   = []string{"yyyy-MM-dd", "dd/MM/yyyy", "dd.MM.yyyy"}
	timeNames   = []string{"HH:mm:ss", "HH:mm", "HH"}
)

// group is a named run of rows sharing a key.
type group struct {
	name string
	rows []table.Row
}

// groupRows groups rows by the key column in first-seen order, skipping
// separator rows and rows without a key.
func groupRows(t *table.Table, key string) []group {
	var out []group
	index := make(map[string]int)
	for _, r := range t.Rows {
		name := r.String(key)
		if name == "" || name == continuationMarker {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, group{name: name})
		}
		out[i].rows = append(out[i].rows, r)
	}
	return out
}

func description(g group) string {
	for _, r := range g.rows {
		if d := r.String("Description"); d != "" {
			return d
		}
	}
	return ""
}

// EncodeCurves writes the curves table (Name, Type, XVal, YVal) into the
// CURVES section. The type is written on the first line of each curve only.
func EncodeCurves(t *table.Table, f *File) error {
	if err := table.CheckColumns(t, "Name", "Type", "XVal", "YVal"); err != nil {
		return err
	}
	groups := groupRows(t, "Name")
	var bad []string
	for _, g := range groups {
		raw := g.rows[0].String("Type")
		if !slices.Contains(CurveTypes, strings.ToUpper(raw)) && !slices.Contains(bad, raw) {
			bad = append(bad, raw)
		}
	}
	if len(bad) > 0 {
		return &InvalidDiscriminatorValueError{
			Source: t.Source, Section: "CURVES", Field: "Type", Values: bad, Legal: CurveTypes,
		}
	}
	if len(groups) == 0 {
		return nil
	}
	s := f.Add("CURVES")
	for _, g := range groups {
		if d := description(g); d != "" {
			s.AppendComment(d)
		}
		for i, r := range g.rows {
			tokens := []string{g.name}
			if i == 0 {
				tokens = append(tokens, g.rows[0].Get("Type").Upper())
			}
			s.Append(append(tokens, r.String("XVal"), r.String("YVal"))...)
		}
	}
	return nil
}

// DecodeCurves reads a CURVES section into a curves table. A comment line
// directly before a curve becomes its description. An X value without its
// Y is dropped with a warning.
func DecodeCurves(s *Section, warn *swmm.Warnings) *table.Table {
	t := table.New("curves", "Name", "Type", "XVal", "YVal", "Description")
	kinds := make(map[string]string)
	pending := ""
	for _, l := range linesOf(s) {
		if len(l.Tokens) == 0 {
			pending = l.Comment
			continue
		}
		tok := l.Tokens
		name := tok[0]
		rest := tok[1:]
		if len(rest) > 0 && slices.Contains(CurveTypes, strings.ToUpper(rest[0])) {
			kinds[name] = strings.ToUpper(rest[0])
			rest = rest[1:]
		}
		for len(rest) >= 2 {
			t.Append(table.Row{
				"Name":        table.Text(name),
				"Type":        table.Text(kinds[name]),
				"XVal":        table.Parse(rest[0]),
				"YVal":        table.Parse(rest[1]),
				"Description": table.Text(pending),
			})
			rest = rest[2:]
		}
		if len(rest) == 1 {
			warn.Add(swmm.WarnMalformedRow, "curve %s: value %s has no matching Y value and was dropped", name, rest[0])
		}
		pending = ""
	}
	return t
}

// EncodePatterns writes the patterns table (Name, Type, Factor; one row per
// factor) into the PATTERNS section, six factors per line. A pattern whose
// factor count does not match its type is written anyway, with a warning.
func EncodePatterns(t *table.Table, f *File, warn *swmm.Warnings) error {
	if err := table.CheckColumns(t, "Name", "Type", "Factor"); err != nil {
		return err
	}
	groups := groupRows(t, "Name")
	var bad []string
	for _, g := range groups {
		raw := g.rows[0].String("Type")
		want, ok := PatternTypes[strings.ToUpper(raw)]
		if !ok {
			if !slices.Contains(bad, raw) {
				bad = append(bad, raw)
			}
			continue
		}
		if len(g.rows) != want {
			warn.Add(swmm.WarnPatternFactors, "pattern %s: %s patterns take %d factors, got %d",
				g.name, strings.ToUpper(raw), want, len(g.rows))
		}
	}
	if len(bad) > 0 {
		return &InvalidDiscriminatorValueError{
			Source: t.Source, Section: "PATTERNS", Field: "Type", Values: bad, Legal: patternTypeNames(),
		}
	}
	if len(groups) == 0 {
		return nil
	}
	s := f.Add("PATTERNS")
	for _, g := range groups {
		if d := description(g); d != "" {
			s.AppendComment(d)
		}
		factors := make([]string, 0, len(g.rows))
		for _, r := range g.rows {
			factors = append(factors, r.String("Factor"))
		}
		for i := 0; i < len(factors); i += patternFactorsPerLine {
			tokens := []string{g.name}
			if i == 0 {
				tokens = append(tokens, g.rows[0].Get("Type").Upper())
			}
			s.Append(append(tokens, factors[i:min(i+patternFactorsPerLine, len(factors))]...)...)
		}
	}
	return nil
}

func patternTypeNames() []string {
	out := make([]string, 0, len(PatternTypes))
	for k := range PatternTypes {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// DecodePatterns reads a PATTERNS section into a patterns table.
func DecodePatterns(s *Section) *table.Table {
	t := table.New("patterns", "Name", "Type", "Factor", "Description")
	kinds := make(map[string]string)
	pending := ""
	for _, l := range linesOf(s) {
		if len(l.Tokens) == 0 {
			pending = l.Comment
			continue
		}
		name := l.Tokens[0]
		rest := l.Tokens[1:]
		if len(rest) > 0 {
			if _, ok := PatternTypes[strings.ToUpper(rest[0])]; ok {
				kinds[name] = strings.ToUpper(rest[0])
				rest = rest[1:]
			}
		}
		for _, tok := range rest {
			t.Append(table.Row{
				"Name":        table.Text(name),
				"Type":        table.Text(kinds[name]),
				"Factor":      table.Parse(tok),
				"Description": table.Text(pending),
			})
		}
		pending = ""
	}
	return t
}

// EncodeTimeseries writes the time series table (Name, Date, Time, Value and
// optionally File_Name) into the TIMESERIES section. Dates are normalised to
// MM/DD/YYYY and times to HH:MM; each series must use one format throughout.
func EncodeTimeseries(t *table.Table, f *File, warn *swmm.Warnings) error {
	if err := table.CheckColumns(t, "Name", "Date", "Time", "Value"); err != nil {
		return err
	}
	if t.Has("Type") && t.Has("Format") {
		warn.Add(swmm.WarnDeprecatedColumn,
			"the columns Type and Format of %s are deprecated; define rain gages in their own table", t.Source)
	}
	groups := groupRows(t, "Name")
	if len(groups) == 0 {
		return nil
	}
	s := f.Add("TIMESERIES")
	for _, g := range groups {
		if d := description(g); d != "" {
			s.AppendComment(d)
		}
		if file := externalFile(g); file != "" {
			s.Append(g.name, "FILE", file)
			continue
		}

		dates := make([]string, len(g.rows))
		missing := 0
		for i, r := range g.rows {
			dates[i] = r.String("Date")
			if dates[i] == "" {
				missing++
			}
		}
		switch {
		case missing == 0:
			norm, err := normalizeDates(g.name, dates)
			if err != nil {
				return err
			}
			dates = norm
		case missing < len(dates):
			warn.Add(swmm.WarnTimeseriesFormat,
				"time series %s: at least one date is missing; all dates are left blank (start date is used)", g.name)
			fallthrough
		default:
			dates = make([]string, len(g.rows))
		}

		times := make([]string, len(g.rows))
		for i, r := range g.rows {
			times[i] = r.String("Time")
		}
		times, err := normalizeTimes(g.name, times)
		if err != nil {
			return err
		}
		for i, r := range g.rows {
			tokens := []string{g.name}
			if dates[i] != "" {
				tokens = append(tokens, dates[i])
			}
			s.Append(append(tokens, times[i], r.String("Value"))...)
		}
	}
	return nil
}

func externalFile(g group) string {
	for _, r := range g.rows {
		if name := r.String("File_Name"); name != "" {
			return name
		}
	}
	return ""
}

func normalizeDates(series string, in []string) ([]string, error) {
	for _, layout := range dateLayouts {
		out := make([]string, len(in))
		ok := true
		for i, s := range in {
			d, err := time.Parse(layout, strings.TrimSpace(s))
			if err != nil {
				ok = false
				break
			}
			out[i] = d.Format("01/02/2006")
		}
		if ok {
			return out, nil
		}
	}
	return nil, &DateTimeFormatError{Series: series, Column: "Date", Formats: dateNames}
}

// normalizeTimes accepts clock times with unbounded hours, since SWMM time
// series may count elapsed hours past 24.
func normalizeTimes(series string, in []string) ([]string, error) {
	for parts := 3; parts >= 1; parts-- {
		out := make([]string, len(in))
		ok := true
		for i, s := range in {
			h, m, good := parseClock(strings.TrimSpace(s), parts)
			if !good {
				ok = false
				break
			}
			out[i] = fmt.Sprintf("%02d:%02d", h, m)
		}
		if ok {
			return out, nil
		}
	}
	return nil, &DateTimeFormatError{Series: series, Column: "Time", Formats: timeNames}
}

func parseClock(s string, parts int) (h, m int, ok bool) {
	fields := strings.Split(s, ":")
	if len(fields) != parts {
		return 0, 0, false
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		if f == "" {
			return 0, 0, false
		}
		n := 0
		for _, r := range f {
			if r < '0' || r > '9' {
				return 0, 0, false
			}
			n = n*10 + int(r-'0')
		}
		if i > 0 && n > 59 {
			return 0, 0, false
		}
		vals[i] = n
	}
	if parts > 1 {
		m = vals[1]
	}
	return vals[0], m, true
}

// DecodeTimeseries reads a TIMESERIES section. Lines may carry several
// time/value pairs; a date token applies to the pairs that follow it.
func DecodeTimeseries(s *Section) *table.Table {
	t := table.New("timeseries", "Name", "Date", "Time", "Value", "File_Name", "Description")
	pending := ""
	for _, l := range linesOf(s) {
		if len(l.Tokens) == 0 {
			pending = l.Comment
			continue
		}
		name := l.Tokens[0]
		rest := l.Tokens[1:]
		if len(rest) >= 2 && strings.EqualFold(rest[0], "FILE") {
			t.Append(table.Row{
				"Name": table.Text(name), "File_Name": table.Text(rest[1]), "Description": table.Text(pending),
			})
			pending = ""
			continue
		}
		date := ""
		for len(rest) > 0 {
			if strings.Contains(rest[0], "/") {
				date = isoDate(rest[0])
				rest = rest[1:]
				continue
			}
			if len(rest) < 2 {
				break
			}
			t.Append(table.Row{
				"Name":        table.Text(name),
				"Date":        table.Text(date),
				"Time":        table.Text(rest[0]),
				"Value":       table.Parse(rest[1]),
				"Description": table.Text(pending),
			})
			rest = rest[2:]
		}
		pending = ""
	}
	return t
}

// isoDate turns an INP date (MM/DD/YYYY) into YYYY-MM-DD so that the table
// encodes back to the same date.
func isoDate(s string) string {
	d, err := time.Parse("1/2/2006", s)
	if err != nil {
		return s
	}
	return d.Format("2006-01-02")
}

func linesOf(s *Section) []Line {
	if s == nil {
		return nil
	}
	return s.Lines
}
