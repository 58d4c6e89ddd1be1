package inp

import (
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Row is a positional INP row. Its width is fixed by the schema; empty
// fillers keep their slot here but vanish from the text line.
type Row []table.Value

// Tokens renders the row as INP tokens. Empty fillers and nulls are dropped.
func (r Row) Tokens() []string {
	out := make([]string, 0, len(r))
	for _, v := range r {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func quote(s string) string {
	if s == `""` || !strings.ContainsAny(s, " \t") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

// Export encodes a record for the named section.
func Export(section string, rec table.Row) (Row, error) {
	s, err := Lookup(section)
	if err != nil {
		return nil, err
	}
	return s.Export(rec)
}

// Import decodes the tokens of one INP line for the named section.
func Import(section string, tokens []string) (table.Row, error) {
	s, err := Lookup(section)
	if err != nil {
		return nil, err
	}
	return s.Import(tokens)
}

// Export encodes a record into a positional row.
func (s *Schema) Export(rec table.Row) (Row, error) {
	row := make(Row, 0, len(s.Base)+s.Width+len(s.Tail))
	for _, f := range s.Base {
		row = append(row, exportField(f, rec.Get(f.Name)))
	}

	if s.Discriminator != "" {
		disc := rec.Get(s.Discriminator)
		v, ok := s.Variant(disc.String())
		if !ok {
			return nil, &InvalidDiscriminatorValueError{
				Section: s.Section,
				Field:   s.Discriminator,
				Values:  []string{disc.String()},
				Legal:   s.Legal(),
			}
		}
		for i, f := range s.Base {
			if f.Name == s.Discriminator {
				row[i] = table.Text(disc.Upper())
			}
		}

		slots := v.Slots
		if v.ExtraWhen != nil && v.ExtraWhen(rec.Get) {
			slots = append(append([]Slot(nil), slots...), v.Extra...)
		}
		for i := 0; i < s.Width; i++ {
			switch {
			case i >= len(slots):
				row = append(row, table.Filler(""))
			case slots[i].isField():
				f := s.variantField(slots[i].Field)
				row = append(row, exportField(f, rec.Get(f.Name)))
			default:
				row = append(row, slots[i].Filler)
			}
		}
	}

	for _, f := range s.Tail {
		row = append(row, exportField(f, rec.Get(f.Name)))
	}
	return row, nil
}

// Import decodes INP tokens into a record. Positions the text leaves out
// for the record's variant are restored as nulls; filler tokens standing
// for absent values read back as null.
func (s *Schema) Import(tokens []string) (table.Row, error) {
	rec := make(table.Row, len(s.Base)+len(s.VariantFields)+len(s.Tail))
	pos := 0
	next := func() (string, bool) {
		if pos >= len(tokens) {
			return "", false
		}
		pos++
		return tokens[pos-1], true
	}

	for _, f := range s.Base {
		tok, ok := next()
		rec[f.Name] = importField(f, tok, ok)
	}

	if s.Discriminator != "" {
		disc := rec.Get(s.Discriminator)
		v, ok := s.Variant(disc.String())
		if !ok {
			return nil, &InvalidDiscriminatorValueError{
				Section: s.Section,
				Field:   s.Discriminator,
				Values:  []string{disc.String()},
				Legal:   s.Legal(),
			}
		}
		rec[s.Discriminator] = table.Text(disc.Upper())
		for _, f := range s.VariantFields {
			rec[f.Name] = table.Null()
		}

		consume := func(sl Slot) {
			if !sl.occupiesText() {
				return
			}
			tok, ok := next()
			if sl.isField() {
				rec[sl.Field] = importField(s.variantField(sl.Field), tok, ok)
			}
		}
		for _, sl := range v.Slots {
			consume(sl)
		}
		if v.ExtraWhen != nil && v.ExtraWhen(rec.Get) {
			for _, sl := range v.Extra {
				consume(sl)
			}
		}
	}

	for _, f := range s.Tail {
		tok, ok := next()
		rec[f.Name] = importField(f, tok, ok)
	}
	return rec, nil
}

func exportField(f Field, v table.Value) table.Value {
	if !v.IsNull() {
		return v
	}
	if f.Default.IsNull() {
		return table.Filler("")
	}
	return f.Default
}

func importField(f Field, tok string, present bool) table.Value {
	if !present || tok == "" || tok == `""` {
		return table.Null()
	}
	if f.Default.IsFiller() && tok == f.Default.String() {
		return table.Null()
	}
	if f.Kind == Number {
		return table.Parse(tok)
	}
	return table.Text(tok)
}
