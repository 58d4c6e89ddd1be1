// Package inp encodes normalized network tables into SWMM INP sections and
// decodes INP text back into tables.
//
// A section schema lists base fields, an optional discriminator with one
// variant per legal value, and tail fields. Each variant maps a fixed number
// of positional slots either to record fields or to filler tokens, so export
// always yields rows of the same width and import can restore alignment from
// the discriminator alone.
package inp

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// FieldKind is the value type of a field.
type FieldKind uint8

// Field kinds.
const (
	Text FieldKind = iota
	Number
)

// Field is a named column of a section.
type Field struct {
	Name string
	Kind FieldKind
	// Default replaces a null value on export. A filler default ("*", `""`)
	// marks the value as absent and is read back as null; a text or number
	// default is a real value and is kept on import. A zero Default exports
	// nulls as empty fillers, which vanish from the text line.
	Default table.Value
}

func text(name string) Field   { return Field{Name: name, Kind: Text} }
func number(name string) Field { return Field{Name: name, Kind: Number} }

func (f Field) or(def table.Value) Field {
	f.Default = def
	return f
}

// Slot is one positional cell of a variant: either a record field or a filler.
type Slot struct {
	Field  string
	Filler table.Value
}

func col(name string) Slot        { return Slot{Field: name} }
func fill(tok string) Slot        { return Slot{Filler: table.Filler(tok)} }
func (s Slot) isField() bool      { return s.Field != "" }
func (s Slot) occupiesText() bool { return s.isField() || s.Filler.String() != "" }

// Variant is the slot layout for one discriminator value.
type Variant struct {
	Slots []Slot
	// Extra slots follow Slots only when ExtraWhen holds for the record.
	Extra     []Slot
	ExtraWhen func(get func(string) table.Value) bool
}

// Schema describes one INP section.
type Schema struct {
	Section string
	Base    []Field
	// Discriminator names a Base field selecting the variant. Empty for
	// sections without variants.
	Discriminator string
	// Width is the number of positional slots every variant is padded to.
	Width int
	// VariantFields types the fields referenced by variant slots.
	VariantFields []Field
	Variants      map[string]Variant
	Tail          []Field
}

// Columns returns the positional column names of an exported row.
func (s *Schema) Columns() []string {
	out := make([]string, 0, len(s.Base)+s.Width+len(s.Tail))
	for _, f := range s.Base {
		out = append(out, f.Name)
	}
	for i := 1; i <= s.Width; i++ {
		out = append(out, s.slotName(i))
	}
	for _, f := range s.Tail {
		out = append(out, f.Name)
	}
	return out
}

func (s *Schema) slotName(i int) string {
	if s.Width == 1 {
		return "Data"
	}
	return "Shape" + string(rune('0'+i))
}

// RecordFields returns every record field the schema reads, in order.
func (s *Schema) RecordFields() []string {
	var out []string
	for _, f := range s.Base {
		out = append(out, f.Name)
	}
	for _, f := range s.VariantFields {
		out = append(out, f.Name)
	}
	for _, f := range s.Tail {
		out = append(out, f.Name)
	}
	return out
}

// Legal returns the legal discriminator values, sorted.
func (s *Schema) Legal() []string {
	out := make([]string, 0, len(s.Variants))
	for k := range s.Variants {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Variant returns the variant for a discriminator value.
func (s *Schema) Variant(value string) (Variant, bool) {
	v, ok := s.Variants[strings.ToUpper(strings.TrimSpace(value))]
	return v, ok
}

// RequiredFor returns the record fields needed to export rows carrying the
// given discriminator values: base and tail fields plus the fields those
// variants reference.
func (s *Schema) RequiredFor(values []string) []string {
	var out []string
	for _, f := range s.Base {
		out = append(out, f.Name)
	}
	seen := make(map[string]bool)
	for _, val := range values {
		v, ok := s.Variant(val)
		if !ok {
			continue
		}
		for _, sl := range append(append([]Slot(nil), v.Slots...), v.Extra...) {
			if sl.isField() && !seen[sl.Field] {
				seen[sl.Field] = true
			}
		}
	}
	for _, f := range s.VariantFields {
		if seen[f.Name] {
			out = append(out, f.Name)
		}
	}
	for _, f := range s.Tail {
		out = append(out, f.Name)
	}
	return out
}

func (s *Schema) variantField(name string) Field {
	for _, f := range s.VariantFields {
		if f.Name == name {
			return f
		}
	}
	return number(name)
}
