// Package table provides the normalized tabular representation shared by the
// INP codec, the report parser and the network tracer.
//
// Every cell is a tagged Value. Raw strings never reach the codec: a cell is
// either null, a number, free text, or a positional filler token that only
// exists to keep fixed-position SWMM lines aligned.
package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindFiller
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindFiller:
		return "filler"
	default:
		return "null"
	}
}

// Value is a single tagged cell.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string. The empty string is stored as null.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Filler wraps a positional sentinel token such as "*", "0" or "NO".
// An empty filler keeps a slot in the positional row but disappears when the
// row is rendered as text.
func Filler(tok string) Value { return Value{kind: KindFiller, text: tok} }

// Parse infers the kind of a raw token: empty becomes null, anything that
// parses as a finite float becomes a number, the rest stays text.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return Text(s)
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsFiller reports whether the value is a positional filler.
func (v Value) IsFiller() bool { return v.kind == KindFiller }

// Float returns the numeric content. Text that parses as a number is
// accepted too, since tables loaded from CSV carry every cell as text.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText, KindFiller:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String renders the value as an INP/CSV token. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText, KindFiller:
		return v.text
	default:
		return ""
	}
}

// Upper returns the upper-cased string form, used for discriminator lookups.
func (v Value) Upper() string {
	return strings.ToUpper(strings.TrimSpace(v.String()))
}

// Or returns v unless it is null, in which case fallback is returned.
func (v Value) Or(fallback Value) Value {
	if v.IsNull() {
		return fallback
	}
	return v
}

// Equal compares two values by kind and content. Numbers compare by value,
// so "1.50" read from a file equals 1.5.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num == o.num
	}
	return v.text == o.text
}

// MarshalJSON encodes numbers as JSON numbers, null as null and the rest as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.text)
	}
}
