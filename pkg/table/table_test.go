package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		str  string
	}{
		{"", KindNull, ""},
		{"   ", KindNull, ""},
		{"1.50", KindNumber, "1.5"},
		{"-3", KindNumber, "-3"},
		{"J1", KindText, "J1"},
		{"00:15", KindText, "00:15"},
		{"NaN", KindText, "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v := Parse(tt.in)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.str, v.String())
		})
	}
}

func TestValue_Float(t *testing.T) {
	f, ok := Text("2.25").Float()
	require.True(t, ok)
	assert.InDelta(t, 2.25, f, 1e-12)

	_, ok = Text("CIRCULAR").Float()
	assert.False(t, ok)

	_, ok = Null().Float()
	assert.False(t, ok)
}

func TestValue_TextEmptyIsNull(t *testing.T) {
	assert.True(t, Text("").IsNull())
	assert.False(t, Filler("").IsNull())
	assert.True(t, Filler("").IsFiller())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Number(1.5).Equal(Parse("1.50")))
	assert.False(t, Number(1).Equal(Text("1")))
	assert.True(t, Filler("*").Equal(Filler("*")))
}

func TestValue_MarshalJSON(t *testing.T) {
	b, err := Row{"a": Number(2)}.Get("a").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "2", string(b))

	b, err = Null().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestCheckColumns(t *testing.T) {
	tbl := New("conduits", "Name", "FromNode", "ToNode")

	require.NoError(t, CheckColumns(tbl, "Name", "ToNode"))

	err := CheckColumns(tbl, "Name", "Length", "Roughness")
	require.Error(t, err)

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "conduits", mce.Source)
	assert.Equal(t, []string{"Length", "Roughness"}, mce.Columns)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Equal(t, "missing columns in conduits: Length, Roughness", err.Error())
}

func TestTable_AppendLookupFilter(t *testing.T) {
	tbl := New("nodes", "Name")
	tbl.Append(Row{"Name": Text("J1"), "Elevation": Number(10)})
	tbl.Append(Row{"Name": Text("J2")})

	assert.Equal(t, []string{"Name", "Elevation"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())

	r, ok := tbl.Lookup("Name", "J1")
	require.True(t, ok)
	assert.Equal(t, "10", r.String("Elevation"))

	_, ok = tbl.Lookup("Name", "J9")
	assert.False(t, ok)

	only := tbl.Filter(func(r Row) bool { return r.String("Name") == "J2" })
	assert.Equal(t, 1, only.Len())
	assert.True(t, only.Rows[0].Get("Elevation").IsNull())
}

func TestTable_Rename(t *testing.T) {
	tbl := New("ts", "Name", "Type")
	tbl.Append(Row{"Name": Text("TS1"), "Type": Text("x")})
	tbl.Rename("Type", "Description")

	assert.Equal(t, []string{"Name", "Description"}, tbl.Columns)
	assert.Equal(t, "x", tbl.Rows[0].String("Description"))
	_, still := tbl.Rows[0]["Type"]
	assert.False(t, still)
}

func TestCSV_ReadWrite(t *testing.T) {
	src := "\ufeffName,Elevation,MaxDepth\nJ1,10.5,\n001,,3\n"
	tbl, err := ReadCSV(strings.NewReader(src), "junctions.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Elevation", "MaxDepth"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, KindText, tbl.Rows[1].Get("Name").Kind())
	assert.Equal(t, "001", tbl.Rows[1].String("Name"))
	assert.True(t, tbl.Rows[0].Get("MaxDepth").IsNull())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "Name,Elevation,MaxDepth\nJ1,10.5,\n001,,3\n", buf.String())
}

func TestCSV_ShortRecordPadsNull(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a,b,c\n1\n"), "x")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Rows[0].Get("c").IsNull())
}

func TestCSV_Empty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}
