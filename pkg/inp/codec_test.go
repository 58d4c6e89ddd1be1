package inp

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cell returns the exported value at the named positional column.
func cell(t *testing.T, s *Schema, row Row, col string) table.Value {
	t.Helper()
	i := slices.Index(s.Columns(), col)
	require.GreaterOrEqual(t, i, 0, "column %s", col)
	require.Less(t, i, len(row))
	return row[i]
}

func lookup(t *testing.T, section string) *Schema {
	t.Helper()
	s, err := Lookup(section)
	require.NoError(t, err)
	return s
}

func TestExport_StorageShapes(t *testing.T) {
	s := lookup(t, "STORAGE")

	tests := []struct {
		name string
		rec  table.Row
		want [3]string
	}{
		{
			name: "tabular keeps empty slots",
			rec:  table.Row{"Name": table.Text("S1"), "Type": table.Text("TABULAR"), "Curve": table.Text("C1")},
			want: [3]string{"C1", "", ""},
		},
		{
			name: "cylindrical fills the third slot with zero",
			rec: table.Row{
				"Name": table.Text("S1"), "Type": table.Text("CYLINDRICAL"),
				"MajorAxis": table.Number(2), "MinorAxis": table.Number(3),
			},
			want: [3]string{"2", "3", "0"},
		},
		{
			name: "functional",
			rec: table.Row{
				"Name": table.Text("S1"), "Type": table.Text("functional"),
				"Coeff": table.Number(1000), "Exponent": table.Number(0), "Constant": table.Number(50),
			},
			want: [3]string{"1000", "0", "50"},
		},
		{
			name: "parabolic uses the surface height",
			rec: table.Row{
				"Name": table.Text("S1"), "Type": table.Text("PARABOLIC"),
				"MajorAxis": table.Number(4), "MinorAxis": table.Number(5), "SurfHeight": table.Number(1.5),
			},
			want: [3]string{"4", "5", "1.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := s.Export(tt.rec)
			require.NoError(t, err)
			assert.Len(t, row, len(s.Columns()))
			for i, want := range tt.want {
				got := cell(t, s, row, fmt.Sprintf("Shape%d", i+1))
				assert.Equal(t, want, got.String(), "Shape%d", i+1)
			}
		})
	}
}

func TestExport_StorageUnknownType(t *testing.T) {
	_, err := Export("STORAGE", table.Row{"Name": table.Text("S1"), "Type": table.Text("CUBIC")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStorageType))

	var de *InvalidDiscriminatorValueError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"CUBIC"}, de.Values)
	assert.Contains(t, de.Legal, "TABULAR")
}

func TestExport_OutfallData(t *testing.T) {
	s := lookup(t, "OUTFALLS")

	fixed, err := s.Export(table.Row{
		"Name": table.Text("O1"), "Elevation": table.Number(10), "Type": table.Text("FIXED"), "FixedStage": table.Number(1.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.5", cell(t, s, fixed, "Data").String())
	assert.Equal(t, "NO", cell(t, s, fixed, "FlapGate").String())
	assert.Equal(t, "", cell(t, s, fixed, "RouteTo").String())

	free, err := s.Export(table.Row{
		"Name": table.Text("O1"), "Elevation": table.Number(10), "Type": table.Text("FREE"), "FixedStage": table.Number(1.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "", cell(t, s, free, "Data").String())
	assert.Equal(t, []string{"O1", "10", "FREE", "NO"}, free.Tokens())

	ts, err := s.Export(table.Row{
		"Name": table.Text("O1"), "Elevation": table.Number(10), "Type": table.Text("TIMESERIES"), "Curve_TS": table.Text("TS1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TS1", cell(t, s, ts, "Data").String())
}

func TestImport_DividerRestoresAlignment(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   map[string]string
	}{
		{
			name:   "overflow has no variant values",
			tokens: []string{"D1", "10", "L1", "OVERFLOW", "4", "0", "0", "0"},
			want:   map[string]string{"Type": "OVERFLOW", "CutoffFlow": "", "Curve": "", "MaxDepth": "4"},
		},
		{
			name:   "cutoff",
			tokens: []string{"D1", "10", "L1", "CUTOFF", "0.5", "4", "0", "0", "0"},
			want:   map[string]string{"CutoffFlow": "0.5", "Curve": "", "MaxDepth": "4"},
		},
		{
			name:   "tabular",
			tokens: []string{"D1", "10", "L1", "TABULAR", "C1", "4", "0", "0", "0"},
			want:   map[string]string{"CutoffFlow": "", "Curve": "C1", "MaxDepth": "4"},
		},
		{
			name:   "weir",
			tokens: []string{"D1", "10", "L1", "WEIR", "1", "2", "3", "4", "0", "0", "0"},
			want: map[string]string{
				"CutoffFlow": "", "Curve": "", "WeirMinFlo": "1", "WeirMaxDep": "2", "WeirCoeff": "3", "MaxDepth": "4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Import("DIVIDERS", tt.tokens)
			require.NoError(t, err)
			assert.Equal(t, "D1", rec.String("Name"))
			assert.Equal(t, "L1", rec.String("DivLink"))
			for col, want := range tt.want {
				assert.Equal(t, want, rec.String(col), col)
			}
		})
	}
}

func TestExport_DividerSlots(t *testing.T) {
	s := lookup(t, "DIVIDERS")
	row, err := s.Export(table.Row{
		"Name": table.Text("D1"), "Elevation": table.Number(10), "DivLink": table.Text("L1"),
		"Type": table.Text("TABULAR"), "Curve": table.Text("C1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "", cell(t, s, row, "Shape1").String())
	assert.Equal(t, "C1", cell(t, s, row, "Shape2").String())
	assert.Equal(t, []string{"D1", "10", "L1", "TABULAR", "C1", "0", "0", "0", "0"}, row.Tokens())
}

func TestInlets_GenericShape(t *testing.T) {
	s := lookup(t, "INLETS")

	generic, err := s.Export(table.Row{
		"Name": table.Text("I1"), "Type": table.Text("GRATE"), "Length": table.Number(2), "Width": table.Number(0.5),
		"Shape": table.Text("GENERIC"), "OpenFract": table.Number(0.8), "SplashVel": table.Number(0.3),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"I1", "GRATE", "2", "0.5", "GENERIC", "0.8", "0.3"}, generic.Tokens())

	bar, err := s.Export(table.Row{
		"Name": table.Text("I2"), "Type": table.Text("GRATE"), "Length": table.Number(2), "Width": table.Number(0.5),
		"Shape": table.Text("P_BAR-50"), "OpenFract": table.Number(0.8), "SplashVel": table.Number(0.3),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"I2", "GRATE", "2", "0.5", "P_BAR-50"}, bar.Tokens())

	rec, err := s.Import([]string{"I1", "GRATE", "2", "0.5", "GENERIC", "0.8", "0.3"})
	require.NoError(t, err)
	assert.Equal(t, "0.8", rec.String("OpenFract"))
	assert.Equal(t, "0.3", rec.String("SplashVel"))

	curb, err := s.Import([]string{"I3", "CURB", "3", "0.15", "VERTICAL"})
	require.NoError(t, err)
	assert.Equal(t, "0.15", curb.String("Height"))
	assert.Equal(t, "VERTICAL", curb.String("Shape"))
	assert.True(t, curb.Get("OpenFract").IsNull())
}

func TestImport_FillerDefaultsReadBackAsNull(t *testing.T) {
	rec, err := Import("CONDUITS", []string{"C1", "J1", "J2", "100", "0.013", "*", "*", "0", "0"})
	require.NoError(t, err)
	assert.True(t, rec.Get("InOffset").IsNull())
	assert.True(t, rec.Get("OutOffset").IsNull())
	assert.Equal(t, table.Number(0), rec.Get("InitFlow"))
	assert.Equal(t, table.Number(100), rec.Get("Length"))

	inflow, err := Import("INFLOWS", []string{"J1", "FLOW", `""`, "FLOW", "1.0", "1.0", "0.5", `""`})
	require.NoError(t, err)
	assert.True(t, inflow.Get("Time_Series").IsNull())
	assert.True(t, inflow.Get("Baseline_Pattern").IsNull())
	assert.Equal(t, "0.5", inflow.String("Baseline"))
}

func TestExport_InflowPlaceholders(t *testing.T) {
	row, err := Export("INFLOWS", table.Row{
		"Name": table.Text("J1"), "Constituent": table.Text("FLOW"), "Baseline": table.Number(0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"J1", "FLOW", `""`, `""`, `""`, `""`, "0.5", `""`}, row.Tokens())
}

func TestLookup_UnknownSection(t *testing.T) {
	_, err := Lookup("LID_CONTROLS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSection))

	var ue *UnknownSectionKindError
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, ue.Known, "JUNCTIONS")

	_, err = Export("FOO", table.Row{})
	assert.True(t, errors.Is(err, ErrUnknownSection))
}

func TestLookup_CaseAndBrackets(t *testing.T) {
	for _, name := range []string{"storage", "[STORAGE]", " Storage "} {
		s, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, "STORAGE", s.Section)
	}
	assert.True(t, Supported("curves"))
	assert.True(t, Supported("Polygons"))
	assert.False(t, Supported("LID_USAGE"))
	assert.True(t, slices.IsSorted(Sections()))
}

// populate builds a record with a distinct value in every field the
// variant writes.
func populate(s *Schema, disc string) table.Row {
	rec := table.Row{}
	n := 0
	set := func(f Field) {
		n++
		if f.Kind == Number {
			rec[f.Name] = table.Number(float64(n) + 0.25)
			return
		}
		rec[f.Name] = table.Text(fmt.Sprintf("v%d_%s", n, f.Name))
	}
	for _, f := range s.Base {
		set(f)
	}
	for _, f := range s.Tail {
		set(f)
	}
	if s.Discriminator == "" {
		return rec
	}
	rec[s.Discriminator] = table.Text(disc)
	v, _ := s.Variant(disc)
	for _, sl := range v.Slots {
		if sl.isField() {
			set(s.variantField(sl.Field))
		}
	}
	if v.ExtraWhen != nil && v.ExtraWhen(rec.Get) {
		for _, sl := range v.Extra {
			set(s.variantField(sl.Field))
		}
	}
	return rec
}

func TestRoundTrip_EveryDiscriminatorValue(t *testing.T) {
	for _, name := range Sections() {
		s, err := Lookup(name)
		if err != nil {
			continue
		}
		values := s.Legal()
		if len(values) == 0 {
			values = []string{""}
		}
		for _, disc := range values {
			t.Run(name+"/"+disc, func(t *testing.T) {
				rec := populate(s, disc)
				row, err := s.Export(rec)
				require.NoError(t, err)
				assert.Len(t, row, len(s.Columns()))

				back, err := s.Import(row.Tokens())
				require.NoError(t, err)
				for col, want := range rec {
					assert.True(t, want.Equal(back.Get(col)), "%s: want %v, got %v", col, want, back.Get(col))
				}
			})
		}
	}
}

func TestRoundTrip_GenericInlet(t *testing.T) {
	s := lookup(t, "INLETS")
	rec := table.Row{
		"Name": table.Text("I1"), "Type": table.Text("DROP_GRATE"), "Length": table.Number(1),
		"Width": table.Number(0.6), "Shape": table.Text("GENERIC"),
		"OpenFract": table.Number(0.5), "SplashVel": table.Number(0.2),
	}
	row, err := s.Export(rec)
	require.NoError(t, err)
	back, err := s.Import(row.Tokens())
	require.NoError(t, err)
	for col, want := range rec {
		assert.True(t, want.Equal(back.Get(col)), col)
	}
}

func TestRequiredFor(t *testing.T) {
	s := lookup(t, "STORAGE")
	got := s.RequiredFor([]string{"TABULAR", "CYLINDRICAL", "NOPE"})
	assert.Equal(t, []string{
		"Name", "Elevation", "MaxDepth", "InitDepth", "Type",
		"Curve", "MajorAxis", "MinorAxis",
		"SurDepth", "Fevap", "Psi", "Ksat", "IMD",
	}, got)
}
