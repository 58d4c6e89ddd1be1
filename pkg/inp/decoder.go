package inp

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Decoder converts an INP file back into normalized tables.
type Decoder struct {
	Logger   *slog.Logger
	Warnings *swmm.Warnings
}

// NewDecoder returns a decoder collecting warnings into warn.
func NewDecoder(logger *slog.Logger, warn *swmm.Warnings) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if warn == nil {
		warn = &swmm.Warnings{}
	}
	return &Decoder{Logger: logger, Warnings: warn}
}

// sectionKinds maps positional sections to the table they decode into.
var sectionKinds = []struct {
	section string
	kind    Kind
}{
	{"OPTIONS", KindOptions},
	{"RAINGAGES", KindRainGages},
	{"JUNCTIONS", KindJunctions},
	{"OUTFALLS", KindOutfalls},
	{"STORAGE", KindStorages},
	{"DIVIDERS", KindDividers},
	{"CONDUITS", KindConduits},
	{"PUMPS", KindPumps},
	{"WEIRS", KindWeirs},
	{"ORIFICES", KindOrifices},
	{"OUTLETS", KindOutlets},
	{"STREETS", KindStreets},
	{"INLETS", KindInlets},
	{"INLET_USAGE", KindInletUsage},
	{"SUBCATCHMENTS", KindSubcatchments},
	{"INFLOWS", KindInflows},
	{"DWF", KindDryWeather},
	{"RDII", KindRDII},
}

// Decode converts every supported section of f. Sections the codec does not
// know are skipped.
func (d *Decoder) Decode(f *File) (Project, error) {
	for _, s := range f.Sections {
		if !Supported(s.Name) && !auxiliary(s.Name) {
			d.Logger.Debug("skipping unsupported section", slog.String("section", s.Name))
		}
	}

	p := make(Project)
	for _, sk := range sectionKinds {
		sec := f.Section(sk.section)
		if sec == nil {
			continue
		}
		t, err := DecodeSection(sec, string(sk.kind))
		if err != nil {
			return nil, err
		}
		p[sk.kind] = t
	}

	xsections, err := d.sectionRecords(f, "XSECTIONS")
	if err != nil {
		return nil, err
	}
	losses, err := d.sectionRecords(f, "LOSSES")
	if err != nil {
		return nil, err
	}
	subareas, err := d.sectionRecords(f, "SUBAREAS")
	if err != nil {
		return nil, err
	}

	if t := p[KindConduits]; t != nil {
		addColumns(t, "XsectShape", "Geom1", "Geom2", "Geom3", "Geom4", "Barrels", "Culvert", "Shp_Trnsct",
			"Kentry", "Kexit", "Kavg", "FlapGate", "Seepage")
		for _, r := range t.Rows {
			name := r.String("Name")
			if x, ok := xsections[name]; ok {
				conduitFromXsection(r, x)
			}
			if l, ok := losses[name]; ok {
				for _, c := range []string{"Kentry", "Kexit", "Kavg", "FlapGate", "Seepage"} {
					r[c] = l.Get(c)
				}
			}
		}
	}
	if t := p[KindWeirs]; t != nil {
		addColumns(t, "Height", "Length", "SideSlope")
		for _, r := range t.Rows {
			if x, ok := xsections[r.String("Name")]; ok {
				weirFromXsection(r, x)
			}
		}
	}
	if t := p[KindOrifices]; t != nil {
		addColumns(t, "XsectShape", "Height", "Width")
		for _, r := range t.Rows {
			if x, ok := xsections[r.String("Name")]; ok {
				orificeFromXsection(r, x)
			}
		}
	}
	if t := p[KindSubcatchments]; t != nil && len(subareas) > 0 {
		s, _ := Lookup("SUBAREAS")
		addColumns(t, s.RecordFields()[1:]...)
		for _, r := range t.Rows {
			if a, ok := subareas[r.String("Name")]; ok {
				for _, c := range s.RecordFields()[1:] {
					r[c] = a.Get(c)
				}
			}
		}
	}

	if err := d.decodeGeometry(f, p); err != nil {
		return nil, err
	}

	if sec := f.Section("CURVES"); sec != nil {
		p[KindCurves] = DecodeCurves(sec, d.Warnings)
	}
	if sec := f.Section("PATTERNS"); sec != nil {
		p[KindPatterns] = DecodePatterns(sec)
	}
	if sec := f.Section("TIMESERIES"); sec != nil {
		p[KindTimeseries] = DecodeTimeseries(sec)
	}
	if sec := f.Section("HYDROGRAPHS"); sec != nil {
		p[KindHydrographs] = DecodeHydrographs(sec)
	}
	if sec := f.Section("TRANSECTS"); sec != nil {
		p[KindTransects], p[KindTransectPoints] = DecodeTransects(sec)
	}
	return p, nil
}

func auxiliary(name string) bool {
	switch normName(name) {
	case "XSECTIONS", "LOSSES", "SUBAREAS", "COORDINATES", "VERTICES", "POLYGONS":
		return true
	}
	return false
}

// DecodeSection imports every data line of a positional section into a
// table named source.
func DecodeSection(sec *Section, source string) (*table.Table, error) {
	s, err := Lookup(sec.Name)
	if err != nil {
		return nil, err
	}
	t := table.New(source, s.RecordFields()...)
	for i, tokens := range sec.Data() {
		rec, err := s.Import(tokens)
		if err != nil {
			return nil, fmt.Errorf("[%s] line %d: %w", s.Section, i+1, err)
		}
		t.Append(rec)
	}
	return t, nil
}

func (d *Decoder) sectionRecords(f *File, section string) (map[string]table.Row, error) {
	out := make(map[string]table.Row)
	sec := f.Section(section)
	if sec == nil {
		return out, nil
	}
	t, err := DecodeSection(sec, section)
	if err != nil {
		return nil, err
	}
	for _, r := range t.Rows {
		out[r.String("Name")] = r
	}
	return out, nil
}

func addColumns(t *table.Table, cols ...string) {
	for _, c := range cols {
		if !t.Has(c) {
			t.Columns = append(t.Columns, c)
		}
	}
}

// decodeGeometry adds X_Coord/Y_Coord to node tables and a Geometry column
// to link and sub-catchment tables.
func (d *Decoder) decodeGeometry(f *File, p Project) error {
	coords, _, err := collectPoints(f.Section("COORDINATES").Data())
	if err != nil {
		return fmt.Errorf("[COORDINATES] %w", err)
	}
	vertices, _, err := collectPoints(f.Section("VERTICES").Data())
	if err != nil {
		return fmt.Errorf("[VERTICES] %w", err)
	}
	polygons, _, err := collectPoints(f.Section("Polygons").Data())
	if err != nil {
		return fmt.Errorf("[Polygons] %w", err)
	}

	if len(coords) > 0 {
		for kind := range NodeKinds {
			t := p[kind]
			if t == nil {
				continue
			}
			addColumns(t, "X_Coord", "Y_Coord")
			for _, r := range t.Rows {
				if pts := coords[r.String("Name")]; len(pts) > 0 {
					r["X_Coord"] = table.Number(pts[0].X)
					r["Y_Coord"] = table.Number(pts[0].Y)
				}
			}
		}
		for kind := range LinkKinds {
			t := p[kind]
			if t == nil {
				continue
			}
			addColumns(t, GeometryColumn)
			for _, r := range t.Rows {
				from, okFrom := coords[r.String("FromNode")]
				to, okTo := coords[r.String("ToNode")]
				if !okFrom || !okTo {
					d.Logger.Debug("link without node coordinates", slog.String("link", r.String("Name")))
					continue
				}
				line := ComposeLink(from[0], vertices[r.String("Name")], to[0])
				r[GeometryColumn] = table.Text(FormatPoints(line))
			}
		}
	}

	if t := p[KindSubcatchments]; t != nil && len(polygons) > 0 {
		addColumns(t, GeometryColumn)
		for _, r := range t.Rows {
			if pts := polygons[r.String("Name")]; len(pts) > 0 {
				r[GeometryColumn] = table.Text(FormatPoints(pts))
			}
		}
	}
	return nil
}
