package inp

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Kind names a normalized input table.
type Kind string

// Table kinds.
const (
	KindOptions        Kind = "options"
	KindRainGages      Kind = "raingages"
	KindSubcatchments  Kind = "subcatchments"
	KindJunctions      Kind = "junctions"
	KindOutfalls       Kind = "outfalls"
	KindStorages       Kind = "storages"
	KindDividers       Kind = "dividers"
	KindConduits       Kind = "conduits"
	KindPumps          Kind = "pumps"
	KindWeirs          Kind = "weirs"
	KindOrifices       Kind = "orifices"
	KindOutlets        Kind = "outlets"
	KindStreets        Kind = "streets"
	KindInlets         Kind = "inlets"
	KindInletUsage     Kind = "inlet_usage"
	KindTransects      Kind = "transects"
	KindTransectPoints Kind = "transect_points"
	KindCurves         Kind = "curves"
	KindPatterns       Kind = "patterns"
	KindTimeseries     Kind = "timeseries"
	KindInflows        Kind = "inflows"
	KindDryWeather     Kind = "dry_weather"
	KindHydrographs    Kind = "hydrographs"
	KindRDII           Kind = "rdii"
)

// Kinds lists every table kind in encoding order. Nodes come before
// anything that references them.
var Kinds = []Kind{
	KindOptions, KindJunctions, KindOutfalls, KindStorages, KindDividers,
	KindConduits, KindPumps, KindWeirs, KindOrifices, KindOutlets,
	KindStreets, KindInlets, KindInletUsage, KindTransects, KindTransectPoints,
	KindRainGages, KindSubcatchments, KindCurves, KindPatterns, KindTimeseries,
	KindInflows, KindDryWeather, KindHydrographs, KindRDII,
}

// ParseKind validates a table kind name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if !slices.Contains(Kinds, k) {
		known := make([]string, len(Kinds))
		for i, k := range Kinds {
			known[i] = string(k)
		}
		return "", &UnknownSectionKindError{Name: name, Known: known}
	}
	return k, nil
}

// NodeKinds maps node table kinds to their node type.
var NodeKinds = map[Kind]swmm.NodeType{
	KindJunctions: swmm.Junction,
	KindOutfalls:  swmm.Outfall,
	KindStorages:  swmm.Storage,
	KindDividers:  swmm.Divider,
}

// LinkKinds maps link table kinds to their link type.
var LinkKinds = map[Kind]swmm.LinkType{
	KindConduits: swmm.Conduit,
	KindPumps:    swmm.Pump,
	KindWeirs:    swmm.Weir,
	KindOrifices: swmm.Orifice,
	KindOutlets:  swmm.Outlet,
}

// deprecatedColumns are renamed on export with a warning.
var deprecatedColumns = map[Kind]map[string]string{
	KindWeirs:   {"Coeff_Curv": "CoeffCurve"},
	KindOutlets: {"Rate_Curve": "RateCurve"},
	KindInlets:  {"Heigth": "Height"},
}

// Project is the set of normalized tables making up a model.
type Project map[Kind]*table.Table

// NodeNames returns the names of every node in the project.
func (p Project) NodeNames() map[string]bool {
	out := make(map[string]bool)
	for kind := range NodeKinds {
		if t := p[kind]; t != nil {
			for _, r := range t.Rows {
				out[r.String("Name")] = true
			}
		}
	}
	return out
}

// Encoder converts normalized tables into INP sections.
type Encoder struct {
	Logger   *slog.Logger
	Warnings *swmm.Warnings
}

// NewEncoder returns an encoder collecting warnings into warn.
func NewEncoder(logger *slog.Logger, warn *swmm.Warnings) *Encoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if warn == nil {
		warn = &swmm.Warnings{}
	}
	return &Encoder{Logger: logger, Warnings: warn}
}

// Encode converts every table of the project into one INP file.
func (e *Encoder) Encode(p Project) (*File, error) {
	f := &File{}
	nodes := p.NodeNames()
	var hydrographs []string
	for _, kind := range Kinds {
		t := p[kind]
		if t == nil {
			continue
		}
		e.Logger.Debug("encoding table", slog.String("kind", string(kind)), slog.Int("rows", t.Len()))
		var err error
		switch kind {
		case KindTransects:
			err = EncodeTransects(t, orEmpty(p[KindTransectPoints], KindTransectPoints), f)
		case KindTransectPoints:
			continue
		case KindInflows:
			err = EncodeDirectInflows(t, nodes, f, e.Warnings)
		case KindDryWeather:
			err = EncodeDryWeather(t, nodes, f, e.Warnings)
		case KindHydrographs:
			hydrographs, err = EncodeHydrographs(t, f)
		case KindRDII:
			err = EncodeRDII(t, hydrographs, nodes, f, e.Warnings)
		default:
			err = e.EncodeTable(kind, t, f)
		}
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", kind, err)
		}
	}
	return f, nil
}

func orEmpty(t *table.Table, kind Kind) *table.Table {
	if t != nil {
		return t
	}
	return table.New(string(kind), transectPointColumns...)
}

// EncodeTable converts one table and adds its rows to f. Columns and
// discriminator values are validated before anything is written.
func (e *Encoder) EncodeTable(kind Kind, t *table.Table, f *File) error {
	t = e.renameDeprecated(kind, t)
	switch kind {
	case KindOptions:
		return encodeSchema(t, "OPTIONS", f)
	case KindRainGages:
		return encodeSchema(t, "RAINGAGES", f)
	case KindJunctions:
		if err := encodeSchema(t, "JUNCTIONS", f); err != nil {
			return err
		}
		return encodeCoordinates(t, f)
	case KindOutfalls:
		if err := encodeSchema(t, "OUTFALLS", f); err != nil {
			return err
		}
		return encodeCoordinates(t, f)
	case KindStorages:
		if err := encodeSchema(t, "STORAGE", f); err != nil {
			return err
		}
		return encodeCoordinates(t, f)
	case KindDividers:
		if err := encodeSchema(t, "DIVIDERS", f); err != nil {
			return err
		}
		return encodeCoordinates(t, f)
	case KindConduits:
		return e.encodeConduits(t, f)
	case KindPumps:
		if err := table.CheckColumns(t, pumpColumns...); err != nil {
			return err
		}
		if err := encodeSchema(t, "PUMPS", f); err != nil {
			return err
		}
		return encodeVertices(t, f)
	case KindWeirs:
		return e.encodeWeirs(t, f)
	case KindOrifices:
		if err := table.CheckColumns(t, orificeColumns...); err != nil {
			return err
		}
		if err := encodeSchema(t, "ORIFICES", f); err != nil {
			return err
		}
		if err := writeDerived(t, "XSECTIONS", f, func(r table.Row) (table.Row, error) {
			return OrificeXsection(r), nil
		}); err != nil {
			return err
		}
		return encodeVertices(t, f)
	case KindOutlets:
		if err := table.CheckColumns(t, outletColumns...); err != nil {
			return err
		}
		if err := encodeSchema(t, "OUTLETS", f); err != nil {
			return err
		}
		return encodeVertices(t, f)
	case KindStreets:
		return encodeSchema(t, "STREETS", f)
	case KindInlets:
		return encodeSchema(t, "INLETS", f)
	case KindInletUsage:
		return encodeSchema(t, "INLET_USAGE", f)
	case KindSubcatchments:
		return encodeSubcatchments(t, f)
	case KindCurves:
		return EncodeCurves(t, f)
	case KindPatterns:
		return EncodePatterns(t, f, e.Warnings)
	case KindTimeseries:
		return EncodeTimeseries(t, f, e.Warnings)
	case KindTransects:
		return EncodeTransects(t, orEmpty(nil, KindTransectPoints), f)
	case KindInflows:
		return EncodeDirectInflows(t, nil, f, e.Warnings)
	case KindDryWeather:
		return EncodeDryWeather(t, nil, f, e.Warnings)
	case KindHydrographs:
		_, err := EncodeHydrographs(t, f)
		return err
	}
	_, err := ParseKind(string(kind))
	if err == nil {
		err = fmt.Errorf("table kind %s cannot be encoded on its own", kind)
	}
	return err
}

func (e *Encoder) renameDeprecated(kind Kind, t *table.Table) *table.Table {
	renames := deprecatedColumns[kind]
	var found []string
	for old := range renames {
		if t.Has(old) {
			found = append(found, old)
		}
	}
	if len(found) == 0 {
		return t
	}
	slices.Sort(found)
	out := table.New(t.Source, t.Columns...)
	out.Columns = slices.Clone(t.Columns)
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, r.Clone())
	}
	for _, old := range found {
		e.Warnings.Add(swmm.WarnDeprecatedColumn,
			"%s: column %s is deprecated, use %s instead", t.Source, old, renames[old])
		out.Rename(old, renames[old])
	}
	return out
}

// checkDiscriminator collects every illegal discriminator value of the
// table in first-seen order.
func checkDiscriminator(t *table.Table, s *Schema) error {
	var bad []string
	for _, r := range t.Rows {
		v := r.String(s.Discriminator)
		if _, ok := s.Variant(v); !ok && !slices.Contains(bad, v) {
			bad = append(bad, v)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return &InvalidDiscriminatorValueError{
		Source: t.Source, Section: s.Section, Field: s.Discriminator, Values: bad, Legal: s.Legal(),
	}
}

// encodeSchema validates a table against a positional schema and appends
// one line per row.
func encodeSchema(t *table.Table, section string, f *File) error {
	s, err := Lookup(section)
	if err != nil {
		return err
	}
	if s.Discriminator != "" {
		if err := table.CheckColumns(t, s.Discriminator); err != nil {
			return err
		}
		if err := checkDiscriminator(t, s); err != nil {
			return err
		}
	}
	if err := table.CheckColumns(t, s.RequiredFor(discriminatorValues(t, s))...); err != nil {
		return err
	}
	if t.Len() == 0 {
		return nil
	}
	sec := f.Add(s.Section)
	for _, r := range t.Rows {
		row, err := s.Export(r)
		if err != nil {
			return err
		}
		sec.Append(row.Tokens()...)
	}
	return nil
}

func discriminatorValues(t *table.Table, s *Schema) []string {
	if s.Discriminator == "" {
		return nil
	}
	var out []string
	for _, r := range t.Rows {
		if v := r.String(s.Discriminator); !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// writeDerived exports a record derived from every row through the named
// section schema.
func writeDerived(t *table.Table, section string, f *File, derive func(table.Row) (table.Row, error)) error {
	if t.Len() == 0 {
		return nil
	}
	s, err := Lookup(section)
	if err != nil {
		return err
	}
	sec := f.Add(s.Section)
	for _, r := range t.Rows {
		rec, err := derive(r)
		if err != nil {
			return err
		}
		row, err := s.Export(rec)
		if err != nil {
			return err
		}
		sec.Append(row.Tokens()...)
	}
	return nil
}

func (e *Encoder) encodeConduits(t *table.Table, f *File) error {
	if err := table.CheckColumns(t, conduitColumns...); err != nil {
		return err
	}
	for _, r := range t.Rows {
		if referencedShape(r.Get("XsectShape").Upper()) {
			if err := table.CheckColumns(t, "Shp_Trnsct"); err != nil {
				return err
			}
			break
		}
	}
	if err := encodeSchema(t, "CONDUITS", f); err != nil {
		return err
	}
	if err := writeDerived(t, "XSECTIONS", f, func(r table.Row) (table.Row, error) {
		return ConduitXsection(r), nil
	}); err != nil {
		return err
	}
	if err := encodeSchema(t, "LOSSES", f); err != nil {
		return err
	}
	return encodeVertices(t, f)
}

func (e *Encoder) encodeWeirs(t *table.Table, f *File) error {
	if err := table.CheckColumns(t, weirColumns...); err != nil {
		return err
	}
	var bad []string
	for _, r := range t.Rows {
		v := r.String("Type")
		if _, ok := weirShapes[r.Get("Type").Upper()]; !ok && !slices.Contains(bad, v) {
			bad = append(bad, v)
		}
	}
	if len(bad) > 0 {
		return &InvalidDiscriminatorValueError{
			Source: t.Source, Section: "WEIRS", Field: "Type", Values: bad, Legal: weirTypes(),
		}
	}
	if err := encodeSchema(t, "WEIRS", f); err != nil {
		return err
	}
	if err := writeDerived(t, "XSECTIONS", f, WeirXsection); err != nil {
		return err
	}
	return encodeVertices(t, f)
}

func encodeSubcatchments(t *table.Table, f *File) error {
	if err := encodeSchema(t, "SUBCATCHMENTS", f); err != nil {
		return err
	}
	if t.Has("N_Imperv") {
		if err := encodeSchema(t, "SUBAREAS", f); err != nil {
			return err
		}
	}
	if !t.Has(GeometryColumn) {
		return nil
	}
	for _, r := range t.Rows {
		pts, err := ParsePoints(r.String(GeometryColumn))
		if err != nil {
			return fmt.Errorf("subcatchment %s: %w", r.String("Name"), err)
		}
		if len(pts) == 0 {
			continue
		}
		sec := f.Add("Polygons")
		for _, tokens := range geometryRows(r.String("Name"), pts) {
			sec.Append(tokens...)
		}
	}
	return nil
}

// encodeCoordinates writes COORDINATES lines for node tables that carry
// X_Coord and Y_Coord.
func encodeCoordinates(t *table.Table, f *File) error {
	if !t.Has("X_Coord") || !t.Has("Y_Coord") {
		return nil
	}
	for _, r := range t.Rows {
		p, ok := NodePoint(r)
		if !ok {
			continue
		}
		f.Add("COORDINATES").Append(geometryRows(r.String("Name"), []Point{p})[0]...)
	}
	return nil
}

// encodeVertices writes VERTICES lines for link tables that carry a
// Geometry column.
func encodeVertices(t *table.Table, f *File) error {
	if !t.Has(GeometryColumn) {
		return nil
	}
	for _, r := range t.Rows {
		pts, err := LinkVertices(r)
		if err != nil {
			return err
		}
		if len(pts) == 0 {
			continue
		}
		sec := f.Add("VERTICES")
		for _, tokens := range geometryRows(r.String("Name"), pts) {
			sec.Append(tokens...)
		}
	}
	return nil
}
