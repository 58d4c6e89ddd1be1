package inp

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

var (
	star   = table.Filler("*")
	quoted = table.Filler(`""`)
	zero   = table.Number(0)
	one    = table.Number(1)
	no     = table.Text("NO")
)

func genericShape(get func(string) table.Value) bool {
	return get("Shape").Upper() == "GENERIC"
}

// registry holds every positional section. It is built once and never
// mutated; Lookup hands out pointers that callers must treat as read-only.
var registry = func() map[string]*Schema {
	schemas := []*Schema{
		{
			Section: "JUNCTIONS",
			Base: []Field{
				text("Name"), number("Elevation"), number("MaxDepth").or(zero),
				number("InitDepth").or(zero), number("SurDepth").or(zero), number("Aponded").or(zero),
			},
		},
		{
			Section:       "OUTFALLS",
			Base:          []Field{text("Name"), number("Elevation"), text("Type")},
			Discriminator: "Type",
			Width:         1,
			VariantFields: []Field{number("FixedStage"), text("Curve_TS")},
			Variants: map[string]Variant{
				"FREE":       {Slots: []Slot{fill("")}},
				"NORMAL":     {Slots: []Slot{fill("")}},
				"FIXED":      {Slots: []Slot{col("FixedStage")}},
				"TIDAL":      {Slots: []Slot{col("Curve_TS")}},
				"TIMESERIES": {Slots: []Slot{col("Curve_TS")}},
			},
			Tail: []Field{text("FlapGate").or(no), text("RouteTo")},
		},
		{
			Section: "STORAGE",
			Base: []Field{
				text("Name"), number("Elevation"), number("MaxDepth"), number("InitDepth").or(zero), text("Type"),
			},
			Discriminator: "Type",
			Width:         3,
			VariantFields: []Field{
				text("Curve"), number("Coeff"), number("Exponent"), number("Constant"),
				number("MajorAxis"), number("MinorAxis"), number("SideSlope"), number("SurfHeight"),
			},
			Variants: map[string]Variant{
				"FUNCTIONAL":  {Slots: []Slot{col("Coeff"), col("Exponent"), col("Constant")}},
				"TABULAR":     {Slots: []Slot{col("Curve"), fill(""), fill("")}},
				"PYRAMIDAL":   {Slots: []Slot{col("MajorAxis"), col("MinorAxis"), col("SideSlope")}},
				"PARABOLIC":   {Slots: []Slot{col("MajorAxis"), col("MinorAxis"), col("SurfHeight")}},
				"CONICAL":     {Slots: []Slot{col("MajorAxis"), col("MinorAxis"), col("SideSlope")}},
				"CYLINDRICAL": {Slots: []Slot{col("MajorAxis"), col("MinorAxis"), fill("0")}},
			},
			Tail: []Field{
				number("SurDepth").or(zero), number("Fevap").or(zero),
				number("Psi"), number("Ksat"), number("IMD"),
			},
		},
		{
			Section:       "DIVIDERS",
			Base:          []Field{text("Name"), number("Elevation"), text("DivLink"), text("Type")},
			Discriminator: "Type",
			Width:         5,
			VariantFields: []Field{
				number("CutoffFlow"), text("Curve"), number("WeirMinFlo"), number("WeirMaxDep"), number("WeirCoeff"),
			},
			Variants: map[string]Variant{
				"OVERFLOW": {},
				"CUTOFF":   {Slots: []Slot{col("CutoffFlow")}},
				"TABULAR":  {Slots: []Slot{fill(""), col("Curve")}},
				"WEIR": {Slots: []Slot{
					fill(""), fill(""), col("WeirMinFlo"), col("WeirMaxDep"), col("WeirCoeff"),
				}},
			},
			Tail: []Field{
				number("MaxDepth").or(zero), number("InitDepth").or(zero),
				number("SurDepth").or(zero), number("Aponded").or(zero),
			},
		},
		{
			Section: "CONDUITS",
			Base: []Field{
				text("Name"), text("FromNode"), text("ToNode"), number("Length"), number("Roughness"),
				number("InOffset").or(star), number("OutOffset").or(star),
				number("InitFlow").or(zero), number("MaxFlow").or(zero),
			},
		},
		{
			Section: "PUMPS",
			Base: []Field{
				text("Name"), text("FromNode"), text("ToNode"), text("PumpCurve").or(star),
				text("Status").or(table.Text("ON")), number("Startup").or(zero), number("Shutoff").or(zero),
			},
		},
		{
			Section: "ORIFICES",
			Base: []Field{
				text("Name"), text("FromNode"), text("ToNode"), text("Type"), number("InOffset").or(star),
				number("Qcoeff"), text("FlapGate").or(no), number("CloseTime").or(zero),
			},
		},
		{
			Section: "WEIRS",
			Base: []Field{
				text("Name"), text("FromNode"), text("ToNode"), text("Type"), number("CrestHeigh").or(star),
				number("Qcoeff"), text("FlapGate").or(no), number("EndContrac").or(zero),
				number("EndCoeff").or(zero), text("Surcharge").or(table.Text("YES")),
				number("RoadWidth").or(star), text("RoadSurf").or(star), text("CoeffCurve"),
			},
		},
		{
			Section:       "OUTLETS",
			Base:          []Field{text("Name"), text("FromNode"), text("ToNode"), number("InOffset").or(star), text("RateCurve")},
			Discriminator: "RateCurve",
			Width:         2,
			VariantFields: []Field{number("Qcoeff").or(one), number("Qexpon"), text("CurveName").or(star)},
			Variants: map[string]Variant{
				"FUNCTIONAL/DEPTH": {Slots: []Slot{col("Qcoeff"), col("Qexpon")}},
				"FUNCTIONAL/HEAD":  {Slots: []Slot{col("Qcoeff"), col("Qexpon")}},
				"TABULAR/DEPTH":    {Slots: []Slot{col("CurveName"), fill("")}},
				"TABULAR/HEAD":     {Slots: []Slot{col("CurveName"), fill("")}},
			},
			Tail: []Field{text("FlapGate").or(no)},
		},
		{
			Section: "XSECTIONS",
			Base: []Field{
				text("Name"), text("XsectShape"), number("Geom1"), number("Geom2"), number("Geom3"),
				number("Geom4"), number("Barrels"), number("Culvert"),
			},
		},
		{
			Section: "LOSSES",
			Base: []Field{
				text("Name"), number("Kentry").or(zero), number("Kexit").or(zero), number("Kavg").or(zero),
				text("FlapGate").or(no), number("Seepage").or(zero),
			},
		},
		{
			Section: "STREETS",
			Base: []Field{
				text("Name"), number("Tcrown"), number("Hcurb"), number("Sx"), number("nRoad"),
				number("a"), number("W"), number("Sides"), number("Tback"), number("Sback"), number("nBack"),
			},
		},
		{
			Section:       "INLETS",
			Base:          []Field{text("Name"), text("Type")},
			Discriminator: "Type",
			Width:         5,
			VariantFields: []Field{
				number("Length"), number("Width"), number("Height"), text("Shape"),
				number("OpenFract"), number("SplashVel"),
			},
			Variants: map[string]Variant{
				"GRATE": {
					Slots:     []Slot{col("Length"), col("Width"), col("Shape")},
					Extra:     []Slot{col("OpenFract"), col("SplashVel")},
					ExtraWhen: genericShape,
				},
				"DROP_GRATE": {
					Slots:     []Slot{col("Length"), col("Width"), col("Shape")},
					Extra:     []Slot{col("OpenFract"), col("SplashVel")},
					ExtraWhen: genericShape,
				},
				"CURB":      {Slots: []Slot{col("Length"), col("Height"), col("Shape")}},
				"CUSTOM":    {Slots: []Slot{col("Shape")}},
				"SLOTTED":   {Slots: []Slot{col("Length"), col("Width")}},
				"DROP_CURB": {Slots: []Slot{col("Length"), col("Height")}},
			},
		},
		{
			Section: "INLET_USAGE",
			Base: []Field{
				text("Conduit"), text("Inlet"), text("Node"), number("Number").or(one),
				number("CloggedPct").or(zero), number("Qmax").or(zero), number("aLocal").or(zero),
				number("wLocal").or(zero), text("Placement"),
			},
		},
		{
			Section: "RAINGAGES",
			Base: []Field{
				text("Name"), text("Format"), text("Interval"), number("SCF").or(one), text("Source"),
			},
			Discriminator: "Source",
			Width:         3,
			VariantFields: []Field{text("SourceName"), text("StationID"), text("Units")},
			Variants: map[string]Variant{
				"TIMESERIES": {Slots: []Slot{col("SourceName")}},
				"FILE":       {Slots: []Slot{col("SourceName"), col("StationID"), col("Units")}},
			},
		},
		{
			Section: "SUBCATCHMENTS",
			Base: []Field{
				text("Name"), text("RainGage"), text("Outlet"), number("Area"), number("Imperv"),
				number("Width"), number("Slope"), number("CurbLen").or(zero), text("SnowPack"),
			},
		},
		{
			Section: "SUBAREAS",
			Base: []Field{
				text("Name"), number("N_Imperv"), number("N_Perv"), number("S_Imperv"), number("S_Perv"),
				number("PctZero"), text("RouteTo").or(table.Text("OUTLET")), number("PctRouted"),
			},
		},
		{
			Section: "INFLOWS",
			Base: []Field{
				text("Name"), text("Constituent"), text("Time_Series").or(quoted), text("Type").or(quoted),
				number("Units_Factor").or(quoted), number("Scale_Factor").or(quoted),
				number("Baseline").or(quoted), text("Baseline_Pattern").or(quoted),
			},
		},
		{
			Section: "DWF",
			Base: []Field{
				text("Name"), text("Constituent"), number("Average_Value"),
				text("Time_Pattern1").or(quoted), text("Time_Pattern2").or(quoted),
				text("Time_Pattern3").or(quoted), text("Time_Pattern4").or(quoted),
			},
		},
		{
			Section: "RDII",
			Base:    []Field{text("Node"), text("UnitHydrograph"), number("SewerArea")},
		},
		{
			Section: "COORDINATES",
			Base:    []Field{text("Name"), number("X_Coord"), number("Y_Coord")},
		},
		{
			Section: "VERTICES",
			Base:    []Field{text("Name"), number("X_Coord"), number("Y_Coord")},
		},
		{
			Section: "Polygons",
			Base:    []Field{text("Name"), number("X_Coord"), number("Y_Coord")},
		},
		{
			Section: "SYMBOLS",
			Base:    []Field{text("Name"), number("X_Coord"), number("Y_Coord")},
		},
		{
			Section: "OPTIONS",
			Base:    []Field{text("Option"), text("Value")},
		},
	}

	m := make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		m[strings.ToUpper(s.Section)] = s
	}
	return m
}()

// groupedSections are multi-row sections handled by the grouped codecs
// rather than a positional schema.
var groupedSections = []string{"CURVES", "HYDROGRAPHS", "PATTERNS", "TIMESERIES", "TRANSECTS"}

// Lookup returns the positional schema of a section. Section names are case
// insensitive.
func Lookup(section string) (*Schema, error) {
	s, ok := registry[strings.ToUpper(strings.Trim(strings.TrimSpace(section), "[]"))]
	if !ok {
		return nil, &UnknownSectionKindError{Name: section, Known: Sections()}
	}
	return s, nil
}

// Sections lists every supported section, positional and grouped, sorted.
func Sections() []string {
	out := make([]string, 0, len(registry)+len(groupedSections))
	for _, s := range registry {
		out = append(out, s.Section)
	}
	out = append(out, groupedSections...)
	sort.Strings(out)
	return out
}

// Supported reports whether the codec can encode or decode a section.
func Supported(section string) bool {
	name := strings.ToUpper(strings.Trim(strings.TrimSpace(section), "[]"))
	if _, ok := registry[name]; ok {
		return true
	}
	for _, g := range groupedSections {
		if g == name {
			return true
		}
	}
	return false
}
