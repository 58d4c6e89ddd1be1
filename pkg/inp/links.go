package inp

import (
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Required columns of the normalized link tables.
var (
	conduitColumns = []string{
		"Name", "FromNode", "ToNode", "Length", "Roughness", "InOffset", "OutOffset", "InitFlow", "MaxFlow",
		"XsectShape", "Geom1", "Geom2", "Geom3", "Geom4", "Barrels", "Culvert",
		"Kentry", "Kexit", "Kavg", "FlapGate", "Seepage",
	}
	pumpColumns = []string{"Name", "FromNode", "ToNode", "PumpCurve", "Status", "Startup", "Shutoff"}
	weirColumns = []string{
		"Name", "FromNode", "ToNode", "Type", "CrestHeigh", "Qcoeff", "FlapGate", "EndContrac", "EndCoeff",
		"Surcharge", "RoadWidth", "RoadSurf", "CoeffCurve", "Height", "Length", "SideSlope",
	}
	orificeColumns = []string{
		"Name", "FromNode", "ToNode", "Type", "InOffset", "Qcoeff", "FlapGate", "CloseTime",
		"XsectShape", "Height", "Width",
	}
	outletColumns = []string{
		"Name", "FromNode", "ToNode", "InOffset", "RateCurve", "Qcoeff", "Qexpon", "CurveName", "FlapGate",
	}
)

// weirShapes maps a weir type to the cross-section shape SWMM expects for it.
var weirShapes = map[string]string{
	"TRANSVERSE":  "RECT_OPEN",
	"SIDEFLOW":    "RECT_OPEN",
	"V-NOTCH":     "TRIANGULAR",
	"TRAPEZOIDAL": "TRAPEZOIDAL",
	"ROADWAY":     "RECT_OPEN",
}

// Shapes whose geometry is a reference to a transect, street or shape curve.
func referencedShape(shape string) bool {
	switch shape {
	case "IRREGULAR", "STREET", "CUSTOM":
		return true
	}
	return false
}

func orZero(v table.Value) table.Value {
	if v.IsNull() {
		return table.Number(0)
	}
	return v
}

// ConduitXsection derives the XSECTIONS record of a conduit. IRREGULAR and
// STREET shapes take the transect or street name as Geom1 and leave the rest
// blank; CUSTOM takes the shape curve as Geom2. Every other shape gets zero
// filled geometry and one barrel by default.
func ConduitXsection(rec table.Row) table.Row {
	shape := rec.Get("XsectShape").Upper()
	x := table.Row{
		"Name":       rec.Get("Name"),
		"XsectShape": table.Text(shape),
		"Geom1":      rec.Get("Geom1"),
		"Culvert":    rec.Get("Culvert"),
	}
	switch shape {
	case "IRREGULAR", "STREET":
		x["Geom1"] = rec.Get("Shp_Trnsct")
		x["Geom2"] = table.Null()
		x["Geom3"] = table.Null()
		x["Geom4"] = table.Null()
		x["Barrels"] = table.Null()
		return x
	case "CUSTOM":
		x["Geom2"] = rec.Get("Shp_Trnsct")
	default:
		x["Geom2"] = orZero(rec.Get("Geom2"))
	}
	x["Geom3"] = orZero(rec.Get("Geom3"))
	x["Geom4"] = orZero(rec.Get("Geom4"))
	x["Barrels"] = rec.Get("Barrels")
	if x["Barrels"].IsNull() {
		x["Barrels"] = table.Number(1)
	}
	return x
}

// conduitFromXsection folds an XSECTIONS record back into a conduit record.
func conduitFromXsection(rec, x table.Row) {
	shape := x.Get("XsectShape").Upper()
	for _, c := range []string{"XsectShape", "Geom1", "Geom2", "Geom3", "Geom4", "Barrels", "Culvert"} {
		rec[c] = x.Get(c)
	}
	rec["Shp_Trnsct"] = table.Null()
	switch shape {
	case "IRREGULAR", "STREET":
		rec["Shp_Trnsct"] = x.Get("Geom1")
		rec["Geom1"] = table.Null()
	case "CUSTOM":
		rec["Shp_Trnsct"] = x.Get("Geom2")
		rec["Geom2"] = table.Null()
	}
}

// WeirXsection derives the XSECTIONS record of a weir from its Height,
// Length and SideSlope. The weir type must be one of weirShapes.
func WeirXsection(rec table.Row) (table.Row, error) {
	kind := rec.Get("Type").Upper()
	shape, ok := weirShapes[kind]
	if !ok {
		return nil, &InvalidDiscriminatorValueError{
			Section: "WEIRS",
			Field:   "Type",
			Values:  []string{rec.String("Type")},
			Legal:   weirTypes(),
		}
	}
	slope := orZero(rec.Get("SideSlope"))
	return table.Row{
		"Name":       rec.Get("Name"),
		"XsectShape": table.Text(shape),
		"Geom1":      rec.Get("Height"),
		"Geom2":      rec.Get("Length"),
		"Geom3":      slope,
		"Geom4":      slope,
	}, nil
}

func weirFromXsection(rec, x table.Row) {
	rec["Height"] = x.Get("Geom1")
	rec["Length"] = x.Get("Geom2")
	rec["SideSlope"] = x.Get("Geom3")
}

func weirTypes() []string {
	return []string{"ROADWAY", "SIDEFLOW", "TRANSVERSE", "TRAPEZOIDAL", "V-NOTCH"}
}

// OrificeXsection derives the XSECTIONS record of an orifice from its shape,
// Height and Width.
func OrificeXsection(rec table.Row) table.Row {
	return table.Row{
		"Name":       rec.Get("Name"),
		"XsectShape": table.Text(rec.Get("XsectShape").Upper()),
		"Geom1":      rec.Get("Height"),
		"Geom2":      orZero(rec.Get("Width")),
		"Geom3":      table.Number(0),
		"Geom4":      table.Number(0),
	}
}

func orificeFromXsection(rec, x table.Row) {
	rec["XsectShape"] = x.Get("XsectShape")
	rec["Height"] = x.Get("Geom1")
	rec["Width"] = x.Get("Geom2")
}
