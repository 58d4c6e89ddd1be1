package rpt

import (
	"slices"
	"strconv"
	"strings"
)

// UnitSpec locates a unit label in a header line. Start is the 1-based
// column SWMM writes the label at, counted on the untrimmed line.
type UnitSpec struct {
	Line   int
	Start  int
	Length int
}

// SWMM indents report lines by two spaces; Start is 1-based.
const headerIndent = 3

// Pollutant columns of the outfall loading summary start at this offset of
// the trimmed unit line.
const outfallPollutantOffset = 60

type pollutantLayout int

const (
	noPollutants pollutantLayout = iota
	// name line and unit line are zipped token by token
	zippedPollutants
	// fixed flow columns followed by one Total<name> column per pollutant
	outfallPollutants
)

type column struct {
	name string
	unit int // 1-based index into Topic.Units, 0 for none
}

func plain(name string) column            { return column{name: name} }
func withUnit(name string, u int) column { return column{name: name, unit: u} }

// Topic describes one summary section of a report.
type Topic struct {
	Name    string
	Title   string
	Units   []UnitSpec
	columns []column
	layout  pollutantLayout
}

var timeOfMax = []column{plain("TimeOfMaxOccurrence_Days"), plain("TimeOfMaxOccurrence_HoursMin")}

func cols(parts ...any) []column {
	var out []column
	for _, p := range parts {
		switch v := p.(type) {
		case column:
			out = append(out, v)
		case []column:
			out = append(out, v...)
		}
	}
	return out
}

// topics is the registry of supported report sections in report order.
var topics = []Topic{
	{
		Name:  "subcatchment_runoff",
		Title: "Subcatchment Runoff Summary",
		Units: []UnitSpec{{2, 32, 2}, {2, 104, 9}, {2, 118, 4}},
		columns: cols(
			plain("Name"),
			withUnit("TotalPrecipitation", 1), withUnit("TotalRunon", 1), withUnit("TotalEvaporation", 1),
			withUnit("TotalInfiltration", 1), withUnit("ImperviousRunoff", 1), withUnit("PerviousRunoff", 1),
			withUnit("TotalRunoff1", 1), withUnit("TotalRunoff2", 2), withUnit("PeakRunoff", 3),
			plain("RunoffCoefficient"),
		),
	},
	{
		Name:    "subcatchment_washoff",
		Title:   "Subcatchment Washoff Summary",
		columns: cols(plain("Name")),
		layout:  zippedPollutants,
	},
	{
		Name:  "node_depth",
		Title: "Node Depth Summary",
		Units: []UnitSpec{{2, 35, 6}},
		columns: cols(
			plain("Name"), plain("Type"),
			withUnit("AverageDepth", 1), withUnit("MaximumDepth", 1), withUnit("MaximumHGL", 1),
			timeOfMax,
			withUnit("MaxReportedDepth", 1),
		),
	},
	{
		Name:  "node_inflow",
		Title: "Node Inflow Summary",
		Units: []UnitSpec{{3, 38, 4}, {3, 68, 8}},
		columns: cols(
			plain("Name"), plain("Type"),
			withUnit("MaximumLateralInflow", 1), withUnit("MaximumTotalInflow", 1),
			timeOfMax,
			withUnit("LateralInflowVolume", 2), withUnit("TotalInflowVolume", 2),
			plain("FlowBalanceError_Pcnt"), plain("flag"),
		),
	},
	{
		Name:  "node_surcharge",
		Title: "Node Surcharge Summary",
		Units: []UnitSpec{{2, 53, 6}},
		columns: cols(
			plain("Name"), plain("Type"), plain("Surcharged_Hours"),
			withUnit("MaxHeightAboveCrown", 1), withUnit("MinDepthBelowRim", 1),
		),
	},
	{
		Name:  "node_flooding",
		Title: "Node Flooding Summary",
		Units: []UnitSpec{{3, 38, 4}, {3, 59, 9}, {3, 69, 9}},
		columns: cols(
			plain("Name"), plain("Flooded_Hours"), withUnit("MaximumRate", 1),
			timeOfMax,
			withUnit("TotalFloodVolume", 2), withUnit("MaximumPondedDepth", 3),
		),
	},
	{
		Name:  "storage_volume",
		Title: "Storage Volume Summary",
		Units: []UnitSpec{{2, 25, 9}, {2, 93, 6}},
		columns: cols(
			plain("Name"), withUnit("AverageVolume", 1), plain("AvgFull_Pcnt"), plain("EvapLoss_Pcnt"),
			plain("ExfilLoss_Pcnt"), withUnit("MaximumVolume", 1), plain("MaxFull_Pcnt"),
			timeOfMax,
			withUnit("MaximumOutflow", 2),
		),
	},
	{
		Name:  "outfall_loading",
		Title: "Outfall Loading Summary",
		Units: []UnitSpec{{2, 36, 4}, {2, 54, 9}},
		columns: cols(
			plain("Name"), plain("FlowFreq_Pcnt"), withUnit("AvgFlow", 1), withUnit("MaxFlow", 1),
			withUnit("TotalVolume", 2),
		),
		layout: outfallPollutants,
	},
	{
		Name:  "street_flow",
		Title: "Street Flow Summary",
		Units: []UnitSpec{{3, 25, 4}, {3, 37, 2}},
		columns: cols(
			plain("Name"), withUnit("PeakFlow", 1), withUnit("MaximumSpread", 2), withUnit("MaximumDepth", 2),
			plain("InletDesign"), plain("InletLocation"), plain("Inlet"),
			plain("PeakFlowCapture_Pcnt"), plain("AverageFlowCapture_Pcnt"),
			plain("BypassFlowFrequency_Pcnt"), plain("BackFlowFrequency_Pcnt"),
			withUnit("PeakCaptureInlet", 1), withUnit("PeakBypassFlow", 1),
		),
	},
	{
		Name:  "link_flow",
		Title: "Link Flow Summary",
		Units: []UnitSpec{{2, 38, 4}, {2, 58, 6}},
		columns: cols(
			plain("Name"), plain("Type"), withUnit("MaximumFlow", 1),
			timeOfMax,
			withUnit("MaximumVeloc", 2), plain("MaxFullFlow"), plain("MaxFullDepth"),
		),
	},
	{
		Name:  "flow_classification",
		Title: "Flow Classification Summary",
		columns: cols(
			plain("Name"), plain("AdjustedActualLength"),
			plain("FractionOfTimeDry"), plain("FractionOfTimeUpDry"), plain("FractionOfTimeDownDry"),
			plain("FractionOfTimeSubCrit"), plain("FractionOfTimeSupCrit"), plain("FractionOfTimeUpCrit"),
			plain("FractionOfTimeDownCrit"), plain("FractionOfTimeNormLtd"), plain("FractionOfTimeInletCtrl"),
		),
	},
	{
		Name:  "conduit_surcharge",
		Title: "Conduit Surcharge Summary",
		columns: cols(
			plain("Name"), plain("FullBothEnds_Hours"), plain("FullUpstream_Hours"), plain("FullDownstream_Hours"),
			plain("AboveFullNormalFlow_Hours"), plain("CapacityLimited_Hours"),
		),
	},
	{
		Name:  "pumping_summary",
		Title: "Pumping Summary",
		Units: []UnitSpec{{2, 51, 4}, {2, 76, 9}, {2, 89, 6}},
		columns: cols(
			plain("Name"), plain("Utilized_Pcnt"), plain("NumberOfStartups"),
			withUnit("MinFlow", 1), withUnit("AverageFlow", 1), withUnit("MaxFlow", 1),
			withUnit("TotalVolume", 2), withUnit("PowerUsage", 3),
			plain("TimeBelowPumpCurve_Pcnt"), plain("TimeAbovePumpCurve_Pcnt"),
		),
	},
	{
		Name:    "link_pollutant_load",
		Title:   "Link Pollutant Load Summary",
		columns: cols(plain("Name")),
		layout:  zippedPollutants,
	},
}

// Topics returns the names of every supported topic in report order.
func Topics() []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Name
	}
	return out
}

// LookupTopic finds a topic by name ("node_depth") or section title ("Node
// Depth Summary"), ignoring case.
func LookupTopic(name string) (Topic, error) {
	n := strings.TrimSpace(name)
	for _, t := range topics {
		if strings.EqualFold(t.Name, n) || strings.EqualFold(t.Title, n) {
			return t, nil
		}
	}
	return Topic{}, &UnknownTopicError{Name: name, Known: Topics()}
}

// Columns derives the column names of the topic from its header lines.
func (t Topic) Columns(header []string) ([]string, error) {
	units := make([]string, len(t.Units))
	for i, u := range t.Units {
		v, err := t.unit(header, u)
		if err != nil {
			return nil, err
		}
		units[i] = v
	}
	out := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if c.unit == 0 {
			out = append(out, c.name)
			continue
		}
		out = append(out, c.name+"_"+units[c.unit-1])
	}

	switch t.layout {
	case zippedPollutants:
		if len(header) < 2 {
			return nil, &MalformedReportHeaderError{Topic: t.Name, Line: len(header), Reason: "pollutant unit line missing"}
		}
		names := strings.Fields(header[0])
		unitTokens := strings.Fields(header[1])
		if len(unitTokens) > 0 {
			unitTokens = unitTokens[1:]
		}
		for i := 0; i < len(names) && i < len(unitTokens); i++ {
			out = append(out, names[i]+"_"+unitTokens[i])
		}
	case outfallPollutants:
		if len(header) < 3 {
			break
		}
		names := strings.Fields(header[1])
		if len(names) <= 4 {
			break
		}
		var unitTokens []string
		if len(header[2]) > outfallPollutantOffset {
			unitTokens = strings.Fields(header[2][outfallPollutantOffset:])
		}
		names = names[4:]
		for i := 0; i < len(names) && i < len(unitTokens); i++ {
			out = append(out, "Total"+names[i]+"_"+unitTokens[i])
		}
	}
	return out, nil
}

func (t Topic) unit(header []string, u UnitSpec) (string, error) {
	if u.Line >= len(header) {
		return "", &MalformedReportHeaderError{Topic: t.Name, Line: u.Line, Reason: "unit line missing"}
	}
	line := header[u.Line]
	start := u.Start - headerIndent
	if start < 0 || start >= len(line) {
		return "", &MalformedReportHeaderError{
			Topic: t.Name, Line: u.Line,
			Reason: "header line too short for unit at column " + strconv.Itoa(u.Start),
		}
	}
	end := min(start+u.Length, len(line))
	v := strings.TrimSpace(line[start:end])
	if v == "" {
		return "", &MalformedReportHeaderError{
			Topic: t.Name, Line: u.Line,
			Reason: "no unit at column " + strconv.Itoa(u.Start),
		}
	}
	return v, nil
}

// objectTopics lists the topics relevant to each object layer.
var objectTopics = map[string][]string{
	"junctions":     {"node_depth", "node_inflow", "node_surcharge", "node_flooding"},
	"outfalls":      {"node_depth", "node_inflow", "node_surcharge", "node_flooding", "outfall_loading"},
	"dividers":      {"node_depth", "node_inflow", "node_surcharge", "node_flooding"},
	"storages":      {"node_depth", "node_inflow", "node_surcharge", "node_flooding", "storage_volume"},
	"conduits":      {"link_flow", "flow_classification", "conduit_surcharge", "link_pollutant_load"},
	"pumps":         {"link_flow", "link_pollutant_load", "pumping_summary"},
	"orifices":      {"link_flow", "flow_classification", "link_pollutant_load"},
	"weirs":         {"link_flow", "link_pollutant_load"},
	"outlets":       {"link_flow", "link_pollutant_load"},
	"subcatchments": {"subcatchment_runoff", "subcatchment_washoff"},
}

// TopicsFor returns the topics that report on an object layer. Both layer
// names ("junctions") and object types ("JUNCTION", "STORAGE") are accepted.
// Unknown objects yield nil.
func TopicsFor(object string) []string {
	key := strings.ToLower(strings.TrimSpace(object))
	if !strings.HasSuffix(key, "s") {
		key += "s"
	}
	return slices.Clone(objectTopics[key])
}
