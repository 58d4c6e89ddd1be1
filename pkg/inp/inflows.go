package inp

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Required columns of the inflow tables.
var (
	directInflowColumns = []string{
		"Name", "Constituent", "Baseline", "Baseline_Pattern", "Time_Series", "Scale_Factor", "Type",
	}
	dryWeatherColumns = []string{
		"Name", "Constituent", "Average_Value", "Time_Pattern1", "Time_Pattern2", "Time_Pattern3", "Time_Pattern4",
	}
	rdiiColumns = []string{"Node", "UnitHydrograph", "SewerArea"}
)

// Hydrograph response terms in the order SWMM lists them.
var responseTerms = []string{"Short", "Medium", "Long"}

// Per-term hydrograph parameters; table columns are "<param>_<term>Term".
var hydrographParams = []string{"R", "T", "K", "D_max", "D_recovery", "D_init"}

func hydrographColumns() []string {
	out := []string{"Name", "Rain_Gage", "Months"}
	for _, term := range responseTerms {
		for _, p := range hydrographParams {
			out = append(out, p+"_"+term+"Term")
		}
	}
	return out
}

// dropMissingNodes keeps the rows whose key column names an existing node
// and warns once about the others.
func dropMissingNodes(t *table.Table, key string, nodes map[string]bool, warn *swmm.Warnings) []table.Row {
	var keep []table.Row
	var missing []string
	for _, r := range t.Rows {
		name := r.String(key)
		if name == "" || name == continuationMarker {
			continue
		}
		if nodes != nil && !nodes[name] {
			missing = append(missing, name)
			continue
		}
		keep = append(keep, r)
	}
	if len(missing) > 0 {
		warn.Add(swmm.WarnMissingInflowNodes,
			"%s: inflows for missing nodes are not written: %s", t.Source, strings.Join(missing, ", "))
	}
	return keep
}

// encodeKeyed writes rows of a positional section keyed by node, dropping
// rows for nodes that are not part of the network.
func encodeKeyed(section string, t *table.Table, key string, required []string, nodes map[string]bool, f *File, warn *swmm.Warnings) error {
	if err := table.CheckColumns(t, required...); err != nil {
		return err
	}
	s, err := Lookup(section)
	if err != nil {
		return err
	}
	rows := dropMissingNodes(t, key, nodes, warn)
	if len(rows) == 0 {
		return nil
	}
	sec := f.Add(s.Section)
	for _, r := range rows {
		row, err := s.Export(r)
		if err != nil {
			return err
		}
		sec.Append(row.Tokens()...)
	}
	return nil
}

// EncodeDirectInflows writes the INFLOWS section. nodes is the set of node
// names in the network; nil disables the check.
func EncodeDirectInflows(t *table.Table, nodes map[string]bool, f *File, warn *swmm.Warnings) error {
	return encodeKeyed("INFLOWS", t, "Name", directInflowColumns, nodes, f, warn)
}

// EncodeDryWeather writes the DWF section.
func EncodeDryWeather(t *table.Table, nodes map[string]bool, f *File, warn *swmm.Warnings) error {
	return encodeKeyed("DWF", t, "Name", dryWeatherColumns, nodes, f, warn)
}

// EncodeHydrographs writes the HYDROGRAPHS section: a rain gage line per
// hydrograph followed by one line per response term. It returns the names
// of the written hydrographs.
func EncodeHydrographs(t *table.Table, f *File) ([]string, error) {
	if err := table.CheckColumns(t, hydrographColumns()...); err != nil {
		return nil, err
	}
	var names []string
	var s *Section
	for _, r := range t.Rows {
		name := r.String("Name")
		if name == "" || name == continuationMarker {
			continue
		}
		if s == nil {
			s = f.Add("HYDROGRAPHS")
		}
		names = append(names, name)
		s.Append(name, r.String("Rain_Gage"))
		months := r.String("Months")
		if months == "" {
			months = "ALL"
		}
		for _, term := range responseTerms {
			tokens := []string{name, months, strings.ToUpper(term)}
			for _, p := range hydrographParams {
				tokens = append(tokens, r.String(p+"_"+term+"Term"))
			}
			s.Append(trimEmpty(tokens)...)
		}
	}
	return names, nil
}

func trimEmpty(tokens []string) []string {
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	for i, t := range tokens {
		if t == "" {
			tokens[i] = "0"
		}
	}
	return tokens
}

// EncodeRDII writes the RDII section. When any referenced unit hydrograph is
// not among hydrographs the whole section is left out with a warning, since
// SWMM rejects the file otherwise.
func EncodeRDII(t *table.Table, hydrographs []string, nodes map[string]bool, f *File, warn *swmm.Warnings) error {
	if err := table.CheckColumns(t, rdiiColumns...); err != nil {
		return err
	}
	rows := dropMissingNodes(t, "Node", nodes, warn)
	var missing []string
	for _, r := range rows {
		uh := r.String("UnitHydrograph")
		if !slices.Contains(hydrographs, uh) && !slices.Contains(missing, uh) {
			missing = append(missing, uh)
		}
	}
	if len(missing) > 0 {
		warn.Add(swmm.WarnMissingHydrographs,
			"%s: unit hydrographs not defined: %s", t.Source, strings.Join(missing, ", "))
		warn.Add(swmm.WarnRDIIDropped, "the RDII section is not written because unit hydrographs are missing")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	schema, _ := Lookup("RDII")
	sec := f.Add("RDII")
	for _, r := range rows {
		row, err := schema.Export(r)
		if err != nil {
			return err
		}
		sec.Append(row.Tokens()...)
	}
	return nil
}

// DecodeHydrographs reads a HYDROGRAPHS section into one row per hydrograph.
func DecodeHydrographs(s *Section) *table.Table {
	t := table.New("hydrographs", hydrographColumns()...)
	rows := make(map[string]table.Row)
	for _, tokens := range s.Data() {
		name := tokens[0]
		r, ok := rows[name]
		if !ok {
			r = table.Row{"Name": table.Text(name)}
			rows[name] = r
			t.Append(r)
		}
		if len(tokens) == 2 {
			r["Rain_Gage"] = table.Text(tokens[1])
			continue
		}
		if len(tokens) < 4 {
			continue
		}
		term := strings.ToUpper(tokens[2])
		for _, rt := range responseTerms {
			if strings.ToUpper(rt) != term {
				continue
			}
			if r.Get("Months").IsNull() {
				r["Months"] = table.Text(tokens[1])
			}
			for i, p := range hydrographParams {
				v := table.Null()
				if 3+i < len(tokens) {
					v = table.Parse(tokens[3+i])
				}
				r[p+"_"+rt+"Term"] = v
			}
		}
	}
	return t
}
