package trace

import (
	"sort"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// MaxBatchSize caps the number of handles per select-by-id call. Some
// collaborators reject larger selections.
const MaxBatchSize = 200

// StartCandidate is the set of node names selected in one node layer.
type StartCandidate struct {
	Layer    string
	Selected []string
}

// Start is the resolved start node.
type Start struct {
	Name  string
	Layer string
}

// SelectStart resolves exactly one start node across all node layers.
func SelectStart(candidates []StartCandidate) (Start, error) {
	var found Start
	for _, c := range candidates {
		switch n := len(c.Selected); {
		case n == 0:
			continue
		case n > 1:
			return Start{}, &InvalidSelectionError{Layers: []string{c.Layer}, Nodes: c.Selected}
		}
		if found.Layer != "" {
			return Start{}, &InvalidSelectionError{
				Layers: []string{found.Layer, c.Layer},
				Nodes:  []string{found.Name, c.Selected[0]},
			}
		}
		found = Start{Name: c.Selected[0], Layer: c.Layer}
	}
	if found.Layer == "" {
		return Start{}, &InvalidSelectionError{}
	}
	return found, nil
}

// Subcatchments returns the sub-catchments whose outlet is a selected node.
func (r *Result) Subcatchments(subs []swmm.Subcatchment) []swmm.Subcatchment {
	keep := r.nodeSet()
	var out []swmm.Subcatchment
	for _, s := range subs {
		if keep[s.Outlet] {
			out = append(out, s)
		}
	}
	return out
}

// RainGages returns the gages referenced by the retained sub-catchments.
func (r *Result) RainGages(subs []swmm.Subcatchment, gages []swmm.RainGage) []swmm.RainGage {
	used := make(map[string]bool)
	for _, s := range r.Subcatchments(subs) {
		used[s.RainGage] = true
	}
	var out []swmm.RainGage
	for _, g := range gages {
		if used[g.Name] {
			out = append(out, g)
		}
	}
	return out
}

// StartOutfall returns the outfall record that replaces the start node in an
// upstream subset. It returns false when the start node already is an
// outfall or the trace went downstream.
func (r *Result) StartOutfall() (table.Row, bool) {
	if r.Direction != Upstream || r.startNode.Type == swmm.Outfall {
		return nil, false
	}
	return table.Row{
		"Name":       table.Text(r.Start),
		"Elevation":  r.startNode.Elevation,
		"Type":       table.Text("FREE"),
		"FixedStage": table.Number(0),
		"Curve_TS":   table.Null(),
		"FlapGate":   table.Text("NO"),
		"RouteTo":    table.Null(),
	}, true
}

// Summary aggregates the size of a selection.
type Summary struct {
	Nodes         int     `json:"nodes"`
	Links         int     `json:"links"`
	Subcatchments int     `json:"subcatchments"`
	RainGages     int     `json:"rain_gages"`
	TotalLength   float64 `json:"total_length"`
	TotalArea     float64 `json:"total_area"`
}

// Summarize counts the selection and sums link length and sub-catchment area
// where those attributes are present.
func (r *Result) Summarize(links []swmm.Link, subs []swmm.Subcatchment, gages []swmm.RainGage) Summary {
	s := Summary{Nodes: len(r.Nodes), Links: len(r.Links)}
	keep := r.linkSet()
	for _, l := range links {
		if !keep[l.Name] {
			continue
		}
		if f, ok := l.Length.Float(); ok {
			s.TotalLength += f
		}
	}
	retained := r.Subcatchments(subs)
	s.Subcatchments = len(retained)
	for _, sc := range retained {
		if f, ok := sc.Area.Float(); ok {
			s.TotalArea += f
		}
	}
	s.RainGages = len(r.RainGages(subs, gages))
	return s
}

// Selection maps a layer name to the record handles selected in it.
type Selection map[string][]string

// Select resolves the result to per-layer handles.
func (r *Result) Select(nodes []swmm.Node, links []swmm.Link, subs []swmm.Subcatchment, gages []swmm.RainGage) Selection {
	sel := make(Selection)
	nodeSet := r.nodeSet()
	for _, n := range nodes {
		if nodeSet[n.Name] {
			sel[n.Layer] = append(sel[n.Layer], n.Handle)
		}
	}
	linkSet := r.linkSet()
	for _, l := range links {
		if linkSet[l.Name] {
			sel[l.Layer] = append(sel[l.Layer], l.Handle)
		}
	}
	for _, s := range r.Subcatchments(subs) {
		sel["subcatchments"] = append(sel["subcatchments"], s.Handle)
	}
	for _, g := range r.RainGages(subs, gages) {
		sel["raingages"] = append(sel["raingages"], g.Handle)
	}
	return sel
}

// Layers returns the layer names of the selection, sorted.
func (s Selection) Layers() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Batches splits the handles of one layer into chunks of at most size
// (MaxBatchSize when size <= 0).
func (s Selection) Batches(layer string, size int) [][]string {
	return Batches(s[layer], size)
}

// Batches splits handles into chunks of at most size.
func Batches(handles []string, size int) [][]string {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	var out [][]string
	for len(handles) > 0 {
		n := min(size, len(handles))
		out = append(out, handles[:n:n])
		handles = handles[n:]
	}
	return out
}

func (r *Result) nodeSet() map[string]bool {
	m := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		m[n] = true
	}
	return m
}

func (r *Result) linkSet() map[string]bool {
	m := make(map[string]bool, len(r.Links))
	for _, l := range r.Links {
		m[l] = true
	}
	return m
}
