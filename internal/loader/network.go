package loader

import (
	"fmt"

	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/leapstack-labs/swmmkit/pkg/trace"
)

// Network is the tracer's view of a project.
type Network struct {
	Nodes         []swmm.Node
	Links         []swmm.Link
	Subcatchments []swmm.Subcatchment
	RainGages     []swmm.RainGage
}

// NetworkOf merges the node and link tables of p. Missing tables count as
// empty layers.
func NetworkOf(p inp.Project) (*Network, error) {
	net := &Network{}
	for _, kind := range inp.Kinds {
		t := p[kind]
		if t == nil {
			continue
		}
		if nt, ok := inp.NodeKinds[kind]; ok {
			nodes, err := swmm.NodesFromTable(t, nt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			net.Nodes = append(net.Nodes, nodes...)
		}
		if lt, ok := inp.LinkKinds[kind]; ok {
			links, err := swmm.LinksFromTable(t, lt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			net.Links = append(net.Links, links...)
		}
	}
	if t := p[inp.KindSubcatchments]; t != nil {
		subs, err := swmm.SubcatchmentsFromTable(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", inp.KindSubcatchments, err)
		}
		net.Subcatchments = subs
	}
	if t := p[inp.KindRainGages]; t != nil {
		gages, err := swmm.RainGagesFromTable(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", inp.KindRainGages, err)
		}
		net.RainGages = gages
	}
	return net, nil
}

// StartCandidates returns the node names of each node layer that appear in
// names, one candidate per layer in encoding order.
func (n *Network) StartCandidates(names []string) []trace.StartCandidate {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	var out []trace.StartCandidate
	for _, kind := range inp.Kinds {
		if _, ok := inp.NodeKinds[kind]; !ok {
			continue
		}
		c := trace.StartCandidate{Layer: string(kind)}
		for _, node := range n.Nodes {
			if node.Layer == string(kind) && want[node.Name] {
				c.Selected = append(c.Selected, node.Name)
			}
		}
		out = append(out, c)
	}
	return out
}

// Subset extracts the part of p selected by a trace. Node and link tables
// keep only traced records; sub-catchments and rain gages follow the
// retained nodes; inflow-like tables keep the rows attached to a retained
// node. Shared tables (options, curves, patterns, time series, transects,
// hydrographs) are kept whole. On an upstream trace the start node is
// replaced by a free outfall at the start node's coordinates.
func Subset(p inp.Project, net *Network, res *trace.Result) inp.Project {
	nodes := set(res.Nodes)
	links := set(res.Links)
	subs := make(map[string]bool)
	for _, s := range res.Subcatchments(net.Subcatchments) {
		subs[s.Name] = true
	}
	gages := make(map[string]bool)
	for _, g := range res.RainGages(net.Subcatchments, net.RainGages) {
		gages[g.Name] = true
	}
	outfall, replace := res.StartOutfall()

	byColumn := func(col string, keep map[string]bool) func(table.Row) bool {
		return func(r table.Row) bool { return keep[r.String(col)] }
	}

	out := make(inp.Project, len(p))
	for kind, t := range p {
		if t == nil {
			continue
		}
		switch {
		case inp.NodeKinds[kind] != "":
			keep := byColumn("Name", nodes)
			if replace {
				keep = func(r table.Row) bool { return nodes[r.String("Name")] && r.String("Name") != res.Start }
			}
			out[kind] = t.Filter(keep)
		case inp.LinkKinds[kind] != "":
			out[kind] = t.Filter(byColumn("Name", links))
		case kind == inp.KindSubcatchments:
			out[kind] = t.Filter(byColumn("Name", subs))
		case kind == inp.KindRainGages:
			out[kind] = t.Filter(byColumn("Name", gages))
		case kind == inp.KindInflows || kind == inp.KindDryWeather:
			out[kind] = t.Filter(byColumn("Name", nodes))
		case kind == inp.KindRDII:
			out[kind] = t.Filter(byColumn("Node", nodes))
		case kind == inp.KindInletUsage:
			out[kind] = t.Filter(byColumn("Conduit", links))
		default:
			out[kind] = t
		}
	}

	if replace {
		outfalls := out[inp.KindOutfalls]
		if outfalls == nil {
			outfalls = table.New(string(inp.KindOutfalls),
				"Name", "Elevation", "Type", "FixedStage", "Curve_TS", "FlapGate", "RouteTo")
			out[inp.KindOutfalls] = outfalls
		}
		for col, v := range startPosition(p, res.Start) {
			outfall[col] = v
		}
		outfalls.Append(outfall)
	}
	return out
}

// startPosition returns the X_Coord and Y_Coord of the named node in
// whichever node table holds it, so the replacing outfall keeps its place.
func startPosition(p inp.Project, name string) table.Row {
	for _, kind := range inp.Kinds {
		if inp.NodeKinds[kind] == "" || p[kind] == nil {
			continue
		}
		r, ok := p[kind].Lookup("Name", name)
		if !ok {
			continue
		}
		pos := table.Row{}
		for _, col := range []string{"X_Coord", "Y_Coord"} {
			if v := r.Get(col); !v.IsNull() {
				pos[col] = v
			}
		}
		return pos
	}
	return nil
}

func set(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
