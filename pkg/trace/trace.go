// Package trace extracts connected sub-networks from a drainage network by
// walking upstream from a start node.
//
// The walk follows links backward, from ToNode to FromNode, with an explicit
// side-stack for deferred branches. The downstream selection is the
// complement of the upstream one: every link the upstream walk did not visit.
package trace

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/swmmkit/internal/network"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
)

// Direction selects which side of the start node is returned.
type Direction int

const (
	// Upstream returns everything draining into the start node, start included.
	Upstream Direction = iota
	// DownstreamExcluding returns every link the upstream walk did not reach.
	DownstreamExcluding
)

func (d Direction) String() string {
	if d == DownstreamExcluding {
		return "downstream"
	}
	return "upstream"
}

// ParseDirection accepts "upstream"/"above" and "downstream"/"below".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upstream", "above", "up":
		return Upstream, nil
	case "downstream", "below", "down":
		return DownstreamExcluding, nil
	}
	return Upstream, fmt.Errorf("unknown direction %q (expected upstream or downstream)", s)
}

// Options configures a trace. The zero value is usable.
type Options struct {
	Logger   *slog.Logger
	Warnings *swmm.Warnings
}

// Result is the outcome of a trace.
type Result struct {
	Start     string
	Direction Direction
	// Nodes and Links are sorted by name.
	Nodes []string
	Links []string
	// SplittingNodes are retained nodes also required by the complementary
	// link set: the cut at the start node is not clean there.
	SplittingNodes []string
	// Outlets are the terminal nodes of the selected links: nodes with
	// inflow but no outgoing selected link.
	Outlets  []string
	Warnings *swmm.Warnings

	startNode swmm.Node
}

// Trace computes the sub-network on one side of start.
func Trace(nodes []swmm.Node, links []swmm.Link, start string, dir Direction, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	warnings := opts.Warnings
	if warnings == nil {
		warnings = &swmm.Warnings{}
	}

	byName := make(map[string]swmm.Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	if err := checkEndpoints(byName, links, start); err != nil {
		return nil, err
	}

	g := network.NewGraph()
	for _, n := range nodes {
		g.AddNode(n.Name)
	}
	for _, l := range links {
		if err := g.AddLink(l.Name, l.FromNode, l.ToNode); err != nil {
			return nil, fmt.Errorf("building network: %w", err)
		}
	}

	logger.Debug("tracing network",
		slog.String("start", start),
		slog.String("direction", dir.String()),
		slog.Int("nodes", g.NodeCount()),
		slog.Int("links", g.LinkCount()))

	if in := g.Incoming(start); len(in) > 1 {
		warnings.Add(swmm.WarnConvergingStart,
			"more than one link is connected to the selected node %s (%s); it will be converted into an outfall node, which SWMM rejects",
			start, strings.Join(linkNames(in), ", "))
	}

	upLinks, upNodes := walkUpstream(g, start)

	var complement []string
	complementNodes := make(map[string]bool)
	for _, l := range g.Links() {
		if upLinks[l.Name] {
			continue
		}
		complement = append(complement, l.Name)
		complementNodes[l.From] = true
		complementNodes[l.To] = true
	}

	var splitting []string
	for n := range upNodes {
		if n != start && complementNodes[n] {
			splitting = append(splitting, n)
		}
	}
	sort.Strings(splitting)
	if len(splitting) > 0 {
		warnings.Add(swmm.WarnSplittingNodes, "the network is splitting at: %s", strings.Join(splitting, ", "))
	}

	res := &Result{
		Start:          start,
		Direction:      dir,
		SplittingNodes: splitting,
		Warnings:       warnings,
		startNode:      byName[start],
	}

	switch dir {
	case Upstream:
		res.Links = sortedKeys(upLinks)
		res.Nodes = sortedKeys(upNodes)
	case DownstreamExcluding:
		down := make(map[string]bool, len(complement))
		for _, name := range complement {
			down[name] = true
		}
		if cyclic, path := g.HasCycle(); cyclic {
			// A loop through the start node puts some downstream links on the
			// upstream side of the walk; recover them with a forward walk.
			warnings.Add(swmm.WarnCyclicNetwork, "the network contains a cycle (%s); downstream selection includes links reachable from %s",
				strings.Join(path, " -> "), start)
			for _, name := range g.DownstreamLinks(start) {
				down[name] = true
			}
		}
		downNodes := make(map[string]bool)
		for name := range down {
			l, _ := g.Link(name)
			downNodes[l.From] = true
			downNodes[l.To] = true
		}
		res.Links = sortedKeys(down)
		res.Nodes = sortedKeys(downNodes)
	default:
		return nil, fmt.Errorf("unknown trace direction %d", dir)
	}
	res.Outlets = g.Subgraph(res.Links).Outlets()

	logger.Debug("trace finished",
		slog.Int("selected_nodes", len(res.Nodes)),
		slog.Int("selected_links", len(res.Links)),
		slog.Int("splitting_nodes", len(splitting)))

	return res, nil
}

// walkUpstream follows links backward from start. It returns the visited
// links and the nodes they drain from, plus start itself.
func walkUpstream(g *network.Graph, start string) (map[string]bool, map[string]bool) {
	visited := make(map[string]bool)
	nodes := map[string]bool{start: true}

	var pending []string
	marker := start
	for {
		var next []*network.Link
		for _, l := range g.Incoming(marker) {
			if !visited[l.Name] {
				next = append(next, l)
			}
		}
		for _, l := range next {
			visited[l.Name] = true
			nodes[l.From] = true
		}

		if len(next) == 0 {
			if len(pending) == 0 {
				break
			}
			marker = pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			continue
		}

		marker = next[0].From
		for _, l := range next[1:] {
			pending = append(pending, l.From)
		}
	}
	return visited, nodes
}

// checkEndpoints reports, in one error, every node that is referenced but not
// present: link endpoints and the start node itself.
func checkEndpoints(nodes map[string]swmm.Node, links []swmm.Link, start string) error {
	missing := make(map[string]bool)
	if _, ok := nodes[start]; !ok {
		missing[start] = true
	}
	for _, l := range links {
		for _, n := range []string{l.FromNode, l.ToNode} {
			if _, ok := nodes[n]; !ok {
				missing[n] = true
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingNodeError{Nodes: sortedKeys(missing)}
}

func linkNames(links []*network.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Name
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
