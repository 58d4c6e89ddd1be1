// Package network provides a directed multigraph of drainage nodes joined by
// named links. Two nodes may be joined by several parallel links, so edges are
// addressed by link name rather than by node pair.
package network

import (
	"fmt"
	"sort"
)

// Link is a directed edge of the graph.
type Link struct {
	Name string
	From string
	To   string
}

// Graph is a directed multigraph. Insertion order is preserved so walks over
// it are deterministic for a given input table.
type Graph struct {
	nodes map[string]bool
	links map[string]*Link
	order []string
	out   map[string][]string // node -> names of links leaving it
	in    map[string][]string // node -> names of links entering it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		links: make(map[string]*Link),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = true
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(name string) bool {
	return g.nodes[name]
}

// AddLink adds a directed link from -> to. Both endpoints must exist and the
// link name must be unique.
func (g *Graph) AddLink(name, from, to string) error {
	if !g.nodes[from] {
		return fmt.Errorf("link %q: from node %q does not exist", name, from)
	}
	if !g.nodes[to] {
		return fmt.Errorf("link %q: to node %q does not exist", name, to)
	}
	if from == to {
		return fmt.Errorf("link %q: self-loop at %s", name, from)
	}
	if _, dup := g.links[name]; dup {
		return fmt.Errorf("duplicate link %q", name)
	}

	g.links[name] = &Link{Name: name, From: from, To: to}
	g.order = append(g.order, name)
	g.out[from] = append(g.out[from], name)
	g.in[to] = append(g.in[to], name)
	return nil
}

// Link returns a link by name.
func (g *Graph) Link(name string) (*Link, bool) {
	l, ok := g.links[name]
	return l, ok
}

// Links returns every link in insertion order.
func (g *Graph) Links() []*Link {
	out := make([]*Link, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.links[name])
	}
	return out
}

// Incoming returns the links terminating at node, in insertion order.
func (g *Graph) Incoming(node string) []*Link {
	return g.resolve(g.in[node])
}

// Outgoing returns the links leaving node, in insertion order.
func (g *Graph) Outgoing(node string) []*Link {
	return g.resolve(g.out[node])
}

func (g *Graph) resolve(names []string) []*Link {
	out := make([]*Link, 0, len(names))
	for _, n := range names {
		out = append(out, g.links[n])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int {
	return len(g.links)
}

// Nodes returns every node name, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HasCycle returns true if following link direction can revisit a node,
// along with one such cycle as a node path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	parent := make(map[string]string)

	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, l := range g.Outgoing(id) {
			next := l.To
			if !visited[next] {
				parent[next] = id
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				cycle = []string{next}
				for curr := id; curr != next; curr = parent[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{next}, cycle...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.Nodes() {
		if !visited[id] && dfs(id) {
			return true, cycle
		}
	}
	return false, nil
}

// DownstreamLinks returns the names of every link reachable by following link
// direction from any of the given nodes, sorted.
func (g *Graph) DownstreamLinks(from ...string) []string {
	seenNode := make(map[string]bool)
	seenLink := make(map[string]bool)

	stack := append([]string(nil), from...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seenNode[n] {
			continue
		}
		seenNode[n] = true
		for _, l := range g.Outgoing(n) {
			seenLink[l.Name] = true
			stack = append(stack, l.To)
		}
	}

	out := make([]string, 0, len(seenLink))
	for name := range seenLink {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Outlets returns nodes that have incoming links but no outgoing ones.
func (g *Graph) Outlets() []string {
	var out []string
	for _, n := range g.Nodes() {
		if len(g.out[n]) == 0 && len(g.in[n]) > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Subgraph returns a new graph made of the named links and their endpoints.
// Unknown link names are ignored.
func (g *Graph) Subgraph(linkNames []string) *Graph {
	keep := make(map[string]bool, len(linkNames))
	for _, n := range linkNames {
		keep[n] = true
	}

	sub := NewGraph()
	for _, name := range g.order {
		if !keep[name] {
			continue
		}
		l := g.links[name]
		sub.AddNode(l.From)
		sub.AddNode(l.To)
		_ = sub.AddLink(l.Name, l.From, l.To)
	}
	return sub
}
