// Package swmm holds the entity model shared by the tracer, the codec and the CLI:
// nodes, links, sub-catchments, rain gages and the run-wide warning collector.
package swmm

import (
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// NodeType enumerates the node kinds of a drainage network.
type NodeType string

// Node kinds.
const (
	Junction NodeType = "JUNCTION"
	Outfall  NodeType = "OUTFALL"
	Storage  NodeType = "STORAGE"
	Divider  NodeType = "DIVIDER"
)

// LinkType enumerates the link kinds of a drainage network.
type LinkType string

// Link kinds.
const (
	Conduit LinkType = "CONDUIT"
	Pump    LinkType = "PUMP"
	Weir    LinkType = "WEIR"
	Orifice LinkType = "ORIFICE"
	Outlet  LinkType = "OUTLET"
)

// NodeTypes lists every node kind in SWMM section order.
var NodeTypes = []NodeType{Junction, Outfall, Storage, Divider}

// LinkTypes lists every link kind in SWMM section order.
var LinkTypes = []LinkType{Conduit, Pump, Weir, Orifice, Outlet}

// Layer returns the conventional layer name for a node kind ("junctions").
func (t NodeType) Layer() string {
	if t == Storage {
		return "storages"
	}
	return strings.ToLower(string(t)) + "s"
}

// Layer returns the conventional layer name for a link kind ("conduits").
func (t LinkType) Layer() string {
	return strings.ToLower(string(t)) + "s"
}

// Node is a named junction point. Handle is the opaque id the caller uses to
// address the record in its own storage.
type Node struct {
	Name      string
	Type      NodeType
	Elevation table.Value
	Handle    string
	Layer     string
}

// Link is a directed connection from FromNode to ToNode.
type Link struct {
	Name     string
	FromNode string
	ToNode   string
	Type     LinkType
	Length   table.Value
	Handle   string
	Layer    string
}

// Subcatchment drains to a single outlet node and is fed by one rain gage.
type Subcatchment struct {
	Name     string
	Outlet   string
	RainGage string
	Area     table.Value
	Handle   string
}

// RainGage is a precipitation source.
type RainGage struct {
	Name   string
	Handle string
}

// NodesFromTable reads nodes of one kind from a layer table.
func NodesFromTable(t *table.Table, kind NodeType) ([]Node, error) {
	if err := table.CheckColumns(t, "Name"); err != nil {
		return nil, err
	}
	out := make([]Node, 0, t.Len())
	for i, r := range t.Rows {
		out = append(out, Node{
			Name:      r.String("Name"),
			Type:      kind,
			Elevation: r.Get("Elevation"),
			Handle:    handle(r, i),
			Layer:     t.Source,
		})
	}
	return out, nil
}

// LinksFromTable reads links of one kind from a layer table.
func LinksFromTable(t *table.Table, kind LinkType) ([]Link, error) {
	if err := table.CheckColumns(t, "Name", "FromNode", "ToNode"); err != nil {
		return nil, err
	}
	out := make([]Link, 0, t.Len())
	for i, r := range t.Rows {
		out = append(out, Link{
			Name:     r.String("Name"),
			FromNode: r.String("FromNode"),
			ToNode:   r.String("ToNode"),
			Type:     kind,
			Length:   r.Get("Length"),
			Handle:   handle(r, i),
			Layer:    t.Source,
		})
	}
	return out, nil
}

// SubcatchmentsFromTable reads sub-catchments from a layer table.
func SubcatchmentsFromTable(t *table.Table) ([]Subcatchment, error) {
	if err := table.CheckColumns(t, "Name", "Outlet", "RainGage"); err != nil {
		return nil, err
	}
	out := make([]Subcatchment, 0, t.Len())
	for i, r := range t.Rows {
		out = append(out, Subcatchment{
			Name:     r.String("Name"),
			Outlet:   r.String("Outlet"),
			RainGage: r.String("RainGage"),
			Area:     r.Get("Area"),
			Handle:   handle(r, i),
		})
	}
	return out, nil
}

// RainGagesFromTable reads rain gages from a layer table.
func RainGagesFromTable(t *table.Table) ([]RainGage, error) {
	if err := table.CheckColumns(t, "Name"); err != nil {
		return nil, err
	}
	out := make([]RainGage, 0, t.Len())
	for i, r := range t.Rows {
		out = append(out, RainGage{Name: r.String("Name"), Handle: handle(r, i)})
	}
	return out, nil
}

// handle uses an explicit "fid" column when the layer has one and falls back
// to the 1-based row position.
func handle(r table.Row, i int) string {
	if fid := r.String("fid"); fid != "" {
		return fid
	}
	return itoa(i + 1)
}

func itoa(i int) string {
	return table.Number(float64(i)).String()
}
