package trace

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched through errors.Is by the typed errors below.
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrMissingNode      = errors.New("missing node")
)

// InvalidSelectionError reports a start-node designation that is not exactly
// one node in exactly one layer.
type InvalidSelectionError struct {
	// Layers names the layers involved; empty when nothing was selected.
	Layers []string
	// Nodes names the selected nodes, when there were any.
	Nodes []string
}

func (e *InvalidSelectionError) Error() string {
	switch {
	case len(e.Layers) == 0:
		return "no selected node: select exactly one node in the node layers"
	case len(e.Layers) == 1:
		return fmt.Sprintf("more than one node selected in layer %s (%s): only one start node is allowed",
			e.Layers[0], strings.Join(e.Nodes, ", "))
	default:
		return fmt.Sprintf("more than one node selected in total (in different layers): %s: only one start node is allowed",
			strings.Join(e.Layers, ", "))
	}
}

// Is matches ErrInvalidSelection.
func (e *InvalidSelectionError) Is(target error) bool { return target == ErrInvalidSelection }

// MissingNodeError lists every node referenced by the network or the result
// that is absent from the merged node table.
type MissingNodeError struct {
	Nodes []string
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("missing nodes for submodel: %s; check that all node layers were supplied",
		strings.Join(e.Nodes, ", "))
}

// Is matches ErrMissingNode.
func (e *MissingNodeError) Is(target error) bool { return target == ErrMissingNode }
