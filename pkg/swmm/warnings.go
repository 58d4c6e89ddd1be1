package swmm

import (
	"fmt"
	"log/slog"
	"sync"
)

// WarningKind classifies a non-fatal finding.
type WarningKind string

// Warning kinds reported by the tracer and the codec.
const (
	WarnSplittingNodes     WarningKind = "splitting-nodes"
	WarnConvergingStart    WarningKind = "converging-start"
	WarnCyclicNetwork      WarningKind = "cyclic-network"
	WarnRDIIDropped        WarningKind = "rdii-dropped"
	WarnMissingHydrographs WarningKind = "missing-hydrographs"
	WarnMissingInflowNodes WarningKind = "missing-inflow-nodes"
	WarnDeprecatedColumn   WarningKind = "deprecated-column"
	WarnTimeseriesFormat   WarningKind = "timeseries-format"
	WarnPatternFactors     WarningKind = "pattern-factors"
	WarnMalformedRow       WarningKind = "malformed-row"
)

// Warning is a single non-fatal finding.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Warnings accumulates findings across a run so they can be surfaced once at
// the end. The zero value is ready to use and safe for concurrent use.
type Warnings struct {
	mu    sync.Mutex
	items []Warning
	// Logger, when set, receives every warning at WARN level as it is added.
	Logger *slog.Logger
}

// Add records a warning.
func (w *Warnings) Add(kind WarningKind, format string, args ...any) {
	if w == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.mu.Lock()
	w.items = append(w.items, Warning{Kind: kind, Message: msg})
	logger := w.Logger
	w.mu.Unlock()
	if logger != nil {
		logger.Warn(msg, slog.String("kind", string(kind)))
	}
}

// Merge appends every warning of other.
func (w *Warnings) Merge(other *Warnings) {
	if w == nil || other == nil {
		return
	}
	for _, item := range other.List() {
		w.Add(item.Kind, "%s", item.Message)
	}
}

// List returns a copy of the collected warnings in insertion order.
func (w *Warnings) List() []Warning {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.items))
	copy(out, w.items)
	return out
}

// Len returns the number of collected warnings.
func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Has reports whether a warning of the given kind was recorded.
func (w *Warnings) Has(kind WarningKind) bool {
	for _, item := range w.List() {
		if item.Kind == kind {
			return true
		}
	}
	return false
}
