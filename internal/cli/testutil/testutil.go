// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/testutil"
)

// ProjectFiles is a small drainage network: S1 drains to J1, J1 -> J2 -> O1
// and a side branch J3 -> J2.
var ProjectFiles = map[string]string{
	"project.yaml": `name: demo
tables:
  junctions: junctions.csv
  outfalls: outfalls.csv
  conduits: conduits.csv
  subcatchments: subcatchments.csv
  raingages: raingages.csv
  inflows: inflows.csv
`,
	"junctions.csv": "Name,Elevation,MaxDepth,InitDepth,SurDepth,Aponded,X_Coord,Y_Coord\n" +
		"J1,10,2,0,0,0,0,10\nJ2,9,2,0,0,0,10,10\nJ3,11,2,0,0,0,10,20\n",
	"outfalls.csv": "Name,Elevation,Type,FixedStage,Curve_TS,FlapGate,RouteTo,X_Coord,Y_Coord\n" +
		"O1,8,FREE,,,NO,,20,10\n",
	"conduits.csv": "Name,FromNode,ToNode,Length,Roughness,InOffset,OutOffset,InitFlow,MaxFlow," +
		"XsectShape,Geom1,Geom2,Geom3,Geom4,Barrels,Culvert,Kentry,Kexit,Kavg,FlapGate,Seepage\n" +
		"C1,J1,J2,100,0.01,0,0,0,0,CIRCULAR,1,0,0,0,1,,0,0,0,NO,0\n" +
		"C2,J2,O1,50,0.01,0,0,0,0,CIRCULAR,1,0,0,0,1,,0,0,0,NO,0\n" +
		"C3,J3,J2,30,0.01,0,0,0,0,CIRCULAR,0.5,0,0,0,1,,0,0,0,NO,0\n",
	"subcatchments.csv": "Name,RainGage,Outlet,Area,Imperv,Width,Slope,CurbLen,SnowPack\n" +
		"S1,RG1,J1,4,50,100,0.5,0,\nS2,RG2,J3,2,25,80,0.5,0,\n",
	"raingages.csv": "Name,Format,Interval,SCF,Source,SourceName\n" +
		"RG1,VOLUME,0:05,1,TIMESERIES,TS1\nRG2,VOLUME,0:05,1,TIMESERIES,TS1\n",
	"inflows.csv": "Name,Constituent,Baseline,Baseline_Pattern,Time_Series,Scale_Factor,Type\n" +
		"J1,FLOW,0.1,,,,FLOW\nJ3,FLOW,0.2,,,,FLOW\n",
}

// SetupTestProject writes ProjectFiles to a temporary directory and returns it.
func SetupTestProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteFiles(t, t.TempDir(), ProjectFiles)
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode detection.
// In tests, non-TTY defaults to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation: balanced code
// fences, non-empty headers and pipe tables whose rows all have the same
// number of cells.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	cells := -1
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
		if !strings.HasPrefix(trimmed, "|") {
			cells = -1
			continue
		}
		n := strings.Count(trimmed, "|") - strings.Count(trimmed, `\|`)
		if cells >= 0 && n != cells {
			t.Errorf("table row at line %d has %d separators, want %d: %q", i+1, n, cells, line)
		}
		cells = n
	}
}

// AssertOutputMode checks that the renderer output matches expected mode characteristics.
func AssertOutputMode(t *testing.T, tr *TestRenderer, expectedMode output.OutputMode) {
	t.Helper()

	combined := tr.Output() + tr.ErrorOutput()
	switch expectedMode {
	case output.ModeMarkdown:
		AssertNoANSI(t, combined)
		AssertValidMarkdown(t, tr.Output())
	case output.ModeJSON, output.ModeCSV:
		AssertNoANSI(t, tr.Output())
	}
}
