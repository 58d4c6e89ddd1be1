package loader

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	clitestutil "github.com/leapstack-labs/swmmkit/internal/cli/testutil"
	"github.com/leapstack-labs/swmmkit/internal/testutil"
	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/leapstack-labs/swmmkit/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectFiles is a small network: S1 drains to J1, J1 -> J2 -> O1 and a
// side branch J3 -> J2.
var projectFiles = map[string]string{
	"project.yaml": `name: demo
tables:
  junctions: nodes/junctions.csv
  outfalls: outfalls.csv
  conduits: conduits.csv
  subcatchments: subcatchments.csv
  raingages: raingages.csv
  inflows: inflows.csv
  curves: curves.csv
`,
	"nodes/junctions.csv": "Name,Elevation,MaxDepth\nJ1,10,2\nJ2,9,2\nJ3,11,2\n",
	"outfalls.csv":        "Name,Elevation,Type\nO1,8,FREE\n",
	"conduits.csv":        "Name,FromNode,ToNode,Length\nC1,J1,J2,100\nC2,J2,O1,50\nC3,J3,J2,30\n",
	"subcatchments.csv":   "Name,RainGage,Outlet,Area\nS1,RG1,J1,4\nS2,RG2,J3,2\n",
	"raingages.csv":       "Name,Format\nRG1,VOLUME\nRG2,VOLUME\n",
	"inflows.csv":         "Name,Constituent,Baseline\nJ1,FLOW,0.1\nJ3,FLOW,0.2\n",
	"curves.csv":          "Name,Type,X,Y\nP1,PUMP1,0,1\n",
}

func loadFixture(t *testing.T) (inp.Project, *Manifest) {
	t.Helper()
	dir := testutil.WriteFiles(t, t.TempDir(), projectFiles)
	p, m, err := New(testutil.NewTestLogger(t)).Load(dir)
	require.NoError(t, err)
	return p, m
}

func TestLoad(t *testing.T) {
	p, m := loadFixture(t)

	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, []inp.Kind{
		inp.KindJunctions, inp.KindOutfalls, inp.KindConduits, inp.KindRainGages,
		inp.KindSubcatchments, inp.KindCurves, inp.KindInflows,
	}, m.Kinds())

	j := p[inp.KindJunctions]
	require.NotNil(t, j)
	assert.Equal(t, "junctions", j.Source)
	assert.Equal(t, []string{"Name", "Elevation", "MaxDepth"}, j.Columns)
	assert.Equal(t, 3, j.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown manifest field",
			files: map[string]string{"project.yaml": "name: x\nowner: me\n"},
			check: func(t *testing.T, err error) {
				var pe *ManifestParseError
				assert.True(t, errors.As(err, &pe))
			},
		},
		{
			name:  "unknown table kind",
			files: map[string]string{"project.yaml": "tables:\n  gullies: g.csv\n"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, inp.ErrUnknownSection)
			},
		},
		{
			name:  "missing table file",
			files: map[string]string{"project.yaml": "tables:\n  junctions: missing.csv\n"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "opening junctions table")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, t.TempDir(), tt.files)
			_, _, err := New(nil).Load(dir)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"Junctions.csv": "Name\nJ1\n",
		"conduits.csv":  "Name,FromNode,ToNode\n",
		"notes.csv":     "x\n",
		"readme.txt":    "hello",
	})
	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), m.Name)
	assert.Equal(t, map[inp.Kind]string{
		inp.KindJunctions: "Junctions.csv",
		inp.KindConduits:  "conduits.csv",
	}, m.Tables)
}

func TestSave_RoundTrip(t *testing.T) {
	p, _ := loadFixture(t)
	out := filepath.Join(t.TempDir(), "copy")

	m, err := New(nil).Save(out, "copy", p)
	require.NoError(t, err)
	assert.Equal(t, "junctions.csv", m.Tables[inp.KindJunctions])
	assert.Contains(t, testutil.ReadFile(t, filepath.Join(out, ManifestFile)), "name: copy")

	again, m2, err := New(nil).Load(out)
	require.NoError(t, err)
	assert.Equal(t, m.Tables, m2.Tables)
	for kind, tbl := range p {
		assert.Equal(t, tbl.Columns, again[kind].Columns, kind)
		assert.Equal(t, tbl.Rows, again[kind].Rows, kind)
	}
}

func TestNetworkOf(t *testing.T) {
	p, _ := loadFixture(t)
	net, err := NetworkOf(p)
	require.NoError(t, err)

	assert.Len(t, net.Nodes, 4)
	assert.Len(t, net.Links, 3)
	assert.Len(t, net.Subcatchments, 2)
	assert.Len(t, net.RainGages, 2)
	assert.Equal(t, "outfalls", net.Nodes[3].Layer)

	start, err := trace.SelectStart(net.StartCandidates([]string{"J2"}))
	require.NoError(t, err)
	assert.Equal(t, trace.Start{Name: "J2", Layer: "junctions"}, start)

	_, err = trace.SelectStart(net.StartCandidates([]string{"J2", "O1"}))
	assert.ErrorIs(t, err, trace.ErrInvalidSelection)
}

func TestNetworkOf_MissingColumns(t *testing.T) {
	p := inp.Project{inp.KindConduits: table.New("conduits", "Name", "FromNode")}
	_, err := NetworkOf(p)
	assert.ErrorIs(t, err, table.ErrMissingColumns)
}

func TestSubset(t *testing.T) {
	p, _ := loadFixture(t)
	net, err := NetworkOf(p)
	require.NoError(t, err)

	t.Run("upstream replaces the start node", func(t *testing.T) {
		res, err := trace.Trace(net.Nodes, net.Links, "J2", trace.Upstream, trace.Options{})
		require.NoError(t, err)
		sub := Subset(p, net, res)

		assert.Equal(t, []string{"J1", "J3"}, names(sub[inp.KindJunctions]))
		assert.Equal(t, []string{"J2"}, names(sub[inp.KindOutfalls]))
		assert.Equal(t, []string{"C1", "C3"}, names(sub[inp.KindConduits]))
		assert.Equal(t, []string{"S1", "S2"}, names(sub[inp.KindSubcatchments]))
		assert.Equal(t, 2, sub[inp.KindInflows].Len())
		assert.Same(t, p[inp.KindCurves], sub[inp.KindCurves])

		assert.Equal(t, 1, p[inp.KindOutfalls].Len(), "source project is untouched")
		assert.Len(t, p[inp.KindOutfalls].Columns, 3)
	})

	t.Run("downstream keeps the complement", func(t *testing.T) {
		res, err := trace.Trace(net.Nodes, net.Links, "J2", trace.DownstreamExcluding, trace.Options{})
		require.NoError(t, err)
		sub := Subset(p, net, res)

		assert.Equal(t, []string{"C2"}, names(sub[inp.KindConduits]))
		assert.Equal(t, []string{"J2"}, names(sub[inp.KindJunctions]))
		assert.Equal(t, []string{"O1"}, names(sub[inp.KindOutfalls]))
		assert.Empty(t, names(sub[inp.KindSubcatchments]))
		assert.Empty(t, names(sub[inp.KindRainGages]))
		assert.Equal(t, 0, sub[inp.KindInflows].Len())
	})
}

func TestSubset_StartOutfallKeepsCoordinates(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), clitestutil.ProjectFiles)
	logger := testutil.NewTestLogger(t)
	p, _, err := New(logger).Load(dir)
	require.NoError(t, err)
	net, err := NetworkOf(p)
	require.NoError(t, err)

	res, err := trace.Trace(net.Nodes, net.Links, "J2", trace.Upstream, trace.Options{})
	require.NoError(t, err)
	sub := Subset(p, net, res)

	outfall, ok := sub[inp.KindOutfalls].Lookup("Name", "J2")
	require.True(t, ok)
	assert.Equal(t, "10", outfall.String("X_Coord"))
	assert.Equal(t, "10", outfall.String("Y_Coord"))

	f, err := inp.NewEncoder(logger, nil).Encode(sub)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	back, err := inp.Read(&buf)
	require.NoError(t, err)
	coords := back.Section("COORDINATES")
	require.NotNil(t, coords)
	assert.Contains(t, coords.Data(), []string{"J2", "10", "10"})
	assert.Contains(t, coords.Data(), []string{"J1", "0", "10"})
}

func names(t *table.Table) []string {
	var out []string
	for _, r := range t.Rows {
		out = append(out, r.String("Name"))
	}
	return out
}
