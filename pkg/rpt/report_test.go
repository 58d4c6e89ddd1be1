package rpt

import (
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/swmmkit/internal/testutil"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// place writes each text at its column of a report line and adds SWMM's
// two space indent.
func place(parts ...any) string {
	var b []byte
	for i := 0; i+1 < len(parts); i += 2 {
		col := parts[i].(int)
		for len(b) < col {
			b = append(b, ' ')
		}
		b = append(b[:col], parts[i+1].(string)...)
	}
	return "  " + string(b)
}

const dashes = "  ---------------------------------------------------------------------------------"

func section(title string, lines ...string) string {
	stars := "  " + strings.Repeat("*", len(title)+2)
	return strings.Join(append([]string{"", stars, "  " + title, stars, ""}, lines...), "\n") + "\n"
}

var footer = "\n  Analysis begun on:  Mon Jan 01 00:00:00 2024\n" +
	"  Analysis ended on:  Mon Jan 01 00:00:01 2024\n" +
	"  Total elapsed time: < 1 sec\n"

var nodeDepth = section("Node Depth Summary",
	dashes,
	"                                 Average  Maximum  Maximum  Time of Max    Reported",
	"                                   Depth    Depth      HGL   Occurrence   Max Depth",
	"  Node"+strings.Repeat(" ", 17)+"Type"+strings.Repeat(" ", 7)+"Meters   Meters   Meters  days hr:min      Meters",
	dashes,
	"  J1                   JUNCTION     1.0 2.0 3.0 0 00:15 2.5",
	"  O1                   OUTFALL      0.5 0.9 10.9 0 00:20",
)

var linkFlow = section("Link Flow Summary",
	dashes,
	"                                 Maximum  Time of Max   Maximum    Max/    Max/",
	"                                  |Flow|   Occurrence   |Veloc|    Full    Full",
	place(0, "Link", 21, "Type", 35, "CMS", 40, "days hr:min", 56, "m/sec", 64, "Flow", 72, "Depth"),
	dashes,
	"  C1                   CONDUIT      0.50     0  00:15      1.20    0.80    0.90",
)

var washoff = section("Subcatchment Washoff Summary",
	dashes,
	"                               TSS     Lead",
	"  Subcatchment                  kg       kg",
	dashes,
	"  S1                          1.20    0.01",
	dashes,
	"  System                      1.20    0.01",
)

var outfallLoading = section("Outfall Loading Summary",
	dashes,
	"                         Flow       Avg       Max       Total        Total",
	"                         Freq      Flow      Flow      Volume          TSS",
	place(0, "Outfall Node", 23, "Pcnt", 34, "CMS", 44, "CMS", 52, "10^6 ltr", 66, "kg"),
	dashes,
	"  O1                    50.00     0.120     0.500       1.234        5.678",
	dashes,
	"  System                50.00     0.120     0.500       1.234        5.678",
)

const banner = "  EPA STORM WATER MANAGEMENT MODEL - VERSION 5.2 (Build 5.2.4)\n" +
	"  --------------------------------------------------------------\n"

func TestParseSection_NodeDepth(t *testing.T) {
	got, err := ParseSection(banner+nodeDepth+linkFlow+footer, "node_depth")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Name", "Type", "AverageDepth_Meters", "MaximumDepth_Meters", "MaximumHGL_Meters",
		"TimeOfMaxOccurrence_Days", "TimeOfMaxOccurrence_HoursMin", "MaxReportedDepth_Meters",
	}, got.Columns)
	require.Equal(t, 2, got.Len())

	j1, ok := got.Lookup("Name", "J1")
	require.True(t, ok)
	assert.Equal(t, table.Number(1), j1.Get("AverageDepth_Meters"))
	assert.Equal(t, "00:15", j1.String("TimeOfMaxOccurrence_HoursMin"))
	assert.Equal(t, "2.5", j1.String("MaxReportedDepth_Meters"))

	o1, ok := got.Lookup("Name", "O1")
	require.True(t, ok)
	assert.True(t, o1.Get("MaxReportedDepth_Meters").IsNull(), "short rows are padded with null")
}

func TestParseSection_LastSectionRunsToFooter(t *testing.T) {
	got, err := ParseSection(banner+nodeDepth+linkFlow+footer, "Link Flow Summary")
	require.NoError(t, err)

	assert.Equal(t, "MaximumFlow_CMS", got.Columns[2])
	assert.Equal(t, "MaximumVeloc_m/sec", got.Columns[5])
	require.Equal(t, 1, got.Len(), "footer lines must not be read as data")
	assert.Equal(t, "0.9", got.Rows[0].String("MaxFullDepth"))
}

func TestParseSection_AbsentTopicIsEmpty(t *testing.T) {
	got, err := ParseSection(banner+nodeDepth+footer, "pumping_summary")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, "pumping_summary", got.Source)
}

func TestParseSection_Pollutants(t *testing.T) {
	text := banner + washoff + outfallLoading + footer

	w, err := ParseSection(text, "subcatchment_washoff")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "TSS_kg", "Lead_kg"}, w.Columns)
	require.Equal(t, 1, w.Len(), "rows after the closing dash line are not data")
	assert.Equal(t, "0.01", w.Rows[0].String("Lead_kg"))

	o, err := ParseSection(text, "outfall_loading")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Name", "FlowFreq_Pcnt", "AvgFlow_CMS", "MaxFlow_CMS", "TotalVolume_10^6 ltr", "TotalTSS_kg",
	}, o.Columns)
	require.Equal(t, 1, o.Len())
	assert.Equal(t, "5.678", o.Rows[0].String("TotalTSS_kg"))
}

func TestParseSection_SurplusTokensGetGeneratedColumns(t *testing.T) {
	text := strings.Replace(banner+nodeDepth+footer, "00:15 2.5", "00:15 2.5 7 8", 1)
	got, err := ParseSection(text, "node_depth")
	require.NoError(t, err)

	assert.Equal(t, []string{"Column9", "Column10"}, got.Columns[8:])
	assert.Equal(t, "8", got.Rows[0].String("Column10"))
	assert.True(t, got.Rows[1].Get("Column9").IsNull())
}

func TestParseSection_MalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{
			name: "unit line too short",
			text: strings.Replace(nodeDepth, "Meters   Meters   Meters  days hr:min      Meters", "", 1),
			line: 2,
		},
		{
			name: "unit line missing",
			text: section("Node Depth Summary", dashes, "  Node  Type", dashes, "  J1 JUNCTION 1"),
			line: 2,
		},
		{
			name: "single dash line",
			text: section("Node Depth Summary", dashes, "  J1 JUNCTION 1"),
			line: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSection(banner+tt.text+footer, "node_depth")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedHeader))

			var me *MalformedReportHeaderError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, "node_depth", me.Topic)
			assert.Equal(t, tt.line, me.Line)
		})
	}
}

func TestParseSection_UnknownTopic(t *testing.T) {
	_, err := ParseSection(banner+footer, "lid_performance")
	assert.True(t, errors.Is(err, ErrUnknownTopic))
}

func TestReport_ParseAll(t *testing.T) {
	r, err := Load([]byte(banner+washoff+nodeDepth+linkFlow+footer), testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", r.Encoding)
	assert.True(t, r.Has("node_depth"))
	assert.False(t, r.Has("storage_volume"))

	results, err := r.ParseAll()
	require.NoError(t, err)
	var names []string
	for _, res := range results {
		names = append(names, res.Topic)
	}
	assert.Equal(t, []string{"subcatchment_washoff", "node_depth", "link_flow"}, names)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		text string
		enc  string
	}{
		{"utf-8", []byte("Čistička"), "Čistička", "utf-8"},
		{"utf-8 with bom", []byte("\ufeffJ1"), "J1", "utf-8"},
		{"windows-1250", []byte{'S', 0xE8}, "Sč", "windows-1250"},
		{"windows-1252", []byte{'S', 0x83}, "Sƒ", "windows-1252"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, enc, err := Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.enc, enc)
		})
	}

	_, _, err := Decode([]byte{'S', 0x81})
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestNormalize(t *testing.T) {
	got := Normalize("  a  \r\n\r\n\tb\n\nc\nx\ny\nz\n")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Nil(t, Normalize("x\ny\n"))
}

func TestTopicsFor(t *testing.T) {
	assert.Equal(t, []string{"node_depth", "node_inflow", "node_surcharge", "node_flooding"}, TopicsFor("JUNCTION"))
	assert.Contains(t, TopicsFor("storage"), "storage_volume")
	assert.Contains(t, TopicsFor("Outfalls"), "outfall_loading")
	assert.Contains(t, TopicsFor("pumps"), "pumping_summary")
	assert.Equal(t, []string{"subcatchment_runoff", "subcatchment_washoff"}, TopicsFor("subcatchments"))
	assert.Nil(t, TopicsFor("raingages"))

	for _, object := range []string{"junctions", "conduits", "subcatchments"} {
		for _, topic := range TopicsFor(object) {
			_, err := LookupTopic(topic)
			assert.NoError(t, err, topic)
		}
	}
}
