package inp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCurves(t *testing.T) {
	curves := tableOf("curves", []string{"Name", "Type", "XVal", "YVal", "Description"},
		row("Name", "P1", "Type", "pump4", "XVal", 0, "YVal", 0, "Description", "lift station"),
		row("Name", "P1", "Type", "pump4", "XVal", 2, "YVal", 0.4),
		row("Name", ";"),
		row("Name", "R1", "Type", "RATING", "XVal", 1, "YVal", 3),
	)
	f := &File{}
	require.NoError(t, EncodeCurves(curves, f))

	sec := f.Section("CURVES")
	assert.Equal(t, [][]string{
		{"P1", "PUMP4", "0", "0"},
		{"P1", "2", "0.4"},
		{"R1", "RATING", "1", "3"},
	}, sec.Data())
	assert.Equal(t, "lift station", sec.Lines[0].Comment)

	warn := &swmm.Warnings{}
	back := DecodeCurves(sec, warn)
	assert.Zero(t, warn.Len())
	require.Equal(t, 3, back.Len())
	assert.Equal(t, "PUMP4", back.Rows[1].String("Type"))
	assert.Equal(t, "lift station", back.Rows[0].String("Description"))
	assert.Equal(t, "", back.Rows[2].String("Description"))
}

func TestEncodeCurves_InvalidType(t *testing.T) {
	curves := tableOf("curves", []string{"Name", "Type", "XVal", "YVal"},
		row("Name", "A", "Type", "Volume"),
		row("Name", "B", "Type", "Volume"),
		row("Name", "C", "Type", "SHAPE"),
	)
	err := EncodeCurves(curves, &File{})

	var de *InvalidDiscriminatorValueError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"Volume"}, de.Values)
	assert.False(t, errors.Is(err, ErrInvalidStorageType))
}

func TestEncodePatterns_SixFactorsPerLine(t *testing.T) {
	patterns := table.New("patterns", "Name", "Type", "Factor")
	for i := range 24 {
		patterns.Append(row("Name", "DIURNAL", "Type", "HOURLY", "Factor", i))
	}
	f := &File{}
	warn := &swmm.Warnings{}
	require.NoError(t, EncodePatterns(patterns, f, warn))
	assert.Zero(t, warn.Len())

	data := f.Section("PATTERNS").Data()
	require.Len(t, data, 4)
	assert.Equal(t, []string{"DIURNAL", "HOURLY", "0", "1", "2", "3", "4", "5"}, data[0])
	assert.Equal(t, []string{"DIURNAL", "18", "19", "20", "21", "22", "23"}, data[3])

	back := DecodePatterns(f.Section("PATTERNS"))
	require.Equal(t, 24, back.Len())
	assert.Equal(t, "HOURLY", back.Rows[23].String("Type"))
	assert.Equal(t, "23", back.Rows[23].String("Factor"))
}

func TestEncodePatterns_InvalidType(t *testing.T) {
	patterns := tableOf("patterns", []string{"Name", "Type", "Factor"},
		row("Name", "X", "Type", "YEARLY", "Factor", 1),
		row("Name", "Y", "Type", "YEARLY", "Factor", 1),
		row("Name", "Z", "Type", "DAILY", "Factor", 1))
	err := EncodePatterns(patterns, &File{}, nil)
	assert.True(t, errors.Is(err, ErrInvalidDiscriminator))
	assert.Contains(t, err.Error(), "DAILY, HOURLY, MONTHLY, WEEKEND")

	var de *InvalidDiscriminatorValueError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"YEARLY"}, de.Values)
}

func TestEncodePatterns_FactorCount(t *testing.T) {
	patterns := table.New("patterns", "Name", "Type", "Factor")
	for i := range 5 {
		patterns.Append(row("Name", "SHORT", "Type", "hourly", "Factor", i))
	}
	for i := range 7 {
		patterns.Append(row("Name", "WEEK", "Type", "DAILY", "Factor", i))
	}
	f := &File{}
	warn := &swmm.Warnings{}
	require.NoError(t, EncodePatterns(patterns, f, warn))

	require.Equal(t, 1, warn.Len())
	w := warn.List()[0]
	assert.Equal(t, swmm.WarnPatternFactors, w.Kind)
	assert.Contains(t, w.Message, "SHORT")
	assert.Contains(t, w.Message, "24 factors, got 5")
	assert.Len(t, f.Section("PATTERNS").Data(), 3, "the short pattern is still written")
}

func TestDecodeCurves_OddTrailingValue(t *testing.T) {
	sec := &Section{Name: "CURVES"}
	sec.Append("P1", "PUMP1", "0", "1", "5")
	sec.Append("P1", "2", "3")

	warn := &swmm.Warnings{}
	back := DecodeCurves(sec, warn)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, "2", back.Rows[1].String("XVal"))

	require.True(t, warn.Has(swmm.WarnMalformedRow))
	assert.Contains(t, warn.List()[0].Message, "P1")
	assert.Contains(t, warn.List()[0].Message, "5")
}

func timeseries(rows ...table.Row) *table.Table {
	return tableOf("timeseries", []string{"Name", "Date", "Time", "Value"}, rows...)
}

func TestEncodeTimeseries_DateFormats(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"iso", "2024-06-01"},
		{"slashes day first", "01/06/2024"},
		{"dots day first", "01.06.2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{}
			err := EncodeTimeseries(timeseries(row("Name", "TS", "Date", tt.date, "Time", "6:30", "Value", 1)), f, nil)
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"TS", "06/01/2024", "06:30", "1"}}, f.Section("TIMESERIES").Data())
		})
	}
}

func TestEncodeTimeseries_TimeFormats(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"0:00:00", "1:30:00"}, []string{"00:00", "01:30"}},
		{[]string{"0:00", "36:15"}, []string{"00:00", "36:15"}},
		{[]string{"0", "1", "48"}, []string{"00:00", "01:00", "48:00"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			ts := table.New("timeseries", "Name", "Date", "Time", "Value")
			for _, tm := range tt.in {
				ts.Append(row("Name", "TS", "Time", tm, "Value", 2))
			}
			f := &File{}
			require.NoError(t, EncodeTimeseries(ts, f, nil))
			var got []string
			for _, tokens := range f.Section("TIMESERIES").Data() {
				got = append(got, tokens[1])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTimeseries_Errors(t *testing.T) {
	tests := []struct {
		name   string
		rows   []table.Row
		column string
	}{
		{
			name: "mixed time formats",
			rows: []table.Row{
				row("Name", "TS", "Time", "0:00", "Value", 1),
				row("Name", "TS", "Time", "1", "Value", 1),
			},
			column: "Time",
		},
		{
			name:   "minutes out of range",
			rows:   []table.Row{row("Name", "TS", "Time", "1:75", "Value", 1)},
			column: "Time",
		},
		{
			name:   "unreadable date",
			rows:   []table.Row{row("Name", "TS", "Date", "June 1st", "Time", "0:00", "Value", 1)},
			column: "Date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EncodeTimeseries(timeseries(tt.rows...), &File{}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDateTimeFormat))

			var de *DateTimeFormatError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "TS", de.Series)
			assert.Equal(t, tt.column, de.Column)
		})
	}
}

func TestEncodeTimeseries_PartialDatesAreBlanked(t *testing.T) {
	warn := &swmm.Warnings{}
	f := &File{}
	err := EncodeTimeseries(timeseries(
		row("Name", "TS", "Date", "2024-06-01", "Time", "0:00", "Value", 1),
		row("Name", "TS", "Time", "1:00", "Value", 2),
	), f, warn)
	require.NoError(t, err)

	assert.True(t, warn.Has(swmm.WarnTimeseriesFormat))
	assert.Equal(t, [][]string{{"TS", "00:00", "1"}, {"TS", "01:00", "2"}}, f.Section("TIMESERIES").Data())
}

func TestEncodeTimeseries_ExternalFile(t *testing.T) {
	ts := tableOf("timeseries", []string{"Name", "Date", "Time", "Value", "File_Name", "Type", "Format"},
		row("Name", "RAIN", "File_Name", "rain data.dat"),
	)
	warn := &swmm.Warnings{}
	f := &File{}
	require.NoError(t, EncodeTimeseries(ts, f, warn))

	assert.Equal(t, [][]string{{"RAIN", "FILE", "rain data.dat"}}, f.Section("TIMESERIES").Data())
	assert.True(t, warn.Has(swmm.WarnDeprecatedColumn))

	back := DecodeTimeseries(f.Section("TIMESERIES"))
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "rain data.dat", back.Rows[0].String("File_Name"))
}

func TestDecodeTimeseries_SeveralPairsPerLine(t *testing.T) {
	s := &Section{Name: "TIMESERIES"}
	s.Append("TS1", "6/1/2024", "0:00", "0", "1:00", "0.5")
	s.Append("TS1", "6/2/2024", "0:00", "0.25")
	s.Append("TS2", "0", "1", "2", "3")

	got := DecodeTimeseries(s)
	require.Equal(t, 5, got.Len())
	assert.Equal(t, "2024-06-01", got.Rows[1].String("Date"))
	assert.Equal(t, "1:00", got.Rows[1].String("Time"))
	assert.Equal(t, "2024-06-02", got.Rows[2].String("Date"))
	assert.Equal(t, "", got.Rows[3].String("Date"))
	assert.Equal(t, "3", got.Rows[4].String("Value"))
}

func TestTransects(t *testing.T) {
	transects := tableOf("transects", transectColumns,
		row("TransectName", "T1", "RoughnessLeftBank", 0.05, "RoughnessRightBank", 0.05, "RoughnessChannel", 0.03,
			"BankStationLeft", 10, "BankStationRight", 40),
	)
	points := table.New("transect_points", transectPointColumns...)
	for i := range 7 {
		points.Append(row("TransectName", "T1", "Elevation", 100-i, "Station", i*10))
	}

	f := &File{}
	require.NoError(t, EncodeTransects(transects, points, f))
	data := f.Section("TRANSECTS").Data()
	require.Len(t, data, 4)
	assert.Equal(t, []string{"NC", "0.05", "0.05", "0.03"}, data[0])
	assert.Equal(t, []string{"X1", "T1", "7", "10", "40", "0.0", "0.0", "0", "0", "0"}, data[1])
	assert.Len(t, data[2], 11)
	assert.Equal(t, []string{"GR", "95", "50", "94", "60"}, data[3])

	tr, pts := DecodeTransects(f.Section("TRANSECTS"))
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "0.03", tr.Rows[0].String("RoughnessChannel"))
	assert.Equal(t, "40", tr.Rows[0].String("BankStationRight"))
	assert.Equal(t, 7, pts.Len())
	assert.Equal(t, "60", pts.Rows[6].String("Station"))
}

func TestDecodeTransects_RoughnessCarriesOver(t *testing.T) {
	s := &Section{Name: "TRANSECTS"}
	s.Append("NC", "0.1", "0.1", "0.02")
	s.Append("X1", "A", "1", "0", "5")
	s.Append("GR", "3", "0")
	s.Append("X1", "B", "1", "0", "5")
	s.Append("GR", "4", "0")

	tr, pts := DecodeTransects(s)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, "0.02", tr.Rows[1].String("RoughnessChannel"))
	assert.Equal(t, "B", pts.Rows[1].String("TransectName"))
}
