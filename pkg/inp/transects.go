package inp

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Columns of the transect tables.
var (
	transectColumns = []string{
		"TransectName", "RoughnessLeftBank", "RoughnessRightBank", "RoughnessChannel",
		"BankStationLeft", "BankStationRight", "ModifierMeander", "ModifierStations", "ModifierElevations",
	}
	transectPointColumns = []string{"TransectName", "Elevation", "Station"}
)

const transectPairsPerLine = 5

// EncodeTransects writes transects in HEC-2 style: an NC line with the
// Manning roughness values, an X1 line with the station count, bank
// stations and modifiers, and GR lines of elevation/station pairs.
func EncodeTransects(transects, points *table.Table, f *File) error {
	if err := table.CheckColumns(transects, transectColumns...); err != nil {
		return err
	}
	if err := table.CheckColumns(points, transectPointColumns...); err != nil {
		return err
	}
	groups := groupRows(transects, "TransectName")
	if len(groups) == 0 {
		return nil
	}
	byName := make(map[string][]table.Row)
	for _, g := range groupRows(points, "TransectName") {
		byName[g.name] = g.rows
	}

	s := f.Add("TRANSECTS")
	for _, g := range groups {
		r := g.rows[0]
		pts := byName[g.name]
		s.Append("NC", r.String("RoughnessLeftBank"), r.String("RoughnessRightBank"), r.String("RoughnessChannel"))
		s.Append("X1", g.name, strconv.Itoa(len(pts)),
			orZero(r.Get("BankStationLeft")).String(), orZero(r.Get("BankStationRight")).String(), "0.0", "0.0",
			orZero(r.Get("ModifierMeander")).String(), orZero(r.Get("ModifierStations")).String(),
			orZero(r.Get("ModifierElevations")).String())
		for i := 0; i < len(pts); i += transectPairsPerLine {
			tokens := []string{"GR"}
			for _, p := range pts[i:min(i+transectPairsPerLine, len(pts))] {
				tokens = append(tokens, p.String("Elevation"), p.String("Station"))
			}
			s.Append(tokens...)
		}
	}
	return nil
}

// DecodeTransects reads a TRANSECTS section into the transect and point
// tables. An NC line applies to every following transect until the next NC.
func DecodeTransects(s *Section) (transects, points *table.Table) {
	transects = table.New("transects", transectColumns...)
	points = table.New("transect_points", transectPointColumns...)
	var rough [3]table.Value
	current := ""
	for _, tokens := range s.Data() {
		switch strings.ToUpper(tokens[0]) {
		case "NC":
			for i := range rough {
				rough[i] = table.Null()
				if i+1 < len(tokens) {
					rough[i] = table.Parse(tokens[i+1])
				}
			}
		case "X1":
			if len(tokens) < 2 {
				continue
			}
			current = tokens[1]
			at := func(i int) table.Value {
				if i < len(tokens) {
					return table.Parse(tokens[i])
				}
				return table.Null()
			}
			transects.Append(table.Row{
				"TransectName":       table.Text(current),
				"RoughnessLeftBank":  rough[0],
				"RoughnessRightBank": rough[1],
				"RoughnessChannel":   rough[2],
				"BankStationLeft":    at(3),
				"BankStationRight":   at(4),
				"ModifierMeander":    at(7),
				"ModifierStations":   at(8),
				"ModifierElevations": at(9),
			})
		case "GR":
			if current == "" {
				continue
			}
			for i := 1; i+1 < len(tokens); i += 2 {
				points.Append(table.Row{
					"TransectName": table.Text(current),
					"Elevation":    table.Parse(tokens[i]),
					"Station":      table.Parse(tokens[i+1]),
				})
			}
		}
	}
	return transects, points
}
