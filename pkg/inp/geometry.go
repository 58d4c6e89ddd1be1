package inp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// GeometryColumn holds the coordinates of link and sub-catchment records as
// "x y, x y, ..." text.
const GeometryColumn = "Geometry"

// Point is a planar coordinate.
type Point struct {
	X, Y float64
}

func (p Point) tokens() []string {
	return []string{formatFloat(p.X), formatFloat(p.Y)}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParsePoints reads "x y, x y" text. An empty string yields no points.
func ParsePoints(s string) ([]Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Point, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return nil, fmt.Errorf("invalid point %q", strings.TrimSpace(part))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x coordinate %q: %w", fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y coordinate %q: %w", fields[1], err)
		}
		out = append(out, Point{X: x, Y: y})
	}
	return out, nil
}

// FormatPoints renders points as "x y, x y".
func FormatPoints(pts []Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = formatFloat(p.X) + " " + formatFloat(p.Y)
	}
	return strings.Join(parts, ", ")
}

// NodePoint returns the coordinate of a node record.
func NodePoint(rec table.Row) (Point, bool) {
	x, okx := rec.Get("X_Coord").Float()
	y, oky := rec.Get("Y_Coord").Float()
	return Point{X: x, Y: y}, okx && oky
}

// LinkVertices returns the interior points of a link polyline. The end
// points coincide with the connected nodes and are written as COORDINATES.
func LinkVertices(rec table.Row) ([]Point, error) {
	pts, err := ParsePoints(rec.String(GeometryColumn))
	if err != nil {
		return nil, fmt.Errorf("link %s: %w", rec.String("Name"), err)
	}
	if len(pts) <= 2 {
		return nil, nil
	}
	return pts[1 : len(pts)-1], nil
}

// ComposeLink rebuilds a link polyline from its end nodes and vertices.
func ComposeLink(from Point, vertices []Point, to Point) []Point {
	out := make([]Point, 0, len(vertices)+2)
	out = append(out, from)
	out = append(out, vertices...)
	return append(out, to)
}

// geometryRows converts named point lists into COORDINATES style lines.
func geometryRows(name string, pts []Point) [][]string {
	out := make([][]string, 0, len(pts))
	for _, p := range pts {
		out = append(out, append([]string{name}, p.tokens()...))
	}
	return out
}

// collectPoints groups COORDINATES style lines by name, keeping file order.
func collectPoints(lines [][]string) (map[string][]Point, []string, error) {
	points := make(map[string][]Point)
	var order []string
	for _, tokens := range lines {
		if len(tokens) < 3 {
			continue
		}
		p, err := ParsePoints(tokens[1] + " " + tokens[2])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", tokens[0], err)
		}
		if _, seen := points[tokens[0]]; !seen {
			order = append(order, tokens[0])
		}
		points[tokens[0]] = append(points[tokens[0]], p...)
	}
	return points, order, nil
}
