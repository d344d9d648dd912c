package tile

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the edge length of a tile in pixels
const Size = 256

// Default grid and canvas dimensions, in tiles
const (
	DefaultColumns       = 3
	DefaultRows          = 3
	DefaultCanvasColumns = 4
	DefaultCanvasRows    = 3
)

// DefaultFill is the canvas background used when none is configured
const DefaultFill = "#999999ff"

// Coord identifies one tile: the source image it was cut from and its grid cell
type Coord struct {
	Source int `json:"source"`
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Filename returns the on-disk name of the tile, unique per coordinate
func (c Coord) Filename() string {
	return fmt.Sprintf("slice%d.%d.%d.png", c.Source, c.Column, c.Row)
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d,%d", c.Source, c.Column, c.Row)
}

// ParseCoord parses "source,column,row". Dots are accepted as separators too,
// so a tile filename stem like "2.1.0" parses the same way.
func ParseCoord(s string) (Coord, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '.'
	})
	if len(parts) != 3 {
		return Coord{}, fmt.Errorf("coordinate %q must be in format 'source,column,row'", s)
	}

	var vals [3]int
	names := [3]string{"source", "column", "row"}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Coord{}, fmt.Errorf("invalid %s in coordinate %q: %v", names[i], s, err)
		}
		if v < 0 {
			return Coord{}, fmt.Errorf("invalid %s in coordinate %q: must not be negative", names[i], s)
		}
		vals[i] = v
	}

	return Coord{Source: vals[0], Column: vals[1], Row: vals[2]}, nil
}

// ParseCoords parses a list of coordinates separated by whitespace or ';'
func ParseCoords(s string) ([]Coord, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	coords := make([]Coord, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCoord(f)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, nil
}

// FormatCoords is the inverse of ParseCoords
func FormatCoords(coords []Coord) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
