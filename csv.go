package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// CSVLayer is the single implicit layer tabular input lands on.
const CSVLayer = "features"

// ErrBadSchema reports a CSV whose header exposes no recognized
// coordinate column set, or whose declared geometry column is malformed.
var ErrBadSchema = errors.New("csv has no usable latitude/longitude, x/y, or geometry columns")

// the recognized column sets, in the priority order they are checked
const (
	schemaLatLon = iota
	schemaXY
	schemaGeometry
	schemaPolygon
	schemaLinestring
)

// csvSchema binds the detected column set to its column indexes.
type csvSchema struct {
	mode int
	a, b int // coordinate columns; b unused for single-column schemas
}

// RecordsFromCSV converts tabular rows into a layered collection, one
// record per row. The header decides the whole file: if no recognized
// coordinate column set is present the conversion fails fast with a
// schema error and no partial extraction happens.
func RecordsFromCSV(contents io.Reader) (*LayeredCollection, error) {
	raw, err := csv.NewReader(contents).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("[RecordsFromCSV] in pkg [convert] encountered: %v", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("no data in dataset")
	}

	// store the csv headers by index
	headers := make(map[int]string)
	cols := make(map[string]int)
	for i, header := range raw[0] {
		name := strings.TrimSpace(header)
		headers[i] = name
		cols[strings.ToLower(name)] = i
	}

	schema, err := detectSchema(cols)
	if err != nil {
		return nil, err
	}

	out := NewLayeredCollection()
	for _, record := range raw[1:] {
		geom, err := rowGeometry(schema, record)
		if err != nil {
			// a malformed declared column is a schema defect, not a per-row skip
			return nil, fmt.Errorf("%w: %v", ErrBadSchema, err)
		}

		atts := make(map[string]string)
		for i, value := range record {
			if schema.uses(i) {
				continue
			}
			atts[headers[i]] = fmt.Sprintf("%v", value)
		}
		atts["layer"] = CSVLayer

		out.Append(GeometryRecord{Geometry: geom, Layer: CSVLayer, Attributes: atts})
	}

	if out.Len() == 0 {
		return nil, ErrNoGeometries
	}
	return out, nil
}

// detectSchema picks the first recognized column set off the header.
func detectSchema(cols map[string]int) (csvSchema, error) {
	if lat, ok := cols["latitude"]; ok {
		if lon, ok := cols["longitude"]; ok {
			return csvSchema{mode: schemaLatLon, a: lat, b: lon}, nil
		}
	}
	if x, ok := cols["x"]; ok {
		if y, ok := cols["y"]; ok {
			return csvSchema{mode: schemaXY, a: x, b: y}, nil
		}
	}
	if g, ok := cols["geometry"]; ok {
		return csvSchema{mode: schemaGeometry, a: g, b: -1}, nil
	}
	if p, ok := cols["polygon"]; ok {
		return csvSchema{mode: schemaPolygon, a: p, b: -1}, nil
	}
	if l, ok := cols["linestring"]; ok {
		return csvSchema{mode: schemaLinestring, a: l, b: -1}, nil
	}
	return csvSchema{}, ErrBadSchema
}

func (s csvSchema) uses(col int) bool {
	return col == s.a || (s.b >= 0 && col == s.b)
}

// rowGeometry builds the row's geometry from the detected column set.
// Latitude/longitude rows come out longitude first, then latitude,
// per the x/y convention of the geometry type.
func rowGeometry(schema csvSchema, record []string) (orb.Geometry, error) {
	switch schema.mode {
	case schemaLatLon:
		lat, err := parseCoord(record, schema.a)
		if err != nil {
			return nil, err
		}
		lon, err := parseCoord(record, schema.b)
		if err != nil {
			return nil, err
		}
		return orb.Point{lon, lat}, nil

	case schemaXY:
		x, err := parseCoord(record, schema.a)
		if err != nil {
			return nil, err
		}
		y, err := parseCoord(record, schema.b)
		if err != nil {
			return nil, err
		}
		return orb.Point{x, y}, nil

	case schemaGeometry:
		pts, err := columnCoords(record, schema.a)
		if err != nil {
			return nil, err
		}
		return orb.Point(pts[0]), nil

	case schemaPolygon:
		pts, err := columnCoords(record, schema.a)
		if err != nil {
			return nil, err
		}
		if len(pts) < 3 {
			return nil, fmt.Errorf("polygon column holds %d coordinates", len(pts))
		}
		ring := orb.Ring(pts)
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}, nil

	case schemaLinestring:
		pts, err := columnCoords(record, schema.a)
		if err != nil {
			return nil, err
		}
		if len(pts) < 2 {
			return nil, fmt.Errorf("linestring column holds %d coordinates", len(pts))
		}
		return orb.LineString(pts), nil
	}

	return nil, ErrBadSchema
}

func parseCoord(record []string, col int) (float64, error) {
	if col >= len(record) {
		return 0, fmt.Errorf("row is short, no column %d", col)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q", record[col])
	}
	return v, nil
}

func columnCoords(record []string, col int) ([]orb.Point, error) {
	if col >= len(record) {
		return nil, fmt.Errorf("row is short, no column %d", col)
	}
	return parseCoordList(record[col])
}

// parseCoordList reads the "[(x,y), (x,y), ...]" column format the
// tabular inputs carry their prebuilt geometries in.
func parseCoordList(s string) ([]orb.Point, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var pts []orb.Point
	for _, pair := range strings.Split(s, ")") {
		pair = strings.TrimSpace(pair)
		pair = strings.TrimPrefix(pair, ",")
		pair = strings.TrimSpace(pair)
		pair = strings.TrimPrefix(pair, "(")
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("bad coordinate pair %q", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate pair %q", pair)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate pair %q", pair)
		}
		pts = append(pts, orb.Point{x, y})
	}
	if len(pts) == 0 {
		return nil, errors.New("empty coordinate list")
	}
	return pts, nil
}
