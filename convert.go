package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// EntityKind tags a DrawingEntity with the one shape family it can become.
// Anything a drawing hands us that we can't map lands on KindUnsupported.
type EntityKind int

const (
	KindUnsupported EntityKind = iota
	KindPoint
	KindLine
	KindPolylineClosed
	KindPolylineOpen
	KindCircle
)

// String ...
func (k EntityKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolylineClosed:
		return "closed-polyline"
	case KindPolylineOpen:
		return "open-polyline"
	case KindCircle:
		return "circle"
	}
	return "unsupported"
}

// DrawingEntity is one record scanned out of a parsed drawing.
// Coords hold the 2D vertex run; any third coordinate from the source
// entity is already gone by the time one of these exists.
type DrawingEntity struct {
	Kind       EntityKind
	Layer      string
	Handle     string
	Coords     []orb.Point
	Radius     float64
	Attributes map[string]string
}

// GeometryRecord is the normalized output unit of extraction.
type GeometryRecord struct {
	Geometry   orb.Geometry
	Layer      string
	Attributes map[string]string
}

// Warning notes one entity that was skipped during extraction.
type Warning struct {
	Layer  string
	Handle string
	Reason string
}

// String ...
func (w Warning) String() string {
	if w.Handle == "" {
		return fmt.Sprintf("layer %q: %s", w.Layer, w.Reason)
	}
	return fmt.Sprintf("layer %q entity %s: %s", w.Layer, w.Handle, w.Reason)
}

// LayeredCollection groups geometry records by source layer.
// Names keeps first-seen layer order so two runs over the same
// drawing come out element-wise equal.
type LayeredCollection struct {
	Names  []string
	Layers map[string][]GeometryRecord
}

// NewLayeredCollection ...
func NewLayeredCollection() *LayeredCollection {
	return &LayeredCollection{Layers: make(map[string][]GeometryRecord)}
}

// Append adds a record to its layer, registering the layer on first sight.
func (lc *LayeredCollection) Append(rec GeometryRecord) {
	if _, ok := lc.Layers[rec.Layer]; !ok {
		lc.Names = append(lc.Names, rec.Layer)
	}
	lc.Layers[rec.Layer] = append(lc.Layers[rec.Layer], rec)
}

// Len counts records across all layers.
func (lc *LayeredCollection) Len() int {
	total := 0
	for _, recs := range lc.Layers {
		total += len(recs)
	}
	return total
}

// ErrNoGeometries reports that a structurally valid input held nothing
// convertible. Distinct from a parse failure on purpose.
var ErrNoGeometries = errors.New("no valid geometries found in input")

// vertex count used to approximate a circle as an area
const circleSegments = 32

// Extract folds a sequence of drawing entities into a layered collection.
// One bad entity never aborts the batch: it is skipped and recorded as a
// warning, and the fold moves on. Only a wholly empty result is an error.
func Extract(entities []DrawingEntity) (*LayeredCollection, []Warning, error) {
	out := NewLayeredCollection()
	var warnings []Warning

	for _, ent := range entities {
		geom, err := buildGeometry(ent)
		if err != nil {
			warnings = append(warnings, Warning{Layer: ent.Layer, Handle: ent.Handle, Reason: err.Error()})
			continue
		}
		if geom == nil {
			// unsupported kinds leave quietly, that's not a defect of the entity
			continue
		}
		out.Append(GeometryRecord{
			Geometry:   geom,
			Layer:      ent.Layer,
			Attributes: recordAttributes(ent),
		})
	}

	if out.Len() == 0 {
		return nil, warnings, ErrNoGeometries
	}
	return out, warnings, nil
}

// buildGeometry maps one entity kind to its geometry constructor.
// A nil, nil return means "drop silently".
func buildGeometry(ent DrawingEntity) (orb.Geometry, error) {
	switch ent.Kind {
	case KindPoint:
		if len(ent.Coords) < 1 {
			return nil, errors.New("point entity has no coordinate")
		}
		return ent.Coords[0], nil

	case KindLine:
		if len(ent.Coords) < 2 {
			return nil, errors.New("line entity is missing an endpoint")
		}
		return orb.LineString{ent.Coords[0], ent.Coords[1]}, nil

	case KindPolylineClosed:
		return closedPolyline(ent.Coords)

	case KindPolylineOpen:
		if len(ent.Coords) < 2 {
			return nil, errors.New("polyline has fewer than 2 vertices")
		}
		return orb.LineString(append([]orb.Point(nil), ent.Coords...)), nil

	case KindCircle:
		if len(ent.Coords) < 1 {
			return nil, errors.New("circle entity has no center")
		}
		if ent.Radius <= 0 {
			return nil, fmt.Errorf("circle entity has radius %v", ent.Radius)
		}
		return circleRing(ent.Coords[0], ent.Radius), nil
	}

	return nil, nil
}

// closedPolyline builds a polygon from a closed vertex run, falling back
// to a line when the closed flag was set on just two vertices. A ring of
// three vertices where first == last comes out zero-area and is accepted
// as-is; callers needing non-degenerate polygons validate separately.
func closedPolyline(coords []orb.Point) (orb.Geometry, error) {
	switch {
	case len(coords) < 2:
		return nil, errors.New("polyline has fewer than 2 vertices")
	case len(coords) == 2:
		return orb.LineString{coords[0], coords[1]}, nil
	}

	ring := orb.Ring(append([]orb.Point(nil), coords...))
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}, nil
}

// circleRing approximates a circle as a polygon, treating it as an area.
func circleRing(center orb.Point, radius float64) orb.Polygon {
	ring := make(orb.Ring, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// recordAttributes copies every native attribute off the entity and stamps
// the originating kind and layer alongside. Metadata preservation only.
func recordAttributes(ent DrawingEntity) map[string]string {
	atts := make(map[string]string, len(ent.Attributes)+3)
	for k, v := range ent.Attributes {
		atts[k] = v
	}
	atts["kind"] = ent.Kind.String()
	atts["layer"] = ent.Layer
	if ent.Handle != "" {
		atts["handle"] = ent.Handle
	}
	return atts
}
