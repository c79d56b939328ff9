package convert

import (
	"errors"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestExtractPoint(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindPoint, Layer: "survey", Handle: "A1", Coords: []orb.Point{{3.5, -1.25}}},
	}

	lc, warnings, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if lc.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", lc.Len())
	}

	rec := lc.Layers["survey"][0]
	pt, ok := rec.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("expected a point geometry, got %T", rec.Geometry)
	}
	if pt != (orb.Point{3.5, -1.25}) {
		t.Errorf("point coordinate mismatch: %v", pt)
	}
	if rec.Attributes["kind"] != "point" || rec.Attributes["layer"] != "survey" {
		t.Errorf("attribute stamping is off: %v", rec.Attributes)
	}
}

func TestExtractLine(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindLine, Layer: "0", Coords: []orb.Point{{0, 0}, {10, 10}}},
	}

	lc, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ls, ok := lc.Layers["0"][0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected a linestring, got %T", lc.Layers["0"][0].Geometry)
	}
	if len(ls) != 2 || ls[0] != (orb.Point{0, 0}) || ls[1] != (orb.Point{10, 10}) {
		t.Errorf("line endpoints mismatch: %v", ls)
	}
}

func TestExtractClosedPolylineRing(t *testing.T) {
	ring := []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	ents := []DrawingEntity{
		{Kind: KindPolylineClosed, Layer: "parcels", Coords: ring},
	}

	lc, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	poly, ok := lc.Layers["parcels"][0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected a polygon, got %T", lc.Layers["parcels"][0].Geometry)
	}
	if !reflect.DeepEqual([]orb.Point(poly[0]), ring) {
		t.Errorf("ring mismatch: %v", poly[0])
	}
}

func TestExtractClosedPolylineUnclosedRing(t *testing.T) {
	// closed flag set, last vertex not repeated: ring gets closed for it
	ents := []DrawingEntity{
		{Kind: KindPolylineClosed, Layer: "parcels", Coords: []orb.Point{{0, 0}, {0, 1}, {1, 1}}},
	}

	lc, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	poly := lc.Layers["parcels"][0].Geometry.(orb.Polygon)
	if len(poly[0]) != 4 || poly[0][0] != poly[0][3] {
		t.Errorf("ring was not closed: %v", poly[0])
	}
}

func TestExtractClosedPairFallsBackToLine(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindPolylineClosed, Layer: "0", Coords: []orb.Point{{0, 0}, {5, 5}}},
	}

	lc, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := lc.Layers["0"][0].Geometry.(orb.LineString); !ok {
		t.Errorf("expected the degenerate closed pair to fall back to a line")
	}
}

func TestExtractShortPolylineSkipped(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindPolylineOpen, Layer: "0", Handle: "B2", Coords: []orb.Point{{1, 1}}},
		{Kind: KindPoint, Layer: "0", Coords: []orb.Point{{0, 0}}},
	}

	lc, warnings, err := Extract(ents)
	if err != nil {
		t.Fatalf("a short polyline must not abort the batch: %v", err)
	}
	if lc.Len() != 1 {
		t.Errorf("expected only the point to survive, got %d records", lc.Len())
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if warnings[0].Handle != "B2" {
		t.Errorf("warning should name the skipped entity: %+v", warnings[0])
	}
}

func TestExtractCircleAsArea(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindCircle, Layer: "wells", Coords: []orb.Point{{10, 20}}, Radius: 2},
	}

	lc, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	poly, ok := lc.Layers["wells"][0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected a polygon approximation, got %T", lc.Layers["wells"][0].Geometry)
	}
	if len(poly[0]) != circleSegments+1 {
		t.Errorf("expected %d ring vertices, got %d", circleSegments+1, len(poly[0]))
	}
	if poly[0][0] != (orb.Point{12, 20}) {
		t.Errorf("ring should start at center+radius on the x axis: %v", poly[0][0])
	}
	if poly[0][0] != poly[0][len(poly[0])-1] {
		t.Errorf("circle ring should be closed")
	}
}

func TestExtractLayerGroupingWithMalformed(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindPoint, Layer: "A", Coords: []orb.Point{{0, 0}}},
		{Kind: KindLine, Layer: "A", Handle: "BAD", Coords: []orb.Point{{1, 1}}}, // missing endpoint
		{Kind: KindPoint, Layer: "A", Coords: []orb.Point{{2, 2}}},
		{Kind: KindPoint, Layer: "B", Coords: []orb.Point{{3, 3}}},
		{Kind: KindPoint, Layer: "B", Coords: []orb.Point{{4, 4}}},
	}

	lc, warnings, err := Extract(ents)
	if err != nil {
		t.Fatalf("one malformed entity aborted the batch: %v", err)
	}
	if len(lc.Layers["A"]) != 2 {
		t.Errorf("layer A should hold 2 records, got %d", len(lc.Layers["A"]))
	}
	if len(lc.Layers["B"]) != 2 {
		t.Errorf("layer B should hold 2 records, got %d", len(lc.Layers["B"]))
	}
	if len(warnings) != 1 || warnings[0].Handle != "BAD" {
		t.Errorf("expected exactly the malformed entity in warnings, got %v", warnings)
	}
	if !reflect.DeepEqual(lc.Names, []string{"A", "B"}) {
		t.Errorf("layer order should be first-seen: %v", lc.Names)
	}
}

func TestExtractAllUnsupported(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindUnsupported, Layer: "A"},
		{Kind: KindUnsupported, Layer: "B"},
	}

	_, warnings, err := Extract(ents)
	if !errors.Is(err, ErrNoGeometries) {
		t.Fatalf("expected ErrNoGeometries, got %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unsupported kinds are dropped silently, got %v", warnings)
	}
}

func TestExtractIdempotent(t *testing.T) {
	ents := []DrawingEntity{
		{Kind: KindPoint, Layer: "A", Coords: []orb.Point{{0, 0}}},
		{Kind: KindPolylineClosed, Layer: "B", Coords: []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}},
		{Kind: KindLine, Layer: "A", Coords: []orb.Point{{0, 0}, {1, 1}}},
	}

	first, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := Extract(ents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same entities should be element-wise equal")
	}
}
