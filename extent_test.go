package convert

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestSummarize(t *testing.T) {
	lc := NewLayeredCollection()
	lc.Append(GeometryRecord{Geometry: orb.Point{0, 0}, Layer: "A"})
	lc.Append(GeometryRecord{Geometry: orb.Point{2, 2}, Layer: "A"})

	s := Summarize(lc)
	if s.Records != 2 || s.Layers != 1 {
		t.Errorf("summary counts are off: %+v", s)
	}
	if s.Center != [2]float64{1, 1} {
		t.Errorf("expected center (1, 1), got %v", s.Center)
	}
	if len(s.S2) == 0 {
		t.Errorf("expected s2 covering tokens for a non-empty extent")
	}
	for _, token := range s.S2 {
		if len(token) > 8 {
			t.Errorf("tokens are truncated to 8 runes, got %q", token)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(NewLayeredCollection())
	if s.Records != 0 || len(s.S2) != 0 {
		t.Errorf("empty collection should give an empty summary: %+v", s)
	}
}

func TestSummarizeWalksAllGeometryTypes(t *testing.T) {
	lc := NewLayeredCollection()
	lc.Append(GeometryRecord{Geometry: orb.LineString{{0, 0}, {4, 0}}, Layer: "A"})
	lc.Append(GeometryRecord{Geometry: orb.Polygon{{{0, 0}, {0, 2}, {4, 2}, {4, 0}, {0, 0}}}, Layer: "B"})

	s := Summarize(lc)
	if s.Records != 2 || s.Layers != 2 {
		t.Errorf("summary counts are off: %+v", s)
	}
	if s.Center != [2]float64{2, 1} {
		t.Errorf("expected center (2, 1), got %v", s.Center)
	}
}

func TestProjectionRoundtrip(t *testing.T) {
	lon, lat := -74.0060, 40.7128

	x, y := To3857(lon, lat)
	if x >= -180 && x <= 180 {
		t.Fatalf("projection did not leave the degree range: %v %v", x, y)
	}

	lon2, lat2 := To4326(x, y)
	if math.Abs(lon2-lon) > 1e-3 || math.Abs(lat2-lat) > 1e-3 {
		t.Errorf("roundtrip drifted: (%v, %v) -> (%v, %v)", lon, lat, lon2, lat2)
	}
}

func TestTo4326PassThrough(t *testing.T) {
	x, y := To4326(12.5, 55.7)
	if x != 12.5 || y != 55.7 {
		t.Errorf("degree-range coordinates must pass through untouched: %v %v", x, y)
	}
}
