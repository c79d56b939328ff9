package convert

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

const boreholes = "tests/boreholes.csv"

func TestCSVLatLon(t *testing.T) {
	data := "id,latitude,longitude\n1,40.7128,-74.0060\n"

	lc, err := RecordsFromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", lc.Len())
	}

	rec := lc.Layers[CSVLayer][0]
	pt, ok := rec.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("expected a point, got %T", rec.Geometry)
	}
	// longitude first, then latitude, per the x/y convention
	if pt != (orb.Point{-74.0060, 40.7128}) {
		t.Errorf("point mismatch: %v", pt)
	}
	if rec.Attributes["id"] != "1" {
		t.Errorf("id column should carry over as an attribute: %v", rec.Attributes)
	}
}

func TestCSVXY(t *testing.T) {
	data := "name,x,y\nwellhead,512000.5,4100250.25\n"

	lc, err := RecordsFromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pt := lc.Layers[CSVLayer][0].Geometry.(orb.Point)
	if pt != (orb.Point{512000.5, 4100250.25}) {
		t.Errorf("point mismatch: %v", pt)
	}
}

func TestCSVLatLonWinsOverXY(t *testing.T) {
	// both column sets present: latitude/longitude is checked first
	data := "latitude,longitude,x,y\n10,20,999,999\n"

	lc, err := RecordsFromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pt := lc.Layers[CSVLayer][0].Geometry.(orb.Point)
	if pt != (orb.Point{20, 10}) {
		t.Errorf("latitude/longitude should win the priority order: %v", pt)
	}
}

func TestCSVPolygonColumn(t *testing.T) {
	data := "id,polygon\n1,\"[(0,0), (0,1), (1,1), (1,0)]\"\n"

	lc, err := RecordsFromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	poly, ok := lc.Layers[CSVLayer][0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected a polygon, got %T", lc.Layers[CSVLayer][0].Geometry)
	}
	want := []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	if !reflect.DeepEqual([]orb.Point(poly[0]), want) {
		t.Errorf("ring mismatch: %v", poly[0])
	}
}

func TestCSVLinestringColumn(t *testing.T) {
	data := "id,linestring\n1,\"[(0,0), (1,1), (2,2)]\"\n"

	lc, err := RecordsFromCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ls, ok := lc.Layers[CSVLayer][0].Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("expected a linestring, got %T", lc.Layers[CSVLayer][0].Geometry)
	}
	if len(ls) != 3 || ls[2] != (orb.Point{2, 2}) {
		t.Errorf("linestring mismatch: %v", ls)
	}
}

func TestCSVNoSchema(t *testing.T) {
	data := "id,name,comment\n1,hut,nothing spatial here\n"

	_, err := RecordsFromCSV(strings.NewReader(data))
	if !errors.Is(err, ErrBadSchema) {
		t.Fatalf("expected a schema error, got %v", err)
	}
}

func TestCSVMalformedCoordinateIsSchemaError(t *testing.T) {
	data := "id,latitude,longitude\n1,forty,-74.0060\n"

	_, err := RecordsFromCSV(strings.NewReader(data))
	if !errors.Is(err, ErrBadSchema) {
		t.Fatalf("a malformed declared column is a schema error, got %v", err)
	}
}

func TestCSVFixture(t *testing.T) {
	data, err := os.Open(boreholes)
	if err != nil {
		t.Logf(err.Error())
		t.FailNow()
	}
	defer data.Close()

	lc, err := RecordsFromCSV(data)
	if err != nil {
		t.Fatalf("damnit, got an error for %s: %s", boreholes, err.Error())
	}
	if lc.Len() != 3 {
		t.Errorf("expected 3 records from the fixture, got %d", lc.Len())
	}
	for _, rec := range lc.Layers[CSVLayer] {
		if rec.Attributes["depth_m"] == "" {
			t.Errorf("fixture attributes did not carry over: %v", rec.Attributes)
		}
	}
}
