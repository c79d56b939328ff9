package export

import (
	"fmt"
	"os"
	"path/filepath"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	convert "github.com/godeepar/cad2shp"
)

// GeoJSON writes one FeatureCollection file per layer into dir. The
// format has no standards-track slot for a coordinate system anymore,
// so the WKT goes into a .prj sidecar next to each file, same as the
// shapefile path does.
func GeoJSON(lc *convert.LayeredCollection, crs CRS, dir string) ([]string, error) {
	var written []string

	for _, name := range lc.Names {
		fc := geojson.NewFeatureCollection()
		for _, rec := range lc.Layers[name] {
			f := recFeature(rec.Geometry)
			for k, v := range rec.Attributes {
				f.SetProperty(k, v)
			}
			fc.AddFeature(f)
		}

		raw, err := fc.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("[GeoJSON] in pkg [export] encountered: %v", err)
		}

		base := filepath.Join(dir, sanitizeName(name))
		if err := os.WriteFile(base+".geojson", raw, 0644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(base+".prj", []byte(crs.WKT), 0644); err != nil {
			return nil, err
		}
		written = append(written, base+".geojson", base+".prj")
	}

	return written, nil
}

func recFeature(g orb.Geometry) *geojson.Feature {
	switch v := g.(type) {
	case orb.Point:
		return geojson.NewPointFeature([]float64{v[0], v[1]})

	case orb.LineString:
		return geojson.NewLineStringFeature(lineCoords(v))

	case orb.Polygon:
		rings := make([][][]float64, 0, len(v))
		for _, ring := range v {
			rings = append(rings, lineCoords(ring))
		}
		return geojson.NewPolygonFeature(rings)
	}

	// extraction only emits the three types above
	return geojson.NewPointFeature([]float64{0, 0})
}

func lineCoords(pts []orb.Point) [][]float64 {
	out := make([][]float64, 0, len(pts))
	for _, p := range pts {
		out = append(out, []float64{p[0], p[1]})
	}
	return out
}
