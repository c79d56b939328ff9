// Package export serializes layered geometry collections into
// downloadable vector datasets: ESRI shapefile triplets with .prj and
// .cpg sidecars, or GeoJSON, zipped per request.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	convert "github.com/godeepar/cad2shp"
)

// shapefile text fields hold at most 254 bytes
const maxFieldWidth = 254

// fixed order the geometry type groups of a mixed layer are written in
var typeOrder = []string{"Point", "LineString", "Polygon"}

var typeSuffix = map[string]string{
	"Point":      "point",
	"LineString": "line",
	"Polygon":    "polygon",
}

// Shapefiles writes one shapefile dataset per layer into dir, stamped
// with the given coordinate system, and returns every file written.
// A layer mixing geometry types is split into one dataset per type,
// since a shapefile holds a single shape type.
func Shapefiles(lc *convert.LayeredCollection, crs CRS, dir string) ([]string, error) {
	var written []string

	for _, name := range lc.Names {
		groups, present := groupByType(lc.Layers[name])

		for _, gt := range typeOrder {
			recs := groups[gt]
			if len(recs) == 0 {
				continue
			}

			base := sanitizeName(name)
			if len(present) > 1 {
				base = base + "_" + typeSuffix[gt]
			}

			files, err := writeDataset(filepath.Join(dir, base), gt, recs, crs)
			if err != nil {
				return nil, fmt.Errorf("[writeDataset] in pkg [export] encountered: %v", err)
			}
			written = append(written, files...)
		}
	}

	return written, nil
}

// groupByType partitions a layer's records by geometry type, keeping
// record order within each group.
func groupByType(recs []convert.GeometryRecord) (map[string][]convert.GeometryRecord, []string) {
	groups := make(map[string][]convert.GeometryRecord)
	var present []string
	for _, rec := range recs {
		gt := rec.Geometry.GeoJSONType()
		if _, ok := groups[gt]; !ok {
			present = append(present, gt)
		}
		groups[gt] = append(groups[gt], rec)
	}
	return groups, present
}

// writeDataset writes one homogeneous dataset: .shp/.shx/.dbf via the
// shapefile writer plus the .prj and .cpg sidecars.
func writeDataset(base string, geomType string, recs []convert.GeometryRecord, crs CRS) ([]string, error) {
	shpPath := base + ".shp"

	w, err := shp.Create(shpPath, shapeType(geomType))
	if err != nil {
		return nil, err
	}

	keys := attributeKeys(recs)
	fields := make([]shp.Field, 0, len(keys))
	for _, name := range dbfNames(keys) {
		fields = append(fields, shp.StringField(name, maxFieldWidth))
	}
	w.SetFields(fields)

	for row, rec := range recs {
		w.Write(recShape(rec.Geometry))
		for col, key := range keys {
			value := rec.Attributes[key]
			if len(value) > maxFieldWidth {
				value = value[:maxFieldWidth]
			}
			if err := w.WriteAttribute(row, col, value); err != nil {
				w.Close()
				return nil, err
			}
		}
	}
	w.Close()

	if err := os.WriteFile(base+".prj", []byte(crs.WKT), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0644); err != nil {
		return nil, err
	}

	return []string{shpPath, base + ".shx", base + ".dbf", base + ".prj", base + ".cpg"}, nil
}

func shapeType(geomType string) shp.ShapeType {
	switch geomType {
	case "LineString":
		return shp.POLYLINE
	case "Polygon":
		return shp.POLYGON
	}
	return shp.POINT
}

// recShape converts a record geometry into the writer's shape value.
func recShape(g orb.Geometry) shp.Shape {
	switch v := g.(type) {
	case orb.Point:
		return &shp.Point{X: v[0], Y: v[1]}

	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{shpPoints(v)})

	case orb.Polygon:
		parts := make([][]shp.Point, 0, len(v))
		for _, ring := range v {
			parts = append(parts, shpPoints(ring))
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return &poly
	}

	// extraction only emits the three types above
	return &shp.Null{}
}

func shpPoints(pts []orb.Point) []shp.Point {
	out := make([]shp.Point, 0, len(pts))
	for _, p := range pts {
		out = append(out, shp.Point{X: p[0], Y: p[1]})
	}
	return out
}

// attributeKeys collects the sorted union of attribute keys across the
// dataset's records; every record writes the same dbf columns.
func attributeKeys(recs []convert.GeometryRecord) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range recs {
		for k := range rec.Attributes {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// dbfNames truncates keys to the 10-byte dbf field limit, suffixing
// duplicates so no two columns collide.
func dbfNames(keys []string) []string {
	used := make(map[string]bool)
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := key
		if len(name) > 10 {
			name = name[:10]
		}
		for i := 2; used[name]; i++ {
			tag := fmt.Sprintf("%d", i)
			cut := 10 - len(tag)
			if len(name) < cut {
				cut = len(name)
			}
			name = name[:cut] + tag
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}

// sanitizeName makes a layer name safe to use as a file base name.
func sanitizeName(name string) string {
	if name == "" {
		return "layer"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
