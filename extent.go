package convert

import (
	"math"

	"github.com/golang/geo/s2"
	geo "github.com/paulmach/go.geo"
	"github.com/paulmach/orb"
)

// Summary describes the extent of one converted collection. It is shown
// alongside the preview and never feeds back into the records.
type Summary struct {
	Records int
	Layers  int
	Center  [2]float64
	S2      []string
}

// ExtentContainer observes every coordinate of a dataset on a channel
// and retains the lowest and highest for the bbox extent.
type ExtentContainer struct {
	bbox map[string]float64
	ch   chan orb.Point
	done chan struct{}
}

// initExtentContainer sets up the container and its listener goroutine.
func initExtentContainer() *ExtentContainer {
	container := &ExtentContainer{
		bbox: make(map[string]float64),
		ch:   make(chan orb.Point),
		done: make(chan struct{}),
	}
	go BBOXListener(container)
	return container
}

// BBOXListener observes every X & Y on the channel, growing the extent
// as coordinates arrive. Closing the channel kills the goroutine.
func BBOXListener(container *ExtentContainer) {
	defer close(container.done)

	for pt := range container.ch {
		X := pt[0]
		Y := pt[1]

		if _, present := container.bbox["lx"]; !present {
			container.bbox["lx"] = X
			container.bbox["rx"] = X
			container.bbox["ly"] = Y
			container.bbox["uy"] = Y
		}

		if X < container.bbox["lx"] {
			container.bbox["lx"] = X
		} else if X > container.bbox["rx"] {
			container.bbox["rx"] = X
		}

		if Y < container.bbox["ly"] {
			container.bbox["ly"] = Y
		} else if Y > container.bbox["uy"] {
			container.bbox["uy"] = Y
		}
	}
}

// Summarize walks every coordinate of the collection through the extent
// container and derives the center point (normalized to 4326) and the s2
// covering tokens for the bbox.
func Summarize(lc *LayeredCollection) Summary {
	container := initExtentContainer()

	count := 0
	for _, name := range lc.Names {
		for _, rec := range lc.Layers[name] {
			for _, pt := range geometryPoints(rec.Geometry) {
				container.ch <- pt
			}
			count++
		}
	}
	close(container.ch)
	<-container.done

	s := Summary{Records: count, Layers: len(lc.Names)}
	if len(container.bbox) < 4 {
		return s
	}

	cx := container.bbox["rx"] - (container.bbox["rx"]-container.bbox["lx"])/2
	cy := container.bbox["uy"] - (container.bbox["uy"]-container.bbox["ly"])/2
	x, y := To4326(cx, cy)
	s.Center = [2]float64{x, y}
	s.S2 = s2covering(container.bbox)

	return s
}

// geometryPoints flattens a record geometry into its coordinates.
func geometryPoints(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.LineString:
		return v
	case orb.Polygon:
		var pts []orb.Point
		for _, ring := range v {
			pts = append(pts, ring...)
		}
		return pts
	}
	return nil
}

// s2covering finds the s2 tokens that represent the geographic coverage
// of the bbox extent. An empty bbox means a bunk dataset; don't panic,
// return nothing.
func s2covering(bbox map[string]float64) []string {
	var s2hash []string
	if len(bbox) < 4 {
		return s2hash
	}

	rx, uy := To4326(bbox["rx"], bbox["uy"])
	lx, ly := To4326(bbox["lx"], bbox["ly"])

	pts := []s2.Point{
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, rx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(uy, lx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, lx)),
		s2.PointFromLatLng(s2.LatLngFromDegrees(ly, rx)),
	}

	loop := s2.LoopFromPoints(pts)
	covering := loop.CellUnionBound()

	for _, cellid := range covering {
		token := cellid.ToToken()
		if len(token) > 8 {
			runes := []rune(token)
			token = string(runes[0:8])
		}
		s2hash = append(s2hash, token)
	}

	return s2hash
}

// To4326 converts a coordinate to the EPSG:4326 projection. Values
// already inside the degree range pass through untouched.
func To4326(x float64, y float64) (float64, float64) {
	if x > 180 || x < -180 || y > 180 || y < -180 {
		mercPoint := geo.NewPoint(x, y)
		geo.Mercator.Inverse(mercPoint)
		x = math.Round(mercPoint[0]*10000) / 10000
		y = math.Round(mercPoint[1]*10000) / 10000
	}
	return x, y
}

// To3857 converts a coordinate to the EPSG:3857 projection, trimming
// decimals to the cm.
func To3857(x float64, y float64) (float64, float64) {
	if x >= -180 && x <= 180 && y >= -180 && y <= 180 {
		mercPoint := geo.NewPoint(x, y)
		geo.Mercator.Project(mercPoint)
		x = math.Round(mercPoint[0]*100) / 100
		y = math.Round(mercPoint[1]*100) / 100
	}
	return x, y
}
