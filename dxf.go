package convert

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
)

// defaultLayer is where entities without a layer name land, matching the
// implicit "0" layer every drawing carries.
const defaultLayer = "0"

// DrawingFromDXF parses a drawing byte stream into drawing entities.
// A structural parse failure gets exactly one lenient retry on a scrubbed
// copy of the stream; if that also fails the error is fatal for the
// request. Recovery is surfaced as a non-fatal warning.
func DrawingFromDXF(r io.Reader) ([]DrawingEntity, []Warning, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("[DrawingFromDXF] in pkg [convert] encountered: %v", err)
	}

	var warnings []Warning

	doc, err := document.DxfDocumentFromStream(bytes.NewReader(raw))
	if err != nil {
		retry, err2 := document.DxfDocumentFromStream(bytes.NewReader(scrubDXF(raw)))
		if err2 != nil {
			return nil, nil, fmt.Errorf("invalid or unsupported drawing file: %v", err)
		}
		doc = retry
		warnings = append(warnings, Warning{
			Reason: fmt.Sprintf("drawing parsed only after lenient retry: %v", err),
		})
	}

	var out []DrawingEntity
	for _, e := range doc.Entities.Entities {
		out = append(out, entityFromDXF(e))
	}
	return out, warnings, nil
}

// entityFromDXF maps one parsed dxf entity onto the closed entity-kind
// set. Third coordinates are dropped here; everything downstream is 2D.
func entityFromDXF(e entities.Entity) DrawingEntity {
	switch v := e.(type) {
	case *entities.Point:
		return DrawingEntity{
			Kind:   KindPoint,
			Layer:  layerName(v.LayerName),
			Handle: v.Handle,
			Coords: []orb.Point{{v.Location.X, v.Location.Y}},
		}

	case *entities.Line:
		return DrawingEntity{
			Kind:   KindLine,
			Layer:  layerName(v.LayerName),
			Handle: v.Handle,
			Coords: []orb.Point{{v.Start.X, v.Start.Y}, {v.End.X, v.End.Y}},
		}

	case *entities.LWPolyline:
		coords := make([]orb.Point, 0, len(v.Points))
		for _, p := range v.Points {
			coords = append(coords, orb.Point{p.Point.X, p.Point.Y})
		}
		return DrawingEntity{
			Kind:   polylineKind(v.Closed),
			Layer:  layerName(v.LayerName),
			Handle: v.Handle,
			Coords: coords,
		}

	case *entities.Polyline:
		coords := make([]orb.Point, 0, len(v.Vertices))
		for _, vert := range v.Vertices {
			coords = append(coords, orb.Point{vert.Location.X, vert.Location.Y})
		}
		return DrawingEntity{
			Kind:   polylineKind(v.Closed),
			Layer:  layerName(v.LayerName),
			Handle: v.Handle,
			Coords: coords,
		}

	case *entities.Circle:
		return DrawingEntity{
			Kind:   KindCircle,
			Layer:  layerName(v.LayerName),
			Handle: v.Handle,
			Coords: []orb.Point{{v.Center.X, v.Center.Y}},
			Radius: v.Radius,
			Attributes: map[string]string{
				"radius": strconv.FormatFloat(v.Radius, 'f', -1, 64),
			},
		}
	}

	return DrawingEntity{Kind: KindUnsupported}
}

func polylineKind(closed bool) EntityKind {
	if closed {
		return KindPolylineClosed
	}
	return KindPolylineOpen
}

func layerName(name string) string {
	if name == "" {
		return defaultLayer
	}
	return name
}

// scrubDXF drops 999 comment groups and stray carriage returns from a
// drawing that failed a strict parse. Some exporters pad files with
// comments the reader chokes on.
func scrubDXF(raw []byte) []byte {
	lines := strings.Split(string(raw), "\n")
	var kept []string

	for i := 0; i+1 < len(lines); i += 2 {
		code := strings.TrimSpace(lines[i])
		if code == "999" {
			continue
		}
		kept = append(kept, strings.TrimRight(lines[i], "\r"), strings.TrimRight(lines[i+1], "\r"))
	}
	if len(lines)%2 != 0 {
		last := strings.TrimRight(lines[len(lines)-1], "\r")
		if last != "" {
			kept = append(kept, last)
		}
	}

	return []byte(strings.Join(kept, "\n") + "\n")
}
