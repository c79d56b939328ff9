package main

import (
	"html/template"
	"log"
	"net/http"

	"github.com/godeepar/cad2shp/export"
)

// viewData feeds the single page template. Error and Result are
// mutually exclusive; a fresh form renders either way so no error
// state outlives its request.
type viewData struct {
	Error       string
	Result      *Result
	Catalog     []export.CRS
	DefaultEPSG int
}

func (s *server) render(w http.ResponseWriter, data viewData) {
	if err := page.Execute(w, data); err != nil {
		log.Println("Non fatal: template render failed:", err)
	}
}

func (s *server) renderError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	s.render(w, viewData{Error: err.Error(), Catalog: export.Catalog, DefaultEPSG: s.cfg.DefaultEPSG})
}

var page = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!doctype html>
<html>
<head><title>CAD/CSV to Shapefile Converter</title></head>
<body>
<h1>CAD/CSV to Shapefile Converter</h1>
<p>Upload a CSV, DXF or DWG file and download it as a zipped vector dataset, one per layer.</p>

{{if .Error}}
<p style="color:#a00"><b>Error:</b> {{.Error}}</p>
{{end}}

<form action="/convert" method="post" enctype="multipart/form-data">
  <p><label>Input file: <input type="file" name="file" accept=".csv,.dxf,.dwg" required></label></p>
  <p><label>Coordinate system:
    <select name="crs">
      {{$default := .DefaultEPSG}}
      {{range .Catalog}}
      <option value="{{.Code}}" {{if eq .Code $default}}selected{{end}}>{{.Label}}</option>
      {{end}}
    </select>
  </label></p>
  <p><label>Output name: <input type="text" name="name" placeholder="converted"></label></p>
  <p><label>Output format:
    <select name="output">
      <option value="shp">Shapefile (zip)</option>
      <option value="geojson">GeoJSON (zip)</option>
    </select>
  </label></p>
  <p><button type="submit">Convert</button></p>
</form>

{{with .Result}}
<hr>
<h2>Conversion result</h2>
<p>{{.Summary.Records}} records on {{.Summary.Layers}} layer(s),
   center ({{index .Summary.Center 0}}, {{index .Summary.Center 1}}),
   s2 {{range .Summary.S2}}{{.}} {{end}}</p>

{{if .Warnings}}
<p><b>Warnings</b> (skipped entities, conversion continued):</p>
<ul>
{{range .Warnings}}<li>{{.String}}</li>{{end}}
</ul>
{{end}}

<table border="1" cellpadding="4">
  <tr><th>Layer</th><th>Type</th><th>First coordinate</th><th>Attributes</th></tr>
  {{range .Preview}}
  <tr><td>{{.Layer}}</td><td>{{.Type}}</td><td>{{.Coord}}</td><td>{{.Attrs}}</td></tr>
  {{end}}
</table>

<p><a href="/download/{{.Token}}">Download {{.FileName}}</a></p>
{{end}}

</body>
</html>
`
