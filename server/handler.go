package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	convert "github.com/godeepar/cad2shp"
	"github.com/godeepar/cad2shp/config"
	"github.com/godeepar/cad2shp/export"
)

// Request carries one conversion's options, fixed at submit time. The
// handlers only build this value; the pipeline never touches the form.
type Request struct {
	Format string // csv | dxf | dwg
	EPSG   int
	Name   string
	Output string // shp | geojson
}

// PreviewRow is one line of the result table shown before download.
type PreviewRow struct {
	Layer string
	Type  string
	Coord string
	Attrs string
}

// Result ...
type Result struct {
	Request  Request
	Summary  convert.Summary
	Warnings []convert.Warning
	Preview  []PreviewRow
	Token    string
	FileName string
}

type server struct {
	cfg       config.Config
	downloads *downloadStore
}

func newServer(cfg config.Config) *server {
	return &server{
		cfg:       cfg,
		downloads: &downloadStore{files: make(map[string]string)},
	}
}

func (s *server) routes() *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("/", s.indexHandler)
	m.HandleFunc("/convert", s.convertHandler)
	m.HandleFunc("/download/", s.downloadHandler)
	return m
}

func (s *server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, viewData{Catalog: export.Catalog, DefaultEPSG: s.cfg.DefaultEPSG})
}

func (s *server) convertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadMB << 20); err != nil {
		s.renderError(w, http.StatusUnprocessableEntity, fmt.Errorf("upload too large or malformed: %v", err))
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, http.StatusUnprocessableEntity, errors.New("no input file uploaded"))
		return
	}
	defer upload.Close()

	req, err := s.buildRequest(r, header.Filename)
	if err != nil {
		s.renderError(w, http.StatusUnprocessableEntity, err)
		return
	}

	counter.Incr(req.Format)

	result, err := s.runConvert(req, upload)
	if err != nil {
		// bad uploads are the client's problem, failures past ingestion are ours
		status := http.StatusInternalServerError
		var bad inputError
		if errors.As(err, &bad) {
			status = http.StatusUnprocessableEntity
		}
		s.renderError(w, status, err)
		return
	}

	s.render(w, viewData{Catalog: export.Catalog, DefaultEPSG: s.cfg.DefaultEPSG, Result: result})
}

func (s *server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/download/")
	path, name, ok := s.downloads.take(token)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)

	if err := os.Remove(path); err != nil {
		log.Println("Non fatal: could not remove served archive:", err)
	}
}

// buildRequest freezes the form into an immutable request value. The
// input format is declared by the uploaded file's extension.
func (s *server) buildRequest(r *http.Request, filename string) (Request, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch format {
	case "csv", "dxf", "dwg":
	default:
		return Request{}, fmt.Errorf("unsupported file format %q, please upload CSV, DXF or DWG", format)
	}

	epsg := s.cfg.DefaultEPSG
	if v := r.FormValue("crs"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, fmt.Errorf("bad coordinate system %q", v)
		}
		epsg = code
	}
	if _, err := export.Lookup(epsg); err != nil {
		return Request{}, err
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	output := r.FormValue("output")
	if output != "geojson" {
		output = "shp"
	}

	return Request{Format: format, EPSG: epsg, Name: name, Output: output}, nil
}

// runConvert is the request-scoped pipeline: ingest, extract, export,
// archive. The staging directory is released on every exit path.
func (s *server) runConvert(req Request, upload io.Reader) (*Result, error) {
	var lc *convert.LayeredCollection
	var warnings []convert.Warning

	switch req.Format {
	case "csv":
		var err error
		lc, err = convert.RecordsFromCSV(upload)
		if err != nil {
			return nil, inputError{err}
		}

	case "dxf", "dwg":
		ents, parseWarnings, err := convert.DrawingFromDXF(upload)
		if err != nil {
			if req.Format == "dwg" {
				return nil, inputError{fmt.Errorf("%v (try re-exporting the drawing as DXF)", err)}
			}
			return nil, inputError{err}
		}
		var extractWarnings []convert.Warning
		lc, extractWarnings, err = convert.Extract(ents)
		warnings = append(parseWarnings, extractWarnings...)
		if err != nil {
			return nil, inputError{err}
		}
	}

	for _, warning := range warnings {
		log.Println("Non fatal:", warning.String())
	}

	crs, err := export.Lookup(req.EPSG)
	if err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(s.cfg.TempDir, "cad2shp-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	switch req.Output {
	case "geojson":
		_, err = export.GeoJSON(lc, crs, staging)
	default:
		_, err = export.Shapefiles(lc, crs, staging)
	}
	if err != nil {
		return nil, err
	}

	archive, err := os.CreateTemp(s.cfg.TempDir, "cad2shp-*.zip")
	if err != nil {
		return nil, err
	}
	archive.Close()

	if err := export.Archive(staging, archive.Name()); err != nil {
		os.Remove(archive.Name())
		return nil, err
	}

	fileName := req.Name + ".zip"
	token, err := s.downloads.add(archive.Name(), fileName)
	if err != nil {
		os.Remove(archive.Name())
		return nil, err
	}

	return &Result{
		Request:  req,
		Summary:  convert.Summarize(lc),
		Warnings: warnings,
		Preview:  preview(lc, 10),
		Token:    token,
		FileName: fileName,
	}, nil
}

// inputError marks a failure caused by the uploaded data rather than
// the server.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

// preview flattens the first n records into table rows.
func preview(lc *convert.LayeredCollection, n int) []PreviewRow {
	var rows []PreviewRow
	for _, name := range lc.Names {
		for _, rec := range lc.Layers[name] {
			if len(rows) == n {
				return rows
			}
			rows = append(rows, PreviewRow{
				Layer: name,
				Type:  rec.Geometry.GeoJSONType(),
				Coord: firstCoord(rec.Geometry),
				Attrs: flattenAttrs(rec.Attributes),
			})
		}
	}
	return rows
}

func firstCoord(g orb.Geometry) string {
	switch v := g.(type) {
	case orb.Point:
		return fmt.Sprintf("(%g, %g)", v[0], v[1])
	case orb.LineString:
		if len(v) > 0 {
			return fmt.Sprintf("(%g, %g)", v[0][0], v[0][1])
		}
	case orb.Polygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return fmt.Sprintf("(%g, %g)", v[0][0][0], v[0][0][1])
		}
	}
	return ""
}

func flattenAttrs(atts map[string]string) string {
	keys := make([]string, 0, len(atts))
	for k := range atts {
		if k == "kind" || k == "layer" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+atts[k])
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// downloadStore maps one-shot tokens to staged archives.
type downloadStore struct {
	mu    sync.Mutex
	files map[string]string
	names map[string]string
}

func (d *downloadStore) add(path, name string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.names == nil {
		d.names = make(map[string]string)
	}
	d.files[token] = path
	d.names[token] = name
	return token, nil
}

func (d *downloadStore) take(token string) (string, string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.files[token]
	if !ok {
		return "", "", false
	}
	name := d.names[token]
	delete(d.files, token)
	delete(d.names, token)
	return path, name, true
}
