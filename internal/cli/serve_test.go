package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nbrenner/wxplot/pkg/cache"
	"github.com/nbrenner/wxplot/pkg/fonts"
	"github.com/nbrenner/wxplot/pkg/pipeline"
)

func writeServeField(t *testing.T, dir, name string) {
	t.Helper()
	nx, ny := 6, 5
	lats := make([]float64, nx*ny)
	lons := make([]float64, nx*ny)
	vals := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			idx := j*nx + i
			lats[idx] = 30 + 10*float64(j)/float64(ny-1)
			lons[idx] = -100 + 10*float64(i)/float64(nx-1)
			vals[idx] = 270 + float64(i+j)
		}
	}
	doc := map[string]any{
		"short_name": "temp",
		"long_name":  "Temperature",
		"unit":       "K",
		"level":      850.0,
		"level_unit": "hPa",
		"anl_time":   "2021052315",
		"fhr":        6,
		"nx":         nx,
		"ny":         ny,
		"lats":       lats,
		"lons":       lons,
		"values":     vals,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func testServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	logger := newLogger(io.Discard, log.InfoLevel)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	cfg := serveConfig{
		dataDir: dir,
		region:  "fv3",
		ttl:     pipeline.DefaultTTL,
	}
	srv := httptest.NewServer(newServeMux(runner, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestServeHealthz(t *testing.T) {
	srv := testServer(t, t.TempDir())

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServeMap(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	dir := t.TempDir()
	writeServeField(t, dir, "temp_f006.json")
	srv := testServer(t, dir)

	resp, err := http.Get(srv.URL + "/maps/temp?fhr=6&width=300&height=260")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if resp.Header.Get("X-Run-Id") == "" {
		t.Error("missing run ID header")
	}
	if resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("X-Cache = %q, want miss", resp.Header.Get("X-Cache"))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(body) == 0 {
		t.Error("empty response body")
	}
}

func TestServeMapMissingData(t *testing.T) {
	srv := testServer(t, t.TempDir())

	resp, err := http.Get(srv.URL + "/maps/temp?fhr=6")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeMapBadFormat(t *testing.T) {
	dir := t.TempDir()
	writeServeField(t, dir, "temp_f006.json")
	srv := testServer(t, dir)

	resp, err := http.Get(srv.URL + "/maps/temp?fhr=6&format=svg")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServeSkewTMissingData(t *testing.T) {
	srv := testServer(t, t.TempDir())

	resp, err := http.Get(srv.URL + "/skewt/DEN")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestNewServeCacheBackends(t *testing.T) {
	ctx := context.Background()
	if _, err := newServeCache(ctx, serveConfig{backend: "nosuch"}); err == nil {
		t.Error("unknown backend should error")
	}
	c, err := newServeCache(ctx, serveConfig{backend: "none"})
	if err != nil {
		t.Fatalf("none backend error: %v", err)
	}
	defer c.Close()
}
