package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbrenner/wxplot/pkg/cache"
	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/fonts"
)

func writeFieldFile(t *testing.T, dir string) string {
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
	path := filepath.Join(dir, "temp_850.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeProfileFile(t *testing.T, dir, siteCode string) string {
	t.Helper()
	levels := 30
	pres := make([]float64, levels)
	gh := make([]float64, levels)
	temp := make([]float64, levels)
	dewpt := make([]float64, levels)
	sphum := make([]float64, levels)
	u := make([]float64, levels)
	v := make([]float64, levels)
	for i := 0; i < levels; i++ {
		f := float64(i) / float64(levels-1)
		pres[i] = 100000 - 85000*f
		gh[i] = 100 + 15000*f
		temp[i] = 300 - 70*f
		dewpt[i] = temp[i] - 8
		sphum[i] = 0.01 * (1 - f)
		u[i] = 5 + 20*f
		v[i] = 3 + 8*f
	}
	doc := map[string]any{
		"site":     map[string]any{"code": siteCode, "num": 72469, "name": "Denver", "lat": 39.77, "lon": -104.87},
		"anl_time": "2021052315",
		"fhr":      9,
		"pres":     pres,
		"gh":       gh,
		"temp":     temp,
		"dewpt":    dewpt,
		"sphum":    sphum,
		"u":        u,
		"v":        v,
		"thermo":   map[string]float64{"cape": 900, "cin": -20},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "sounding.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.Code
	}{
		{"missing kind", Options{DataFile: "f.json"}, errors.ErrCodeInvalidInput},
		{"bad kind", Options{Kind: "scatter", DataFile: "f.json"}, errors.ErrCodeInvalidInput},
		{"missing data file", Options{Kind: KindMap, Variable: "temp"}, errors.ErrCodeInvalidInput},
		{"map without variable", Options{Kind: KindMap, DataFile: "f.json"}, errors.ErrCodeInvalidVariable},
		{"bad format", Options{Kind: KindMap, DataFile: "f", Variable: "temp", Formats: []string{"svg"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want code %s", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	opts := Options{Kind: KindMap, DataFile: "f.json", Variable: "temp"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Region != DefaultRegion || opts.Width != DefaultMapWidth || opts.Height != DefaultMapHeight {
		t.Errorf("map defaults = %s %dx%d", opts.Region, opts.Width, opts.Height)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("formats default = %v", opts.Formats)
	}
	if opts.TTL != DefaultTTL {
		t.Errorf("ttl default = %v", opts.TTL)
	}

	skew := Options{Kind: KindSkewT, DataFile: "f.json"}
	if err := skew.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if skew.Width != DefaultSkewTSize || skew.Height != DefaultSkewTSize {
		t.Errorf("skewt defaults = %dx%d", skew.Width, skew.Height)
	}
}

func TestValidateIdempotent(t *testing.T) {
	opts := Options{Kind: KindSkewT, DataFile: "f.json", Width: 640}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Width != 640 {
		t.Errorf("width = %d after revalidation, want 640", opts.Width)
	}
}

func TestExecuteMap(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	path := writeFieldFile(t, t.TempDir())
	runner := NewRunner(nil, nil, nil)

	res, err := runner.Execute(context.Background(), Options{
		Kind:     KindMap,
		DataFile: path,
		Variable: "temp",
		Region:   "fv3",
		Width:    400,
		Height:   320,
		Formats:  []string{FormatPNG, FormatPreview},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.RunID == "" {
		t.Error("missing run ID")
	}
	if len(res.Artifacts[FormatPNG]) == 0 || len(res.Artifacts[FormatPreview]) == 0 {
		t.Error("missing artifacts")
	}
	if len(res.Artifacts[FormatPreview]) >= len(res.Artifacts[FormatPNG]) {
		t.Error("preview should be smaller than the full render")
	}
	if res.Stats.GridPoints != 30 {
		t.Errorf("GridPoints = %d, want 30", res.Stats.GridPoints)
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run cannot be a cache hit")
	}
}

func TestExecuteSkewT(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	path := writeProfileFile(t, t.TempDir(), "DEN")
	runner := NewRunner(nil, nil, nil)

	res, err := runner.Execute(context.Background(), Options{
		Kind:     KindSkewT,
		DataFile: path,
		Site:     "den",
		Width:    500,
		Height:   500,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Artifacts[FormatPNG]) == 0 {
		t.Error("missing png artifact")
	}
}

func TestExecuteSiteMismatch(t *testing.T) {
	path := writeProfileFile(t, t.TempDir(), "DEN")
	runner := NewRunner(nil, nil, nil)

	_, err := runner.Execute(context.Background(), Options{
		Kind:     KindSkewT,
		DataFile: path,
		Site:     "OUN",
	})
	if !errors.Is(err, errors.ErrCodeSiteNotFound) {
		t.Errorf("Execute() error = %v, want SITE_NOT_FOUND", err)
	}
}

func TestExecuteUnknownVariable(t *testing.T) {
	path := writeFieldFile(t, t.TempDir())
	runner := NewRunner(nil, nil, nil)

	_, err := runner.Execute(context.Background(), Options{
		Kind:     KindMap,
		DataFile: path,
		Variable: "nosuchvar",
	})
	if !errors.Is(err, errors.ErrCodeInvalidVariable) {
		t.Errorf("Execute() error = %v, want INVALID_VARIABLE", err)
	}
}

func TestExecuteMissingDataFile(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		Kind:     KindMap,
		DataFile: "/nonexistent/field.json",
		Variable: "temp",
	})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Execute() error = %v, want NOT_FOUND_FILE", err)
	}
}

func TestExecuteCachesSecondRun(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	dir := t.TempDir()
	path := writeFieldFile(t, dir)
	c, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	runner := NewRunner(c, nil, nil)

	opts := Options{
		Kind:     KindMap,
		DataFile: path,
		Variable: "temp",
		Region:   "fv3",
		Width:    300,
		Height:   260,
	}
	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the cache")
	}
	if string(first.Artifacts[FormatPNG]) != string(second.Artifacts[FormatPNG]) {
		t.Error("cached artifact differs from the rendered one")
	}

	// Clearing drops the entry, forcing a re-render.
	if err := runner.ClearCache(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("run after ClearCache should miss")
	}
}

func TestFigureKeysDifferByFormat(t *testing.T) {
	k := cache.NewDefaultKeyer()
	opts := Options{Kind: KindMap, DataFile: "f", Variable: "temp"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k1 := k.FigureKey("h", opts.FigureKeyOpts(FormatPNG, nil))
	k2 := k.FigureKey("h", opts.FigureKeyOpts(FormatPreview, nil))
	if k1 == k2 {
		t.Error("png and preview must not share cache keys")
	}
}

func TestFigureKeysDifferByTopPressure(t *testing.T) {
	k := cache.NewDefaultKeyer()
	full := Options{Kind: KindSkewT, DataFile: "f", Site: "DEN"}
	cut := Options{Kind: KindSkewT, DataFile: "f", Site: "DEN", TopPressure: 500}
	if err := full.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := cut.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k1 := k.FigureKey("h", full.FigureKeyOpts(FormatPNG, nil))
	k2 := k.FigureKey("h", cut.FigureKeyOpts(FormatPNG, nil))
	if k1 == k2 {
		t.Error("renders differing only in top pressure must not share cache keys")
	}
}

func TestAuxHashesCoverOverlayContent(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.json")
	if err := os.WriteFile(overlay, []byte(`{"v":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{Kind: KindMap, DataFile: "f", Variable: "temp", ContourFiles: []string{overlay}}
	first, err := auxHashes(opts)
	if err != nil {
		t.Fatalf("auxHashes() error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("aux hashes = %v, want one entry", first)
	}

	// Rewriting the overlay must change the hash, and so the figure key.
	if err := os.WriteFile(overlay, []byte(`{"v":2}`), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := auxHashes(opts)
	if err != nil {
		t.Fatal(err)
	}
	if first[0] == second[0] {
		t.Error("overlay content change must change the aux hash")
	}

	k := cache.NewDefaultKeyer()
	if k.FigureKey("h", opts.FigureKeyOpts(FormatPNG, first)) ==
		k.FigureKey("h", opts.FigureKeyOpts(FormatPNG, second)) {
		t.Error("figure keys must track overlay contents")
	}
}

func TestAuxHashesTagRoles(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "overlay.json")
	if err := os.WriteFile(overlay, []byte(`{"v":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	asContour, err := auxHashes(Options{Kind: KindMap, DataFile: "f", Variable: "temp", ContourFiles: []string{overlay}})
	if err != nil {
		t.Fatal(err)
	}
	asHatch, err := auxHashes(Options{Kind: KindMap, DataFile: "f", Variable: "temp", HatchFiles: []string{overlay}})
	if err != nil {
		t.Fatal(err)
	}
	if asContour[0] == asHatch[0] {
		t.Error("the same file used as contour and as hatch must hash differently")
	}
}

func TestAuxHashesMissingFile(t *testing.T) {
	opts := Options{Kind: KindMap, DataFile: "f", Variable: "temp", SpecFile: "/nonexistent/specs.toml"}
	if _, err := auxHashes(opts); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("auxHashes() error = %v, want FILE_NOT_FOUND", err)
	}
}
