package maps

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
	"github.com/nbrenner/wxplot/pkg/fonts"
	"github.com/nbrenner/wxplot/pkg/geo"
	"github.com/nbrenner/wxplot/pkg/spec"
)

func TestNewUnknownRegion(t *testing.T) {
	if _, err := New("atlantis"); !errors.Is(err, errors.ErrCodeInvalidRegion) {
		t.Errorf("New(atlantis) error = %v, want INVALID_REGION", err)
	}
}

func TestBounds(t *testing.T) {
	m, err := New("hrrr")
	if err != nil {
		t.Fatal(err)
	}
	minX, minY, maxX, maxY := m.bounds()
	if minX >= maxX || minY >= maxY {
		t.Errorf("bounds = %v,%v,%v,%v, want a non-empty box", minX, minY, maxX, maxY)
	}
}

func TestLoadAirports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.csv")
	content := "39.86, -104.67\n33.94, -118.41\n\n41.98, -87.90\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	pts, err := LoadAirports(path)
	if err != nil {
		t.Fatalf("LoadAirports() error: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("LoadAirports() = %d points, want 3", len(pts))
	}
	if pts[0].Y != 39.86 || pts[0].X != -104.67 {
		t.Errorf("first airport = %+v, want lat 39.86 lon -104.67", pts[0])
	}
}

func TestLoadAirportsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airports.csv")
	if err := os.WriteFile(path, []byte("39.86\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAirports(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("LoadAirports() error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoadAirportsMissing(t *testing.T) {
	if _, err := LoadAirports("/nonexistent/airports.csv"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadAirports() error = %v, want NOT_FOUND_FILE", err)
	}
}

func TestLoadBoundaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounds.json")
	content := `[[[40.0, -100.0], [41.0, -101.0], [42.0, -102.0]], [[30.0, -90.0]]]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err := LoadBoundaries(path)
	if err != nil {
		t.Fatalf("LoadBoundaries() error: %v", err)
	}
	// The single-point segment is dropped.
	if len(lines) != 1 || len(lines[0]) != 3 {
		t.Fatalf("LoadBoundaries() = %d segments", len(lines))
	}
	if lines[0][0].X != -100.0 || lines[0][0].Y != 40.0 {
		t.Errorf("first point = %+v, want lon -100 lat 40", lines[0][0])
	}
}

func TestBandIndex(t *testing.T) {
	levels := []float64{10, 20, 30}
	tests := []struct {
		name string
		v    float64
		want int
	}{
		{"below first", 5, 0},
		{"at first", 10, 1},
		{"mid", 25, 2},
		{"at last", 30, 3},
		{"above last", 99, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bandIndex(tt.v, levels); got != tt.want {
				t.Errorf("bandIndex(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestTickValues(t *testing.T) {
	levels := []float64{0, 5, 10, 15, 20}
	tests := []struct {
		name  string
		ticks float64
		want  []float64
	}{
		{"positive step", 10, []float64{0, 10, 20}},
		{"zero uses levels", 0, levels},
		{"negative stride", -2, []float64{0, 10, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tickValues(levels, tt.ticks)
			if len(got) != len(tt.want) {
				t.Fatalf("tickValues(%v) = %v, want %v", tt.ticks, got, tt.want)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("tickValues(%v)[%d] = %v, want %v", tt.ticks, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestInterpMesh(t *testing.T) {
	// 2x2 unit mesh.
	mesh := []geo.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	p := interpMesh(mesh, 2, 2, 0.5, 0.5)
	if math.Abs(p.X-0.5) > 1e-9 || math.Abs(p.Y-0.5) > 1e-9 {
		t.Errorf("interpMesh(0.5, 0.5) = %+v, want (0.5, 0.5)", p)
	}
	// Out-of-range coordinates clamp to the edge cells.
	p = interpMesh(mesh, 2, 2, -1, 0)
	if p.X > 0 {
		t.Errorf("interpMesh(-1, 0) = %+v, want extrapolation left of the mesh", p)
	}
}

func testField(t *testing.T, nx, ny int) *field.Field {
	t.Helper()
	lats := make([]float64, nx*ny)
	lons := make([]float64, nx*ny)
	vals := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			idx := j*nx + i
			lats[idx] = 30 + 10*float64(j)/float64(ny-1)
			lons[idx] = -100 + 10*float64(i)/float64(nx-1)
			vals[idx] = float64(i + j)
		}
	}
	anl, _ := field.ParseTimestamp("2021052315")
	return &field.Field{
		ShortName:    "temp",
		LongName:     "Temperature",
		Unit:         "F",
		Level:        850,
		LevelUnit:    "hPa",
		AnalysisTime: anl,
		FcstHour:     6,
		Grid:         field.Grid{NX: nx, NY: ny, Lats: lats, Lons: lons, Values: vals},
	}
}

func TestDataMapRender(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	m, err := New("fv3")
	if err != nil {
		t.Fatal(err)
	}
	f := testField(t, 6, 5)
	vs := spec.VarSpec{
		Title: "Temperature",
		Unit:  "F",
		CMap:  "jet",
		Ticks: 2,
		Clevs: []float64{2, 4, 6, 8},
	}
	d := NewDataMap(f, vs, m)
	img, err := d.Render(400, 320)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 320 {
		t.Errorf("Render() size = %dx%d, want 400x320", b.Dx(), b.Dy())
	}
}

func TestDataMapRenderNoLevels(t *testing.T) {
	m, err := New("fv3")
	if err != nil {
		t.Fatal(err)
	}
	f := testField(t, 4, 4)
	d := NewDataMap(f, spec.VarSpec{}, m)
	if _, err := d.Render(200, 200); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render() error = %v, want INVALID_INPUT", err)
	}
}

func TestValidTimeInTitleData(t *testing.T) {
	f := testField(t, 4, 4)
	want := f.AnalysisTime.Add(6 * time.Hour)
	if !f.ValidTime().Equal(want) {
		t.Errorf("ValidTime() = %v, want %v", f.ValidTime(), want)
	}
}
