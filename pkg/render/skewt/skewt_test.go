package skewt

import (
	"math"
	"strings"
	"testing"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
	"github.com/nbrenner/wxplot/pkg/fonts"
)

func testProfile(t *testing.T, levels int) *field.Profile {
	t.Helper()
	pres := make([]float64, levels)
	height := make([]float64, levels)
	temp := make([]float64, levels)
	dewpt := make([]float64, levels)
	sphum := make([]float64, levels)
	u := make([]float64, levels)
	v := make([]float64, levels)
	for i := 0; i < levels; i++ {
		f := float64(i) / float64(levels-1)
		pres[i] = 100000 - 85000*f
		height[i] = 100 + 15000*f
		temp[i] = 300 - 70*f
		dewpt[i] = temp[i] - 5 - 20*f
		sphum[i] = 0.012 * (1 - f)
		u[i] = 5 + 25*f
		v[i] = 2 + 10*f
	}
	anl, _ := field.ParseTimestamp("2021052315")
	return &field.Profile{
		Site:         field.Site{Code: "DEN", Num: 72469, Name: "Denver", Lat: 39.77, Lon: -104.87},
		AnalysisTime: anl,
		FcstHour:     9,
		Pressure:     pres,
		Height:       height,
		Temp:         temp,
		Dewpoint:     dewpt,
		SpecHum:      sphum,
		U:            u,
		V:            v,
		Thermo: map[string]float64{
			"cape": 1250, "cin": -45, "lcl": 850, "lpl": 92500, "cell": 12.5, "pw": 22.3,
		},
	}
}

func TestThermoLines(t *testing.T) {
	prof := testProfile(t, 10)
	lines := thermoLines(prof)
	if len(lines) != 6 {
		t.Fatalf("thermoLines() = %d rows, want 6 (absent indices skipped)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "CAPE") {
		t.Errorf("first row = %q, want CAPE first", lines[0])
	}
	joined := strings.Join(lines, "\n")
	// lpl converts Pa to hPa for display.
	if !strings.Contains(joined, "925 hPa") {
		t.Errorf("rows should show lpl as 925 hPa:\n%s", joined)
	}
	// cell converts m/s to kt.
	if !strings.Contains(joined, "24 kt") {
		t.Errorf("rows should show cell motion in kt:\n%s", joined)
	}
}

func TestThermoLinesAligned(t *testing.T) {
	lines := thermoLines(testProfile(t, 10))
	colon := strings.Index(lines[0], ":")
	for _, l := range lines {
		if strings.Index(l, ":") != colon {
			t.Errorf("misaligned row %q", l)
		}
	}
}

func TestSpeedColorBuckets(t *testing.T) {
	if speedColor(5) == speedColor(70) {
		t.Error("slow and fast winds should differ in color")
	}
}

func TestRender(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	s := New(testProfile(t, 40))
	img, err := s.Render(700, 700)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 700 || b.Dy() != 700 {
		t.Errorf("Render() size = %dx%d, want 700x700", b.Dx(), b.Dy())
	}
}

func TestRenderTopPressureCutoff(t *testing.T) {
	if _, err := fonts.Regular(10); err != nil {
		t.Skip("no system fonts available")
	}
	s := New(testProfile(t, 40), WithTopPressure(400))
	if _, err := s.Render(600, 600); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
}

func TestRenderInvalidProfile(t *testing.T) {
	prof := testProfile(t, 10)
	prof.Temp = prof.Temp[:3]
	s := New(prof)
	if _, err := s.Render(600, 600); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render() error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderCutoffTooAggressive(t *testing.T) {
	prof := testProfile(t, 10)
	s := New(prof, WithTopPressure(990))
	if _, err := s.Render(600, 600); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render() error = %v, want INVALID_INPUT for near-empty profile", err)
	}
}

func TestTruncateKeepsPressureMonotonic(t *testing.T) {
	prof := testProfile(t, 40).Truncate(40000)
	for i := 1; i < prof.Levels(); i++ {
		if prof.Pressure[i] >= prof.Pressure[i-1] {
			t.Fatalf("pressure not decreasing at %d", i)
		}
	}
	if prof.Pressure[prof.Levels()-1] < 40000 {
		t.Error("Truncate left levels above the cutoff")
	}
}

func TestMoistLapseStepIndependence(t *testing.T) {
	coarse := moistLapse(24, 1050, 300, 10)
	fine := moistLapse(24, 1050, 300, 1)
	if math.Abs(coarse-fine) > 0.5 {
		t.Errorf("moistLapse step sensitivity: %v vs %v", coarse, fine)
	}
}
