// Package field models gridded weather-model output and sounding profiles.
//
// A Field is a single 2D variable slice (one level, one forecast hour) with
// its lat/lon mesh and plot-relevant metadata. A Profile is a vertical
// column of variables at one site, used by the skew-T figure. Both are
// loaded from JSON files exported from model post-processing.
package field

import (
	"time"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/geo"
)

// TimestampLayout is the compact analysis-time format used in file metadata
// and annotations: YYYYMMDDHH.
const TimestampLayout = "2006010215"

// ParseTimestamp parses a YYYYMMDDHH string.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad timestamp %q", s)
	}
	return t, nil
}

// FormatTimestamp renders t as YYYYMMDDHH.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Grid is a 2D mesh of values with per-point geographic coordinates.
// All slices are row-major with NX columns and NY rows.
type Grid struct {
	NX, NY int
	Lats   []float64
	Lons   []float64
	Values []float64
}

// Validate checks that the mesh slices match the declared shape.
func (g *Grid) Validate() error {
	if g.NX < 2 || g.NY < 2 {
		return errors.New(errors.ErrCodeInvalidGrid, "grid must be at least 2x2, got %dx%d", g.NX, g.NY)
	}
	want := g.NX * g.NY
	for _, s := range []struct {
		name string
		n    int
	}{
		{"lats", len(g.Lats)},
		{"lons", len(g.Lons)},
		{"values", len(g.Values)},
	} {
		if s.n != want {
			return errors.New(errors.ErrCodeInvalidGrid, "%s has %d entries, want %d for %dx%d grid", s.name, s.n, want, g.NX, g.NY)
		}
	}
	return nil
}

// At returns the value at column i, row j.
func (g *Grid) At(i, j int) float64 { return g.Values[j*g.NX+i] }

// LatLonAt returns the geographic coordinates at column i, row j.
func (g *Grid) LatLonAt(i, j int) (lat, lon float64) {
	return g.Lats[j*g.NX+i], g.Lons[j*g.NX+i]
}

// MinMax returns the smallest and largest grid values.
func (g *Grid) MinMax() (min, max float64) {
	min, max = g.Values[0], g.Values[0]
	for _, v := range g.Values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Mesh projects every grid point through t, returning the device-space
// coordinates row-major like the value slice. This is the projected x/y
// mesh the map renderer draws against.
func (g *Grid) Mesh(t geo.Transform) []geo.Point {
	mesh := make([]geo.Point, len(g.Values))
	for idx := range g.Values {
		mesh[idx] = t.Project(geo.Point{X: g.Lons[idx], Y: g.Lats[idx]})
	}
	return mesh
}

// Field is one plottable variable slice with its metadata.
type Field struct {
	ShortName string
	LongName  string
	Unit      string
	Level     float64
	LevelUnit string

	AnalysisTime time.Time
	FcstHour     int

	Grid Grid

	// Optional wind components on the same mesh, for barb overlays.
	U, V []float64
}

// ValidTime is the analysis time advanced by the forecast hour.
func (f *Field) ValidTime() time.Time {
	return f.AnalysisTime.Add(time.Duration(f.FcstHour) * time.Hour)
}

// HasWind reports whether u/v components are present for barbs.
func (f *Field) HasWind() bool {
	return len(f.U) == len(f.Grid.Values) && len(f.V) == len(f.Grid.Values)
}

// Site identifies a sounding location.
type Site struct {
	Code string  `json:"code"`
	Num  int     `json:"num"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Profile is a vertical column of model output at one site, in model units:
// pressure in Pa, heights in gpm, temperatures in K, winds in m/s.
// Slices are ordered surface first and share one length.
type Profile struct {
	Site         Site
	AnalysisTime time.Time
	FcstHour     int

	Pressure []float64
	Height   []float64
	Temp     []float64
	Dewpoint []float64
	SpecHum  []float64
	U        []float64
	V        []float64

	// Derived thermodynamic indices keyed by short name (cape, cin, ...).
	Thermo map[string]float64
}

// Levels returns the number of vertical levels.
func (p *Profile) Levels() int { return len(p.Pressure) }

// ValidTime is the analysis time advanced by the forecast hour.
func (p *Profile) ValidTime() time.Time {
	return p.AnalysisTime.Add(time.Duration(p.FcstHour) * time.Hour)
}

// Validate checks that all profile slices share the pressure length and
// that pressures decrease with height.
func (p *Profile) Validate() error {
	n := len(p.Pressure)
	if n < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "profile needs at least 2 levels, got %d", n)
	}
	for _, s := range []struct {
		name string
		n    int
	}{
		{"height", len(p.Height)},
		{"temp", len(p.Temp)},
		{"dewpoint", len(p.Dewpoint)},
		{"sphum", len(p.SpecHum)},
		{"u", len(p.U)},
		{"v", len(p.V)},
	} {
		if s.n != n {
			return errors.New(errors.ErrCodeInvalidInput, "%s has %d levels, want %d", s.name, s.n, n)
		}
	}
	for i := 1; i < n; i++ {
		if p.Pressure[i] >= p.Pressure[i-1] {
			return errors.New(errors.ErrCodeInvalidInput, "pressure not decreasing at level %d", i)
		}
	}
	return nil
}

// Truncate returns a copy of the profile cut off at the first level with
// pressure below maxPres (Pa). A maxPres of 0 keeps the whole column.
func (p *Profile) Truncate(maxPres float64) *Profile {
	top := len(p.Pressure)
	if maxPres > 0 {
		for i, pres := range p.Pressure {
			if pres < maxPres {
				top = i
				break
			}
		}
	}
	out := *p
	out.Pressure = p.Pressure[:top]
	out.Height = p.Height[:top]
	out.Temp = p.Temp[:top]
	out.Dewpoint = p.Dewpoint[:top]
	out.SpecHum = p.SpecHum[:top]
	out.U = p.U[:top]
	out.V = p.V[:top]
	return &out
}
