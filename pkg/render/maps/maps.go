// Package maps renders horizontal weather maps. Map is the base layer: a
// projected domain with graticule, political boundary polylines and airport
// markers. DataMap shades a gridded field on top of a Map and adds contour,
// hatch, wind barb, colorbar and title layers.
package maps

import (
	"bufio"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/geo"
)

// graticuleStep is the spacing in degrees of the drawn lat/lon grid.
const graticuleStep = 5.0

// Map is the base layer of a map figure.
type Map struct {
	Region geo.Region

	airports   []geo.Point // lon/lat
	boundaries [][]geo.Point
}

// MapOption configures a Map.
type MapOption func(*Map)

// WithAirports adds airport marker locations (lon/lat points).
func WithAirports(pts []geo.Point) MapOption {
	return func(m *Map) { m.airports = pts }
}

// WithBoundaries adds political boundary polylines (lon/lat points).
func WithBoundaries(lines [][]geo.Point) MapOption {
	return func(m *Map) { m.boundaries = lines }
}

// New builds the base map for a named region.
func New(region string, opts ...MapOption) (*Map, error) {
	r, err := geo.RegionByName(region)
	if err != nil {
		return nil, err
	}
	m := &Map{Region: r}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// LoadAirports reads airport locations from a text file of "lat,lon" lines.
func LoadAirports(path string) ([]geo.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open airports file %s", path)
	}
	defer f.Close()

	var pts []geo.Point
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "airports file %s line %d: want lat,lon", path, line)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "airports file %s line %d", path, line)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "airports file %s line %d", path, line)
		}
		pts = append(pts, geo.Point{X: lon, Y: lat})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read airports file %s", path)
	}
	return pts, nil
}

// LoadBoundaries reads boundary polylines from a JSON file of
// [[[lat, lon], ...], ...] arrays.
func LoadBoundaries(path string) ([][]geo.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open boundaries file %s", path)
	}
	var raw [][][2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse boundaries file %s", path)
	}
	lines := make([][]geo.Point, 0, len(raw))
	for _, seg := range raw {
		line := make([]geo.Point, 0, len(seg))
		for _, ll := range seg {
			line = append(line, geo.Point{X: ll[1], Y: ll[0]})
		}
		if len(line) >= 2 {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// edgeSamples is the number of points sampled along each domain edge when
// computing the projected bounding box. The projected edges curve, so
// corners alone undershoot the box.
const edgeSamples = 25

// bounds returns the projection-space bounding box of the region.
func (m *Map) bounds() (minX, minY, maxX, maxY float64) {
	proj := m.Region.Projection()
	first := true
	sample := func(lon, lat float64) {
		p := proj.Project(geo.Point{X: lon, Y: lat})
		if first {
			minX, maxX = p.X, p.X
			minY, maxY = p.Y, p.Y
			first = false
			return
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	r := m.Region
	for i := 0; i <= edgeSamples; i++ {
		f := float64(i) / edgeSamples
		lon := r.LLLon + f*(r.URLon-r.LLLon)
		lat := r.LLLat + f*(r.URLat-r.LLLat)
		sample(lon, r.LLLat)
		sample(lon, r.URLat)
		sample(r.LLLon, lat)
		sample(r.URLon, lat)
	}
	return minX, minY, maxX, maxY
}

// drawBase draws the graticule, boundaries and airports through the full
// data-to-device transform.
func (m *Map) drawBase(dc *gg.Context, t geo.Transform) {
	m.drawGraticule(dc, t)

	dc.SetHexColor("#4d4d4d")
	dc.SetLineWidth(1.0)
	for _, line := range m.boundaries {
		strokePolyline(dc, t, line)
	}

	for _, a := range m.airports {
		p := t.Project(a)
		dc.SetRGB(1, 1, 1)
		dc.DrawCircle(p.X, p.Y, 2.5)
		dc.FillPreserve()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(0.5)
		dc.Stroke()
	}
}

func (m *Map) drawGraticule(dc *gg.Context, t geo.Transform) {
	dc.SetHexColor("#c8c8c8")
	dc.SetLineWidth(0.5)
	r := m.Region

	lonStart := graticuleStep * float64(int(r.LLLon/graticuleStep))
	for lon := lonStart; lon <= r.URLon; lon += graticuleStep {
		var line []geo.Point
		for i := 0; i <= edgeSamples; i++ {
			lat := r.LLLat + float64(i)/edgeSamples*(r.URLat-r.LLLat)
			line = append(line, geo.Point{X: lon, Y: lat})
		}
		strokePolyline(dc, t, line)
	}

	latStart := graticuleStep * float64(int(r.LLLat/graticuleStep))
	for lat := latStart; lat <= r.URLat; lat += graticuleStep {
		var line []geo.Point
		for i := 0; i <= edgeSamples; i++ {
			lon := r.LLLon + float64(i)/edgeSamples*(r.URLon-r.LLLon)
			line = append(line, geo.Point{X: lon, Y: lat})
		}
		strokePolyline(dc, t, line)
	}
}

func strokePolyline(dc *gg.Context, t geo.Transform, line []geo.Point) {
	if len(line) < 2 {
		return
	}
	p := t.Project(line[0])
	dc.MoveTo(p.X, p.Y)
	for _, q := range line[1:] {
		d := t.Project(q)
		dc.LineTo(d.X, d.Y)
	}
	dc.Stroke()
}
