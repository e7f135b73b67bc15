package skewt

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
	"github.com/nbrenner/wxplot/pkg/fonts"
	"github.com/nbrenner/wxplot/pkg/geo"
	"github.com/nbrenner/wxplot/pkg/label"
	"github.com/nbrenner/wxplot/pkg/render/barb"
)

// Diagram extents and layout.
const (
	bottomPressure = 1050.0 // hPa
	defaultTop     = 100.0  // hPa
	tempMin        = -35.0  // degC along the bottom edge
	tempMax        = 50.0

	marginLeft   = 70
	marginRight  = 95
	marginTop    = 70
	marginBottom = 60

	// Label anchor offset along sloped background lines, in points from
	// the bottom end.
	adiabatLabelOffset = 8

	maxBarbs   = 35
	barbLength = 22.0
)

// SkewT renders one sounding profile.
type SkewT struct {
	profile *field.Profile

	topPressure float64 // hPa
}

// Option configures a SkewT.
type Option func(*SkewT)

// WithTopPressure truncates the diagram at the given pressure level in hPa.
func WithTopPressure(hpa float64) Option {
	return func(s *SkewT) { s.topPressure = hpa }
}

// New builds a skew-T figure for a profile.
func New(p *field.Profile, opts ...Option) *SkewT {
	s := &SkewT{profile: p, topPressure: defaultTop}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render draws the diagram at the given pixel size.
func (s *SkewT) Render(width, height int) (image.Image, error) {
	if err := s.profile.Validate(); err != nil {
		return nil, err
	}
	prof := s.profile.Truncate(s.topPressure * 100)
	if prof.Levels() < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"profile for %s has fewer than 2 levels below %g hPa", prof.Site.Code, s.topPressure)
	}

	plotW := float64(width - marginLeft - marginRight)
	plotH := float64(height - marginTop - marginBottom)
	skew := Transform{
		PMin: s.topPressure, PMax: bottomPressure,
		TMin: tempMin, TMax: tempMax,
		Width: plotW, Height: plotH,
	}
	device := geo.Compose{skew, geo.Affine{ScaleX: 1, ScaleY: 1, OffsetX: marginLeft, OffsetY: marginTop}}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	small, err := fonts.Regular(9)
	if err != nil {
		return nil, err
	}

	dc.Push()
	dc.DrawRectangle(marginLeft, marginTop, plotW, plotH)
	dc.Clip()

	if err := s.drawBackground(dc, device, small); err != nil {
		return nil, err
	}
	s.drawTraces(dc, device, prof)

	dc.Pop()
	dc.ResetClip()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.2)
	dc.DrawRectangle(marginLeft, marginTop, plotW, plotH)
	dc.Stroke()

	if err := s.drawAxes(dc, device, width, height); err != nil {
		return nil, err
	}
	s.drawBarbs(dc, device, prof, float64(width-marginRight)+45)
	s.drawHodograph(dc, prof, marginLeft+12, marginTop+12, plotW*0.3)
	if err := s.drawThermoInset(dc, prof, marginLeft+plotW*0.62, marginTop+plotH*0.02); err != nil {
		return nil, err
	}
	if err := s.drawTitle(dc, prof, width); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// drawBackground draws the special line families with their labels.
func (s *SkewT) drawBackground(dc *gg.Context, device geo.Transform, face font.Face) error {
	top := s.topPressure

	// Isobars every 100 hPa.
	dc.SetHexColor("#b0b0b0")
	dc.SetLineWidth(0.7)
	for _, p := range isobarLevels {
		if p < top || p > bottomPressure {
			continue
		}
		strokeLine(dc, device, label.Polyline{point(tempMin - 100, p), point(tempMax + 20, p)})
	}

	for _, bg := range []struct {
		fam    family
		color  string
		offset int
		dashed bool
	}{
		{isotherms(bottomPressure, top), "#b0b0b0", 0, false},
		{dryAdiabats(bottomPressure, top), "#d2b48c", adiabatLabelOffset, false},
		{moistAdiabats(bottomPressure, top), "#2e8b57", adiabatLabelOffset, false},
		{mixingLines(bottomPressure, top), "#2e8b57", 2, true},
	} {
		dc.SetHexColor(bg.color)
		dc.SetLineWidth(0.7)
		if bg.dashed {
			dc.SetDash(4, 3)
		}
		for _, line := range bg.fam.lines {
			strokeLine(dc, device, line)
		}
		dc.SetDash()

		placed, err := label.PlaceAll(bg.fam.lines, bg.fam.labels, device, bg.offset)
		if err != nil {
			return err
		}
		for _, pl := range placed {
			drawLineLabel(dc, face, fmt.Sprintf("%g", pl.Label), pl.Placement, bg.color)
		}
	}
	return nil
}

// drawTraces draws the temperature and dewpoint profiles.
func (s *SkewT) drawTraces(dc *gg.Context, device geo.Transform, prof *field.Profile) {
	temp := field.KToC(prof.Temp)
	dewpt := field.KToC(prof.Dewpoint)
	pres := field.PaToHPa(prof.Pressure)

	for _, trace := range []struct {
		vals  []float64
		color string
	}{
		{temp, "#cc0000"},
		{dewpt, "#0000cc"},
	} {
		line := make(label.Polyline, len(pres))
		for i := range pres {
			line[i] = point(trace.vals[i], pres[i])
		}
		dc.SetHexColor(trace.color)
		dc.SetLineWidth(1.8)
		strokeLine(dc, device, line)
	}
}

// drawAxes labels the pressure axis on the left and the temperature axis
// along the bottom.
func (s *SkewT) drawAxes(dc *gg.Context, device geo.Transform, width, height int) error {
	face, err := fonts.Regular(11)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetRGB(0, 0, 0)

	for _, p := range isobarLevels {
		if p < s.topPressure || p > bottomPressure {
			continue
		}
		d := device.Project(point(tempMin, p))
		dc.DrawStringAnchored(fmt.Sprintf("%g", p), marginLeft-6, d.Y, 1, 0.5)
	}
	for t := tempMin; t <= tempMax; t += 10 {
		d := device.Project(point(t, bottomPressure))
		dc.DrawStringAnchored(fmt.Sprintf("%g", t), d.X, float64(height-marginBottom)+6, 0.5, 1)
	}

	dc.DrawStringAnchored("Temperature (C)", float64(width)/2, float64(height-marginBottom)+28, 0.5, 1)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 20, float64(height)/2)
	dc.DrawStringAnchored("Pressure (hPa)", 20, float64(height)/2, 0.5, 0.5)
	dc.Pop()
	return nil
}

// drawBarbs stacks wind barbs along the right edge, one per (possibly
// strided) profile level.
func (s *SkewT) drawBarbs(dc *gg.Context, device geo.Transform, prof *field.Profile, x float64) {
	ukt := field.MsToKt(prof.U)
	vkt := field.MsToKt(prof.V)
	pres := field.PaToHPa(prof.Pressure)

	stride := 1
	if n := prof.Levels(); n > maxBarbs {
		stride = n / maxBarbs
	}

	dc.SetHexColor("#0000cc")
	dc.SetLineWidth(0.8)
	for i := 0; i < prof.Levels(); i += stride {
		d := device.Project(point(0, pres[i]))
		barb.Draw(dc, x, d.Y, ukt[i], vkt[i], barbLength)
	}
}

// Hodograph extents: component range in kt and ring spacing.
const (
	hodoRange = 80.0
	hodoRing  = 20.0
)

// drawHodograph draws the wind hodograph inset, with the trace colored by
// wind speed.
func (s *SkewT) drawHodograph(dc *gg.Context, prof *field.Profile, x, y, size float64) {
	ukt := field.MsToKt(prof.U)
	vkt := field.MsToKt(prof.V)

	cx := x + size/2
	cy := y + size/2
	scale := size / 2 / hodoRange

	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(x, y, size, size)
	dc.Fill()

	dc.SetHexColor("#c8c8c8")
	dc.SetLineWidth(0.7)
	for r := hodoRing; r <= hodoRange; r += hodoRing {
		dc.DrawCircle(cx, cy, r*scale)
		dc.Stroke()
	}
	dc.DrawLine(x, cy, x+size, cy)
	dc.DrawLine(cx, y, cx, y+size)
	dc.Stroke()

	dc.SetLineWidth(1.6)
	for i := 1; i < len(ukt); i++ {
		spd := math.Hypot(ukt[i], vkt[i])
		dc.SetHexColor(speedColor(spd))
		dc.DrawLine(
			cx+ukt[i-1]*scale, cy-vkt[i-1]*scale,
			cx+ukt[i]*scale, cy-vkt[i]*scale,
		)
		dc.Stroke()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, size, size)
	dc.Stroke()
}

// speedColor buckets a wind speed in kt into the hodograph trace colors.
func speedColor(spd float64) string {
	switch {
	case spd < 20:
		return "#1f77b4"
	case spd < 40:
		return "#2ca02c"
	case spd < 60:
		return "#ff7f0e"
	default:
		return "#d62728"
	}
}

// thermoRows fixes the order, formatting and units of the thermodynamic
// index table. Values come from the profile's index map; absent keys are
// skipped.
var thermoRows = []struct {
	key       string
	unit      string
	prec      int
	transform func(float64) float64
}{
	{key: "cape", unit: "J/kg"},
	{key: "cin", unit: "J/kg"},
	{key: "mucape", unit: "J/kg"},
	{key: "mucin", unit: "J/kg"},
	{key: "li", unit: "K", prec: 1},
	{key: "bli", unit: "K", prec: 1},
	{key: "lcl", unit: "m"},
	{key: "lpl", unit: "hPa", transform: func(v float64) float64 { return v / 100 }},
	{key: "srh03", unit: "m2/s2"},
	{key: "srh01", unit: "m2/s2"},
	{key: "shr06", unit: "kt"},
	{key: "shr01", unit: "kt"},
	{key: "pw", unit: "mm", prec: 1},
	{key: "cell", unit: "kt", transform: func(v float64) float64 { return v * 1.9438 }},
}

// thermoLines formats the index table rows for a profile.
func thermoLines(prof *field.Profile) []string {
	var lines []string
	for _, row := range thermoRows {
		v, ok := prof.Thermo[row.key]
		if !ok {
			continue
		}
		if row.transform != nil {
			v = row.transform(v)
		}
		lines = append(lines, fmt.Sprintf("%-7s: %10.*f %s", strings.ToUpper(row.key), row.prec, v, row.unit))
	}
	return lines
}

// drawThermoInset renders the index table in a white box, monospace so the
// value column aligns.
func (s *SkewT) drawThermoInset(dc *gg.Context, prof *field.Profile, x, y float64) error {
	lines := thermoLines(prof)
	if len(lines) == 0 {
		return nil
	}
	face, err := fonts.Mono(10)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	lineH := 14.0
	maxW := 0.0
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > maxW {
			maxW = w
		}
	}

	dc.SetRGBA(1, 1, 1, 0.9)
	dc.DrawRectangle(x-4, y-4, maxW+8, float64(len(lines))*lineH+8)
	dc.Fill()

	dc.SetRGB(0, 0, 0)
	for i, l := range lines {
		dc.DrawStringAnchored(l, x, y+float64(i)*lineH, 0, 1)
	}
	return nil
}

// drawTitle draws the standard annotation: analysis time and forecast hour
// left, valid time right, site description centered.
func (s *SkewT) drawTitle(dc *gg.Context, prof *field.Profile, width int) error {
	face, err := fonts.Regular(13)
	if err != nil {
		return err
	}
	smaller, err := fonts.Regular(11)
	if err != nil {
		return err
	}

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)

	atime := field.FormatTimestamp(prof.AnalysisTime)
	vtime := field.FormatTimestamp(prof.ValidTime())
	dc.DrawStringAnchored(fmt.Sprintf("Analysis: %s", atime), marginLeft, 18, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Fcst Hr: %d", prof.FcstHour), marginLeft, 38, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Valid: %s", vtime), float64(width-marginRight), 18, 1, 0.5)

	site := prof.Site
	dc.SetFontFace(smaller)
	title := fmt.Sprintf("%s %d %s at nearest grid pt over land %.2f %.2f",
		site.Code, site.Num, site.Name, site.Lat, site.Lon)
	dc.DrawStringAnchored(title, float64(width)/2, 56, 0.5, 0.5)
	return nil
}

// drawLineLabel draws a family label rotated along its line with a white
// halo box.
func drawLineLabel(dc *gg.Context, face font.Face, text string, p label.Placement, hexColor string) {
	rot := p.Rotation
	for rot > 90 {
		rot -= 180
	}
	for rot <= -90 {
		rot += 180
	}
	dc.SetFontFace(face)
	w, h := dc.MeasureString(text)
	dc.Push()
	dc.RotateAbout(gg.Radians(rot), p.Anchor.X, p.Anchor.Y)
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(p.Anchor.X-w/2-1, p.Anchor.Y-h/2-1, w+2, h+2)
	dc.Fill()
	dc.SetHexColor(hexColor)
	dc.DrawStringAnchored(text, p.Anchor.X, p.Anchor.Y, 0.5, 0.35)
	dc.Pop()
}

func strokeLine(dc *gg.Context, t geo.Transform, line label.Polyline) {
	if len(line) < 2 {
		return
	}
	d := t.Project(line[0])
	dc.MoveTo(d.X, d.Y)
	for _, q := range line[1:] {
		p := t.Project(q)
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}
