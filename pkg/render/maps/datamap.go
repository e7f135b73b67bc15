package maps

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/contourmap"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
	"github.com/nbrenner/wxplot/pkg/fonts"
	"github.com/nbrenner/wxplot/pkg/geo"
	"github.com/nbrenner/wxplot/pkg/label"
	"github.com/nbrenner/wxplot/pkg/render/barb"
	"github.com/nbrenner/wxplot/pkg/render/colormap"
	"github.com/nbrenner/wxplot/pkg/spec"
)

// Figure layout in pixels.
const (
	marginLeft   = 30
	marginRight  = 30
	marginTop    = 80
	marginBottom = 140

	colorbarHeight = 22
	colorbarGap    = 16
)

// Wind barb placement: one barb every barbStrideY rows and barbStrideX
// columns of the grid.
const (
	barbStrideY = 30
	barbStrideX = 35
	barbLength  = 25.0
)

// labelLevelStride labels every n-th contour level.
const labelLevelStride = 4

// layer is a secondary field drawn over the shaded one.
type layer struct {
	field *field.Field
	vspec spec.VarSpec
}

// DataMap combines a shaded field with a base map and optional overlay
// layers into one figure.
type DataMap struct {
	field *field.Field
	vspec spec.VarSpec
	m     *Map

	contours []layer
	hatches  []layer
}

// Option configures a DataMap.
type Option func(*DataMap)

// WithContour adds a contoured overlay field.
func WithContour(f *field.Field, vs spec.VarSpec) Option {
	return func(d *DataMap) { d.contours = append(d.contours, layer{field: f, vspec: vs}) }
}

// WithHatch adds a hatched overlay field. The hatch levels come from the
// overlay spec's hatch style.
func WithHatch(f *field.Field, vs spec.VarSpec) Option {
	return func(d *DataMap) { d.hatches = append(d.hatches, layer{field: f, vspec: vs}) }
}

// NewDataMap builds a figure for a shaded field on the given base map.
func NewDataMap(f *field.Field, vs spec.VarSpec, m *Map, opts ...Option) *DataMap {
	d := &DataMap{field: f, vspec: vs, m: m}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render draws the full figure at the given pixel size.
func (d *DataMap) Render(width, height int) (image.Image, error) {
	if err := d.field.Grid.Validate(); err != nil {
		return nil, err
	}
	levels := d.vspec.Levels()
	if len(levels) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "variable %s has no contour levels", d.field.ShortName)
	}
	cmap := d.vspec.CMap
	if cmap == "" {
		cmap = "jet"
	}
	// One band below the first level, one above the last, one per interval.
	colors, err := colormap.Colors(cmap, len(levels)+1)
	if err != nil {
		return nil, err
	}

	proj := d.m.Region.Projection()
	minX, minY, maxX, maxY := d.m.bounds()
	plotW := float64(width - marginLeft - marginRight)
	plotH := float64(height - marginTop - marginBottom)
	fit := geo.FitRect(minX, minY, maxX, maxY, plotW, plotH)
	fit.OffsetX += marginLeft
	fit.OffsetY += marginTop
	device := geo.Compose{proj, fit}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.Push()
	dc.DrawRectangle(marginLeft, marginTop, plotW, plotH)
	dc.Clip()

	d.shade(dc, device, levels, colors)
	d.m.drawBase(dc, device)

	for _, h := range d.hatches {
		if err := d.drawHatch(dc, device, h); err != nil {
			dc.Pop()
			return nil, err
		}
	}
	for _, c := range d.contours {
		if err := d.drawContours(dc, proj, fit, c); err != nil {
			dc.Pop()
			return nil, err
		}
	}
	if d.vspec.Wind && d.field.HasWind() {
		d.drawBarbs(dc, device)
	}

	dc.Pop()
	dc.ResetClip()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.2)
	dc.DrawRectangle(marginLeft, marginTop, plotW, plotH)
	dc.Stroke()

	if err := d.drawColorbar(dc, float64(marginLeft), float64(height-marginBottom)+colorbarGap, plotW, levels, colors); err != nil {
		return nil, err
	}
	if err := d.drawTitle(dc, width, height); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// shade fills each grid cell with the color band of its value.
func (d *DataMap) shade(dc *gg.Context, t geo.Transform, levels []float64, colors []color.Color) {
	g := &d.field.Grid
	mesh := g.Mesh(t)
	dc.SetLineWidth(0.5)
	for j := 0; j < g.NY-1; j++ {
		for i := 0; i < g.NX-1; i++ {
			p00 := mesh[j*g.NX+i]
			p10 := mesh[j*g.NX+i+1]
			p11 := mesh[(j+1)*g.NX+i+1]
			p01 := mesh[(j+1)*g.NX+i]
			dc.SetColor(colors[bandIndex(g.At(i, j), levels)])
			dc.MoveTo(p00.X, p00.Y)
			dc.LineTo(p10.X, p10.Y)
			dc.LineTo(p11.X, p11.Y)
			dc.LineTo(p01.X, p01.Y)
			dc.ClosePath()
			// Stroke with the fill color to close hairline seams between cells.
			dc.FillPreserve()
			dc.Stroke()
		}
	}
}

// bandIndex returns the color band for a value: 0 below the first level,
// len(levels) at or above the last.
func bandIndex(v float64, levels []float64) int {
	for k, lvl := range levels {
		if v < lvl {
			return k
		}
	}
	return len(levels)
}

// drawContours extracts contour polylines for an overlay and strokes them,
// labeling every labelLevelStride-th level along the lines. The shaded
// field and hatched fields are never labeled.
func (d *DataMap) drawContours(dc *gg.Context, proj geo.Transform, fit geo.Affine, c layer) error {
	g := &c.field.Grid
	if err := g.Validate(); err != nil {
		return err
	}
	levels := c.vspec.Levels()
	style := c.vspec.Contour
	if style != nil && len(style.Levels) > 0 {
		levels = style.Levels
	}
	if len(levels) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "contour overlay %s has no levels", c.field.ShortName)
	}

	lineColor := "#1a1a1a"
	lineWidth := 1.0
	if style != nil {
		if style.Color != "" {
			lineColor = style.Color
		}
		if style.Width > 0 {
			lineWidth = style.Width
		}
	}

	projMesh := g.Mesh(proj)
	cm := contourmap.FromFloat64s(g.NX, g.NY, g.Values)

	labelFace, err := fonts.Regular(10)
	if err != nil {
		return err
	}

	labeled := d.labelable(c.field.ShortName)
	for li, lvl := range levels {
		dc.SetHexColor(lineColor)
		dc.SetLineWidth(lineWidth)
		var lines []label.Polyline
		for _, contour := range cm.Contours(lvl) {
			line := make(label.Polyline, 0, len(contour))
			for _, pt := range contour {
				line = append(line, interpMesh(projMesh, g.NX, g.NY, pt.X, pt.Y))
			}
			if len(line) < 2 {
				continue
			}
			strokePolyline(dc, fit, line)
			lines = append(lines, line)
		}
		if !labeled || li%labelLevelStride != 0 {
			continue
		}
		text := fmt.Sprintf("%.0f", lvl)
		for _, line := range lines {
			anchor := label.Anchor{End: label.Start, Offset: (len(line) - 1) / 2}
			placed, err := label.Place(line, anchor, fit, true)
			if err != nil {
				return err
			}
			drawLineLabel(dc, labelFace, text, placed)
		}
	}
	return nil
}

// labelable reports whether an overlay with this short name gets inline
// labels: the shaded field and hatched fields do not.
func (d *DataMap) labelable(shortName string) bool {
	if shortName == d.field.ShortName {
		return false
	}
	for _, h := range d.hatches {
		if shortName == h.field.ShortName {
			return false
		}
	}
	return true
}

// drawLineLabel draws white text in a black box, rotated along the line.
func drawLineLabel(dc *gg.Context, face font.Face, text string, p label.Placement) {
	rot := p.Rotation
	// Keep labels upright.
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
	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(p.Anchor.X-w/2-2, p.Anchor.Y-h/2-2, w+4, h+4)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, p.Anchor.X, p.Anchor.Y, 0.5, 0.35)
	dc.Pop()
}

// drawHatch marks cells whose value falls inside the overlay's hatch level
// range with diagonal strokes.
func (d *DataMap) drawHatch(dc *gg.Context, t geo.Transform, h layer) error {
	g := &h.field.Grid
	if err := g.Validate(); err != nil {
		return err
	}
	style := h.vspec.Hatch
	if style == nil || len(style.Levels) < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "hatch overlay %s needs a hatch level range", h.field.ShortName)
	}
	lo, hi := style.Levels[0], style.Levels[len(style.Levels)-1]

	hatchColor := "#333333"
	hatchWidth := 0.5
	if style.Color != "" {
		hatchColor = style.Color
	}
	if style.Width > 0 {
		hatchWidth = style.Width
	}
	dc.SetHexColor(hatchColor)
	dc.SetLineWidth(hatchWidth)

	mesh := g.Mesh(t)
	for j := 0; j < g.NY-1; j++ {
		for i := 0; i < g.NX-1; i++ {
			v := g.At(i, j)
			if v < lo || v > hi {
				continue
			}
			p00 := mesh[j*g.NX+i]
			p11 := mesh[(j+1)*g.NX+i+1]
			p10 := mesh[j*g.NX+i+1]
			p01 := mesh[(j+1)*g.NX+i]
			dc.DrawLine(p00.X, p00.Y, p11.X, p11.Y)
			dc.DrawLine(p10.X, p10.Y, p01.X, p01.Y)
			dc.Stroke()
		}
	}
	return nil
}

// drawBarbs plots stride-masked wind barbs in knots.
func (d *DataMap) drawBarbs(dc *gg.Context, t geo.Transform) {
	g := &d.field.Grid
	mesh := g.Mesh(t)
	ukt := field.MsToKt(d.field.U)
	vkt := field.MsToKt(d.field.V)

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(0.6)
	for j := 0; j < g.NY; j += barbStrideY {
		for i := 0; i < g.NX; i += barbStrideX {
			idx := j*g.NX + i
			p := mesh[idx]
			barb.Draw(dc, p.X, p.Y, ukt[idx], vkt[idx], barbLength)
		}
	}
}

// drawColorbar draws the horizontal colorbar with tick labels chosen by the
// variable's tick policy.
func (d *DataMap) drawColorbar(dc *gg.Context, x, y, w float64, levels []float64, colors []color.Color) error {
	n := len(colors)
	bw := w / float64(n)
	for k, c := range colors {
		dc.SetColor(c)
		dc.DrawRectangle(x+float64(k)*bw, y, bw+0.5, colorbarHeight)
		dc.Fill()
	}
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, colorbarHeight)
	dc.Stroke()

	face, err := fonts.Regular(14)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	// The interior band boundaries span levels[0] to levels[last]; the two
	// extend bands sit outside that range.
	v0 := levels[0]
	v1 := levels[len(levels)-1]
	span := w - 2*bw
	for _, v := range tickValues(levels, d.vspec.Ticks) {
		fx := x + bw + (v-v0)/(v1-v0)*span
		dc.DrawLine(fx, y+colorbarHeight, fx, y+colorbarHeight+4)
		dc.Stroke()
		dc.DrawStringAnchored(formatTick(v), fx, y+colorbarHeight+8, 0.5, 1)
	}
	return nil
}

// tickValues selects colorbar tick values. A positive policy steps from the
// smallest to the largest level; zero uses the levels themselves; a negative
// policy takes every |n|-th level.
func tickValues(levels []float64, ticks float64) []float64 {
	switch {
	case ticks > 0:
		min, max := levels[0], levels[len(levels)-1]
		var out []float64
		for v := min; v < max+1; v += ticks {
			out = append(out, v)
		}
		return out
	case ticks == 0:
		return levels
	default:
		stride := int(-ticks)
		var out []float64
		for i := 0; i < len(levels); i += stride {
			out = append(out, levels[i])
		}
		return out
	}
}

func formatTick(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

// drawTitle draws the annotation block: analysis time and forecast hour on
// the left, level in the center when the spec carries no title, shaded and
// contoured descriptors on the right, valid time along the bottom.
func (d *DataMap) drawTitle(dc *gg.Context, width, height int) error {
	face, err := fonts.Regular(14)
	if err != nil {
		return err
	}
	bold, err := fonts.Bold(16)
	if err != nil {
		return err
	}

	f := d.field
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)

	atime := field.FormatTimestamp(f.AnalysisTime)
	vtime := field.FormatTimestamp(f.ValidTime())

	dc.DrawStringAnchored(fmt.Sprintf("Analysis: %s", atime), marginLeft, 22, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("Fcst Hr: %d", f.FcstHour), marginLeft, 44, 0, 0.5)

	title := d.vspec.Title
	if title == "" {
		title = f.LongName
		dc.SetFontFace(bold)
		dc.DrawStringAnchored(fmt.Sprintf("%g %s", f.Level, f.LevelUnit), float64(width)/2, 30, 0.5, 0.5)
		dc.SetFontFace(face)
	}

	dc.DrawStringAnchored(fmt.Sprintf("%s (%s, shaded)", title, d.vspec.Unit),
		float64(width-marginRight), 22, 1, 0.5)
	if desc := d.overlayDescriptor(); desc != "" {
		dc.DrawStringAnchored(desc, float64(width-marginRight), 44, 1, 0.5)
	}

	dc.DrawStringAnchored(fmt.Sprintf("Valid time: %s", vtime),
		float64(width)/2, float64(height)-18, 0.5, 0.5)
	return nil
}

// overlayDescriptor builds the second title line naming hatched and
// contoured overlays.
func (d *DataMap) overlayDescriptor() string {
	var parts []string
	for i, h := range d.hatches {
		if i > 0 || h.field.ShortName == "pres" {
			continue
		}
		title := h.vspec.Title
		if title == "" {
			title = h.field.LongName
		}
		parts = append(parts, fmt.Sprintf("%s (%s, hatched)", title, h.vspec.Unit))
	}
	for _, c := range d.contours {
		if !d.labelable(c.field.ShortName) {
			continue
		}
		title := c.vspec.Title
		if title == "" {
			title = c.field.LongName
		}
		parts = append(parts, fmt.Sprintf("%s (%s, contoured)", title, c.vspec.Unit))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// interpMesh bilinearly interpolates a projected mesh at fractional grid
// coordinates (x across columns, y across rows).
func interpMesh(mesh []geo.Point, nx, ny int, x, y float64) geo.Point {
	i := int(math.Floor(x))
	j := int(math.Floor(y))
	if i < 0 {
		i = 0
	}
	if i > nx-2 {
		i = nx - 2
	}
	if j < 0 {
		j = 0
	}
	if j > ny-2 {
		j = ny - 2
	}
	fx := x - float64(i)
	fy := y - float64(j)
	p00 := mesh[j*nx+i]
	p10 := mesh[j*nx+i+1]
	p01 := mesh[(j+1)*nx+i]
	p11 := mesh[(j+1)*nx+i+1]
	top := geo.Point{X: p00.X + fx*(p10.X-p00.X), Y: p00.Y + fx*(p10.Y-p00.Y)}
	bot := geo.Point{X: p01.X + fx*(p11.X-p01.X), Y: p01.Y + fx*(p11.Y-p01.Y)}
	return geo.Point{X: top.X + fy*(bot.X-top.X), Y: top.Y + fy*(bot.Y-top.Y)}
}
