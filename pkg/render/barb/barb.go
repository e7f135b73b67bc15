// Package barb draws meteorological wind barbs on a gg context.
//
// A barb's staff points upstream, into the wind. Speed is rounded to the
// nearest 5 kt and decomposed into pennants (50 kt), full barbs (10 kt) and
// half barbs (5 kt) hung off the staff end. Calm winds (< 2.5 kt) draw a
// small open circle.
package barb

import (
	"math"

	"github.com/fogleman/gg"
)

// calmThreshold is the speed in knots below which a circle is drawn
// instead of a staff.
const calmThreshold = 2.5

// tick geometry relative to the staff length
const (
	tickFrac    = 0.35 // full barb length
	tickSpacing = 0.15 // gap between ticks along the staff
	tickAngle   = 65.0 // degrees between staff and tick
)

// Draw renders one barb at device point (x, y) for wind components u, v in
// knots (u east, v north). The staff length is in pixels; device y grows
// downward, which Draw accounts for.
func Draw(dc *gg.Context, x, y, u, v, length float64) {
	spd := math.Hypot(u, v)
	if spd < calmThreshold {
		dc.DrawCircle(x, y, length*0.12)
		dc.Stroke()
		return
	}

	// Unit vector pointing upstream, in device coordinates.
	ux := -u / spd
	uy := v / spd

	ex := x + ux*length
	ey := y + uy*length
	dc.DrawLine(x, y, ex, ey)
	dc.Stroke()

	pennants, fulls, halves := decompose(spd)

	// Ticks extend from the staff on the side given by rotating the staff
	// direction. Walk inward from the staff end.
	tickRad := tickAngle * math.Pi / 180
	cosA, sinA := math.Cos(tickRad), math.Sin(tickRad)
	// Rotate the upstream vector by tickAngle.
	tx := ux*cosA - uy*sinA
	ty := ux*sinA + uy*cosA

	pos := 0.0
	for i := 0; i < pennants; i++ {
		bx := ex - ux*length*pos
		by := ey - uy*length*pos
		nx := ex - ux*length*(pos+tickSpacing)
		ny := ey - uy*length*(pos+tickSpacing)
		dc.MoveTo(bx, by)
		dc.LineTo(bx+tx*length*tickFrac, by+ty*length*tickFrac)
		dc.LineTo(nx, ny)
		dc.ClosePath()
		dc.Fill()
		pos += tickSpacing
	}
	for i := 0; i < fulls; i++ {
		bx := ex - ux*length*pos
		by := ey - uy*length*pos
		dc.DrawLine(bx, by, bx+tx*length*tickFrac, by+ty*length*tickFrac)
		dc.Stroke()
		pos += tickSpacing
	}
	if halves > 0 {
		// A lone half barb sits one spacing in from the staff end.
		if pennants == 0 && fulls == 0 {
			pos = tickSpacing
		}
		bx := ex - ux*length*pos
		by := ey - uy*length*pos
		dc.DrawLine(bx, by, bx+tx*length*tickFrac*0.5, by+ty*length*tickFrac*0.5)
		dc.Stroke()
	}
}

// decompose splits a speed in knots into pennant, full and half barb counts
// after rounding to the nearest 5 kt.
func decompose(spd float64) (pennants, fulls, halves int) {
	rounded := int(math.Round(spd/5)) * 5
	pennants = rounded / 50
	rounded -= pennants * 50
	fulls = rounded / 10
	rounded -= fulls * 10
	halves = rounded / 5
	return pennants, fulls, halves
}
