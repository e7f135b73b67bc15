// Package skewt renders skew-T log-p thermodynamic diagrams from sounding
// profiles: background special lines (isobars, isotherms, dry and moist
// adiabats, mixing-ratio lines) with labels placed along them, temperature
// and dewpoint traces, wind barbs along the right edge, a hodograph inset
// and a thermodynamic index table.
package skewt

import (
	"math"

	"github.com/nbrenner/wxplot/pkg/geo"
)

// Transform maps diagram coordinates (temperature in degC on X, pressure in
// hPa on Y) to a plot rectangle of Width x Height pixels with y growing
// downward.
//
// The vertical axis is logarithmic in pressure. The temperature axis is
// skewed 45 degrees: a point keeps its on-screen x only at the bottom of
// the plot and shifts right by one pixel for every pixel of height above
// it, so isotherms run diagonally.
type Transform struct {
	PMin, PMax float64 // pressure range, hPa; PMin is the top of the plot
	TMin, TMax float64 // temperature range along the bottom edge, degC

	Width, Height float64
}

// Project maps a (temperature, pressure) point to plot pixels.
func (s Transform) Project(p geo.Point) geo.Point {
	logSpan := math.Log(s.PMax) - math.Log(s.PMin)
	y := s.Height * (math.Log(p.Y) - math.Log(s.PMin)) / logSpan
	tx := (p.X - s.TMin) / (s.TMax - s.TMin) * s.Width
	// 45 degree skew: shift right by the height above the bottom edge.
	return geo.Point{X: tx + (s.Height - y), Y: y}
}
