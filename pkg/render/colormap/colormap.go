// Package colormap builds the color ramps used to shade filled contour
// bands. Ramps are defined as gradient keypoints and sampled at the number
// of contour bands a figure needs; blending happens in Lab space so the
// perceived brightness changes evenly across the ramp.
package colormap

import (
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// keypoint anchors a gradient color at a position in [0, 1].
type keypoint struct {
	pos float64
	col colorful.Color
}

// gradient is a sorted keypoint table sampled by Lab interpolation.
type gradient []keypoint

func (g gradient) at(t float64) colorful.Color {
	if t <= g[0].pos {
		return g[0].col
	}
	for i := 0; i < len(g)-1; i++ {
		a, b := g[i], g[i+1]
		if t >= a.pos && t <= b.pos {
			frac := (t - a.pos) / (b.pos - a.pos)
			return a.col.BlendLab(b.col, frac).Clamped()
		}
	}
	return g[len(g)-1].col
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("colormap: bad hex keypoint " + s)
	}
	return c
}

// gradients holds the named ramps. The names follow the conventions the
// variable specs use.
var gradients = map[string]gradient{
	"jet": {
		{0.00, mustHex("#00007f")},
		{0.125, mustHex("#0000ff")},
		{0.375, mustHex("#00ffff")},
		{0.625, mustHex("#ffff00")},
		{0.875, mustHex("#ff0000")},
		{1.00, mustHex("#7f0000")},
	},
	"rainbow": {
		{0.00, mustHex("#8000ff")},
		{0.25, mustHex("#0080ff")},
		{0.50, mustHex("#00ff80")},
		{0.75, mustHex("#ff8000")},
		{1.00, mustHex("#ff0000")},
	},
	"viridis": {
		{0.00, mustHex("#440154")},
		{0.25, mustHex("#3b528b")},
		{0.50, mustHex("#21918c")},
		{0.75, mustHex("#5ec962")},
		{1.00, mustHex("#fde725")},
	},
	"bwr": {
		{0.00, mustHex("#0000ff")},
		{0.50, mustHex("#ffffff")},
		{1.00, mustHex("#ff0000")},
	},
	"blues": {
		{0.00, mustHex("#f7fbff")},
		{0.50, mustHex("#6baed6")},
		{1.00, mustHex("#08306b")},
	},
	"greys": {
		{0.00, mustHex("#ffffff")},
		{1.00, mustHex("#333333")},
	},
	"radar": {
		{0.00, mustHex("#00ecec")},
		{0.25, mustHex("#01a0f6")},
		{0.40, mustHex("#00c000")},
		{0.60, mustHex("#ffff00")},
		{0.75, mustHex("#ff9000")},
		{0.90, mustHex("#d60000")},
		{1.00, mustHex("#ff00f0")},
	},
	// spectral tail for the surface-pressure ramp
	"ncar": {
		{0.00, mustHex("#000080")},
		{0.20, mustHex("#00b2ee")},
		{0.40, mustHex("#00ee76")},
		{0.60, mustHex("#ffd700")},
		{0.80, mustHex("#ff4500")},
		{1.00, mustHex("#ff00ff")},
	},
}

// psGreyBands is the number of leading grey bands in the surface-pressure
// ramp, matching the low-pressure greys ahead of the spectral section.
const psGreyBands = 13

// Colors samples the named ramp at n evenly spaced positions. The "ps"
// ramp is the composite surface-pressure map: psGreyBands greys followed
// by spectral samples.
func Colors(name string, n int) ([]color.Color, error) {
	if n <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "colormap needs a positive band count, got %d", n)
	}
	if name == "ps" {
		return psColors(n), nil
	}
	g, ok := gradients[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown colormap: %s (available: %v)", name, Names())
	}
	return sample(g, n), nil
}

func sample(g gradient, n int) []color.Color {
	out := make([]color.Color, n)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = g.at(t)
	}
	return out
}

// psColors builds the surface-pressure ramp: a grey ramp for the lowest
// bands, then the spectral ncar section for the rest.
func psColors(n int) []color.Color {
	greys := psGreyBands
	if greys > n {
		greys = n
	}
	out := make([]color.Color, 0, n)
	out = append(out, sample(gradients["greys"], greys)...)
	if rest := n - greys; rest > 0 {
		out = append(out, sample(gradients["ncar"], rest)...)
	}
	return out
}

// Names returns the sorted ramp names, including the composite "ps" map.
func Names() []string {
	names := make([]string, 0, len(gradients)+1)
	for name := range gradients {
		names = append(names, name)
	}
	names = append(names, "ps")
	sort.Strings(names)
	return names
}
