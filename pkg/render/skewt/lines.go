package skewt

import (
	"math"

	"github.com/nbrenner/wxplot/pkg/geo"
	"github.com/nbrenner/wxplot/pkg/label"
)

// Thermodynamic constants (SI).
const (
	refPressure = 1000.0  // hPa, potential temperature reference
	kappa       = 0.2854  // Rd/cp for dry air
	epsilon     = 0.622   // Rv/Rd molecular weight ratio
	latentHeat  = 2.501e6 // J/kg, vaporization at 0 C
	cpDry       = 1005.7  // J/(kg K)
	rDry        = 287.04  // J/(kg K)

	kelvin = 273.15
)

// saturationVaporPressure returns es in hPa at temperature tc (degC),
// using Bolton's approximation.
func saturationVaporPressure(tc float64) float64 {
	return 6.112 * math.Exp(17.67*tc/(tc+243.5))
}

// saturationMixingRatio returns rs (kg/kg) at pressure p (hPa) and
// temperature tc (degC).
func saturationMixingRatio(p, tc float64) float64 {
	es := saturationVaporPressure(tc)
	return epsilon * es / (p - es)
}

// dewpointFromMixingRatio inverts the mixing ratio relation: the dewpoint
// in degC at which air at pressure p (hPa) saturates with mixing ratio
// w (g/kg).
func dewpointFromMixingRatio(w, p float64) float64 {
	e := w * p / (622.0 + w)
	ln := math.Log(e / 6.112)
	return 243.5 * ln / (17.67 - ln)
}

// dryAdiabatTemp returns the temperature (degC) along the dry adiabat of
// potential temperature theta (degC) at pressure p (hPa).
func dryAdiabatTemp(theta, p float64) float64 {
	return (theta+kelvin)*math.Pow(p/refPressure, kappa) - kelvin
}

// moistLapse integrates the pseudoadiabatic lapse rate downward in pressure
// from (p0, t0) to p, all in hPa and degC, stepping dp at a time.
func moistLapse(t0, p0, p, dp float64) float64 {
	t := t0 + kelvin
	cur := p0
	step := -math.Abs(dp)
	for cur+step >= p {
		cur += step
		t += step * moistRate(t, cur-step/2)
	}
	if cur > p {
		t += (p - cur) * moistRate(t, (cur+p)/2)
	}
	return t - kelvin
}

// moistRate is dT/dp (K per hPa) on a pseudoadiabat at temperature t (K)
// and pressure p (hPa).
func moistRate(t, p float64) float64 {
	rs := saturationMixingRatio(p, t-kelvin)
	num := rDry*t + latentHeat*rs
	den := cpDry + latentHeat*latentHeat*rs*epsilon/(rDry*t*t)
	return num / den / p
}

// Special line family parameters, matching the standard skew-T background.
var (
	dryAdiabatThetas = arange(-40, 210, 10)   // degC
	moistAdiabatTs   = arange(8, 36, 4)       // degC starting temps
	mixingRatios     = []float64{1, 2, 3, 5, 8, 12, 16, 20} // g/kg
	isothermTemps    = arange(-100, 60, 10)   // degC
	isobarLevels     = arange(100, 1100, 100) // hPa
)

const (
	moistAdiabatTop = 230.0 // hPa, where moist adiabats stop
	mixingLineTop   = 450.0 // hPa, where mixing-ratio lines stop
	lineStep        = 10.0  // hPa sampling step along sloped lines
)

func arange(start, stop, step float64) []float64 {
	var out []float64
	for v := start; v < stop; v += step {
		out = append(out, v)
	}
	return out
}

// family is one background line family with its per-line label values.
type family struct {
	lines  []label.Polyline
	labels []float64
}

// dryAdiabats builds one polyline per potential temperature, from the
// bottom of the plot up.
func dryAdiabats(pBottom, pTop float64) family {
	var f family
	for _, theta := range dryAdiabatThetas {
		var line label.Polyline
		for p := pBottom; p >= pTop; p -= lineStep {
			line = append(line, point(dryAdiabatTemp(theta, p), p))
		}
		f.lines = append(f.lines, line)
		f.labels = append(f.labels, theta)
	}
	return f
}

// moistAdiabats builds pseudoadiabats rising from pBottom at the family's
// starting temperatures.
func moistAdiabats(pBottom, pTop float64) family {
	top := math.Max(pTop, moistAdiabatTop)
	var f family
	for _, t0 := range moistAdiabatTs {
		var line label.Polyline
		for p := pBottom; p >= top; p -= lineStep {
			line = append(line, point(moistLapse(t0, pBottom, p, lineStep), p))
		}
		f.lines = append(f.lines, line)
		f.labels = append(f.labels, t0)
	}
	return f
}

// mixingLines builds constant mixing-ratio dewpoint lines.
func mixingLines(pBottom, pTop float64) family {
	top := math.Max(pTop, mixingLineTop)
	var f family
	for _, w := range mixingRatios {
		var line label.Polyline
		for p := pBottom; p >= top; p -= 50 {
			line = append(line, point(dewpointFromMixingRatio(w, p), p))
		}
		f.lines = append(f.lines, line)
		f.labels = append(f.labels, w)
	}
	return f
}

// isotherms builds constant-temperature lines, straight in skew space.
func isotherms(pBottom, pTop float64) family {
	var f family
	for _, t := range isothermTemps {
		f.lines = append(f.lines, label.Polyline{point(t, pBottom), point(t, pTop)})
		f.labels = append(f.labels, t)
	}
	return f
}

func point(t, p float64) geo.Point {
	return geo.Point{X: t, Y: p}
}
