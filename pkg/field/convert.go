package field

// Unit conversions for plotting. Each function returns a new slice and
// leaves its input untouched, so a field can be rendered in several unit
// systems from one load.

// KToC converts Kelvin to Celsius.
func KToC(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v - 273.15 })
}

// KToF converts Kelvin to Fahrenheit.
func KToF(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return (v-273.15)*9/5 + 32 })
}

// MToDm converts meters to decameters.
func MToDm(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v / 10 })
}

// MsToKt converts m/s to knots.
func MsToKt(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v * 1.9438 })
}

// PaToHPa converts Pascals to hectopascals.
func PaToHPa(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v / 100 })
}

// VVelScale scales vertical velocity for plotting.
func VVelScale(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v * -10 })
}

// VortScale scales vorticity for plotting.
func VortScale(vals []float64) []float64 {
	return apply(vals, func(v float64) float64 { return v / 1e-05 })
}

// Converters maps conversion names usable in variable specs to functions.
var Converters = map[string]func([]float64) []float64{
	"k_to_c":     KToC,
	"k_to_f":     KToF,
	"m_to_dm":    MToDm,
	"ms_to_kt":   MsToKt,
	"pa_to_hpa":  PaToHPa,
	"vvel_scale": VVelScale,
	"vort_scale": VortScale,
}

func apply(vals []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = f(v)
	}
	return out
}
