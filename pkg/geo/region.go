package geo

import (
	"sort"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// Region describes the corners of a plotted map domain:
// lower-left lat/lon and upper-right lat/lon.
type Region struct {
	Name   string
	LLLat  float64
	URLat  float64
	LLLon  float64
	URLon  float64
	// Projection parameters for the domain's native lcc grid.
	Lat0, Lon0, Lat1, Lat2 float64
}

// Projection returns the Lambert conformal projection configured for the
// region's native grid.
func (r Region) Projection() *LambertConformal {
	return NewLambertConformal(r.Lat0, r.Lon0, r.Lat1, r.Lat2)
}

// regions holds the predefined plotting domains keyed by model name.
var regions = map[string]Region{
	"hrrr": {
		Name:  "hrrr",
		LLLat: 21.1381, URLat: 47.8422,
		LLLon: 360 - 122.72, URLon: 360 - 60.9172,
		Lat0: 38.5, Lon0: -97.5, Lat1: 38.5, Lat2: 38.5,
	},
	"fv3": {
		Name:  "fv3",
		LLLat: 22.4140, URLat: 47.1024,
		LLLon: -122.2141, URLon: -62.6567,
		Lat0: 38.5, Lon0: -97.5, Lat1: 38.5, Lat2: 38.5,
	},
}

// RegionByName looks up a predefined map region.
func RegionByName(name string) (Region, error) {
	r, ok := regions[name]
	if !ok {
		return Region{}, errors.New(errors.ErrCodeInvalidRegion, "unknown region: %s (available: %v)", name, RegionNames())
	}
	return r, nil
}

// RegionNames returns the sorted list of predefined region names.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
