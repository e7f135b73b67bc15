package geo

import "math"

// LambertConformal is a spherical Lambert conformal conic projection.
// Data-space points are lon/lat in degrees; projected coordinates are in
// units of earth radii, so a pixel fit (FitRect over the projected region
// corners) normally follows in a Compose chain.
type LambertConformal struct {
	n    float64 // cone constant
	f    float64 // projection constant
	rho0 float64 // radial distance of the reference latitude
	lon0 float64 // central meridian, radians
}

// NewLambertConformal builds the projection from a reference point
// (lat0, lon0) and two standard parallels. This mirrors the lcc settings
// used for the CONUS model grids.
func NewLambertConformal(lat0, lon0, lat1, lat2 float64) *LambertConformal {
	phi0 := radians(lat0)
	phi1 := radians(lat1)
	phi2 := radians(lat2)

	var n float64
	if math.Abs(lat1-lat2) < 1e-10 {
		n = math.Sin(phi1)
	} else {
		n = math.Log(math.Cos(phi1)/math.Cos(phi2)) /
			math.Log(math.Tan(math.Pi/4+phi2/2)/math.Tan(math.Pi/4+phi1/2))
	}
	f := math.Cos(phi1) * math.Pow(math.Tan(math.Pi/4+phi1/2), n) / n

	return &LambertConformal{
		n:    n,
		f:    f,
		rho0: f / math.Pow(math.Tan(math.Pi/4+phi0/2), n),
		lon0: radians(lon0),
	}
}

// Project maps a lon/lat point (degrees) to conic coordinates.
func (l *LambertConformal) Project(p Point) Point {
	phi := radians(p.Y)
	lam := radians(normalizeLon(p.X))

	rho := l.f / math.Pow(math.Tan(math.Pi/4+phi/2), l.n)
	theta := l.n * (lam - l.lon0)

	return Point{
		X: rho * math.Sin(theta),
		Y: l.rho0 - rho*math.Cos(theta),
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// normalizeLon folds longitudes into (-180, 180]. Model grids mix 0-360 and
// signed conventions; the projection needs a single branch.
func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	return lon
}
