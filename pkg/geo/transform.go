// Package geo provides coordinate transforms between data space and device
// space for wxplot figures.
//
// A data-space point may be a geographic lon/lat pair (map figures) or a
// diagram coordinate (skew-T figures). Device space is the pixel coordinate
// system of the rendered raster. Transforms compose, so a projection can be
// chained with an affine pixel fit.
//
// Angle mapping is deliberately separate from point mapping: projected
// transforms are not angle-preserving, so the device-space angle of a line
// must be evaluated locally at a point. TransformAngle does this with a
// finite-difference probe, which works for any Transform without requiring
// an analytic derivative.
package geo

import "math"

// Point is a 2D point. The interpretation of X and Y depends on the space:
// lon/lat degrees in geographic data space, pixels in device space.
type Point struct {
	X, Y float64
}

// Transform maps a data-space point to a device-space point.
type Transform interface {
	Project(p Point) Point
}

// angleProbe is the data-space step used by the finite-difference angle
// mapping. Small enough to track local curvature of projected transforms,
// large enough to stay clear of float cancellation.
const angleProbe = 1e-6

// TransformAngle maps a data-space angle (degrees) at point p to the
// corresponding device-space angle (degrees).
//
// The angle is probed by stepping a small data-space delta from p along the
// angle's direction, projecting both points, and measuring the device-space
// direction between them. This is exact for affine transforms and a local
// approximation for curved ones.
func TransformAngle(t Transform, p Point, deg float64) float64 {
	rad := deg * math.Pi / 180
	q := Point{
		X: p.X + angleProbe*math.Cos(rad),
		Y: p.Y + angleProbe*math.Sin(rad),
	}
	dp := t.Project(p)
	dq := t.Project(q)
	return math.Atan2(dq.Y-dp.Y, dq.X-dp.X) * 180 / math.Pi
}

// Identity is the no-op transform: device space equals data space.
type Identity struct{}

// Project returns p unchanged.
func (Identity) Project(p Point) Point { return p }

// Affine scales then translates. A negative ScaleY flips the vertical axis,
// which raster targets need since image y grows downward.
type Affine struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// Project applies the affine mapping to p.
func (a Affine) Project(p Point) Point {
	return Point{
		X: p.X*a.ScaleX + a.OffsetX,
		Y: p.Y*a.ScaleY + a.OffsetY,
	}
}

// Compose chains transforms left to right: the first transform is applied
// first. An empty chain behaves like Identity.
type Compose []Transform

// Project applies each transform in order.
func (c Compose) Project(p Point) Point {
	for _, t := range c {
		p = t.Project(p)
	}
	return p
}

// FitRect builds an Affine that maps the data-space rectangle spanned by
// (minX,minY)-(maxX,maxY) onto a device rectangle of width w and height h
// pixels, flipping y so minY lands at the bottom of the raster.
func FitRect(minX, minY, maxX, maxY, w, h float64) Affine {
	sx := w / (maxX - minX)
	sy := h / (maxY - minY)
	return Affine{
		ScaleX:  sx,
		ScaleY:  -sy,
		OffsetX: -minX * sx,
		OffsetY: maxY * sy,
	}
}
