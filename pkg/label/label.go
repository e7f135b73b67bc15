// Package label computes where and at what angle to draw text labels on
// polylines so the labels visually follow the lines.
//
// The skew-T special lines (adiabats, mixing-ratio lines) and map contour
// labels both use this: given a polyline in data space and a transform to
// device space, Place picks an anchor point near one end of the line and
// rotates the label to the line's local tangent, evaluated in device space.
//
// All computations are pure: the caller draws the text using the returned
// placement.
package label

import (
	"math"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/geo"
)

// Polyline is an ordered sequence of data-space points. A tangent needs two
// samples, so placement requires at least two points.
type Polyline []geo.Point

// End selects which end of a polyline a label anchors to.
type End int

const (
	// Start anchors at the beginning of the polyline.
	Start End = iota
	// Finish anchors at the last point of the polyline.
	Finish
)

// Anchor selects the label position on a polyline: an end plus an offset
// stepping that many points inward from the chosen end.
type Anchor struct {
	End    End
	Offset int
}

// Alignment describes how the drawn text is aligned on the anchor point.
// Centered is the only alignment Place produces; it is carried in the
// result so the drawing layer does not hard-code it.
type Alignment int

// Centered aligns the label's center, horizontally and vertically, on the
// anchor point.
const Centered Alignment = iota

// Placement is the result of placing one label: the device-space anchor,
// the device-space rotation in degrees, and the text alignment.
type Placement struct {
	Anchor   geo.Point
	Rotation float64
	Align    Alignment
}

// Place computes the placement for a label on line at the given anchor.
//
// The anchor index and tangent pair resolve as:
//   - Start:  anchor = offset, tangent pair (offset, offset+1)
//   - Finish: anchor = n-1-offset, tangent pair (n-1-offset, n-2-offset)
//
// The tangent is second-minus-first of the pair, so for Finish it points
// from the line's terminus back toward the interior; subtracting 180°
// afterwards makes the label read outward from the terminus. The data-space
// angle is mapped to device space locally at the anchor, since projected
// transforms are not angle-preserving.
//
// With align=false the rotation is 0 and only the anchor is projected.
// An offset that pushes either index outside the polyline fails with
// ErrCodeIndexOutOfRange.
func Place(line Polyline, anchor Anchor, t geo.Transform, align bool) (Placement, error) {
	n := len(line)
	if anchor.Offset < 0 || anchor.Offset > n-2 {
		return Placement{}, errors.New(errors.ErrCodeIndexOutOfRange,
			"anchor offset %d out of range for polyline of %d points", anchor.Offset, n)
	}

	var at, interior int
	switch anchor.End {
	case Start:
		at = anchor.Offset
		interior = at + 1
	case Finish:
		at = n - 1 - anchor.Offset
		interior = at - 1
	default:
		return Placement{}, errors.New(errors.ErrCodeInvalidInput, "unknown anchor end %d", anchor.End)
	}

	p := line[at]
	if !align {
		return Placement{Anchor: t.Project(p), Align: Centered}, nil
	}

	dx := line[interior].X - p.X
	dy := line[interior].Y - p.Y
	ang := math.Atan2(dy, dx) * 180 / math.Pi

	rot := geo.TransformAngle(t, p, ang)
	if anchor.End == Finish {
		rot -= 180
	}

	return Placement{
		Anchor:   t.Project(p),
		Rotation: rot,
		Align:    Centered,
	}, nil
}

// Placed pairs a placement with its label value.
type Placed struct {
	Placement Placement
	Label     float64
}

// PlaceAll places one aligned label per polyline at the Start end with the
// given offset, pairing each placement with the corresponding entry of
// labels. Results are in input order.
//
// labels must have at least one entry per polyline; extra labels are
// ignored. Fewer labels than lines fails with ErrCodeLabelCountMismatch
// before any placement is computed.
func PlaceAll(lines []Polyline, labels []float64, t geo.Transform, offset int) ([]Placed, error) {
	if len(labels) < len(lines) {
		return nil, errors.New(errors.ErrCodeLabelCountMismatch,
			"%d labels for %d lines", len(labels), len(lines))
	}

	placed := make([]Placed, 0, len(lines))
	for i, line := range lines {
		p, err := Place(line, Anchor{End: Start, Offset: offset}, t, true)
		if err != nil {
			return nil, err
		}
		placed = append(placed, Placed{Placement: p, Label: labels[i]})
	}
	return placed, nil
}
