package geo

import (
	"math"
	"testing"
)

const angleTol = 1e-6

func TestIdentityProject(t *testing.T) {
	p := Point{X: 3.5, Y: -2}
	if got := (Identity{}).Project(p); got != p {
		t.Errorf("Project(%v) = %v, want unchanged", p, got)
	}
}

func TestAffineProject(t *testing.T) {
	tests := []struct {
		name string
		a    Affine
		in   Point
		want Point
	}{
		{
			name: "scale only",
			a:    Affine{ScaleX: 2, ScaleY: 3},
			in:   Point{X: 1, Y: 1},
			want: Point{X: 2, Y: 3},
		},
		{
			name: "translate only",
			a:    Affine{ScaleX: 1, ScaleY: 1, OffsetX: 10, OffsetY: -5},
			in:   Point{X: 0, Y: 0},
			want: Point{X: 10, Y: -5},
		},
		{
			name: "y flip",
			a:    Affine{ScaleX: 1, ScaleY: -1, OffsetY: 100},
			in:   Point{X: 4, Y: 30},
			want: Point{X: 4, Y: 70},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Project(tt.in); got != tt.want {
				t.Errorf("Project(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformAngleIdentity(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
	}{
		{"zero", 0},
		{"diagonal", 45},
		{"vertical", 90},
		{"reverse", 180},
		{"negative", -45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransformAngle(Identity{}, Point{X: 1, Y: 2}, tt.deg)
			want := tt.deg
			if want > 180 {
				want -= 360
			}
			if math.Abs(got-want) > angleTol {
				t.Errorf("TransformAngle(identity, %v°) = %v, want %v", tt.deg, got, want)
			}
		})
	}
}

func TestTransformAngleFlip(t *testing.T) {
	// A y-flip negates angles: a line rising in data space falls on a raster.
	flip := Affine{ScaleX: 1, ScaleY: -1, OffsetY: 100}
	got := TransformAngle(flip, Point{X: 10, Y: 10}, 45)
	if math.Abs(got-(-45)) > angleTol {
		t.Errorf("TransformAngle(flip, 45°) = %v, want -45", got)
	}
}

func TestTransformAngleAnisotropicScale(t *testing.T) {
	// Doubling x relative to y flattens a 45° line to atan(1/2).
	a := Affine{ScaleX: 2, ScaleY: 1}
	got := TransformAngle(a, Point{}, 45)
	want := math.Atan2(1, 2) * 180 / math.Pi
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("TransformAngle(scale2x, 45°) = %v, want %v", got, want)
	}
}

func TestComposeOrder(t *testing.T) {
	// Scale then translate differs from translate then scale.
	scale := Affine{ScaleX: 2, ScaleY: 2}
	shift := Affine{ScaleX: 1, ScaleY: 1, OffsetX: 10}

	got := Compose{scale, shift}.Project(Point{X: 1, Y: 1})
	if (got != Point{X: 12, Y: 2}) {
		t.Errorf("Compose{scale,shift}.Project = %v, want {12 2}", got)
	}

	got = Compose{shift, scale}.Project(Point{X: 1, Y: 1})
	if (got != Point{X: 22, Y: 2}) {
		t.Errorf("Compose{shift,scale}.Project = %v, want {22 2}", got)
	}
}

func TestFitRect(t *testing.T) {
	// Map the unit square onto an 800x600 raster.
	a := FitRect(0, 0, 1, 1, 800, 600)

	bl := a.Project(Point{X: 0, Y: 0})
	if (bl != Point{X: 0, Y: 600}) {
		t.Errorf("bottom-left maps to %v, want {0 600}", bl)
	}
	tr := a.Project(Point{X: 1, Y: 1})
	if (tr != Point{X: 800, Y: 0}) {
		t.Errorf("top-right maps to %v, want {800 0}", tr)
	}
}

func TestLambertConformalCenter(t *testing.T) {
	// The reference point projects to the origin.
	lcc := NewLambertConformal(38.5, -97.5, 38.5, 38.5)
	got := lcc.Project(Point{X: -97.5, Y: 38.5})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("reference point projects to %v, want origin", got)
	}
}

func TestLambertConformalSymmetry(t *testing.T) {
	// Longitudes symmetric about the central meridian project to mirrored x.
	lcc := NewLambertConformal(38.5, -97.5, 38.5, 38.5)
	west := lcc.Project(Point{X: -107.5, Y: 40})
	east := lcc.Project(Point{X: -87.5, Y: 40})

	if math.Abs(west.X+east.X) > 1e-9 {
		t.Errorf("x not mirrored: west=%v east=%v", west.X, east.X)
	}
	if math.Abs(west.Y-east.Y) > 1e-9 {
		t.Errorf("y not equal: west=%v east=%v", west.Y, east.Y)
	}
}

func TestLambertConformalPositiveLongitude(t *testing.T) {
	// 0-360 and signed longitudes are the same meridian.
	lcc := NewLambertConformal(38.5, -97.5, 38.5, 38.5)
	signed := lcc.Project(Point{X: -97.5, Y: 45})
	wrapped := lcc.Project(Point{X: 262.5, Y: 45})

	if math.Abs(signed.X-wrapped.X) > 1e-9 || math.Abs(signed.Y-wrapped.Y) > 1e-9 {
		t.Errorf("wrapped longitude projects to %v, want %v", wrapped, signed)
	}
}

func TestLambertConformalNorthward(t *testing.T) {
	// On the central meridian, moving north increases y.
	lcc := NewLambertConformal(38.5, -97.5, 38.5, 38.5)
	low := lcc.Project(Point{X: -97.5, Y: 30})
	high := lcc.Project(Point{X: -97.5, Y: 45})
	if high.Y <= low.Y {
		t.Errorf("northward point not above: y(45)=%v y(30)=%v", high.Y, low.Y)
	}
}

func TestRegionByName(t *testing.T) {
	r, err := RegionByName("hrrr")
	if err != nil {
		t.Fatalf("RegionByName(hrrr) error: %v", err)
	}
	if r.LLLat != 21.1381 {
		t.Errorf("hrrr LLLat = %v, want 21.1381", r.LLLat)
	}

	if _, err := RegionByName("nope"); err == nil {
		t.Error("RegionByName(nope) should fail")
	}
}

func TestRegionNames(t *testing.T) {
	names := RegionNames()
	if len(names) != 2 {
		t.Fatalf("RegionNames() = %v, want 2 entries", names)
	}
	if names[0] != "fv3" || names[1] != "hrrr" {
		t.Errorf("RegionNames() = %v, want sorted [fv3 hrrr]", names)
	}
}
