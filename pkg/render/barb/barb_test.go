package barb

import (
	"testing"

	"github.com/fogleman/gg"
)

func TestDecompose(t *testing.T) {
	tests := []struct {
		name     string
		spd      float64
		pennants int
		fulls    int
		halves   int
	}{
		{"calm rounds to zero", 2.0, 0, 0, 0},
		{"half barb", 5, 0, 0, 1},
		{"full barb", 10, 0, 1, 0},
		{"fifteen", 15, 0, 1, 1},
		{"pennant", 50, 1, 0, 0},
		{"sixty five", 65, 1, 1, 1},
		{"rounds up", 63, 1, 1, 1},
		{"rounds down", 61, 1, 1, 0},
		{"two pennants", 105, 2, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, f, h := decompose(tt.spd)
			if p != tt.pennants || f != tt.fulls || h != tt.halves {
				t.Errorf("decompose(%v) = %d,%d,%d, want %d,%d,%d",
					tt.spd, p, f, h, tt.pennants, tt.fulls, tt.halves)
			}
		})
	}
}

func TestDrawMarksPixels(t *testing.T) {
	dc := gg.NewContext(100, 100)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)

	Draw(dc, 50, 50, 20, 10, 30)

	img := dc.Image()
	marked := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0xff00 || g < 0xff00 || b < 0xff00 {
				marked++
			}
		}
	}
	if marked == 0 {
		t.Error("Draw left the canvas blank")
	}
}

func TestDrawCalmCircle(t *testing.T) {
	dc := gg.NewContext(100, 100)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)

	Draw(dc, 50, 50, 1, 1, 30)

	// A calm circle stays near the station point; nothing should be drawn
	// far from it.
	img := dc.Image()
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0xff00 || g < 0xff00 || b < 0xff00 {
				t.Fatalf("calm barb drew far from station at %d,%d", x, y)
			}
		}
	}
}
