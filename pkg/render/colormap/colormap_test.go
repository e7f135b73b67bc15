package colormap

import (
	"testing"
)

func TestColorsCount(t *testing.T) {
	tests := []struct {
		name string
		cmap string
		n    int
	}{
		{"jet small", "jet", 5},
		{"jet large", "jet", 40},
		{"viridis", "viridis", 12},
		{"single band", "bwr", 1},
		{"ps short", "ps", 8},
		{"ps full", "ps", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := Colors(tt.cmap, tt.n)
			if err != nil {
				t.Fatalf("Colors(%s, %d) error: %v", tt.cmap, tt.n, err)
			}
			if len(cols) != tt.n {
				t.Errorf("Colors(%s, %d) returned %d colors", tt.cmap, tt.n, len(cols))
			}
		})
	}
}

func TestColorsUnknown(t *testing.T) {
	if _, err := Colors("sepia", 10); err == nil {
		t.Error("Colors(sepia) should fail")
	}
}

func TestColorsBadCount(t *testing.T) {
	if _, err := Colors("jet", 0); err == nil {
		t.Error("Colors(jet, 0) should fail")
	}
}

func TestJetEndpoints(t *testing.T) {
	cols, err := Colors("jet", 3)
	if err != nil {
		t.Fatal(err)
	}
	r, _, b, _ := cols[0].RGBA()
	if b <= r {
		t.Error("jet should start blue-dominant")
	}
	r, _, b, _ = cols[2].RGBA()
	if r <= b {
		t.Error("jet should end red-dominant")
	}
}

func TestPSStartsGrey(t *testing.T) {
	cols, err := Colors("ps", 30)
	if err != nil {
		t.Fatal(err)
	}
	// Grey bands have equal channels.
	r, g, b, _ := cols[0].RGBA()
	if r != g || g != b {
		t.Errorf("ps band 0 = %v,%v,%v, want grey", r, g, b)
	}
}

func TestNamesIncludesPS(t *testing.T) {
	found := false
	for _, n := range Names() {
		if n == "ps" {
			found = true
		}
	}
	if !found {
		t.Error("Names() should include the composite ps map")
	}
}
