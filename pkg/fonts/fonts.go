// Package fonts locates and parses the TrueType fonts the renderers draw
// text with.
//
// Fonts are discovered on the host with go-findfont, so figures pick up
// whatever sans and mono faces the system ships instead of bundling font
// files into the binary. Parsed fonts are cached; faces are cheap to make
// per size.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// Candidate font files per role, tried in order. DejaVu and Liberation
// cover most Linux hosts; Arial and Courier cover macOS and Windows.
var (
	regularCandidates = []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf", "Arial.ttf", "arial.ttf"}
	boldCandidates    = []string{"DejaVuSans-Bold.ttf", "LiberationSans-Bold.ttf", "Arial Bold.ttf", "arialbd.ttf"}
	monoCandidates    = []string{"DejaVuSansMono.ttf", "LiberationMono-Regular.ttf", "Courier New.ttf", "cour.ttf"}
)

var (
	mu     sync.Mutex
	parsed = map[string]*truetype.Font{}
)

// find locates and parses the first candidate font found on the system.
func find(candidates []string) (*truetype.Font, error) {
	mu.Lock()
	defer mu.Unlock()
	for _, name := range candidates {
		if f, ok := parsed[name]; ok {
			return f, nil
		}
		path, err := findfont.Find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		parsed[name] = f
		return f, nil
	}
	return nil, errors.New(errors.ErrCodeFontNotFound, "no usable font among %v", candidates)
}

// Regular returns a sans face at the given point size.
func Regular(size float64) (font.Face, error) {
	f, err := find(regularCandidates)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Bold returns a bold sans face at the given point size.
func Bold(size float64) (font.Face, error) {
	f, err := find(boldCandidates)
	if err != nil {
		// Fall back to the regular weight rather than failing the figure.
		return Regular(size)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Mono returns a monospace face at the given point size. The thermodynamic
// text block depends on fixed advance widths for column alignment.
func Mono(size float64) (font.Face, error) {
	f, err := find(monoCandidates)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
