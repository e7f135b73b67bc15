// Package pipeline provides the figure pipeline shared by the CLI and the
// HTTP server: load → build → render, with caching of rendered artifacts.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Import gridded field or sounding profile data from JSON files
//     and apply the variable's unit transform.
//  2. Build: Assemble the figure (map with overlays, or skew-T) from the
//     loaded data and the variable specs.
//  3. Render: Rasterize to the requested formats and store them in the
//     artifact cache.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Kind:     pipeline.KindMap,
//	    DataFile: "temp_850.json",
//	    Variable: "temp",
//	    Formats:  []string{"png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nbrenner/wxplot/pkg/cache"
	"github.com/nbrenner/wxplot/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMapWidth is the default map figure width in pixels.
	DefaultMapWidth = 1200

	// DefaultMapHeight is the default map figure height in pixels.
	DefaultMapHeight = 1000

	// DefaultSkewTSize is the default skew-T figure edge in pixels. The
	// diagram is square.
	DefaultSkewTSize = 900

	// DefaultRegion is the map domain used when none is requested.
	DefaultRegion = "hrrr"

	// DefaultPreviewDim is the bounding square of preview artifacts.
	DefaultPreviewDim = 320

	// DefaultTTL is how long cached artifacts stay valid. Model output is
	// superseded by the next cycle, so a day is generous.
	DefaultTTL = 24 * time.Hour
)

// Figure kinds.
const (
	KindMap   = "map"
	KindSkewT = "skewt"
)

// Format constants for output formats.
const (
	FormatPNG     = "png"
	FormatPreview = "preview"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:     true,
	FormatPreview: true,
}

// ValidKinds is the set of supported figure kinds.
var ValidKinds = map[string]bool{
	KindMap:   true,
	KindSkewT: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the figure pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options
	Kind     string `json:"kind"`
	DataFile string `json:"data_file"`

	// Map options
	Variable     string   `json:"variable,omitempty"`
	Region       string   `json:"region,omitempty"`
	ContourFiles []string `json:"contour_files,omitempty"` // overlay field files
	HatchFiles   []string `json:"hatch_files,omitempty"`
	AirportFile  string   `json:"airport_file,omitempty"`
	BoundaryFile string   `json:"boundary_file,omitempty"`

	// Skew-T options
	Site        string  `json:"site,omitempty"`         // expected sounding site code
	TopPressure float64 `json:"top_pressure,omitempty"` // hPa

	// Render options
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	PreviewDim int      `json:"preview_dim,omitempty"`

	// Cache options
	Refresh bool          `json:"refresh,omitempty"`
	TTL     time.Duration `json:"ttl,omitempty"`

	// SpecFile overrides the built-in variable specs.
	SpecFile string `json:"spec_file,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this execution in logs and server responses.
	RunID string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	GridPoints int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, preview)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKind checks that a figure kind is valid.
func ValidateKind(kind string) error {
	if !ValidKinds[kind] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid kind: %q (must be one of: map, skewt)", kind)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := ValidateKind(o.Kind); err != nil {
		return err
	}
	if o.DataFile == "" {
		return errors.New(errors.ErrCodeInvalidInput, "data_file is required")
	}
	if o.Kind == KindMap && o.Variable == "" {
		return errors.New(errors.ErrCodeInvalidVariable, "variable is required for map figures")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Region == "" {
		o.Region = DefaultRegion
	}
	if o.Width == 0 {
		if o.Kind == KindSkewT {
			o.Width = DefaultSkewTSize
		} else {
			o.Width = DefaultMapWidth
		}
	}
	if o.Height == 0 {
		if o.Kind == KindSkewT {
			o.Height = DefaultSkewTSize
		} else {
			o.Height = DefaultMapHeight
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.PreviewDim == 0 {
		o.PreviewDim = DefaultPreviewDim
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// FigureKeyOpts returns cache key options for one rendered format. aux
// carries the content hashes of the auxiliary input files (overlays, specs,
// geography); pass the result of auxHashes so figures rendered from
// different overlay or spec contents never share a key.
func (o *Options) FigureKeyOpts(format string, aux []string) cache.FigureKeyOpts {
	return cache.FigureKeyOpts{
		Kind:        o.Kind,
		Variable:    o.Variable,
		Region:      o.Region,
		Site:        o.Site,
		TopPressure: o.TopPressure,
		Width:       o.Width,
		Height:      o.Height,
		Format:      format,
		AuxHashes:   aux,
	}
}
