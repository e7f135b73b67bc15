package pipeline

import (
	"bytes"
	"context"
	"image"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nbrenner/wxplot/pkg/cache"
	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/field"
	"github.com/nbrenner/wxplot/pkg/geo"
	"github.com/nbrenner/wxplot/pkg/observability"
	"github.com/nbrenner/wxplot/pkg/render"
	"github.com/nbrenner/wxplot/pkg/render/maps"
	"github.com/nbrenner/wxplot/pkg/render/skewt"
	"github.com/nbrenner/wxplot/pkg/spec"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// inputs holds everything the build stage needs after loading.
type inputs struct {
	// map figures
	field      *field.Field
	vspec      spec.VarSpec
	contours   []overlayInput
	hatches    []overlayInput
	airports   []geo.Point
	boundaries [][]geo.Point

	// skew-T figures
	profile *field.Profile

	points int
}

type overlayInput struct {
	field *field.Field
	vspec spec.VarSpec
}

// Execute runs the complete load → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	data, err := os.ReadFile(opts.DataFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read data file %s", opts.DataFile)
	}
	contentHash := cache.Hash(data)
	aux, err := auxHashes(opts)
	if err != nil {
		return nil, err
	}

	// Serve entirely from cache when every requested format is present.
	if !opts.Refresh {
		hits := make(map[string][]byte, len(opts.Formats))
		for _, f := range opts.Formats {
			key := r.Keyer.FigureKey(contentHash, opts.FigureKeyOpts(f, aux))
			if b, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.CacheEvents().OnCacheHit(ctx, "figure")
				hits[f] = b
			} else {
				observability.CacheEvents().OnCacheMiss(ctx, "figure")
			}
		}
		if len(hits) == len(opts.Formats) {
			result.Artifacts = hits
			result.CacheInfo.RenderHit = true
			logger.Info("served figure from cache", "run", result.RunID, "formats", opts.Formats)
			return result, nil
		}
	}

	specs, err := r.loadSpecs(opts)
	if err != nil {
		return nil, err
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.DataFile, opts.Variable)
	in, err := r.load(opts, data, specs)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, opts.DataFile, opts.Variable, in.pointsOrZero(), result.Stats.LoadTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.GridPoints = in.points

	logger.Info("loaded data",
		"file", opts.DataFile,
		"points", in.points,
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	observability.Pipeline().OnFigureStart(ctx, opts.Kind, opts.Variable)
	img, err := r.build(opts, in)
	result.Stats.BuildTime = time.Since(buildStart)
	observability.Pipeline().OnFigureComplete(ctx, opts.Kind, opts.Variable, result.Stats.BuildTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("built figure",
		"kind", opts.Kind,
		"size", opts.Width,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render formats and fill the cache
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	for _, f := range opts.Formats {
		var artifact []byte
		switch f {
		case FormatPNG:
			artifact, err = render.EncodePNG(img)
		case FormatPreview:
			artifact, err = render.PreviewPNG(img, opts.PreviewDim)
		}
		if err != nil {
			break
		}
		result.Artifacts[f] = artifact

		key := r.Keyer.FigureKey(contentHash, opts.FigureKeyOpts(f, aux))
		setErr := cache.RetryWithBackoff(ctx, func() error {
			return r.Cache.Set(ctx, key, artifact, opts.TTL)
		})
		if setErr != nil {
			logger.Warn("cache write failed", "format", f, "err", setErr)
		} else {
			observability.CacheEvents().OnCacheSet(ctx, "figure", len(artifact))
		}
	}
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("rendered outputs",
		"run", result.RunID,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

func (in *inputs) pointsOrZero() int {
	if in == nil {
		return 0
	}
	return in.points
}

func (r *Runner) loadSpecs(opts Options) (*spec.Specs, error) {
	if opts.SpecFile != "" {
		return spec.Load(opts.SpecFile)
	}
	return spec.LoadDefault()
}

// load imports the data file and any overlay files, applying each
// variable's unit transform.
func (r *Runner) load(opts Options, data []byte, specs *spec.Specs) (*inputs, error) {
	if opts.Kind == KindSkewT {
		prof, err := field.ReadProfile(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "profile %s", opts.DataFile)
		}
		if opts.Site != "" && !strings.EqualFold(opts.Site, prof.Site.Code) {
			return nil, errors.New(errors.ErrCodeSiteNotFound,
				"data file %s holds site %s, not %s", opts.DataFile, prof.Site.Code, opts.Site)
		}
		return &inputs{profile: prof, points: prof.Levels()}, nil
	}

	f, err := field.ReadField(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "field %s", opts.DataFile)
	}
	vs, err := specs.Get(opts.Variable)
	if err != nil {
		return nil, err
	}
	if err := applyTransform(f, vs); err != nil {
		return nil, err
	}

	in := &inputs{field: f, vspec: vs, points: len(f.Grid.Values)}

	for _, path := range opts.ContourFiles {
		ov, err := r.loadOverlay(path, specs)
		if err != nil {
			return nil, err
		}
		in.contours = append(in.contours, ov)
	}
	for _, path := range opts.HatchFiles {
		ov, err := r.loadOverlay(path, specs)
		if err != nil {
			return nil, err
		}
		in.hatches = append(in.hatches, ov)
	}

	if opts.AirportFile != "" {
		if in.airports, err = maps.LoadAirports(opts.AirportFile); err != nil {
			return nil, err
		}
	}
	if opts.BoundaryFile != "" {
		if in.boundaries, err = maps.LoadBoundaries(opts.BoundaryFile); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (r *Runner) loadOverlay(path string, specs *spec.Specs) (overlayInput, error) {
	f, err := field.ImportField(path)
	if err != nil {
		return overlayInput{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "overlay")
	}
	vs, err := specs.Get(f.ShortName)
	if err != nil {
		return overlayInput{}, err
	}
	if err := applyTransform(f, vs); err != nil {
		return overlayInput{}, err
	}
	return overlayInput{field: f, vspec: vs}, nil
}

// applyTransform converts the field's values into the spec's plot units.
func applyTransform(f *field.Field, vs spec.VarSpec) error {
	if vs.Transform == "" {
		return nil
	}
	conv, ok := field.Converters[vs.Transform]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown transform %q for %s", vs.Transform, f.ShortName)
	}
	f.Grid.Values = conv(f.Grid.Values)
	return nil
}

// build assembles and rasterizes the figure.
func (r *Runner) build(opts Options, in *inputs) (image.Image, error) {
	if opts.Kind == KindSkewT {
		var skewOpts []skewt.Option
		if opts.TopPressure > 0 {
			skewOpts = append(skewOpts, skewt.WithTopPressure(opts.TopPressure))
		}
		return skewt.New(in.profile, skewOpts...).Render(opts.Width, opts.Height)
	}

	var mapOpts []maps.MapOption
	if len(in.airports) > 0 {
		mapOpts = append(mapOpts, maps.WithAirports(in.airports))
	}
	if len(in.boundaries) > 0 {
		mapOpts = append(mapOpts, maps.WithBoundaries(in.boundaries))
	}
	m, err := maps.New(opts.Region, mapOpts...)
	if err != nil {
		return nil, err
	}

	var dmOpts []maps.Option
	for _, ov := range in.contours {
		dmOpts = append(dmOpts, maps.WithContour(ov.field, ov.vspec))
	}
	for _, ov := range in.hatches {
		dmOpts = append(dmOpts, maps.WithHatch(ov.field, ov.vspec))
	}
	return maps.NewDataMap(in.field, in.vspec, m, dmOpts...).Render(opts.Width, opts.Height)
}

// ClearCache drops the cached artifacts for one option set. The data file
// is re-read to recompute the content hash.
func (r *Runner) ClearCache(ctx context.Context, opts Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	data, err := os.ReadFile(opts.DataFile)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read data file %s", opts.DataFile)
	}
	contentHash := cache.Hash(data)
	aux, err := auxHashes(opts)
	if err != nil {
		return err
	}
	for _, f := range opts.Formats {
		key := r.Keyer.FigureKey(contentHash, opts.FigureKeyOpts(f, aux))
		if err := r.Cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// auxHashes fingerprints every auxiliary input file that shapes the figure
// beyond the primary data file. Each entry is tagged with the file's role
// so a contour overlay and a hatch overlay with equal contents still key
// differently. Missing files fail here, before any cache probe.
func auxHashes(opts Options) ([]string, error) {
	var hashes []string
	add := func(role, path string) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s file %s", role, path)
		}
		hashes = append(hashes, role+":"+cache.Hash(data))
		return nil
	}

	if err := add("spec", opts.SpecFile); err != nil {
		return nil, err
	}
	for _, p := range opts.ContourFiles {
		if err := add("contour", p); err != nil {
			return nil, err
		}
	}
	for _, p := range opts.HatchFiles {
		if err := add("hatch", p); err != nil {
			return nil, err
		}
	}
	if err := add("airports", opts.AirportFile); err != nil {
		return nil, err
	}
	if err := add("boundaries", opts.BoundaryFile); err != nil {
		return nil, err
	}
	return hashes, nil
}
