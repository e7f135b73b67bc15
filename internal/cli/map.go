package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nbrenner/wxplot/pkg/pipeline"
)

// newMapCmd creates the "map" command for rendering gridded fields.
func newMapCmd() *cobra.Command {
	var (
		dataPattern  string
		variable     string
		region       string
		fhrs         []int
		contourFiles []string
		hatchFiles   []string
		airportFile  string
		boundaryFile string
		specFile     string
		width        int
		height       int
		formats      string
		outDir       string
		noCache      bool
		refresh      bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render a gridded field as a shaded regional map",
		Long: `Render a gridded model field as a shaded map with optional contour
and hatch overlays, wind barbs, and a colorbar.

The --data pattern may contain a {fhr} token that is replaced with each
zero-padded forecast hour, so one invocation can render a whole run:

  wxplot map --data fields/temp_850_f{fhr}.json --var temp --fhr 0 12 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			hours, err := parseHours(fhrs)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			runner, err := newRunner(noCache, logger)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			prog := newProgress(logger)
			rendered := 0
			for _, fhr := range hours {
				opts := pipeline.Options{
					Kind:         pipeline.KindMap,
					DataFile:     expandDataPath(dataPattern, fhr, ""),
					Variable:     variable,
					Region:       region,
					ContourFiles: contourFiles,
					HatchFiles:   hatchFiles,
					AirportFile:  airportFile,
					BoundaryFile: boundaryFile,
					SpecFile:     specFile,
					Width:        width,
					Height:       height,
					Formats:      parseFormats(formats),
					Refresh:      refresh,
					Logger:       logger,
				}

				spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s f%03d...", variable, fhr))
				spinner.Start()
				result, err := runner.Execute(ctx, opts)
				if err != nil {
					spinner.StopWithError(fmt.Sprintf("Failed %s f%03d", variable, fhr))
					return err
				}
				if spinner.Cancelled() {
					spinner.Stop()
					return ctx.Err()
				}
				spinner.StopWithSuccess(fmt.Sprintf("Rendered %s f%03d", variable, fhr))

				stem := fmt.Sprintf("%s_%s", variable, opts.Region)
				for format, artifact := range result.Artifacts {
					path := filepath.Join(outDir, outputName(stem, fhr, format))
					if err := os.WriteFile(path, artifact, 0644); err != nil {
						return fmt.Errorf("write %s: %w", path, err)
					}
					printFile(path)
				}
				printStats(result.Stats.GridPoints, "", result.CacheInfo.RenderHit)
				rendered++
			}

			prog.done(fmt.Sprintf("Rendered %d figures", rendered))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPattern, "data", "", "field data file, may contain {fhr} (required)")
	cmd.Flags().StringVar(&variable, "var", "", "variable short name to plot (required)")
	cmd.Flags().StringVar(&region, "region", pipeline.DefaultRegion, "map domain")
	cmd.Flags().IntSliceVar(&fhrs, "fhr", []int{0}, "forecast hours: single, start stop, or start stop step")
	cmd.Flags().StringSliceVar(&contourFiles, "contour", nil, "overlay field files drawn as contour lines")
	cmd.Flags().StringSliceVar(&hatchFiles, "hatch", nil, "overlay field files drawn as hatching")
	cmd.Flags().StringVar(&airportFile, "airports", "", "airport location file to mark on the map")
	cmd.Flags().StringVar(&boundaryFile, "boundaries", "", "boundary polyline file to draw on the map")
	cmd.Flags().StringVar(&specFile, "specs", "", "variable spec file overriding the built-in specs")
	cmd.Flags().IntVar(&width, "width", pipeline.DefaultMapWidth, "figure width in pixels")
	cmd.Flags().IntVar(&height, "height", pipeline.DefaultMapHeight, "figure height in pixels")
	cmd.Flags().StringVar(&formats, "format", pipeline.FormatPNG, "comma-separated output formats (png, preview)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the figure cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even when the figure is cached")

	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("var")

	return cmd
}
