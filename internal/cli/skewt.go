package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/pipeline"
)

// newSkewTCmd creates the "skewt" command for rendering sounding profiles.
func newSkewTCmd() *cobra.Command {
	var (
		dataPattern string
		site        string
		sitesFile   string
		interactive bool
		fhr         int
		topPressure float64
		size        int
		formats     string
		outDir      string
		noCache     bool
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "skewt",
		Short: "Render a sounding profile as a skew-T diagram",
		Long: `Render a vertical sounding profile as a skew-T/log-p diagram with
temperature and dewpoint traces, wind barbs, a hodograph inset, and a
thermodynamic index table.

The --data pattern may contain {site} and {fhr} tokens:

  wxplot skewt --data soundings/{site}_f{fhr}.json --site DEN --fhr 9

With --interactive and a --sites file, the site is picked from a list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if interactive {
				if sitesFile == "" {
					return errors.New(errors.ErrCodeInvalidInput, "--interactive requires --sites")
				}
				sites, err := loadSites(sitesFile)
				if err != nil {
					return err
				}
				picked, err := selectSite(sites)
				if err != nil {
					return err
				}
				if picked == "" {
					printInfo("No site selected")
					return nil
				}
				site = picked
			}
			if site == "" {
				return errors.New(errors.ErrCodeInvalidInput, "a site code is required (--site or --interactive)")
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			runner, err := newRunner(noCache, logger)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			opts := pipeline.Options{
				Kind:        pipeline.KindSkewT,
				DataFile:    expandDataPath(dataPattern, fhr, site),
				Site:        site,
				TopPressure: topPressure,
				Width:       size,
				Height:      size,
				Formats:     parseFormats(formats),
				Refresh:     refresh,
				Logger:      logger,
			}

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering skew-T for %s...", strings.ToUpper(site)))
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Failed skew-T for %s", strings.ToUpper(site)))
				return err
			}
			if spinner.Cancelled() {
				spinner.Stop()
				return ctx.Err()
			}
			spinner.StopWithSuccess(fmt.Sprintf("Rendered skew-T for %s", strings.ToUpper(site)))

			stem := fmt.Sprintf("skewt_%s", strings.ToLower(site))
			for format, artifact := range result.Artifacts {
				path := filepath.Join(outDir, outputName(stem, fhr, format))
				if err := os.WriteFile(path, artifact, 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}
			printStats(result.Stats.GridPoints, "", result.CacheInfo.RenderHit)

			return nil
		},
	}

	cmd.Flags().StringVar(&dataPattern, "data", "", "profile data file, may contain {site} and {fhr} (required)")
	cmd.Flags().StringVar(&site, "site", "", "sounding site code (e.g., DEN)")
	cmd.Flags().StringVar(&sitesFile, "sites", "", "site list file for interactive selection")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the site from a list")
	cmd.Flags().IntVar(&fhr, "fhr", 0, "forecast hour")
	cmd.Flags().Float64Var(&topPressure, "top", 0, "top of the diagram in hPa (default full profile)")
	cmd.Flags().IntVar(&size, "size", pipeline.DefaultSkewTSize, "figure edge in pixels")
	cmd.Flags().StringVar(&formats, "format", pipeline.FormatPNG, "comma-separated output formats (png, preview)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the figure cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even when the figure is cached")

	_ = cmd.MarkFlagRequired("data")

	return cmd
}
