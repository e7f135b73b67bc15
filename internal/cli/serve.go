package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/nbrenner/wxplot/pkg/cache"
	"github.com/nbrenner/wxplot/pkg/errors"
	"github.com/nbrenner/wxplot/pkg/observability"
	"github.com/nbrenner/wxplot/pkg/pipeline"
)

// serveConfig holds the HTTP server settings assembled from flags.
type serveConfig struct {
	addr         string
	dataDir      string
	region       string
	airportFile  string
	boundaryFile string
	specFile     string
	backend      string
	redisURL     string
	mongoURI     string
	mongoDB      string
	ttl          time.Duration
}

// newServeCmd creates the "serve" command for the figure HTTP server.
func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered figures over HTTP",
		Long: `Start an HTTP server that renders figures on demand from data files
under --data-dir and caches the rendered artifacts.

Routes:

  GET /healthz                liveness probe
  GET /maps/{variable}        shaded map for <variable>_f<fhr>.json
  GET /skewt/{site}           skew-T for skewt_<site>_f<fhr>.json

Both figure routes accept fhr, width, height, format, and refresh query
parameters. Cached artifacts are stored in the backend chosen with --cache
(file, redis, mongo, or none).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			c, err := newServeCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			runner := pipeline.NewRunner(c, nil, logger)
			srv := &http.Server{
				Addr:              cfg.addr,
				Handler:           newServeMux(runner, cfg, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				printInfo("Listening on %s", cfg.addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				printInfo("Server stopped")
				return nil
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&cfg.dataDir, "data-dir", ".", "directory holding field and profile data files")
	cmd.Flags().StringVar(&cfg.region, "region", pipeline.DefaultRegion, "map domain")
	cmd.Flags().StringVar(&cfg.airportFile, "airports", "", "airport location file to mark on maps")
	cmd.Flags().StringVar(&cfg.boundaryFile, "boundaries", "", "boundary polyline file to draw on maps")
	cmd.Flags().StringVar(&cfg.specFile, "specs", "", "variable spec file overriding the built-in specs")
	cmd.Flags().StringVar(&cfg.backend, "cache", "file", "cache backend: file, redis, mongo, or none")
	cmd.Flags().StringVar(&cfg.redisURL, "redis-url", "redis://localhost:6379/0", "redis connection URL")
	cmd.Flags().StringVar(&cfg.mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb connection URI")
	cmd.Flags().StringVar(&cfg.mongoDB, "mongo-db", appName, "mongodb database name")
	cmd.Flags().DurationVar(&cfg.ttl, "ttl", pipeline.DefaultTTL, "cached artifact lifetime")

	return cmd
}

// newServeCache builds the cache backend selected by --cache.
func newServeCache(ctx context.Context, cfg serveConfig) (cache.Cache, error) {
	switch cfg.backend {
	case "none":
		return cache.NewNullCache(), nil
	case "file":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(cfg.redisURL)
	case "mongo":
		return cache.NewMongoCache(ctx, cfg.mongoURI, cfg.mongoDB, "figures")
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.backend)
	}
}

// newServeMux assembles the chi router for the figure server.
func newServeMux(runner *pipeline.Runner, cfg serveConfig, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestHooks(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "ok")
	})

	r.Get("/maps/{variable}", func(w http.ResponseWriter, req *http.Request) {
		variable := chi.URLParam(req, "variable")
		q := req.URL.Query()
		fhr := queryInt(q.Get("fhr"), 0)

		opts := pipeline.Options{
			Kind:         pipeline.KindMap,
			DataFile:     filepath.Join(cfg.dataDir, fmt.Sprintf("%s_f%03d.json", variable, fhr)),
			Variable:     variable,
			Region:       orDefault(q.Get("region"), cfg.region),
			AirportFile:  cfg.airportFile,
			BoundaryFile: cfg.boundaryFile,
			SpecFile:     cfg.specFile,
			Width:        queryInt(q.Get("width"), 0),
			Height:       queryInt(q.Get("height"), 0),
			Refresh:      q.Get("refresh") == "true",
			TTL:          cfg.ttl,
			Logger:       runner.Logger,
		}
		serveFigure(w, req, runner, opts, q.Get("format"))
	})

	r.Get("/skewt/{site}", func(w http.ResponseWriter, req *http.Request) {
		site := chi.URLParam(req, "site")
		q := req.URL.Query()
		fhr := queryInt(q.Get("fhr"), 0)

		opts := pipeline.Options{
			Kind:        pipeline.KindSkewT,
			DataFile:    filepath.Join(cfg.dataDir, fmt.Sprintf("skewt_%s_f%03d.json", strings.ToLower(site), fhr)),
			Site:        site,
			TopPressure: queryFloat(q.Get("top"), 0),
			Width:       queryInt(q.Get("width"), 0),
			Height:      queryInt(q.Get("height"), 0),
			Refresh:     q.Get("refresh") == "true",
			TTL:         cfg.ttl,
			Logger:      runner.Logger,
		}
		serveFigure(w, req, runner, opts, q.Get("format"))
	})

	return r
}

// serveFigure runs the pipeline for one request and writes the artifact.
func serveFigure(w http.ResponseWriter, req *http.Request, runner *pipeline.Runner, opts pipeline.Options, format string) {
	if format == "" {
		format = pipeline.FormatPNG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	result, err := runner.Execute(req.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Run-Id", result.RunID)
	if result.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.Write(result.Artifacts[format])
}

// writeError maps pipeline error codes to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeFileNotFound, errors.ErrCodeNotFound, errors.ErrCodeSiteNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidVariable, errors.ErrCodeInvalidRegion,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidLevel, errors.ErrCodeInvalidGrid,
		errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	}
	http.Error(w, errors.UserMessage(err), status)
}

// requestHooks logs each request and forwards it to the observability hooks.
func requestHooks(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			observability.HTTP().OnRequest(req.Context(), req.Method, req.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			elapsed := time.Since(start)
			observability.HTTP().OnResponse(req.Context(), req.Method, req.URL.Path, ww.Status(), elapsed)
			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", ww.Status(),
				"duration", elapsed.Round(time.Millisecond))
		})
	}
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// queryFloat parses a float query parameter, falling back to def.
func queryFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
