package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/starmap/internal/cache"
	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/config"
	"github.com/papapumpkin/starmap/internal/filter"
	"github.com/papapumpkin/starmap/internal/preset"
	"github.com/papapumpkin/starmap/internal/render"
	"github.com/papapumpkin/starmap/internal/telemetry"
)

var renderCmd = &cobra.Command{
	Use:   "render [FILE]",
	Short: "Render a sky window of the catalog to a PNG",
	Long: `Runs the full pipeline: parse the catalog, filter by RA/Dec window and
maximum magnitude, and rasterize the survivors to a grayscale PNG.

FILE is the Tycho-2 catalog path; when omitted, the configured catalog
path is used. With --from-cache the star cache built by "starmap cache
build" is queried instead of parsing the catalog. With --watch the map is
re-rendered whenever the catalog file changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Float64("min-ra", 0, "minimum right ascension (degrees)")
	renderCmd.Flags().Float64("max-ra", 360, "maximum right ascension (degrees)")
	renderCmd.Flags().Float64("min-dec", -90, "minimum declination (degrees)")
	renderCmd.Flags().Float64("max-dec", 90, "maximum declination (degrees)")
	renderCmd.Flags().Float64("max-magnitude", 6, "maximum visual magnitude (lower is brighter)")
	renderCmd.Flags().Int("width", 800, "output image width in pixels")
	renderCmd.Flags().Int("height", 600, "output image height in pixels")
	renderCmd.Flags().StringP("output", "o", "", "output image file name")
	renderCmd.Flags().String("preset", "", "named sky region from the preset file")
	renderCmd.Flags().Bool("from-cache", false, "query the star cache instead of parsing the catalog")
	renderCmd.Flags().BoolP("watch", "w", false, "re-render whenever the catalog file changes")

	rootCmd.AddCommand(renderCmd)
}

// renderSettings is the fully resolved input of one render: config merged
// with preset and flag overrides.
type renderSettings struct {
	cfg       config.Config
	window    filter.Window
	source    string
	fromCache bool
}

func runRender(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd, args)
	if err != nil {
		return err
	}

	var em *telemetry.Emitter
	if settings.cfg.Telemetry {
		em, err = telemetry.NewRun(telemetry.Dir)
		if err != nil {
			return err
		}
		defer em.Close()
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return renderWatch(cmd, settings, em)
	}
	return renderOnce(cmd, settings, em)
}

// resolveSettings merges config, preset, and flags into one settings value.
// Precedence: defaults < config file/env < preset < explicit flags.
func resolveSettings(cmd *cobra.Command, args []string) (renderSettings, error) {
	cfg := config.Load()

	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		file, err := preset.Load(cfg.PresetFile)
		if err != nil {
			return renderSettings{}, err
		}
		p, err := file.Lookup(name)
		if err != nil {
			return renderSettings{}, err
		}
		cfg.MinRA, cfg.MaxRA = p.MinRA, p.MaxRA
		cfg.MinDec, cfg.MaxDec = p.MinDec, p.MaxDec
		if p.MaxMagnitude != nil {
			cfg.MaxMagnitude = *p.MaxMagnitude
		}
	}

	applyFlagOverrides(cmd, &cfg)

	source := cfg.Catalog
	if len(args) > 0 {
		source = args[0]
	}
	fromCache, _ := cmd.Flags().GetBool("from-cache")

	return renderSettings{
		cfg: cfg,
		window: filter.Window{
			MinRA:  cfg.MinRA,
			MaxRA:  cfg.MaxRA,
			MinDec: cfg.MinDec,
			MaxDec: cfg.MaxDec,
		},
		source:    source,
		fromCache: fromCache,
	}, nil
}

// applyFlagOverrides applies explicitly set CLI flag values to the loaded
// config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-ra") {
		cfg.MinRA, _ = flags.GetFloat64("min-ra")
	}
	if flags.Changed("max-ra") {
		cfg.MaxRA, _ = flags.GetFloat64("max-ra")
	}
	if flags.Changed("min-dec") {
		cfg.MinDec, _ = flags.GetFloat64("min-dec")
	}
	if flags.Changed("max-dec") {
		cfg.MaxDec, _ = flags.GetFloat64("max-dec")
	}
	if flags.Changed("max-magnitude") {
		cfg.MaxMagnitude, _ = flags.GetFloat64("max-magnitude")
	}
	if flags.Changed("width") {
		cfg.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		cfg.Height, _ = flags.GetInt("height")
	}
	if out, _ := flags.GetString("output"); out != "" {
		cfg.Output = out
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.Verbose = true
	}
}

// renderOnce runs the pipeline a single time.
func renderOnce(cmd *cobra.Command, s renderSettings, em *telemetry.Emitter) error {
	out := cmd.OutOrStdout()
	cfg := s.cfg

	fmt.Fprintf(out, "Reading stars from: %s\n", s.source)
	fmt.Fprintf(out, "RA range: %g to %g\n", s.window.MinRA, s.window.MaxRA)
	fmt.Fprintf(out, "Dec range: %g to %g\n", s.window.MinDec, s.window.MaxDec)
	fmt.Fprintf(out, "Max magnitude: %g\n", cfg.MaxMagnitude)

	em.Emit(telemetry.KindRunStart, map[string]any{
		"source": s.source, "from_cache": s.fromCache,
		"min_ra": s.window.MinRA, "max_ra": s.window.MaxRA,
		"min_dec": s.window.MinDec, "max_dec": s.window.MaxDec,
		"max_magnitude": cfg.MaxMagnitude,
		"width":         cfg.Width, "height": cfg.Height,
	})

	var (
		stars []catalog.Star
		err   error
	)
	if s.fromCache {
		stars, err = loadFromCache(cmd.Context(), cfg, s.window)
	} else {
		stars, err = loadAndFilter(cmd, s, em)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Total stars: %d\n", len(stars))

	start := time.Now()
	img := render.Rasterize(stars, s.window, cfg.Width, cfg.Height)
	em.Emit(telemetry.KindRenderDone, map[string]any{
		"width": cfg.Width, "height": cfg.Height,
		"stars": len(stars), "elapsed_ms": time.Since(start).Milliseconds(),
	})

	if err := render.WritePNG(cfg.Output, img); err != nil {
		return err
	}
	em.Emit(telemetry.KindImageWritten, map[string]any{"path": cfg.Output})
	if cfg.Verbose {
		fmt.Fprintf(out, "Time taken to render and save image: %s\n", time.Since(start))
	}
	fmt.Fprintf(out, "Image saved as: %s\n", cfg.Output)

	em.Emit(telemetry.KindRunDone, nil)
	return nil
}

// loadAndFilter parses the catalog and applies the window and magnitude
// cut, reporting skipped rows on stderr.
func loadAndFilter(cmd *cobra.Command, s renderSettings, em *telemetry.Emitter) ([]catalog.Star, error) {
	res, err := catalog.Load(s.source)
	if err != nil {
		return nil, err
	}
	reportSkips(cmd.ErrOrStderr(), &res.Skips)

	if s.cfg.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "Time taken to read catalog: %s\n", res.ReadTime)
		fmt.Fprintf(cmd.OutOrStdout(), "Time taken to parse: %s\n", res.ParseTime)
	}
	em.Emit(telemetry.KindCatalogLoaded, map[string]any{
		"rows": res.Rows, "stars": len(res.Stars), "skipped": res.Skips.Total,
		"read_ms": res.ReadTime.Milliseconds(), "parse_ms": res.ParseTime.Milliseconds(),
	})

	start := time.Now()
	stars := filter.Apply(res.Stars, s.window, s.cfg.MaxMagnitude)
	em.Emit(telemetry.KindFilterDone, map[string]any{
		"kept": len(stars), "elapsed_ms": time.Since(start).Milliseconds(),
	})
	return stars, nil
}

// loadFromCache queries the star cache for the window, with the magnitude
// cut pushed into the query.
func loadFromCache(ctx context.Context, cfg config.Config, w filter.Window) ([]catalog.Star, error) {
	store, err := cache.Open(ctx, cfg.CachePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	stars, err := store.QueryWindow(ctx, w, cfg.MaxMagnitude)
	if errors.Is(err, cache.ErrEmpty) {
		return nil, fmt.Errorf("star cache %s is empty; run \"starmap cache build\" first", cfg.CachePath)
	}
	return stars, err
}

// reportSkips prints the retained per-row diagnostics, the suppression
// notice when the cap was hit, and the exact total.
func reportSkips(w io.Writer, skips *catalog.SkipReport) {
	for _, skip := range skips.Diagnostics {
		fmt.Fprintf(w, "Skipping row %d due to error: %s\n", skip.Row, skip.Reason)
	}
	if skips.Truncated {
		fmt.Fprintln(w, "Further skipped rows will not be printed...")
	}
	if skips.Total > 0 {
		fmt.Fprintf(w, "Skipped %d rows in total\n", skips.Total)
	}
}

// renderWatch renders once, then re-renders whenever the catalog file
// changes, until interrupted.
func renderWatch(cmd *cobra.Command, s renderSettings, em *telemetry.Emitter) error {
	if s.fromCache {
		return errors.New("--watch cannot be combined with --from-cache")
	}

	if err := renderOnce(cmd, s, em); err != nil {
		return err
	}

	watcher, err := catalog.WatchFile(s.source)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (ctrl-c to stop)\n", s.source)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watcher.Changes:
			if !ok {
				return nil
			}
			if err := renderOnce(cmd, s, em); err != nil {
				// Keep watching: a half-written catalog parses
				// again on the next settle.
				fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
			}
		}
	}
}
