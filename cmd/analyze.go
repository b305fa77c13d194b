package main

import (
	"encoding/json"
	"math/rand"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/teegee567/nsw-test-stats/internal/aggregate"
	"github.com/teegee567/nsw-test-stats/internal/pipeline"
	"github.com/teegee567/nsw-test-stats/internal/selector"
	"github.com/teegee567/nsw-test-stats/pkg/geocode"
)

var (
	analyzeDataDir string
	analyzeCenters string
	analyzeOut     string
	analyzeSeed    int64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate outcome files into per-center pass rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		inputDir := cfg.Data.InputDir
		if analyzeDataDir != "" {
			inputDir = analyzeDataDir
		}
		centersPath := cfg.Data.CentersPath
		if analyzeCenters != "" {
			centersPath = analyzeCenters
		}
		outputPath := cfg.Data.OutputPath
		if analyzeOut != "" {
			outputPath = analyzeOut
		}

		cache, closeCache, err := newCache()
		if err != nil {
			return err
		}
		defer closeCache()

		nominatim := geocode.NewNominatim(cfg.Geocode.UserAgent,
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithCountry(cfg.Geocode.Country),
			geocode.WithRateLimit(cfg.Geocode.RateLimit),
		)
		resolver := geocode.NewCachingResolver(nominatim, cache,
			geocode.WithConcurrency(cfg.Geocode.Concurrency),
		)

		selOpts := []selector.Option{
			selector.WithMaxDistance(cfg.Selector.MaxDistanceKM),
			selector.WithOffset(cfg.Selector.OffsetKM),
			selector.WithExponent(cfg.Selector.Exponent),
			selector.WithMaxCandidates(cfg.Selector.MaxCandidates),
		}
		if cmd.Flags().Changed("seed") {
			selOpts = append(selOpts, selector.WithRand(rand.New(rand.NewSource(analyzeSeed))))
		}
		sel := selector.New(selOpts...)

		delimiter := '|'
		if cfg.Data.Delimiter != "" {
			delimiter = []rune(cfg.Data.Delimiter)[0]
		}
		agg := aggregate.New(resolver, sel, cfg.Data.Category, delimiter)

		p := pipeline.New(cache, agg, inputDir, centersPath, outputPath)
		summary, err := p.Run(ctx)
		if err != nil {
			if eris.Is(err, pipeline.ErrNoInputFiles) {
				return eris.Wrapf(err, "nothing to analyze in %s", inputDir)
			}
			return eris.Wrap(err, "analyze")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDataDir, "data-dir", "", "directory of outcome files (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeCenters, "centers", "", "centers file (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "output path (default from config)")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "pin the selector's random seed for a reproducible run")
	rootCmd.AddCommand(analyzeCmd)
}
