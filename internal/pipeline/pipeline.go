// Package pipeline orchestrates the multi-file driving-test analysis run.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/teegee567/nsw-test-stats/internal/aggregate"
	"github.com/teegee567/nsw-test-stats/internal/model"
	"github.com/teegee567/nsw-test-stats/pkg/geocode"
)

// ErrNoInputFiles is returned when the input directory holds no data files.
// No output is written in that case.
var ErrNoInputFiles = eris.New("pipeline: no input files")

// inputExtensions are the file suffixes enumerated from the input directory.
var inputExtensions = map[string]bool{
	".csv":  true,
	".psv":  true,
	".txt":  true,
	".xlsx": true,
}

// Pipeline runs the full analysis: load cache and centers, aggregate every
// input file, merge totals, finalize pass rates, persist results and cache.
type Pipeline struct {
	cache      geocode.Cache
	aggregator *aggregate.Aggregator

	inputDir    string
	centersPath string
	outputPath  string
}

// New creates a Pipeline.
func New(cache geocode.Cache, agg *aggregate.Aggregator, inputDir, centersPath, outputPath string) *Pipeline {
	return &Pipeline{
		cache:       cache,
		aggregator:  agg,
		inputDir:    inputDir,
		centersPath: centersPath,
		outputPath:  outputPath,
	}
}

// Summary reports what one run accomplished.
type Summary struct {
	RunID         string `json:"run_id"`
	Files         int    `json:"files"`
	Centers       int    `json:"centers"`
	TotalPasses   int    `json:"total_passes"`
	TotalFailures int    `json:"total_failures"`
	CacheEntries  int    `json:"cache_entries"`
}

// Run executes the pipeline. A file that fails to parse is logged and
// skipped; the run itself only aborts when there is nothing to process.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))

	loaded, err := p.cache.Load()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load cache")
	}
	log.Info("geocode cache loaded", zap.Int("entries", loaded))

	centers, err := model.LoadCenters(p.centersPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load centers")
	}

	files, err := p.listInputFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("no input files found", zap.String("dir", p.inputDir))
		return nil, ErrNoInputFiles
	}

	for _, file := range files {
		stats, err := p.aggregator.ProcessFile(ctx, file, centers)
		if err != nil {
			log.Error("file aggregation failed, skipping",
				zap.String("file", file),
				zap.Error(err),
			)
			continue
		}
		stats.MergeInto(centers)
	}

	model.FinalizePassRates(centers)

	if err := model.WriteCenters(p.outputPath, centers); err != nil {
		return nil, eris.Wrap(err, "pipeline: write output")
	}

	persisted, err := p.cache.Persist()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: persist cache")
	}

	summary := &Summary{
		RunID:        runID,
		Files:        len(files),
		Centers:      len(centers),
		CacheEntries: persisted,
	}
	for _, c := range centers {
		summary.TotalPasses += c.Passes
		summary.TotalFailures += c.Failures
	}

	log.Info("analysis complete",
		zap.Int("files", summary.Files),
		zap.Int("total_passes", summary.TotalPasses),
		zap.Int("total_failures", summary.TotalFailures),
		zap.String("output", p.outputPath),
	)
	return summary, nil
}

// listInputFiles enumerates data files in the input directory, sorted by
// name for a stable processing order.
func (p *Pipeline) listInputFiles() ([]string, error) {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read input dir %s", p.inputDir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if inputExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(p.inputDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
