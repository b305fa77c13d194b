// Package aggregate turns one outcome file into per-center pass/fail tallies.
package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/teegee567/nsw-test-stats/internal/fetcher"
	"github.com/teegee567/nsw-test-stats/internal/model"
	"github.com/teegee567/nsw-test-stats/internal/selector"
	"github.com/teegee567/nsw-test-stats/pkg/geocode"
)

// Column names as published in the RTA datasets.
const (
	colCategory = "LICENCE TEST REPORTING CATEGORY"
	colArea     = "CUSTOMER ADDRESS LGA"
	colResult   = "RESULT"
	colCount    = "COUNT"
)

// Resolver resolves area labels to coordinates, deduplicated per call set.
type Resolver interface {
	ResolveAll(ctx context.Context, queries []string) (map[string]*geocode.Result, error)
}

// Aggregator filters a file's rows to one test category, geocodes the
// distinct areas, and attributes each row's count to a weighted-random
// nearby center.
type Aggregator struct {
	resolver  Resolver
	selector  *selector.Selector
	category  string
	delimiter rune
}

// New creates an Aggregator. The category filter matches the spelled-out
// reporting category exactly (e.g. "C Class Driving Test").
func New(resolver Resolver, sel *selector.Selector, category string, delimiter rune) *Aggregator {
	return &Aggregator{
		resolver:  resolver,
		selector:  sel,
		category:  category,
		delimiter: delimiter,
	}
}

// ProcessFile aggregates one input file into per-center tallies. Rows whose
// area cannot be geocoded, or whose nearest centers are all beyond the
// selector cutoff, are dropped and silently undercount the totals.
func (a *Aggregator) ProcessFile(ctx context.Context, path string, centers []*model.ServiceCenter) (model.CenterStats, error) {
	stats := model.NewCenterStats(centers)

	records, err := a.readRecords(path)
	if err != nil {
		return nil, err
	}

	// Resolve each distinct area exactly once.
	areaSet := make(map[string]bool)
	for _, rec := range records {
		areaSet[rec.Area] = true
	}
	areas := make([]string, 0, len(areaSet))
	for area := range areaSet {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	coords, err := a.resolver.ResolveAll(ctx, areas)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: resolve areas for %s", path)
	}

	dropped := 0
	for _, rec := range records {
		result, ok := coords[rec.Area]
		if !ok {
			dropped += rec.Count
			continue
		}

		center := a.selector.Pick(result.Lat, result.Lon, centers)
		if center == nil {
			continue
		}
		stats.Add(center.ID, rec.Result, rec.Count)
	}

	zap.L().Info("aggregate: file processed",
		zap.String("file", filepath.Base(path)),
		zap.Int("records", len(records)),
		zap.Int("areas", len(areas)),
		zap.Int("dropped_unresolved", dropped),
	)
	return stats, nil
}

// readRecords parses the file and keeps only rows in the configured category
// with a non-empty area.
func (a *Aggregator) readRecords(path string) ([]model.TestRecord, error) {
	var header []string
	var rows [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		header, rows, err = fetcher.ReadDelimited(f, fetcher.TableOptions{Delimiter: a.delimiter})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read %s", path)
	}

	idx := fetcher.ColumnIndex(header)
	var records []model.TestRecord
	for _, row := range rows {
		if fetcher.Field(row, idx, colCategory) != a.category {
			continue
		}
		area := strings.TrimSpace(fetcher.Field(row, idx, colArea))
		if area == "" {
			continue
		}
		records = append(records, model.TestRecord{
			Category: a.category,
			Area:     area,
			Result:   fetcher.Field(row, idx, colResult),
			Count:    model.ParseCount(fetcher.Field(row, idx, colCount)),
		})
	}
	return records, nil
}
