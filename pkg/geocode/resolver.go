package geocode

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CachingResolver consults the cache before the upstream resolver and stores
// successful matches. Misses and transport failures are never cached: a
// transient failure is retried on the next run, and Nominatim coverage for a
// genuinely unknown place can improve over time.
type CachingResolver struct {
	upstream    Resolver
	cache       Cache
	concurrency int
}

// CachingOption configures a CachingResolver.
type CachingOption func(*CachingResolver)

// WithConcurrency sets the maximum number of parallel upstream lookups used
// by ResolveAll. The default of 1 keeps resolution strictly sequential; the
// upstream rate limiter keeps higher values within the service's request
// budget.
func WithConcurrency(n int) CachingOption {
	return func(r *CachingResolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewCachingResolver wraps an upstream resolver with a cache.
func NewCachingResolver(upstream Resolver, cache Cache, opts ...CachingOption) *CachingResolver {
	r := &CachingResolver{
		upstream:    upstream,
		cache:       cache,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements Resolver. On a cache hit no external call is made.
// Upstream errors are logged and surfaced to the caller as an unmatched
// result so a bad address cannot abort a whole run.
func (r *CachingResolver) Resolve(ctx context.Context, query string) (*Result, error) {
	if cached, ok := r.cache.Get(query); ok {
		return cached, nil
	}

	result, err := r.upstream.Resolve(ctx, query)
	if err != nil {
		zap.L().Warn("geocode: lookup failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return &Result{Matched: false}, nil
	}

	if !result.Matched {
		zap.L().Info("geocode: no results", zap.String("query", query))
		return result, nil
	}

	r.cache.Put(query, result)
	return result, nil
}

// ResolveAll resolves a set of distinct queries and returns the matched ones
// keyed by query. Lookups run under the configured concurrency limit.
func (r *CachingResolver) ResolveAll(ctx context.Context, queries []string) (map[string]*Result, error) {
	resolved := make(map[string]*Result, len(queries))
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for _, query := range queries {
		eg.Go(func() error {
			result, err := r.Resolve(gCtx, query)
			if err != nil {
				return err
			}
			if result.Matched {
				mu.Lock()
				resolved[query] = result
				mu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
