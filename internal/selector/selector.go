// Package selector assigns a geographic point to one of several nearby
// service centers using inverse-distance weighted random sampling.
package selector

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/teegee567/nsw-test-stats/internal/geodist"
	"github.com/teegee567/nsw-test-stats/internal/model"
)

// Candidate pairs a center with its distance and sampling weight.
type Candidate struct {
	Center   *model.ServiceCenter
	Distance float64
	Weight   float64
}

// Selector draws a center for a point with probability proportional to an
// inverse power of distance, truncated to the nearest few candidates. Picks
// are intentionally randomized: the true home center of a record is unknown,
// and sampling approximates how load spreads across nearby centers.
type Selector struct {
	maxDistanceKM float64
	offsetKM      float64
	exponent      float64
	maxCandidates int
	rng           *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithMaxDistance sets the cutoff beyond which a center gets zero weight.
func WithMaxDistance(km float64) Option {
	return func(s *Selector) {
		s.maxDistanceKM = km
	}
}

// WithOffset sets the distance offset that caps the weight of near-zero
// distances.
func WithOffset(km float64) Option {
	return func(s *Selector) {
		s.offsetKM = km
	}
}

// WithExponent sets the inverse-power exponent of the weight formula.
func WithExponent(p float64) Option {
	return func(s *Selector) {
		s.exponent = p
	}
}

// WithMaxCandidates sets how many of the nearest centers stay in the draw.
func WithMaxCandidates(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithRand injects the random source, letting callers pin a seed for
// reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		s.rng = rng
	}
}

// New creates a Selector with the default parameters from the original
// analysis: 50 km cutoff, 0.5 km offset, inverse-square weighting, top 3.
func New(opts ...Option) *Selector {
	s := &Selector{
		maxDistanceKM: 50.0,
		offsetKM:      0.5,
		exponent:      2.0,
		maxCandidates: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Weight returns the unnormalized weight for a center at the given distance.
// Zero beyond the cutoff, else 1/(d+offset)^exponent: strongly biased toward
// the closest centers while leaving farther ones a nonzero chance.
func (s *Selector) Weight(distanceKM float64) float64 {
	if distanceKM > s.maxDistanceKM {
		return 0
	}
	return 1.0 / math.Pow(distanceKM+s.offsetKM, s.exponent)
}

// Shortlist computes the truncated, normalized sampling distribution for a
// point: the in-range centers sorted by weight, cut to maxCandidates, with
// weights normalized to sum to 1. Empty when every center is beyond the
// cutoff.
func (s *Selector) Shortlist(lat, lon float64, centers []*model.ServiceCenter) []Candidate {
	var candidates []Candidate
	for _, c := range centers {
		dist := geodist.Kilometers(lat, lon, c.Latitude, c.Longitude)
		weight := s.Weight(dist)
		if weight > 0 {
			candidates = append(candidates, Candidate{Center: c, Distance: dist, Weight: weight})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Weight > candidates[j].Weight
	})
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	var total float64
	for _, c := range candidates {
		total += c.Weight
	}
	for i := range candidates {
		candidates[i].Weight /= total
	}
	return candidates
}

// Pick samples one center for the point, or nil when every center is beyond
// the cutoff. Repeated calls with identical inputs may return different
// centers; the possible outputs are always among the shortlist.
func (s *Selector) Pick(lat, lon float64, centers []*model.ServiceCenter) *model.ServiceCenter {
	candidates := s.Shortlist(lat, lon, centers)
	if len(candidates) == 0 {
		return nil
	}

	draw := s.rng.Float64()
	var cumulative float64
	for _, c := range candidates {
		cumulative += c.Weight
		if draw < cumulative {
			return c.Center
		}
	}
	// Floating-point rounding can leave the cumulative sum a hair under 1.
	return candidates[len(candidates)-1].Center
}
