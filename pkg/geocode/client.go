// Package geocode resolves free-text place names to coordinates via
// Nominatim, with a persistent local cache in front of the external service.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Coordinate is a point on Earth in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Result holds the geocoding output for a query. Matched distinguishes a
// resolved place from an empty result set.
type Result struct {
	Coordinate
	DisplayName string
	Matched     bool
}

// Resolver resolves a free-text query to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Result, error)
}

// Option configures the Nominatim client.
type Option func(*Nominatim)

// WithBaseURL overrides the Nominatim endpoint (used in tests and for
// self-hosted instances).
func WithBaseURL(u string) Option {
	return func(n *Nominatim) {
		n.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *Nominatim) {
		n.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second budget. Nominatim's usage
// policy caps anonymous clients at one request per second.
func WithRateLimit(rps float64) Option {
	return func(n *Nominatim) {
		n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCountry restricts results to a country code (e.g. "au").
func WithCountry(code string) Option {
	return func(n *Nominatim) {
		n.country = code
	}
}

// NewNominatim creates a Nominatim resolver. The user agent is mandatory
// under the service's usage policy.
func NewNominatim(userAgent string, opts ...Option) *Nominatim {
	n := &Nominatim{
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  userAgent,
		country:    "au",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}
