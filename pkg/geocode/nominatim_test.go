package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sydneyResponse = `[{"lat":"-33.8688","lon":"151.2093","display_name":"Sydney, Council of the City of Sydney, New South Wales, Australia"}]`

func newTestNominatim(t *testing.T, handler http.HandlerFunc) (*Nominatim, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewNominatim("test-agent/1.0",
		WithBaseURL(srv.URL),
		WithRateLimit(1000), // don't slow the tests down
		WithHTTPClient(srv.Client()),
	)
	return n, srv
}

func TestNominatim_Resolve(t *testing.T) {
	var gotQuery, gotAgent string
	var gotParams map[string]string

	n, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		gotParams = map[string]string{
			"q":            r.URL.Query().Get("q"),
			"format":       r.URL.Query().Get("format"),
			"limit":        r.URL.Query().Get("limit"),
			"countrycodes": r.URL.Query().Get("countrycodes"),
		}
		w.Write([]byte(sydneyResponse)) //nolint:errcheck
	})

	result, err := n.Resolve(context.Background(), "Sydney")
	require.NoError(t, err)

	assert.Equal(t, "/search", gotQuery)
	assert.Equal(t, "test-agent/1.0", gotAgent)
	assert.Equal(t, "Sydney", gotParams["q"])
	assert.Equal(t, "json", gotParams["format"])
	assert.Equal(t, "1", gotParams["limit"])
	assert.Equal(t, "au", gotParams["countrycodes"])

	require.True(t, result.Matched)
	assert.InDelta(t, -33.8688, result.Lat, 1e-9)
	assert.InDelta(t, 151.2093, result.Lon, 1e-9)
	assert.Contains(t, result.DisplayName, "Sydney")
}

func TestNominatim_EmptyResultIsUnmatched(t *testing.T) {
	n, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`)) //nolint:errcheck
	})

	result, err := n.Resolve(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestNominatim_ServerErrorIsError(t *testing.T) {
	n, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := n.Resolve(context.Background(), "Sydney")
	assert.Error(t, err)
}

func TestNominatim_MalformedBodyIsError(t *testing.T) {
	n, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	})

	_, err := n.Resolve(context.Background(), "Sydney")
	assert.Error(t, err)
}

func TestNominatim_CountryOverride(t *testing.T) {
	var gotCountry string
	n, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		gotCountry = r.URL.Query().Get("countrycodes")
		w.Write([]byte(`[]`)) //nolint:errcheck
	})
	WithCountry("nz")(n)

	_, err := n.Resolve(context.Background(), "Wellington")
	require.NoError(t, err)
	assert.Equal(t, "nz", gotCountry)
}
