package selector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teegee567/nsw-test-stats/internal/model"
)

// Sydney CBD.
const (
	sydneyLat = -33.8688
	sydneyLon = 151.2093
)

func sydneyAreaCenters() []*model.ServiceCenter {
	return []*model.ServiceCenter{
		{ID: 1, Name: "Rockdale", Latitude: -33.9520, Longitude: 151.1360},   // ~11 km
		{ID: 2, Name: "Ryde", Latitude: -33.8151, Longitude: 151.1027},       // ~12 km
		{ID: 3, Name: "Bankstown", Latitude: -33.9171, Longitude: 151.0349},  // ~17 km
		{ID: 4, Name: "Penrith", Latitude: -33.7511, Longitude: 150.6942},    // ~49 km
		{ID: 5, Name: "Goulburn", Latitude: -34.7515, Longitude: 149.7209},   // ~170 km
		{ID: 6, Name: "Wagga Wagga", Latitude: -35.1082, Longitude: 147.3598}, // ~390 km
	}
}

func TestWeight_CutoffAndShape(t *testing.T) {
	s := New()

	assert.Equal(t, 0.0, s.Weight(50.1))
	assert.Equal(t, 0.0, s.Weight(1000))

	// Inside the cutoff: 1/(d+0.5)^2.
	assert.InDelta(t, 1.0/(10.5*10.5), s.Weight(10), 1e-12)
	// Offset caps the weight at zero distance.
	assert.InDelta(t, 4.0, s.Weight(0), 1e-12)
	// Monotonically decreasing.
	assert.Greater(t, s.Weight(1), s.Weight(2))
}

func TestShortlist_ExcludesBeyondCutoff(t *testing.T) {
	s := New(WithMaxCandidates(10))
	shortlist := s.Shortlist(sydneyLat, sydneyLon, sydneyAreaCenters())

	for _, c := range shortlist {
		assert.LessOrEqual(t, c.Distance, 50.0)
		assert.NotEqual(t, "Goulburn", c.Center.Name)
		assert.NotEqual(t, "Wagga Wagga", c.Center.Name)
	}
	require.Len(t, shortlist, 4)
}

func TestShortlist_TruncatesAndNormalizes(t *testing.T) {
	s := New()
	shortlist := s.Shortlist(sydneyLat, sydneyLon, sydneyAreaCenters())

	// Four centers are in range, only the top three stay in the draw.
	require.Len(t, shortlist, 3)

	var sum float64
	for i, c := range shortlist {
		sum += c.Weight
		if i > 0 {
			assert.GreaterOrEqual(t, shortlist[i-1].Weight, c.Weight)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestShortlist_EmptyWhenAllFar(t *testing.T) {
	s := New()
	centers := []*model.ServiceCenter{
		{ID: 5, Name: "Goulburn", Latitude: -34.7515, Longitude: 149.7209},
	}
	assert.Nil(t, s.Shortlist(sydneyLat, sydneyLon, centers))
	assert.Nil(t, s.Pick(sydneyLat, sydneyLon, centers))
}

func TestPick_DeterministicWithFixedSeed(t *testing.T) {
	centers := sydneyAreaCenters()

	a := New(WithRand(rand.New(rand.NewSource(42))))
	b := New(WithRand(rand.New(rand.NewSource(42))))

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Pick(sydneyLat, sydneyLon, centers), b.Pick(sydneyLat, sydneyLon, centers))
	}
}

func TestPick_AlwaysFromShortlist(t *testing.T) {
	centers := sydneyAreaCenters()
	s := New(WithRand(rand.New(rand.NewSource(7))))

	allowed := map[int]bool{}
	for _, c := range s.Shortlist(sydneyLat, sydneyLon, centers) {
		allowed[c.Center.ID] = true
	}

	for i := 0; i < 200; i++ {
		picked := s.Pick(sydneyLat, sydneyLon, centers)
		require.NotNil(t, picked)
		assert.True(t, allowed[picked.ID], "picked center %d outside shortlist", picked.ID)
	}
}

func TestPick_BiasedTowardNearest(t *testing.T) {
	centers := sydneyAreaCenters()
	s := New(WithRand(rand.New(rand.NewSource(1))))

	counts := map[int]int{}
	for i := 0; i < 2000; i++ {
		counts[s.Pick(sydneyLat, sydneyLon, centers).ID]++
	}

	shortlist := s.Shortlist(sydneyLat, sydneyLon, centers)
	nearest := shortlist[0].Center.ID
	farthest := shortlist[len(shortlist)-1].Center.ID
	assert.Greater(t, counts[nearest], counts[farthest])
}

func TestOptions_OverrideDefaults(t *testing.T) {
	s := New(
		WithMaxDistance(5),
		WithOffset(1),
		WithExponent(1),
		WithMaxCandidates(1),
	)

	assert.Equal(t, 0.0, s.Weight(5.01))
	assert.InDelta(t, 1.0/3.0, s.Weight(2), 1e-12)
	assert.False(t, math.IsInf(s.Weight(0), 1))
}
