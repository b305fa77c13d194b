package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	assert.Equal(t, 3, ParseCount("<=5"))
	assert.Equal(t, 3, ParseCount("≤5"))
	assert.Equal(t, 12, ParseCount("12"))
	assert.Equal(t, 0, ParseCount("abc"))
	assert.Equal(t, 0, ParseCount(""))
	assert.Equal(t, 0, ParseCount("0"))
}

func testCenters() []*ServiceCenter {
	return []*ServiceCenter{
		{ID: 1, Name: "Botany Bay", Latitude: -33.9460, Longitude: 151.1960},
		{ID: 2, Name: "Bankstown", Latitude: -33.9171, Longitude: 151.0349},
	}
}

func TestCenterStats_Add(t *testing.T) {
	stats := NewCenterStats(testCenters())

	stats.Add(1, ResultPass, 10)
	stats.Add(1, ResultFail, 3)
	stats.Add(2, "No Show", 7) // neither bucket

	assert.Equal(t, 10, stats[1].Passes)
	assert.Equal(t, 3, stats[1].Failures)
	assert.Equal(t, 0, stats[2].Passes)
	assert.Equal(t, 0, stats[2].Failures)
}

func TestCenterStats_MergeOrderIndependent(t *testing.T) {
	fileA := CenterStats{1: {Passes: 10, Failures: 2}, 2: {Passes: 5, Failures: 5}}
	fileB := CenterStats{1: {Passes: 1, Failures: 0}, 2: {Passes: 0, Failures: 3}}

	ab := testCenters()
	fileA.MergeInto(ab)
	fileB.MergeInto(ab)

	ba := testCenters()
	fileB.MergeInto(ba)
	fileA.MergeInto(ba)

	for i := range ab {
		assert.Equal(t, ab[i].Passes, ba[i].Passes)
		assert.Equal(t, ab[i].Failures, ba[i].Failures)
	}
	assert.Equal(t, 11, ab[0].Passes)
	assert.Equal(t, 2, ab[0].Failures)
	assert.Equal(t, 5, ab[1].Passes)
	assert.Equal(t, 8, ab[1].Failures)
}

func TestFinalizePassRates(t *testing.T) {
	centers := testCenters()
	centers[0].Passes = 75
	centers[0].Failures = 25

	FinalizePassRates(centers)

	assert.InDelta(t, 75.0, centers[0].PassRate, 1e-9)
	// No attributed tests: rate stays zero, no division by zero.
	assert.Equal(t, 0.0, centers[1].PassRate)
}

func TestLoadCenters_ZeroesAccumulators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centers.json")
	data := `[{"id":1,"name":"Botany Bay","latitude":-33.946,"longitude":151.196,"passes":99,"failures":42,"pass_rate":70.2}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	centers, err := LoadCenters(path)
	require.NoError(t, err)
	require.Len(t, centers, 1)

	assert.Equal(t, 1, centers[0].ID)
	assert.Equal(t, "Botany Bay", centers[0].Name)
	assert.Equal(t, 0, centers[0].Passes)
	assert.Equal(t, 0, centers[0].Failures)
	assert.Equal(t, 0.0, centers[0].PassRate)
}

func TestLoadCenters_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centers.yaml")
	data := "- id: 7\n  name: Goulburn\n  latitude: -34.7515\n  longitude: 149.7209\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	centers, err := LoadCenters(path)
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, 7, centers[0].ID)
	assert.InDelta(t, -34.7515, centers[0].Latitude, 1e-9)
}

func TestWriteCenters_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	centers := testCenters()
	centers[0].Passes = 10
	centers[0].Failures = 3
	FinalizePassRates(centers)

	require.NoError(t, WriteCenters(path, centers))

	got, err := LoadStats(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Passes)
	assert.Equal(t, 3, got[0].Failures)
	assert.InDelta(t, centers[0].PassRate, got[0].PassRate, 1e-9)
}

func TestLoadCenters_Missing(t *testing.T) {
	_, err := LoadCenters(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
