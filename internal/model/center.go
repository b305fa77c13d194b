// Package model defines the domain types shared across the analysis pipeline.
package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ServiceCenter is one driving-test service center with accumulated outcome
// totals. Latitude/longitude come pre-populated in the centers file.
type ServiceCenter struct {
	ID        int     `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Passes    int     `json:"passes" yaml:"passes"`
	Failures  int     `json:"failures" yaml:"failures"`
	PassRate  float64 `json:"pass_rate" yaml:"pass_rate"`
}

// LoadCenters reads the center list from a JSON or YAML file and
// zero-initializes the accumulators.
func LoadCenters(path string) ([]*ServiceCenter, error) {
	centers, err := LoadStats(path)
	if err != nil {
		return nil, err
	}
	for _, c := range centers {
		c.Passes = 0
		c.Failures = 0
		c.PassRate = 0
	}
	return centers, nil
}

// LoadStats reads a center list without touching the accumulators, for
// consumers of an already-computed output file.
func LoadStats(path string) ([]*ServiceCenter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read centers %s", path)
	}

	var centers []*ServiceCenter
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &centers)
	default:
		err = json.Unmarshal(data, &centers)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "model: parse centers %s", path)
	}
	return centers, nil
}

// WriteCenters writes the center list, including accumulated stats, as
// indented JSON.
func WriteCenters(path string, centers []*ServiceCenter) error {
	data, err := json.MarshalIndent(centers, "", "  ")
	if err != nil {
		return eris.Wrap(err, "model: marshal centers")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "model: write centers %s", path)
	}
	return nil
}

// FinalizePassRates recomputes each center's pass rate from its totals.
// Centers with no attributed tests keep a rate of zero.
func FinalizePassRates(centers []*ServiceCenter) {
	for _, c := range centers {
		total := c.Passes + c.Failures
		if total > 0 {
			c.PassRate = float64(c.Passes) / float64(total) * 100.0
		} else {
			c.PassRate = 0
		}
	}
}
