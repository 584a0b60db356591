// Package config loads simulation scenarios from JSON files. All fields
// are pointer-typed so a partial file only overrides what it names; the
// same schema is accepted by the /api/runs endpoint for launching runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/trafficsim/internal/nasch"
)

// Scenario is the on-disk description of one simulation run. Fields
// omitted from the JSON keep the built-in defaults, so partial scenario
// files are safe.
type Scenario struct {
	RoadLength  *int     `json:"road_length,omitempty"`
	Density     *float64 `json:"density,omitempty"`
	MaxSpeed    *int     `json:"max_speed,omitempty"`
	BrakeProb   *float64 `json:"brake_prob,omitempty"`
	RandomSeed  *int64   `json:"random_seed,omitempty"`
	Steps       *int     `json:"steps,omitempty"`
	WarmupSteps *int     `json:"warmup_steps,omitempty"`
}

// DefaultConfig returns the built-in scenario: a 200-cell ring at 30%
// density, matching the canonical demonstration parameters.
func DefaultConfig() nasch.Config {
	return nasch.Config{
		RoadLength: 200,
		Density:    0.3,
		MaxSpeed:   5,
		BrakeProb:  0.2,
		Steps:      300,
	}
}

// DefaultWarmup is the warm-up window applied when a scenario does not
// set one: a fifth of the run, so summaries reflect equilibrium rather
// than initialisation artifacts.
func DefaultWarmup(steps int) int {
	return steps / 5
}

// LoadScenario loads a Scenario from a JSON file. The file must have a
// .json extension and stay under the max file size.
func LoadScenario(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scenario file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	return &s, nil
}

// Apply overlays the scenario's non-nil fields onto base and returns the
// result. Domain validation stays with nasch.Config.Validate, so a bad
// value in a file fails at the same place as a bad flag.
func (s *Scenario) Apply(base nasch.Config) nasch.Config {
	if s == nil {
		return base
	}
	if s.RoadLength != nil {
		base.RoadLength = *s.RoadLength
	}
	if s.Density != nil {
		base.Density = *s.Density
	}
	if s.MaxSpeed != nil {
		base.MaxSpeed = *s.MaxSpeed
	}
	if s.BrakeProb != nil {
		base.BrakeProb = *s.BrakeProb
	}
	if s.RandomSeed != nil {
		seed := *s.RandomSeed
		base.Seed = &seed
	}
	if s.Steps != nil {
		base.Steps = *s.Steps
	}
	return base
}

// Warmup returns the scenario's warm-up window, or the default for the
// given step count when unset.
func (s *Scenario) Warmup(steps int) int {
	if s != nil && s.WarmupSteps != nil {
		return *s.WarmupSteps
	}
	return DefaultWarmup(steps)
}
