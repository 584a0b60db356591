package nasch

import "math"

// Config holds the parameters for one simulation run. Distances are in
// cells and times in steps, following the standard Nagel-Schreckenberg
// discretisation (one cell is conventionally 7.5 m and one step 1 s).
type Config struct {
	// RoadLength is the number of cells in the ring lane.
	RoadLength int `json:"road_length"`
	// Density is the fraction of occupied cells, in (0, 1].
	Density float64 `json:"density"`
	// MaxSpeed is the speed cap in cells per step.
	MaxSpeed int `json:"max_speed"`
	// BrakeProb is the per-vehicle per-step random braking probability.
	BrakeProb float64 `json:"brake_prob"`
	// Seed selects the random stream. A nil Seed means time-based
	// seeding and therefore a non-reproducible run.
	Seed *int64 `json:"random_seed,omitempty"`
	// Steps is the number of steps Run executes by default.
	Steps int `json:"steps"`
}

// Validate checks every parameter against its domain. It returns a
// *ConfigError describing the first violation found, or nil.
func (c Config) Validate() error {
	if c.RoadLength <= 0 {
		return &ConfigError{Param: "road_length", Value: c.RoadLength, Reason: "must be a positive number of cells"}
	}
	if c.Density <= 0 || c.Density > 1 {
		return &ConfigError{Param: "density", Value: c.Density, Reason: "must be in (0, 1]"}
	}
	if c.MaxSpeed < 0 {
		return &ConfigError{Param: "max_speed", Value: c.MaxSpeed, Reason: "must be non-negative"}
	}
	if c.BrakeProb < 0 || c.BrakeProb > 1 {
		return &ConfigError{Param: "brake_prob", Value: c.BrakeProb, Reason: "must be in [0, 1]"}
	}
	if c.Steps < 0 {
		return &ConfigError{Param: "steps", Value: c.Steps, Reason: "must be non-negative"}
	}
	return nil
}

// NumVehicles returns N = round(density * road_length), the fixed
// vehicle count for the run.
func (c Config) NumVehicles() int {
	return int(math.Round(c.Density * float64(c.RoadLength)))
}

// TheoreticalMaxFlow is the free-flow upper bound density * max_speed,
// reached when every vehicle travels at max_speed with no interaction.
func (c Config) TheoreticalMaxFlow() float64 {
	return c.Density * float64(c.MaxSpeed)
}
