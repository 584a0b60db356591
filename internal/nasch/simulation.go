package nasch

import (
	"math/rand"
	"time"
)

// Simulation advances a Road through time with the four
// Nagel-Schreckenberg rules and records one Snapshot per step. It owns
// its random generator, so two simulations built from the same Config
// and seed replay identical histories regardless of what else the
// process draws.
type Simulation struct {
	cfg     Config
	road    *Road
	rng     *rand.Rand
	history History
	step    int
}

// New validates cfg, seeds a private generator, and places the vehicles.
// With a nil Config.Seed the generator is time-seeded and the run is not
// reproducible.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	road, err := NewRoad(cfg.RoadLength, cfg.NumVehicles(), rng)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		cfg:     cfg,
		road:    road,
		rng:     rng,
		history: History{RoadLength: cfg.RoadLength},
	}, nil
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() Config { return s.cfg }

// Road returns the live road state. Callers must treat it as read-only
// between steps.
func (s *Simulation) Road() *Road { return s.road }

// History returns the snapshots recorded so far.
func (s *Simulation) History() History { return s.history }

// Step applies one time step. Every vehicle's new speed is decided from
// the pre-step state alone, in the canonical rule order:
//
//  1. accelerate: v = min(v+1, max_speed)
//  2. keep distance: v = min(v, gap to the vehicle ahead)
//  3. random braking: with probability brake_prob, v = max(v-1, 0)
//  4. move all vehicles at once by their new speeds
//
// Rule 3 consumes exactly one draw per vehicle per step, in ascending
// position order, whether or not the vehicle can brake. The draw count
// is part of the reproducibility contract: it keeps the random stream
// aligned across runs independent of traffic state.
func (s *Simulation) Step() error {
	n := s.road.NumVehicles()
	newSpeeds := make([]int, n)
	for i := 0; i < n; i++ {
		v := s.road.speeds[i]
		if v < s.cfg.MaxSpeed {
			v++
		}
		if gap := s.road.GapAhead(i); v > gap {
			v = gap
		}
		if draw := s.rng.Float64(); draw < s.cfg.BrakeProb && v > 0 {
			v--
		}
		newSpeeds[i] = v
	}

	if err := s.road.ApplySpeedsAndMove(newSpeeds); err != nil {
		return err
	}
	s.step++
	if err := s.road.checkInvariants(s.step, s.cfg.MaxSpeed); err != nil {
		return err
	}

	s.history.append(s.road)
	return nil
}

// Run executes steps time steps, appending one snapshot per step.
func (s *Simulation) Run(steps int) error {
	if steps < 0 {
		return &ConfigError{Param: "steps", Value: steps, Reason: "must be non-negative"}
	}
	for i := 0; i < steps; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}
