// Package nasch implements the Nagel-Schreckenberg single-lane traffic
// cellular automaton: a ring of cells advanced in discrete steps by four
// local rules (acceleration, gap-limited deceleration, random braking,
// synchronous movement). The package holds the update engine and the
// derived flow metrics; rendering, persistence, and CLI surfaces live in
// their own packages and consume this one read-only.
package nasch

import (
	"fmt"
	"math/rand"
	"sort"
)

// Road is the ring lane state: a sparse pair of parallel slices holding
// each vehicle's cell index and current speed. Positions are kept sorted
// ascending so the gap to the vehicle ahead is a neighbour lookup rather
// than an O(L) cell scan.
type Road struct {
	length    int
	positions []int
	speeds    []int
}

// NewRoad places numVehicles vehicles on distinct cells of a ring of the
// given length, chosen uniformly without replacement from rng, all with
// speed zero. The placement is rand.Perm(length)[:numVehicles] sorted
// ascending; golden-output tests depend on exactly this sequence of
// draws, so it must not change.
func NewRoad(length, numVehicles int, rng *rand.Rand) (*Road, error) {
	if length <= 0 {
		return nil, &ConfigError{Param: "road_length", Value: length, Reason: "must be a positive number of cells"}
	}
	if numVehicles < 0 || numVehicles > length {
		return nil, &ConfigError{Param: "num_vehicles", Value: numVehicles, Reason: fmt.Sprintf("must be in [0, %d]", length)}
	}

	positions := append([]int(nil), rng.Perm(length)[:numVehicles]...)
	sort.Ints(positions)

	return &Road{
		length:    length,
		positions: positions,
		speeds:    make([]int, numVehicles),
	}, nil
}

// Length returns the number of cells in the ring.
func (r *Road) Length() int { return r.length }

// NumVehicles returns the number of vehicles on the road.
func (r *Road) NumVehicles() int { return len(r.positions) }

// Positions returns a copy of the sorted vehicle position table.
func (r *Road) Positions() []int { return append([]int(nil), r.positions...) }

// Speeds returns a copy of the vehicle speed table, parallel to Positions.
func (r *Road) Speeds() []int { return append([]int(nil), r.speeds...) }

// GapAhead returns the number of empty cells strictly between vehicle i
// and the next vehicle ahead, wrapping past the end of the lane. A lone
// vehicle sees the whole ring: length-1.
func (r *Road) GapAhead(i int) int {
	n := len(r.positions)
	gap := r.positions[(i+1)%n] - r.positions[i] - 1
	if gap < 0 {
		gap += r.length
	}
	return gap
}

// ApplySpeedsAndMove stores the newly computed speed for every vehicle
// and advances each position by that speed, modulo the ring length. All
// moves are computed from the pre-move position table, so the movement
// is simultaneous. The position table stays sorted: collision avoidance
// guarantees no vehicle passes its leader, so only the trailing vehicle
// can cross the origin in one step, and when it does it rotates to the
// front of the table.
func (r *Road) ApplySpeedsAndMove(newSpeeds []int) error {
	n := len(r.positions)
	if len(newSpeeds) != n {
		return fmt.Errorf("speed table has %d entries, road has %d vehicles", len(newSpeeds), n)
	}

	wrapped := false
	for i := 0; i < n; i++ {
		r.speeds[i] = newSpeeds[i]
		next := r.positions[i] + newSpeeds[i]
		if next >= r.length {
			next -= r.length
			wrapped = true
		}
		r.positions[i] = next
	}

	if wrapped && n > 1 {
		lastPos, lastSpeed := r.positions[n-1], r.speeds[n-1]
		copy(r.positions[1:], r.positions[:n-1])
		copy(r.speeds[1:], r.speeds[:n-1])
		r.positions[0], r.speeds[0] = lastPos, lastSpeed
	}
	return nil
}

// checkInvariants verifies the post-step state: sorted distinct
// positions inside the ring and speeds inside [0, maxSpeed]. A failure
// indicates an engine bug, never a caller error.
func (r *Road) checkInvariants(step, maxSpeed int) error {
	for i, p := range r.positions {
		if p < 0 || p >= r.length {
			return &InvariantError{Step: step, Detail: fmt.Sprintf("vehicle %d at cell %d outside ring of %d", i, p, r.length)}
		}
		if i > 0 && p <= r.positions[i-1] {
			return &InvariantError{Step: step, Detail: fmt.Sprintf("vehicles %d and %d out of order at cells %d, %d", i-1, i, r.positions[i-1], p)}
		}
	}
	for i, v := range r.speeds {
		if v < 0 || v > maxSpeed {
			return &InvariantError{Step: step, Detail: fmt.Sprintf("vehicle %d speed %d outside [0, %d]", i, v, maxSpeed)}
		}
	}
	return nil
}
