package nasch

// EmptyCell is the sentinel speed for an unoccupied cell in dense
// renderings of a snapshot.
const EmptyCell = -1

// Snapshot is one step's road state: copies of the sorted position
// table and the parallel speed table.
type Snapshot struct {
	Positions []int `json:"positions"`
	Speeds    []int `json:"speeds"`
}

// Dense expands the snapshot into a per-cell speed array of the given
// length, with EmptyCell marking unoccupied cells.
func (s Snapshot) Dense(length int) []int {
	cells := make([]int, length)
	for i := range cells {
		cells[i] = EmptyCell
	}
	for i, p := range s.Positions {
		cells[p] = s.Speeds[i]
	}
	return cells
}

// History is the append-only record of a run: one snapshot per elapsed
// step. The engine owns and grows it; metrics and rendering consume it
// read-only.
type History struct {
	// RoadLength is carried so consumers can build dense renderings
	// and normalise flow without the originating Config.
	RoadLength int        `json:"road_length"`
	Snapshots  []Snapshot `json:"snapshots"`
}

// Steps returns the number of recorded steps.
func (h History) Steps() int { return len(h.Snapshots) }

// Dense returns the step-by-cell speed matrix with EmptyCell sentinels,
// one row per recorded step.
func (h History) Dense() [][]int {
	rows := make([][]int, len(h.Snapshots))
	for i, s := range h.Snapshots {
		rows[i] = s.Dense(h.RoadLength)
	}
	return rows
}

func (h *History) append(r *Road) {
	h.Snapshots = append(h.Snapshots, Snapshot{
		Positions: r.Positions(),
		Speeds:    r.Speeds(),
	})
}
