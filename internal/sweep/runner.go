package sweep

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trafficsim/internal/monitoring"
	"github.com/banshee-data/trafficsim/internal/nasch"
)

// Config describes one fundamental-diagram sweep: the densities to
// visit and the fixed road parameters shared by every run.
type Config struct {
	Densities  []float64
	RoadLength int
	MaxSpeed   int
	BrakeProb  float64
	Steps      int
	Warmup     int
	// Replicates is the number of independently seeded runs averaged
	// per density. Zero means one.
	Replicates int
	// BaseSeed derives each run's seed as BaseSeed + density index *
	// Replicates + replicate index, so every point is reproducible and
	// no two runs share a stream.
	BaseSeed int64
}

// Point is one density's aggregated steady-state result. Mean and
// stddev are taken across replicates; the stddev is zero for a single
// replicate.
type Point struct {
	Density      float64 `json:"density"`
	NumVehicles  int     `json:"num_vehicles"`
	MeanFlow     float64 `json:"mean_flow"`
	FlowStd      float64 `json:"flow_std"`
	MeanSpeed    float64 `json:"mean_speed"`
	SpeedStd     float64 `json:"speed_std"`
	FlowEff      float64 `json:"flow_efficiency"`
	SpeedEff     float64 `json:"speed_efficiency"`
	MaxFlowBound float64 `json:"theoretical_max_flow"`
}

// Run executes the sweep sequentially and returns one Point per
// density, in input order.
func Run(cfg Config) ([]Point, error) {
	if len(cfg.Densities) == 0 {
		return nil, fmt.Errorf("sweep needs at least one density")
	}
	replicates := cfg.Replicates
	if replicates <= 0 {
		replicates = 1
	}

	points := make([]Point, 0, len(cfg.Densities))
	for di, density := range cfg.Densities {
		flows := make([]float64, 0, replicates)
		speeds := make([]float64, 0, replicates)

		runCfg := nasch.Config{
			RoadLength: cfg.RoadLength,
			Density:    density,
			MaxSpeed:   cfg.MaxSpeed,
			BrakeProb:  cfg.BrakeProb,
			Steps:      cfg.Steps,
		}

		for r := 0; r < replicates; r++ {
			seed := cfg.BaseSeed + int64(di*replicates+r)
			runCfg.Seed = &seed

			sim, err := nasch.New(runCfg)
			if err != nil {
				return nil, fmt.Errorf("density %g: %w", density, err)
			}
			if err := sim.Run(cfg.Steps); err != nil {
				return nil, fmt.Errorf("density %g: %w", density, err)
			}
			sum, err := nasch.Summarize(sim.History(), runCfg, cfg.Warmup)
			if err != nil {
				return nil, fmt.Errorf("density %g: %w", density, err)
			}
			flows = append(flows, sum.MeanFlow)
			speeds = append(speeds, sum.MeanSpeed)
		}

		p := Point{
			Density:      density,
			NumVehicles:  runCfg.NumVehicles(),
			MeanFlow:     stat.Mean(flows, nil),
			MeanSpeed:    stat.Mean(speeds, nil),
			MaxFlowBound: runCfg.TheoreticalMaxFlow(),
		}
		if len(flows) > 1 {
			p.FlowStd = stat.StdDev(flows, nil)
			p.SpeedStd = stat.StdDev(speeds, nil)
		}
		if p.MaxFlowBound > 0 {
			p.FlowEff = p.MeanFlow / p.MaxFlowBound
		}
		if cfg.MaxSpeed > 0 {
			p.SpeedEff = p.MeanSpeed / float64(cfg.MaxSpeed)
		}
		points = append(points, p)
		monitoring.Logf("density %.3f: flow %.4f, speed %.4f (%d/%d)",
			density, p.MeanFlow, p.MeanSpeed, di+1, len(cfg.Densities))
	}
	return points, nil
}

// PeakFlow returns the point with the highest mean flow: the capacity
// point of the fundamental diagram.
func PeakFlow(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, fmt.Errorf("no sweep points")
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.MeanFlow > best.MeanFlow {
			best = p
		}
	}
	return best, nil
}
