package nasch

import "math"

// Flow is the per-step flow rate of a snapshot in vehicles per cell per
// step. On a ring every unit of speed is one vehicle crossing one cell
// boundary, so flow is the speed sum divided by the lane length.
func (s Snapshot) Flow(roadLength int) float64 {
	var sum int
	for _, v := range s.Speeds {
		sum += v
	}
	return float64(sum) / float64(roadLength)
}

// MeanSpeed is the mean vehicle speed of a snapshot, 0 for an empty
// road.
func (s Snapshot) MeanSpeed() float64 {
	if len(s.Speeds) == 0 {
		return 0
	}
	var sum int
	for _, v := range s.Speeds {
		sum += v
	}
	return float64(sum) / float64(len(s.Speeds))
}

// FlowSeries returns the per-step flow rates of the whole history.
func (h History) FlowSeries() []float64 {
	out := make([]float64, len(h.Snapshots))
	for i, s := range h.Snapshots {
		out[i] = s.Flow(h.RoadLength)
	}
	return out
}

// SpeedSeries returns the per-step mean speeds of the whole history.
func (h History) SpeedSeries() []float64 {
	out := make([]float64, len(h.Snapshots))
	for i, s := range h.Snapshots {
		out[i] = s.MeanSpeed()
	}
	return out
}

// Summary aggregates a run's steady-state behaviour over the steps that
// survive the warm-up window.
type Summary struct {
	MeanFlow           float64 `json:"mean_flow"`
	MeanSpeed          float64 `json:"mean_speed"`
	FlowStd            float64 `json:"flow_std"`
	SpeedStd           float64 `json:"speed_std"`
	FlowEfficiency     float64 `json:"flow_efficiency"`
	SpeedEfficiency    float64 `json:"speed_efficiency"`
	TheoreticalMaxFlow float64 `json:"theoretical_max_flow"`
	WarmupSteps        int     `json:"warmup_steps"`
	SampledSteps       int     `json:"sampled_steps"`
}

// Summarize derives steady-state statistics from a recorded history,
// discarding the first warmup steps as initialisation transient. A
// history shorter than the warm-up window yields a zero-valued summary
// (aside from the theoretical bound); warmup must not be negative.
func Summarize(h History, cfg Config, warmup int) (Summary, error) {
	if warmup < 0 {
		return Summary{}, &ConfigError{Param: "warmup_steps", Value: warmup, Reason: "must be non-negative"}
	}

	sum := Summary{
		TheoreticalMaxFlow: cfg.TheoreticalMaxFlow(),
		WarmupSteps:        warmup,
	}
	if warmup >= len(h.Snapshots) {
		return sum, nil
	}

	flows := h.FlowSeries()[warmup:]
	speeds := h.SpeedSeries()[warmup:]
	sum.SampledSteps = len(flows)

	sum.MeanFlow, sum.FlowStd = meanStddev(flows)
	sum.MeanSpeed, sum.SpeedStd = meanStddev(speeds)
	if sum.TheoreticalMaxFlow > 0 {
		sum.FlowEfficiency = sum.MeanFlow / sum.TheoreticalMaxFlow
	}
	if cfg.MaxSpeed > 0 {
		sum.SpeedEfficiency = sum.MeanSpeed / float64(cfg.MaxSpeed)
	}
	return sum, nil
}

// meanStddev calculates the mean and sample standard deviation of a
// slice. Returns (0, 0) for empty slices.
func meanStddev(xs []float64) (mean float64, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean = sum / float64(len(xs))

	var sdSum float64
	for _, v := range xs {
		d := v - mean
		sdSum += d * d
	}
	if len(xs) > 1 {
		stddev = math.Sqrt(sdSum / float64(len(xs)-1))
	}
	return mean, stddev
}
