package nasch

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// constantHistory builds a synthetic history where every vehicle holds
// speed v on every step.
func constantHistory(roadLength, steps int, positions []int, v int) History {
	h := History{RoadLength: roadLength}
	for s := 0; s < steps; s++ {
		speeds := make([]int, len(positions))
		for i := range speeds {
			speeds[i] = v
		}
		h.Snapshots = append(h.Snapshots, Snapshot{
			Positions: append([]int(nil), positions...),
			Speeds:    speeds,
		})
	}
	return h
}

func TestFlowFormulaForConstantSpeeds(t *testing.T) {
	// Three vehicles at constant speed 2 on a 10-cell ring:
	// flow must be exactly N*s/L = 0.6 every step.
	h := constantHistory(10, 5, []int{1, 4, 8}, 2)
	cfg := Config{RoadLength: 10, Density: 0.3, MaxSpeed: 5, BrakeProb: 0}

	sum, err := Summarize(h, cfg, 0)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.MeanFlow != 0.6 {
		t.Errorf("MeanFlow = %v, want exactly 0.6", sum.MeanFlow)
	}
	if sum.FlowStd != 0 {
		t.Errorf("FlowStd = %v, want 0 for constant flow", sum.FlowStd)
	}
	if sum.MeanSpeed != 2 {
		t.Errorf("MeanSpeed = %v, want 2", sum.MeanSpeed)
	}
	if sum.TheoreticalMaxFlow != 1.5 {
		t.Errorf("TheoreticalMaxFlow = %v, want 1.5", sum.TheoreticalMaxFlow)
	}
	// The efficiency is computed as MeanFlow/TheoreticalMaxFlow at
	// runtime, so compare against that same float64 division rather
	// than a constant expression the compiler folds exactly.
	if want := sum.MeanFlow / sum.TheoreticalMaxFlow; sum.FlowEfficiency != want {
		t.Errorf("FlowEfficiency = %v, want %v", sum.FlowEfficiency, want)
	}
	if math.Abs(sum.FlowEfficiency-0.4) > 1e-12 {
		t.Errorf("FlowEfficiency = %v, want ~0.4", sum.FlowEfficiency)
	}
	if sum.SpeedEfficiency != 0.4 {
		t.Errorf("SpeedEfficiency = %v, want 0.4", sum.SpeedEfficiency)
	}
}

func TestSummarizeDiscardsWarmup(t *testing.T) {
	// Five steps at speed 0, then five at speed 3. Discarding the first
	// five leaves a constant steady state.
	h := constantHistory(20, 5, []int{0, 10}, 0)
	tail := constantHistory(20, 5, []int{0, 10}, 3)
	h.Snapshots = append(h.Snapshots, tail.Snapshots...)

	cfg := Config{RoadLength: 20, Density: 0.1, MaxSpeed: 5}
	sum, err := Summarize(h, cfg, 5)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.SampledSteps != 5 {
		t.Errorf("SampledSteps = %d, want 5", sum.SampledSteps)
	}
	if sum.MeanSpeed != 3 {
		t.Errorf("MeanSpeed = %v, want 3 (warmup not discarded?)", sum.MeanSpeed)
	}
	if sum.SpeedStd != 0 {
		t.Errorf("SpeedStd = %v, want 0 over the steady window", sum.SpeedStd)
	}
}

func TestSummarizeWarmupBeyondHistory(t *testing.T) {
	h := constantHistory(10, 3, []int{2}, 1)
	cfg := Config{RoadLength: 10, Density: 0.1, MaxSpeed: 5}

	sum, err := Summarize(h, cfg, 10)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.SampledSteps != 0 || sum.MeanFlow != 0 || sum.MeanSpeed != 0 {
		t.Errorf("expected zero-valued summary, got %+v", sum)
	}
	if sum.TheoreticalMaxFlow != 0.5 {
		t.Errorf("TheoreticalMaxFlow = %v, want 0.5", sum.TheoreticalMaxFlow)
	}
}

func TestSummarizeRejectsNegativeWarmup(t *testing.T) {
	h := constantHistory(10, 3, []int{2}, 1)
	_, err := Summarize(h, Config{RoadLength: 10, Density: 0.1, MaxSpeed: 5}, -1)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want *ConfigError", err)
	}
}

func TestSnapshotDenseUsesSentinel(t *testing.T) {
	snap := Snapshot{Positions: []int{1, 4}, Speeds: []int{3, 0}}
	want := []int{EmptyCell, 3, EmptyCell, EmptyCell, 0, EmptyCell}
	if diff := cmp.Diff(want, snap.Dense(6)); diff != "" {
		t.Errorf("dense rendering mismatch (-want +got):\n%s", diff)
	}
}

func TestMeanStddev(t *testing.T) {
	mean, std := meanStddev(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty slice: got (%v, %v), want (0, 0)", mean, std)
	}

	mean, std = meanStddev([]float64{4})
	if mean != 4 || std != 0 {
		t.Errorf("single value: got (%v, %v), want (4, 0)", mean, std)
	}

	mean, std = meanStddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if std < 2.13 || std > 2.14 {
		t.Errorf("sample stddev = %v, want ~2.138", std)
	}
}
