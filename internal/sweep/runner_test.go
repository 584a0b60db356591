package sweep

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/banshee-data/trafficsim/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func testSweepConfig() Config {
	return Config{
		Densities:  []float64{0.1, 0.3, 0.8},
		RoadLength: 60,
		MaxSpeed:   5,
		BrakeProb:  0.2,
		Steps:      60,
		Warmup:     20,
		BaseSeed:   42,
	}
}

func TestRunProducesOnePointPerDensity(t *testing.T) {
	points, err := Run(testSweepConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i, p := range points {
		if p.Density != testSweepConfig().Densities[i] {
			t.Errorf("point %d density = %v, want %v", i, p.Density, testSweepConfig().Densities[i])
		}
		if p.MeanFlow < 0 || p.MeanFlow > p.MaxFlowBound {
			t.Errorf("point %d mean flow %v outside [0, %v]", i, p.MeanFlow, p.MaxFlowBound)
		}
	}
}

func TestRunIsReproducible(t *testing.T) {
	a, err := Run(testSweepConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := Run(testSweepConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("point %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRunHighDensityFlowBelowLowDensity(t *testing.T) {
	// The fundamental diagram falls off at high density: a nearly
	// jammed ring must carry less flow than light traffic.
	cfg := testSweepConfig()
	cfg.Densities = []float64{0.1, 0.9}
	cfg.Steps = 200
	cfg.Warmup = 100

	points, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if points[1].MeanFlow >= points[0].MeanFlow {
		t.Errorf("jammed flow %v >= free flow %v", points[1].MeanFlow, points[0].MeanFlow)
	}
}

func TestRunReplicates(t *testing.T) {
	cfg := testSweepConfig()
	cfg.Densities = []float64{0.4}
	cfg.Replicates = 4

	points, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	// Independently seeded stochastic replicates should not agree to
	// machine precision, so the spread is nonzero.
	if points[0].FlowStd == 0 {
		t.Errorf("FlowStd = 0 across %d replicates", cfg.Replicates)
	}
}

func TestRunRejectsEmptyDensities(t *testing.T) {
	if _, err := Run(Config{RoadLength: 10, MaxSpeed: 5}); err == nil {
		t.Error("expected error for empty density list")
	}
}

func TestPeakFlow(t *testing.T) {
	points := []Point{
		{Density: 0.1, MeanFlow: 0.3},
		{Density: 0.3, MeanFlow: 0.5},
		{Density: 0.8, MeanFlow: 0.2},
	}
	peak, err := PeakFlow(points)
	if err != nil {
		t.Fatalf("PeakFlow failed: %v", err)
	}
	if peak.Density != 0.3 {
		t.Errorf("peak at density %v, want 0.3", peak.Density)
	}

	if _, err := PeakFlow(nil); err == nil {
		t.Error("expected error for empty points")
	}
}

func TestWriteCSV(t *testing.T) {
	points := []Point{
		{Density: 0.1, NumVehicles: 6, MeanFlow: 0.25, MeanSpeed: 2.5, FlowEff: 0.5, SpeedEff: 0.5, MaxFlowBound: 0.5},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, points); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "density,num_vehicles,mean_flow") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0.100000,6,0.250000") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
