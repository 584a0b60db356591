package plot

import (
	"os"
	"testing"

	"github.com/banshee-data/trafficsim/internal/nasch"
	"github.com/banshee-data/trafficsim/internal/sweep"
)

func seedPtr(v int64) *int64 { return &v }

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("output file %s is empty", path)
	}
}

func testHistory(t *testing.T) nasch.History {
	t.Helper()
	cfg := nasch.Config{RoadLength: 50, Density: 0.3, MaxSpeed: 5, BrakeProb: 0.2, Seed: seedPtr(42)}
	sim, err := nasch.New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := sim.Run(30); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return sim.History()
}

func TestSpaceTime(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	file, err := r.SpaceTime(testHistory(t))
	if err != nil {
		t.Fatalf("SpaceTime failed: %v", err)
	}
	requireFile(t, file)
}

func TestSeriesPlots(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	h := testHistory(t)

	file, err := r.FlowSeries(h.FlowSeries())
	if err != nil {
		t.Fatalf("FlowSeries failed: %v", err)
	}
	requireFile(t, file)

	file, err = r.SpeedSeries(h.SpeedSeries())
	if err != nil {
		t.Fatalf("SpeedSeries failed: %v", err)
	}
	requireFile(t, file)
}

func TestFundamentalDiagram(t *testing.T) {
	r, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	points := []sweep.Point{
		{Density: 0.1, MeanFlow: 0.35, MaxFlowBound: 0.5},
		{Density: 0.3, MeanFlow: 0.45, MaxFlowBound: 1.5},
		{Density: 0.6, MeanFlow: 0.30, MaxFlowBound: 3.0},
	}
	file, err := r.FundamentalDiagram(points)
	if err != nil {
		t.Fatalf("FundamentalDiagram failed: %v", err)
	}
	requireFile(t, file)
}
