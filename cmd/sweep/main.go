// Command sweep runs the simulation across a range of densities and
// writes the fundamental diagram data: one CSV row per density with the
// steady-state flow and speed statistics.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/trafficsim/internal/plot"
	"github.com/banshee-data/trafficsim/internal/sweep"
)

// parseDensities accepts either a comma-separated list (0.1,0.2,0.3) or
// a range spec (min:max:step).
func parseDensities(s string) ([]float64, error) {
	if strings.Contains(s, ":") {
		spec, err := sweep.ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return spec.Values(), nil
	}
	return sweep.ParseCSVFloat64s(s)
}

func main() {
	densityList := flag.String("densities", "0.05:0.95:0.05", "Densities: comma-separated values (0.1,0.2) or range min:max:step")
	roadLength := flag.Int("road-length", 100, "Number of cells on the ring")
	maxSpeed := flag.Int("max-speed", 5, "Speed limit in cells per step")
	brakeProb := flag.Float64("brake-prob", 0.2, "Random braking probability")
	steps := flag.Int("steps", 500, "Update steps per density")
	warmup := flag.Int("warmup", -1, "Warm-up steps excluded from statistics (-1 for steps/5)")
	replicates := flag.Int("replicates", 1, "Independent runs per density")
	baseSeed := flag.Int64("seed", 42, "Base random seed; each run derives its own seed from it")
	output := flag.String("output", "", "Output CSV filename (defaults to sweep-<timestamp>.csv)")
	plotDir := flag.String("plot-dir", "", "Render the fundamental diagram PNG into this directory")

	flag.Parse()

	densities, err := parseDensities(*densityList)
	if err != nil {
		log.Fatalf("invalid densities: %v", err)
	}

	warmupSteps := *warmup
	if warmupSteps < 0 {
		warmupSteps = *steps / 5
	}

	cfg := sweep.Config{
		Densities:  densities,
		RoadLength: *roadLength,
		MaxSpeed:   *maxSpeed,
		BrakeProb:  *brakeProb,
		Steps:      *steps,
		Warmup:     warmupSteps,
		Replicates: *replicates,
		BaseSeed:   *baseSeed,
	}

	start := time.Now()
	points, err := sweep.Run(cfg)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	log.Printf("swept %d densities x %d replicates in %v", len(densities), *replicates, time.Since(start).Round(time.Millisecond))

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-%s.csv", time.Now().Format("20060102-150405"))
	}
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	if err := sweep.WriteCSV(f, points); err != nil {
		f.Close()
		log.Fatalf("failed to write CSV: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("failed to close output file: %v", err)
	}
	log.Printf("wrote %s (%d rows)", filename, len(points))

	peak, err := sweep.PeakFlow(points)
	if err == nil {
		fmt.Printf("peak flow %.4f vehicles/cell/step at density %.3f\n", peak.MeanFlow, peak.Density)
	}

	if *plotDir != "" {
		renderer, err := plot.NewRenderer(*plotDir)
		if err != nil {
			log.Fatalf("failed to create plot dir: %v", err)
		}
		path, err := renderer.FundamentalDiagram(points)
		if err != nil {
			log.Fatalf("failed to render fundamental diagram: %v", err)
		}
		log.Printf("wrote %s", path)
	}
}
