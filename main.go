// Command trafficsim runs Nagel-Schreckenberg single-lane traffic
// simulations: it executes one run from flags or a scenario file,
// prints the steady-state statistics, optionally persists the run to
// SQLite and renders PNG plots, and can serve the browsing dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/trafficsim/internal/api"
	"github.com/banshee-data/trafficsim/internal/config"
	"github.com/banshee-data/trafficsim/internal/db"
	"github.com/banshee-data/trafficsim/internal/monitor"
	"github.com/banshee-data/trafficsim/internal/nasch"
	"github.com/banshee-data/trafficsim/internal/plot"
	"github.com/banshee-data/trafficsim/internal/units"
	"github.com/banshee-data/trafficsim/internal/version"
)

var (
	showVersion   = flag.Bool("version", false, "print version and exit")
	dbPath        = flag.String("db", "trafficsim.db", "SQLite database path (empty to skip persistence)")
	migrationsDir = flag.String("migrations", db.DefaultMigrationsDir, "schema migrations directory")
	scenarioPath  = flag.String("config", "", "scenario JSON file")
	listen        = flag.String("listen", ":8080", "dashboard listen address (with -serve)")
	serve         = flag.Bool("serve", false, "serve the dashboard after the run")
	plotsDir      = flag.String("plots", "", "write PNG plots to this directory")
	speedUnits    = flag.String("units", units.CellsPerStep, "speed units for printed and API speeds")

	roadLength = flag.Int("road-length", 0, "number of cells on the ring")
	density    = flag.Float64("density", 0, "vehicles per cell, in (0, 1]")
	maxSpeed   = flag.Int("max-speed", 0, "speed limit in cells per step")
	brakeProb  = flag.Float64("brake-prob", 0, "random braking probability")
	seed       = flag.Int64("seed", 0, "random seed (omit for a time-based seed)")
	steps      = flag.Int("steps", 0, "number of update steps")
	warmup     = flag.Int("warmup", 0, "warm-up steps excluded from the summary")
)

// flagScenario collects the simulation flags that were explicitly set
// on the command line, so unset flags never clobber scenario-file or
// default values.
func flagScenario() *config.Scenario {
	var s config.Scenario
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "road-length":
			s.RoadLength = roadLength
		case "density":
			s.Density = density
		case "max-speed":
			s.MaxSpeed = maxSpeed
		case "brake-prob":
			s.BrakeProb = brakeProb
		case "seed":
			s.RandomSeed = seed
		case "steps":
			s.Steps = steps
		case "warmup":
			s.WarmupSteps = warmup
		}
	})
	return &s
}

func printSummary(cfg nasch.Config, s nasch.Summary, speedUnits string) {
	fmt.Printf("\n=== Simulation Results ===\n")
	fmt.Printf("Road length:       %d cells\n", cfg.RoadLength)
	fmt.Printf("Vehicles:          %d (density %.3f)\n", cfg.NumVehicles(), cfg.Density)
	fmt.Printf("Max speed:         %d cells/step\n", cfg.MaxSpeed)
	fmt.Printf("Brake probability: %.3f\n", cfg.BrakeProb)
	fmt.Printf("Steps:             %d (warm-up %d, sampled %d)\n", cfg.Steps, s.WarmupSteps, s.SampledSteps)
	fmt.Printf("Mean flow:         %.4f +/- %.4f vehicles/cell/step\n", s.MeanFlow, s.FlowStd)
	fmt.Printf("Mean speed:        %.4f +/- %.4f %s\n",
		units.ConvertSpeed(s.MeanSpeed, speedUnits),
		units.ConvertSpeed(s.SpeedStd, speedUnits), speedUnits)
	fmt.Printf("Flow efficiency:   %.1f%% of theoretical max %.4f\n", s.FlowEfficiency*100, s.TheoreticalMaxFlow)
	fmt.Printf("Speed efficiency:  %.1f%%\n", s.SpeedEfficiency*100)
}

// openStore opens the run store and brings the schema up to date. When
// the migrations directory is not present (an installed binary run away
// from the source tree) the base schema is applied directly.
func openStore(path, migrationsDir string) (*db.DB, error) {
	store, err := db.NewDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := os.Stat(migrationsDir); err == nil {
		if err := store.MigrateUp(migrationsDir); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	} else if err := store.EnsureSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return store, nil
}

func writePlots(dir string, sim *nasch.Simulation) error {
	renderer, err := plot.NewRenderer(dir)
	if err != nil {
		return err
	}
	h := sim.History()

	spaceTime, err := renderer.SpaceTime(h)
	if err != nil {
		return err
	}
	log.Printf("wrote %s", spaceTime)

	flows, err := renderer.FlowSeries(h.FlowSeries())
	if err != nil {
		return err
	}
	log.Printf("wrote %s", flows)

	speeds, err := renderer.SpeedSeries(h.SpeedSeries())
	if err != nil {
		return err
	}
	log.Printf("wrote %s", speeds)
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("trafficsim %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *speedUnits, units.GetValidUnitsString())
	}

	cfg := config.DefaultConfig()
	var scenario *config.Scenario
	if *scenarioPath != "" {
		var err error
		scenario, err = config.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("failed to load scenario: %v", err)
		}
		cfg = scenario.Apply(cfg)
	}
	overrides := flagScenario()
	cfg = overrides.Apply(cfg)

	warmupSteps := scenario.Warmup(cfg.Steps)
	if overrides.WarmupSteps != nil {
		warmupSteps = *overrides.WarmupSteps
	}

	sim, err := nasch.New(cfg)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := sim.Run(cfg.Steps); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	summary, err := nasch.Summarize(sim.History(), cfg, warmupSteps)
	if err != nil {
		log.Fatalf("failed to summarise run: %v", err)
	}
	printSummary(cfg, summary, *speedUnits)

	var store *db.DB
	if *dbPath != "" {
		store, err = openStore(*dbPath, *migrationsDir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		runID, err := store.InsertRun(cfg)
		if err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		if err := store.RecordSeries(runID, sim.History()); err != nil {
			log.Fatalf("failed to record series: %v", err)
		}
		if err := store.RecordHistory(runID, sim.History()); err != nil {
			log.Fatalf("failed to record history: %v", err)
		}
		if err := store.RecordSummary(runID, summary); err != nil {
			log.Fatalf("failed to record summary: %v", err)
		}
		log.Printf("recorded run %s", runID)
	}

	if *plotsDir != "" {
		if err := writePlots(*plotsDir, sim); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
	}

	if !*serve {
		return
	}
	if store == nil {
		log.Fatal("-serve requires a database (-db)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiMux := api.LoggingMiddleware(api.NewServer(store, *speedUnits).ServeMux())
	ws := monitor.NewWebServer(*listen, store, apiMux)
	if err := ws.Start(ctx); err != nil {
		log.Fatalf("dashboard server failed: %v", err)
	}
	log.Print("graceful shutdown complete")
}
