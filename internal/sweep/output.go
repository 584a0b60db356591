package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the sweep results as CSV: one row per density with
// the aggregated steady-state metrics.
func WriteCSV(w io.Writer, points []Point) error {
	cw := csv.NewWriter(w)
	header := []string{
		"density", "num_vehicles",
		"mean_flow", "flow_std",
		"mean_speed", "speed_std",
		"flow_efficiency", "speed_efficiency", "theoretical_max_flow",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range points {
		row := []string{
			formatFloat(p.Density),
			fmt.Sprintf("%d", p.NumVehicles),
			formatFloat(p.MeanFlow),
			formatFloat(p.FlowStd),
			formatFloat(p.MeanSpeed),
			formatFloat(p.SpeedStd),
			formatFloat(p.FlowEff),
			formatFloat(p.SpeedEff),
			formatFloat(p.MaxFlowBound),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row for density %g: %w", p.Density, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
