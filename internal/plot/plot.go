// Package plot renders PNG figures from recorded simulation output: the
// space-time diagram, the flow and speed time series, and the
// flow-density fundamental diagram.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/trafficsim/internal/nasch"
	"github.com/banshee-data/trafficsim/internal/sweep"
)

// Renderer writes figures into a fixed output directory.
type Renderer struct {
	outputDir string
}

// NewRenderer creates the output directory if needed.
func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Renderer{outputDir: outputDir}, nil
}

// SpaceTime renders the space-time diagram: one marker per vehicle per
// step, position on the x axis and time on the y axis. Jams appear as
// dense bands drifting against the direction of travel.
func (r *Renderer) SpaceTime(h nasch.History) (string, error) {
	p := plot.New()
	p.Title.Text = "Space-Time Diagram"
	p.X.Label.Text = "Position (cells)"
	p.Y.Label.Text = "Time (steps)"

	var pts plotter.XYs
	for step, snap := range h.Snapshots {
		for _, pos := range snap.Positions {
			pts = append(pts, plotter.XY{X: float64(pos), Y: float64(step)})
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{B: 160, A: 255}
	p.Add(scatter)
	p.X.Max = float64(h.RoadLength)

	file := filepath.Join(r.outputDir, "space_time.png")
	if err := p.Save(8*vg.Inch, 10*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save space-time diagram: %w", err)
	}
	return file, nil
}

// FlowSeries renders the per-step flow rate with its mean as a
// horizontal reference line.
func (r *Renderer) FlowSeries(flows []float64) (string, error) {
	return r.series("flow_series.png", "Traffic Flow Rate Over Time", "Flow Rate (vehicles/cell/step)", flows)
}

// SpeedSeries renders the per-step mean speed with its mean as a
// horizontal reference line.
func (r *Renderer) SpeedSeries(speeds []float64) (string, error) {
	return r.series("speed_series.png", "Average Speed Over Time", "Average Speed (cells/step)", speeds)
}

func (r *Renderer) series(filename, title, yLabel string, values []float64) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time Step"
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(values))
	var sum float64
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
		sum += v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)

	if len(values) > 0 {
		mean := sum / float64(len(values))
		meanLine, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: mean},
			{X: float64(len(values) - 1), Y: mean},
		})
		if err != nil {
			return "", fmt.Errorf("failed to build mean line: %w", err)
		}
		meanLine.Width = vg.Points(1)
		meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		meanLine.Color = color.RGBA{R: 200, A: 255}
		p.Add(meanLine)
		p.Legend.Add(fmt.Sprintf("mean %.3f", mean), meanLine)
	}

	file := filepath.Join(r.outputDir, filename)
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save series plot: %w", err)
	}
	return file, nil
}

// FundamentalDiagram renders steady-state flow against density, with
// the free-flow bound density*max_speed as a dashed reference.
func (r *Renderer) FundamentalDiagram(points []sweep.Point) (string, error) {
	p := plot.New()
	p.Title.Text = "Fundamental Diagram"
	p.X.Label.Text = "Density (vehicles/cell)"
	p.Y.Label.Text = "Flow Rate (vehicles/cell/step)"

	flowPts := make(plotter.XYs, len(points))
	boundPts := make(plotter.XYs, len(points))
	for i, pt := range points {
		flowPts[i] = plotter.XY{X: pt.Density, Y: pt.MeanFlow}
		boundPts[i] = plotter.XY{X: pt.Density, Y: pt.MaxFlowBound}
	}

	flowLine, err := plotter.NewLine(flowPts)
	if err != nil {
		return "", fmt.Errorf("failed to build flow line: %w", err)
	}
	flowLine.Width = vg.Points(1.5)
	flowLine.Color = color.RGBA{B: 200, A: 255}

	flowScatter, err := plotter.NewScatter(flowPts)
	if err != nil {
		return "", fmt.Errorf("failed to build flow scatter: %w", err)
	}
	flowScatter.GlyphStyle.Radius = vg.Points(2)
	flowScatter.GlyphStyle.Color = color.RGBA{B: 200, A: 255}

	boundLine, err := plotter.NewLine(boundPts)
	if err != nil {
		return "", fmt.Errorf("failed to build bound line: %w", err)
	}
	boundLine.Width = vg.Points(1)
	boundLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	boundLine.Color = color.RGBA{R: 200, A: 255}

	p.Add(flowLine, flowScatter, boundLine)
	p.Legend.Add("observed flow", flowLine)
	p.Legend.Add("free-flow bound", boundLine)
	p.Legend.Top = true

	file := filepath.Join(r.outputDir, "fundamental_diagram.png")
	if err := p.Save(8*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save fundamental diagram: %w", err)
	}
	return file, nil
}
