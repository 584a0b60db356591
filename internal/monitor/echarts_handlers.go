package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trafficsim/internal/sweep"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleSpaceTimeChart renders a run's space-time diagram as an HTML
// scatter: x = cell, y = step, colour = speed. Query params:
//   - run_id (required)
//   - max_points (optional; default 50000) to reduce payload size
func (ws *WebServer) handleSpaceTimeChart(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run_id' parameter")
		return
	}

	run, err := ws.db.GetRun(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown run: %v", err))
		return
	}
	history, err := ws.db.GetHistory(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load history: %v", err))
		return
	}
	if history.Steps() == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "run has no recorded snapshots")
		return
	}

	maxPoints := 50000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 500000 {
			maxPoints = v
		}
	}

	// Downsample whole steps by stride to stay within maxPoints.
	total := 0
	for _, snap := range history.Snapshots {
		total += len(snap.Positions)
	}
	stride := 1
	if total > maxPoints && history.Steps() > 0 {
		stride = (total + maxPoints - 1) / maxPoints
	}

	data := make([]opts.ScatterData, 0, total/stride+1)
	for step := 0; step < history.Steps(); step += stride {
		snap := history.Snapshots[step]
		for i, pos := range snap.Positions {
			data = append(data, opts.ScatterData{Value: []interface{}{pos, step, snap.Speeds[i]}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Space-Time Diagram", Theme: "dark", Width: "1200px", Height: "800px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Space-Time Diagram", Subtitle: fmt.Sprintf("run=%s cells=%d steps=%d stride=%d", runID, run.RoadLength, history.Steps(), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: run.RoadLength, Name: "Position (cells)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: history.Steps(), Name: "Time (steps)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(run.MaxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#000080", "#00bfff", "#40ff40", "#ffff00", "#ff8000", "#ff0000"}},
		}),
	)
	scatter.AddSeries("vehicles", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleFlowChart renders a run's flow and mean-speed series as an HTML
// line chart. Query params:
//   - run_id (required)
func (ws *WebServer) handleFlowChart(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run_id' parameter")
		return
	}

	series, err := ws.db.GetSeries(runID)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load series: %v", err))
		return
	}
	if len(series) == 0 {
		ws.writeJSONError(w, http.StatusNotFound, "run has no recorded series")
		return
	}

	steps := make([]string, len(series))
	flows := make([]opts.LineData, len(series))
	speeds := make([]opts.LineData, len(series))
	for i, m := range series {
		steps[i] = strconv.Itoa(m.Step)
		flows[i] = opts.LineData{Value: m.Flow}
		speeds[i] = opts.LineData{Value: m.MeanSpeed}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Traffic Flow", Theme: "dark", Width: "1200px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Flow and Mean Speed Over Time", Subtitle: fmt.Sprintf("run=%s", runID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Step"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(steps).
		AddSeries("flow (veh/cell/step)", flows).
		AddSeries("mean speed (cells/step)", speeds)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleFundamentalChart runs a small density sweep synchronously and
// renders the resulting flow-density curve. This is a debugging
// endpoint: the sweep is recomputed per request with bounded defaults.
// Query params (all optional):
//   - road_length (default 100), max_speed (default 5)
//   - brake_prob (default 0.2), steps (default 200, capped at 2000)
//   - densities ("min:max:step", default 0.05:0.95:0.05)
//   - seed (default 42)
func (ws *WebServer) handleFundamentalChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	roadLength := queryInt(q.Get("road_length"), 100, 10, 10000)
	maxSpeed := queryInt(q.Get("max_speed"), 5, 0, 20)
	steps := queryInt(q.Get("steps"), 200, 1, 2000)
	brakeProb := 0.2
	if v := q.Get("brake_prob"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p >= 0 && p <= 1 {
			brakeProb = p
		}
	}
	var seed int64 = 42
	if v := q.Get("seed"); v != "" {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = s
		}
	}

	spec := sweep.RangeSpec{Min: 0.05, Max: 0.95, Step: 0.05}
	if v := q.Get("densities"); v != "" {
		parsed, err := sweep.ParseRangeSpec(v)
		if err != nil {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("bad densities: %v", err))
			return
		}
		spec = parsed
	}

	points, err := sweep.Run(sweep.Config{
		Densities:  spec.Values(),
		RoadLength: roadLength,
		MaxSpeed:   maxSpeed,
		BrakeProb:  brakeProb,
		Steps:      steps,
		Warmup:     steps / 5,
		BaseSeed:   seed,
	})
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("sweep failed: %v", err))
		return
	}

	densities := make([]string, len(points))
	flows := make([]opts.LineData, len(points))
	bounds := make([]opts.LineData, len(points))
	for i, p := range points {
		densities[i] = fmt.Sprintf("%.2f", p.Density)
		flows[i] = opts.LineData{Value: p.MeanFlow}
		bounds[i] = opts.LineData{Value: p.MaxFlowBound}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fundamental Diagram", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Fundamental Diagram", Subtitle: fmt.Sprintf("L=%d vmax=%d p=%.2f steps=%d", roadLength, maxSpeed, brakeProb, steps)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Density"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(densities).
		AddSeries("observed flow", flows).
		AddSeries("free-flow bound", bounds)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func queryInt(s string, def, min, max int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}
