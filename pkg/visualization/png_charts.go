package visualization

import (
	"fmt"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var groupColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorCyan,
	chart.ColorYellow,
}

// GenerateReturnChart plots the evaluation return with a one standard
// deviation band
func (g *Generator) GenerateReturnChart(data ChartData, filename string) error {
	if len(data.Steps) == 0 {
		return fmt.Errorf("no evaluations to plot")
	}

	upper := make([]float64, len(data.Returns))
	lower := make([]float64, len(data.Returns))
	for i, r := range data.Returns {
		upper[i] = r + data.StdReturns[i]
		lower[i] = r - data.StdReturns[i]
	}

	graph := newGraph(fmt.Sprintf("Evaluation Return: %s", data.Label), "Return")
	graph.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    "Mean Return",
			XValues: data.Steps,
			YValues: data.Returns,
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				StrokeWidth: 2,
			},
		},
		chart.ContinuousSeries{
			Name:    "+1 Std",
			XValues: data.Steps,
			YValues: upper,
			Style: chart.Style{
				StrokeColor:     chart.ColorBlue.WithAlpha(96),
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		},
		chart.ContinuousSeries{
			Name:    "-1 Std",
			XValues: data.Steps,
			YValues: lower,
			Style: chart.Style{
				StrokeColor:     chart.ColorBlue.WithAlpha(96),
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		},
	}
	fixRanges(&graph, data.Steps, data.Returns, upper, lower)

	return renderPNG(graph, filename)
}

// GenerateBiasChart plots the bias and, on the secondary axis, the
// benefit rate of every group
func (g *Generator) GenerateBiasChart(data ChartData, filename string) error {
	if len(data.Steps) == 0 {
		return fmt.Errorf("no evaluations to plot")
	}

	graph := newGraph(fmt.Sprintf("Evaluation Bias: %s", data.Label), "Bias")
	graph.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    "Bias",
			XValues: data.Steps,
			YValues: data.Biases,
			Style: chart.Style{
				StrokeColor: chart.ColorBlack,
				StrokeWidth: 2,
			},
		},
	}
	for i, rates := range data.Rates {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Group %d Rate", i),
			XValues: data.Steps,
			YValues: rates,
			Style: chart.Style{
				StrokeColor:     groupColors[i%len(groupColors)],
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
			YAxis: chart.YAxisSecondary,
		})
	}
	if len(data.Rates) > 0 {
		graph.YAxisSecondary = chart.YAxis{
			Name:  "Benefit Rate",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		}
	}
	fixRanges(&graph, data.Steps, data.Biases)

	return renderPNG(graph, filename)
}

func newGraph(title, yName string) chart.Chart {
	opts := DefaultChartOptions()
	return chart.Chart{
		Title:  title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   40,
				Right:  40,
				Bottom: 40,
			},
		},
		XAxis: chart.XAxis{
			Name: "Training Steps",
		},
		YAxis: chart.YAxis{
			Name: yName,
		},
	}
}

// fixRanges widens degenerate axes; the renderer rejects zero-width ranges
// such as a single evaluation or a flat zero bias
func fixRanges(graph *chart.Chart, xs []float64, ys ...[]float64) {
	if lo, hi := bounds(xs); lo == hi {
		graph.XAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	var all []float64
	for _, y := range ys {
		all = append(all, y...)
	}
	if lo, hi := bounds(all); lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
}

func bounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func renderPNG(graph chart.Chart, filename string) error {
	graph.Elements = []chart.Renderable{
		chart.LegendThin(&graph),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := graph.Render(chart.PNG, file); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
