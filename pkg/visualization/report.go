package visualization

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// GenerateReport writes an interactive HTML page with the return, bias and
// group rate curves of one run
func (g *Generator) GenerateReport(data ChartData, filename string) error {
	if len(data.Steps) == 0 {
		return fmt.Errorf("no evaluations to plot")
	}

	returns := newLine(fmt.Sprintf("Evaluation Return: %s", data.Label), "Return")
	returns.AddSeries("Mean Return", lineData(data.Steps, data.Returns)).
		AddSeries("Std Return", lineData(data.Steps, data.StdReturns),
			charts.WithLineStyleOpts(opts.LineStyle{
				Type: "dashed",
			}),
		)

	bias := newLine(fmt.Sprintf("Evaluation Bias: %s", data.Label), "Bias")
	bias.AddSeries("Bias", lineData(data.Steps, data.Biases))

	rates := newLine(fmt.Sprintf("Group Benefit Rates: %s", data.Label), "Benefit Rate")
	for i, r := range data.Rates {
		rates.AddSeries(fmt.Sprintf("Group %d", i), lineData(data.Steps, r))
	}

	smoothSeries(returns, bias, rates)
	page := components.NewPage()
	page.PageTitle = data.Label
	page.AddCharts(returns, bias, rates)
	return renderHTML(page, filename)
}

// GenerateComparisonReport overlays the return and bias curves of several
// runs, typically one per algorithm variant
func (g *Generator) GenerateComparisonReport(runs []ChartData, filename string) error {
	if len(runs) == 0 {
		return fmt.Errorf("no runs to compare")
	}

	returns := newLine("Evaluation Return Comparison", "Return")
	bias := newLine("Evaluation Bias Comparison", "Bias")
	for _, run := range runs {
		returns.AddSeries(run.Label, lineData(run.Steps, run.Returns))
		bias.AddSeries(run.Label, lineData(run.Steps, run.Biases))
	}

	smoothSeries(returns, bias)
	page := components.NewPage()
	page.PageTitle = "Run Comparison"
	page.AddCharts(returns, bias)
	return renderHTML(page, filename)
}

func newLine(title, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1200px",
			Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Training Steps",
			Type: "value",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			Type: "value",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "10%",
		}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  opts.Bool(true),
					Type:  "png",
					Title: "Save as Image",
				},
				DataZoom: &opts.ToolBoxFeatureDataZoom{
					Show:  opts.Bool(true),
					Title: map[string]string{"zoom": "Zoom", "back": "Back"},
				},
			},
		}),
	)
	return line
}

// smoothSeries applies to the series already added
func smoothSeries(lines ...*charts.Line) {
	for _, line := range lines {
		line.SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(true),
			}),
		)
	}
}

// lineData pairs x and y values as [x, y] coordinates
func lineData(xs, ys []float64) []opts.LineData {
	out := make([]opts.LineData, len(ys))
	for i, y := range ys {
		out[i] = opts.LineData{Value: []interface{}{xs[i], y}}
	}
	return out
}

func renderHTML(page *components.Page, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
