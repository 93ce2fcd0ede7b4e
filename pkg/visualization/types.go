// Package visualization renders the evaluation history of experiments as
// static PNG charts and interactive HTML reports.
package visualization

import (
	"github.com/brianbland/fairrl/pkg/history"
)

// Output files written into an experiment directory
const (
	ReturnChartFile = "return.png"
	BiasChartFile   = "bias.png"
	ReportFile      = "report.html"
)

// ChartData holds the (smoothed) evaluation curves of one run
type ChartData struct {
	Label      string
	Steps      []float64
	Returns    []float64
	StdReturns []float64
	Biases     []float64
	Rates      [][]float64 // one curve per group
}

// NewChartData converts evaluation records into chart curves, smoothing
// every curve with a trailing window of smooth evaluations
func NewChartData(label string, records []history.Record, smooth int) ChartData {
	data := ChartData{Label: label}
	groups := 0
	for _, r := range records {
		groups = max(groups, len(r.Rates))
	}
	data.Rates = make([][]float64, groups)

	for _, r := range records {
		data.Steps = append(data.Steps, float64(r.Step))
		data.Returns = append(data.Returns, r.MeanReturn)
		data.StdReturns = append(data.StdReturns, r.StdReturn)
		data.Biases = append(data.Biases, r.MeanBias)
		for g := 0; g < groups; g++ {
			rate := 0.0
			if g < len(r.Rates) {
				rate = r.Rates[g]
			}
			data.Rates[g] = append(data.Rates[g], rate)
		}
	}

	data.Returns = Smooth(data.Returns, smooth)
	data.StdReturns = Smooth(data.StdReturns, smooth)
	data.Biases = Smooth(data.Biases, smooth)
	for g := range data.Rates {
		data.Rates[g] = Smooth(data.Rates[g], smooth)
	}
	return data
}

// ChartGenerator defines the interface for generating charts
type ChartGenerator interface {
	GenerateReturnChart(data ChartData, filename string) error
	GenerateBiasChart(data ChartData, filename string) error
	GenerateReport(data ChartData, filename string) error
	GenerateComparisonReport(runs []ChartData, filename string) error
}

// Generator implements ChartGenerator interface
type Generator struct{}

// NewGenerator creates a new chart generator
func NewGenerator() ChartGenerator {
	return &Generator{}
}

// ChartOptions contains size options for charts
type ChartOptions struct {
	Width  int
	Height int
}

// DefaultChartOptions returns default chart options
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Width:  1200,
		Height: 800,
	}
}
