// Package analysis summarizes the evaluation history of experiments.
package analysis

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/brianbland/fairrl/pkg/history"
)

// Result contains the analysis of one run's evaluations
type Result struct {
	RunName     string
	Evaluations int
	FinalStep   int

	InitialReturn    float64
	FinalReturn      float64
	BestReturn       float64
	BestReturnStep   int
	AvgReturn        float64
	ReturnVolatility float64

	FinalBias      float64
	MinBias        float64
	MaxBias        float64
	AvgBias        float64
	BiasVolatility float64

	FinalRates []float64

	// TradeoffScore is the final return per unit of (1 + final bias)
	TradeoffScore float64
}

// Summarize analyzes the records of one run. Records must be ordered by step.
func Summarize(name string, records []history.Record) (Result, error) {
	if len(records) == 0 {
		return Result{}, fmt.Errorf("run %s has no evaluations", name)
	}

	returns := make([]float64, len(records))
	biases := make([]float64, len(records))
	for i, r := range records {
		returns[i] = r.MeanReturn
		biases[i] = r.MeanBias
	}

	best := floats.MaxIdx(returns)
	last := records[len(records)-1]

	result := Result{
		RunName:        name,
		Evaluations:    len(records),
		FinalStep:      last.Step,
		InitialReturn:  returns[0],
		FinalReturn:    last.MeanReturn,
		BestReturn:     returns[best],
		BestReturnStep: records[best].Step,
		AvgReturn:      stat.Mean(returns, nil),
		FinalBias:      last.MeanBias,
		MinBias:        floats.Min(biases),
		MaxBias:        floats.Max(biases),
		AvgBias:        stat.Mean(biases, nil),
		FinalRates:     append([]float64(nil), last.Rates...),
		TradeoffScore:  last.MeanReturn / (1 + last.MeanBias),
	}
	if len(records) > 1 {
		result.ReturnVolatility = stat.StdDev(returns, nil)
		result.BiasVolatility = stat.StdDev(biases, nil)
	}
	return result, nil
}

// PrintResults prints formatted analysis results
func PrintResults(w io.Writer, results []Result) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "EVALUATION SUMMARY\n")
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 80))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Run\tEvals\tFinal Return\tBest Return\tFinal Bias\tBias Range\tTradeoff")
	for _, result := range results {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f @ %d\t%.4f\t%.4f - %.4f\t%.3f\n",
			result.RunName,
			result.Evaluations,
			result.FinalReturn,
			result.BestReturn,
			result.BestReturnStep,
			result.FinalBias,
			result.MinBias,
			result.MaxBias,
			result.TradeoffScore,
		)
	}
	tw.Flush()

	for _, result := range results {
		fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", 60))
		fmt.Fprintf(w, "DETAILED ANALYSIS: %s\n", result.RunName)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))

		fmt.Fprintf(w, "Evaluations:\n")
		fmt.Fprintf(w, "  Count: %d (last at step %d)\n", result.Evaluations, result.FinalStep)

		fmt.Fprintf(w, "\nReturn:\n")
		fmt.Fprintf(w, "  Initial: %.3f\n", result.InitialReturn)
		fmt.Fprintf(w, "  Final: %.3f\n", result.FinalReturn)
		fmt.Fprintf(w, "  Best: %.3f (step %d)\n", result.BestReturn, result.BestReturnStep)
		fmt.Fprintf(w, "  Average: %.3f\n", result.AvgReturn)
		fmt.Fprintf(w, "  Volatility: %.3f (std dev)\n", result.ReturnVolatility)

		fmt.Fprintf(w, "\nBias:\n")
		fmt.Fprintf(w, "  Final: %.4f\n", result.FinalBias)
		fmt.Fprintf(w, "  Range: %.4f - %.4f\n", result.MinBias, result.MaxBias)
		fmt.Fprintf(w, "  Average: %.4f\n", result.AvgBias)
		fmt.Fprintf(w, "  Volatility: %.4f (std dev)\n", result.BiasVolatility)

		if len(result.FinalRates) > 0 {
			fmt.Fprintf(w, "\nFinal Benefit Rates:\n")
			for g, rate := range result.FinalRates {
				fmt.Fprintf(w, "  Group %d: %.4f\n", g, rate)
			}
		}
	}
}
