package visualization

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/brianbland/fairrl/pkg/history"
)

// ErrNoEvaluations reports a history store without any record
var ErrNoEvaluations = errors.New("no evaluations recorded")

// Plotter renders the charts of finished experiment directories
type Plotter struct {
	generator ChartGenerator
	logger    *zap.Logger
}

// NewPlotter creates a plotter
func NewPlotter(logger *zap.Logger) *Plotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plotter{generator: NewGenerator(), logger: logger}
}

// LoadChartData reads the evaluation history of dir
func LoadChartData(ctx context.Context, dir string, smooth int) (ChartData, error) {
	path := history.Path(dir)
	if _, err := os.Stat(path); err != nil {
		return ChartData{}, fmt.Errorf("no evaluation history in %s: %w", dir, err)
	}

	store, err := history.Open(ctx, path)
	if err != nil {
		return ChartData{}, err
	}
	defer store.Close()

	records, err := store.List(ctx, "")
	if err != nil {
		return ChartData{}, fmt.Errorf("failed to read evaluation history: %w", err)
	}
	if len(records) == 0 {
		return ChartData{}, fmt.Errorf("%w in %s", ErrNoEvaluations, dir)
	}
	return NewChartData(filepath.Base(dir), records, smooth), nil
}

// PlotReturnBias writes the return and bias charts and the interactive
// report of the experiment in dir. An empty history is skipped.
func (p *Plotter) PlotReturnBias(ctx context.Context, dir string, smooth int) error {
	data, err := LoadChartData(ctx, dir, smooth)
	if errors.Is(err, ErrNoEvaluations) {
		p.logger.Warn("nothing to plot", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return err
	}

	outputs := []struct {
		file     string
		generate func(ChartData, string) error
	}{
		{ReturnChartFile, p.generator.GenerateReturnChart},
		{BiasChartFile, p.generator.GenerateBiasChart},
		{ReportFile, p.generator.GenerateReport},
	}
	for _, out := range outputs {
		path := filepath.Join(dir, out.file)
		if err := out.generate(data, path); err != nil {
			return fmt.Errorf("failed to generate %s: %w", out.file, err)
		}
		p.logger.Info("chart saved", zap.String("path", path))
	}
	return nil
}

// Compare writes a report overlaying the runs in dirs
func (p *Plotter) Compare(ctx context.Context, dirs []string, smooth int, filename string) error {
	runs := make([]ChartData, 0, len(dirs))
	for _, dir := range dirs {
		data, err := LoadChartData(ctx, dir, smooth)
		if err != nil {
			return err
		}
		data.Label = dir
		runs = append(runs, data)
	}
	if err := p.generator.GenerateComparisonReport(runs, filename); err != nil {
		return err
	}
	p.logger.Info("comparison saved", zap.String("path", filename), zap.Int("runs", len(runs)))
	return nil
}
