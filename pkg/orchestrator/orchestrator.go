// Package orchestrator runs the lifecycle of one training experiment:
// reconcile the options, claim the experiment directory, record the
// configuration, then train, checkpoint, save and plot.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/brianbland/fairrl/pkg/config"
	"github.com/brianbland/fairrl/pkg/environment"
	"github.com/brianbland/fairrl/pkg/history"
	"github.com/brianbland/fairrl/pkg/identity"
	"github.com/brianbland/fairrl/pkg/logging"
	"github.com/brianbland/fairrl/pkg/manifest"
	"github.com/brianbland/fairrl/pkg/trainer"
	"github.com/brianbland/fairrl/pkg/variant"
)

const (
	// CheckpointPrefix names periodic checkpoints in the models directory
	CheckpointPrefix = trainer.DefaultNamePrefix

	// FinalModelFile is the artifact saved after training completes
	FinalModelFile = "final_model.json"

	// ProgressLogFile receives a copy of the run's log entries
	ProgressLogFile = "progress.log"

	// MetricsFile receives the run's prometheus metrics
	MetricsFile = "metrics.prom"
)

// TrainerSpec is everything a trainer is constructed from
type TrainerSpec struct {
	RunID       string
	PolicyClass trainer.PolicyClass
	Env         *environment.VecEnv
	Groups      variant.Groups
	Eval        trainer.EvalConfig
	MetricsPath string
	Logger      *zap.Logger
}

// TrainerFactory constructs the trainer of a run
type TrainerFactory interface {
	NewTrainer(spec TrainerSpec) (trainer.Trainer, error)
}

// TrainerFactoryFunc adapts a function to TrainerFactory
type TrainerFactoryFunc func(spec TrainerSpec) (trainer.Trainer, error)

func (f TrainerFactoryFunc) NewTrainer(spec TrainerSpec) (trainer.Trainer, error) { return f(spec) }

// Plotter summarizes a finished experiment directory
type Plotter interface {
	PlotReturnBias(ctx context.Context, dir string, smooth int) error
}

// PPOFactory builds the default clipped policy-gradient trainer
type PPOFactory struct{}

func (PPOFactory) NewTrainer(spec TrainerSpec) (trainer.Trainer, error) {
	cfg := trainer.Config{
		RunID:       spec.RunID,
		Variant:     spec.Groups.Variant,
		Mitigation:  spec.Groups.Mitigation,
		Baselines:   spec.Groups.Baselines,
		Training:    spec.Groups.Training,
		Eval:        spec.Eval,
		MetricsPath: spec.MetricsPath,
	}
	ppo, err := trainer.NewPPO(cfg, spec.Env, spec.PolicyClass, trainer.NewMetrics(spec.Groups.Variant), spec.Logger)
	if err != nil {
		return nil, err
	}
	return ppo, nil
}

// Orchestrator runs experiments
type Orchestrator struct {
	Settings    config.Settings
	Envs        *environment.Factory
	Trainers    TrainerFactory
	Plotter     Plotter
	PolicyClass trainer.PolicyClass
	Workers     int // concurrent evaluation episodes
	Logger      *zap.Logger
}

// New creates an orchestrator with the default trainer. plotter may be nil
// to skip plotting.
func New(settings config.Settings, plotter Plotter, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Settings:    settings,
		Envs:        environment.NewFactory(),
		Trainers:    PPOFactory{},
		Plotter:     plotter,
		PolicyClass: trainer.NewLinearSoftmaxPolicy,
		Workers:     1,
		Logger:      logger,
	}
}

// Plan is the pure outcome of reconciling a run's options
type Plan struct {
	Identity identity.Identity
	Groups   variant.Groups
	Eval     variant.EvalParams
}

// Prepare reconciles opts and resolves the experiment directory. It does
// not touch the filesystem.
func (o *Orchestrator) Prepare(opts config.RawOptions) (Plan, error) {
	groups, err := variant.Reconcile(opts, o.Settings)
	if err != nil {
		return Plan{}, err
	}
	id := identity.Resolve(identity.KeyFor(o.Settings.ExpDir, opts, groups))
	return Plan{
		Identity: id,
		Groups:   groups,
		Eval: variant.EvalParams{
			EvalWritePath: id.Path,
			EvalInterval:  o.Settings.EvalInterval,
			NumEpsEval:    o.Settings.EvalNumEps,
		},
	}, nil
}

// Execute runs the whole pipeline for opts and returns the experiment
// directory. Any failure before training leaves no training step executed.
func (o *Orchestrator) Execute(ctx context.Context, opts config.RawOptions) (identity.Identity, error) {
	plan, err := o.Prepare(opts)
	if err != nil {
		return identity.Identity{}, err
	}

	if err := identity.Materialize(plan.Identity); err != nil {
		return plan.Identity, err
	}
	o.Logger.Info("experiment directory ready", zap.String("path", plan.Identity.Path), zap.Bool("debug", plan.Identity.Debug))

	if err := manifest.Write(plan.Identity.Path, plan.Groups, plan.Eval); err != nil {
		return plan.Identity, err
	}

	base, err := o.Envs.Create(plan.Groups.EnvBase, plan.Groups.Training.Seed)
	if err != nil {
		return plan.Identity, fmt.Errorf("failed to create environment: %w", err)
	}

	return plan.Identity, o.Train(ctx, plan, base)
}

// Train runs the training lifecycle against base. base itself is never
// stepped: the training and evaluation wrappers each own a deep copy.
func (o *Orchestrator) Train(ctx context.Context, plan Plan, base environment.Env) error {
	dir := plan.Identity.Path
	g := plan.Groups

	logger, closeLog, err := logging.WithFile(o.Logger, filepath.Join(dir, ProgressLogFile))
	if err != nil {
		return err
	}
	defer closeLog()

	// 1. independent train and eval environments
	trainBase, err := environment.Clone(base)
	if err != nil {
		return err
	}
	evalBase, err := environment.Clone(base)
	if err != nil {
		return err
	}
	trainEnv, err := environment.NewFairWrapper(trainBase, g.ShapingTrain)
	if err != nil {
		return fmt.Errorf("invalid training shaping: %w", err)
	}
	evalEnv, err := environment.NewFairWrapper(evalBase, g.ShapingEval)
	if err != nil {
		return fmt.Errorf("invalid evaluation shaping: %w", err)
	}
	evalEnv.Seed(g.Training.Seed + 1)

	// 2. episode statistics and the vectorized interface
	vec := environment.NewVecEnv(environment.NewMonitor(trainEnv))

	// 3. trainer
	store, err := history.Open(ctx, history.Path(dir))
	if err != nil {
		return fmt.Errorf("failed to open evaluation history: %w", err)
	}
	defer store.Close()

	runID := history.NewRunID()
	logger = logger.With(zap.String("run_id", runID))
	t, err := o.Trainers.NewTrainer(TrainerSpec{
		RunID:       runID,
		PolicyClass: o.PolicyClass,
		Env:         vec,
		Groups:      g,
		Eval: trainer.EvalConfig{
			Params:   plan.Eval,
			Env:      evalEnv,
			Recorder: store,
			Workers:  o.Workers,
		},
		MetricsPath: filepath.Join(dir, MetricsFile),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create trainer: %w", err)
	}

	// 4. periodic checkpoints
	checkpoint := &trainer.CheckpointCallback{
		SaveFreq:   o.Settings.SaveFreq,
		SavePath:   plan.Identity.ModelsPath(),
		NamePrefix: CheckpointPrefix,
	}

	// 5. train; failures surface unchanged
	logger.Info("training started",
		zap.String("variant", string(g.Variant)),
		zap.Int("steps", g.Training.TrainTimesteps),
	)
	if err := t.Learn(ctx, g.Training.TrainTimesteps, checkpoint); err != nil {
		logger.Error("training failed", zap.Error(err))
		return err
	}

	// 6. final artifact
	final := filepath.Join(plan.Identity.ModelsPath(), FinalModelFile)
	if err := t.Save(final); err != nil {
		return err
	}
	logger.Info("training finished", zap.String("model", final))

	// 7. plots
	if err := store.Close(); err != nil {
		return fmt.Errorf("failed to close evaluation history: %w", err)
	}
	if o.Plotter == nil {
		return nil
	}
	return o.Plotter.PlotReturnBias(ctx, dir, o.Settings.PlotSmooth)
}
