package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/aimap/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each adding its section to the map.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and progress output
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the map to extend.
	// Returns an error if the step fails; the pipeline then records the
	// step's section as null when continuing.
	Do(ctx context.Context, m *model.ProjectMap) error

	// Name returns the step's name, which is also its section key.
	Name() string
}

// Progress is called before each step starts.
type Progress func(step string)

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// progress reports step starts to the console, may be nil.
	progress Progress

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, a default logger is created.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress sets a callback invoked with each step name before it runs.
func WithProgress(progress Progress) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The failed step's section is set to null and
// the remaining steps still execute.
//
// Design decision: a project map is useful even when one section cannot be
// produced, so the map command always continues. Stopping on the first
// error remains the default for callers that need all-or-nothing runs.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends steps to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps bound their own blocking work (database pings and
// the artisan sub-process carry timeouts). A cancelled run stops between
// sections and the partial map is not written.
//
// Returns the first error encountered if continueOnError is false, the
// context's error if the run was cancelled at any point, or nil if all
// steps complete.
func (p *Pipeline) Execute(ctx context.Context, m *model.ProjectMap) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		if p.progress != nil {
			p.progress(step.Name())
		}
		p.logger.Debug("executing step", "step", step.Name())

		if err := step.Do(ctx, m); err != nil {
			if ctx.Err() != nil {
				p.logger.Warn("pipeline cancelled",
					"step", step.Name(),
					"reason", ctx.Err(),
				)
				return ctx.Err()
			}
			p.logger.Error("step failed",
				"step", step.Name(),
				"error", err,
			)

			if !p.continueOnError {
				return err
			}
			m.SetSection(step.Name(), nil)
			continue
		}

		p.logger.Debug("step completed", "step", step.Name())
	}

	// A step may finish normally while the run is being cancelled.
	return ctx.Err()
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
