package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/aimap/internal/model"
)

// Producer computes the value of one top-level section.
// Producers degrade on expected failures (an unreachable database, a
// missing file) by returning the section's empty value; an error means
// something unexpected happened.
type Producer interface {
	// Key returns the section key, e.g. "databaseSchema".
	Key() string

	// Produce returns the JSON-compatible section value.
	Produce(ctx context.Context) (any, error)
}

// SectionStep stores the value of a Producer under its key.
type SectionStep struct {
	// producer computes the section value.
	producer Producer

	// logger for structured logging.
	logger *slog.Logger
}

// SectionStepOption configures a SectionStep.
type SectionStepOption func(*SectionStep)

// WithSectionLogger sets a custom logger for the section step.
func WithSectionLogger(logger *slog.Logger) SectionStepOption {
	return func(s *SectionStep) {
		s.logger = logger
	}
}

// NewSectionStep creates a step for producer.
func NewSectionStep(producer Producer, opts ...SectionStepOption) *SectionStep {
	s := &SectionStep{
		producer: producer,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the section key.
func (s *SectionStep) Name() string {
	return s.producer.Key()
}

// Do executes the producer and records its value.
func (s *SectionStep) Do(ctx context.Context, m *model.ProjectMap) error {
	start := time.Now()

	value, err := s.producer.Produce(ctx)
	if err != nil {
		return fmt.Errorf("failed to produce %s: %w", s.producer.Key(), err)
	}
	m.SetSection(s.producer.Key(), value)

	s.logger.Debug("section produced",
		"section", s.producer.Key(),
		"duration", time.Since(start),
	)
	return nil
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc struct {
	key     string
	produce func(ctx context.Context) (any, error)
}

// NewProducerFunc returns a Producer named key backed by produce.
func NewProducerFunc(key string, produce func(ctx context.Context) (any, error)) ProducerFunc {
	return ProducerFunc{key: key, produce: produce}
}

// Key implements Producer.
func (f ProducerFunc) Key() string {
	return f.key
}

// Produce implements Producer.
func (f ProducerFunc) Produce(ctx context.Context) (any, error) {
	return f.produce(ctx)
}
