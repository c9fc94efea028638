package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

const compensationTimeout = 10 * time.Second

// SagaStepFunc performs or undoes one step of a workflow.
type SagaStepFunc func(ctx context.Context) error

type sagaStep struct {
	name       string
	run        SagaStepFunc
	compensate SagaStepFunc
}

// saga runs steps in order and, when one fails, undoes the completed ones
// in reverse.
type saga struct {
	name    string
	logger  *zap.Logger
	metrics *MetricsService
	steps   []sagaStep
}

func newSaga(name string, logger *zap.Logger, metrics *MetricsService) *saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saga{name: name, logger: logger, metrics: metrics}
}

// Step appends a step. compensate may be nil for steps with no side effect.
func (s *saga) Step(name string, run, compensate SagaStepFunc) *saga {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
	return s
}

// Run executes the workflow. The failing step's error is returned as is
// when every compensation succeeded; otherwise an ErrCompensationFailed
// wrapping all failures is returned.
func (s *saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		s.logger.Warn("workflow step failed",
			zap.String("workflow", s.name),
			zap.String("step", step.name),
			zap.Error(err),
		)
		if compErr := s.compensate(ctx, i); compErr != nil {
			return appErrors.Wrap(errors.Join(err, compErr), appErrors.ErrCompensationFailed.Code, appErrors.ErrCompensationFailed.Status,
				fmt.Sprintf("%s failed at %s and rollback incomplete", s.name, step.name))
		}
		return err
	}
	return nil
}

func (s *saga) compensate(ctx context.Context, failed int) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.metrics.RecordCompensation(s.name, false)
			s.logger.Error("compensation failed",
				zap.String("workflow", s.name),
				zap.String("step", step.name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("undo %s: %w", step.name, err))
			continue
		}
		s.metrics.RecordCompensation(s.name, true)
	}
	return errors.Join(errs...)
}
