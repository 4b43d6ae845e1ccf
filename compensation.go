package accounts

import (
	"context"
	"fmt"
)

// Step is one stage of a Saga. Compensate undoes Run and is only invoked
// for steps whose Run succeeded.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports the failing step, its error and the outcome of the
// compensations that ran because of it.
type StepError struct {
	Step          string
	Err           error
	CompensateErr error
}

func (e *StepError) Error() string {
	if e.CompensateErr != nil {
		return fmt.Sprintf("step %s failed: %v (compensation failed: %v)", e.Step, e.Err, e.CompensateErr)
	}
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Compensated reports whether all compensations succeeded
func (e *StepError) Compensated() bool { return e.CompensateErr == nil }

// Saga runs steps in order. When a step fails the compensations of the
// already completed steps run in reverse order before Execute returns.
type Saga struct {
	steps []Step
}

// NewSaga builds a saga from steps
func NewSaga(steps ...Step) *Saga {
	return &Saga{steps: steps}
}

// Then appends a step
func (s *Saga) Then(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the saga, returning a *StepError on failure
func (s *Saga) Execute(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if step.Run == nil {
			done = append(done, step)
			continue
		}

		if err := step.Run(ctx); err != nil {
			return &StepError{
				Step:          step.Name,
				Err:           err,
				CompensateErr: compensate(ctx, done),
			}
		}

		done = append(done, step)
	}

	return nil
}

func compensate(ctx context.Context, done []Step) error {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			return fmt.Errorf("compensate %s: %w", step.Name, err)
		}
	}
	return nil
}
