package lifecycle

import (
	"context"
	"fmt"
	"time"

	"eventquote_backend/platform/logger"

	"github.com/google/uuid"
)

// Target identifies the quotation a cascade acts on.
type Target struct {
	QuotationID    uuid.UUID
	EventID        uuid.UUID
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
}

// StepExecutor performs a single cascade step. Implementations must be
// idempotent: a step may run again on retry.
type StepExecutor interface {
	Execute(ctx context.Context, step StepName, target Target) error
}

// StepStatus is the outcome of a cascade step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// StepResult records one executed step.
type StepResult struct {
	Step       StepName   `json:"step"`
	Status     StepStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// Result is the outcome of a transition including its cascade.
type Result struct {
	RunID   *uuid.UUID   `json:"runId,omitempty"`
	Status  Status       `json:"status"`
	Partial bool         `json:"partial"`
	Steps   []StepResult `json:"steps"`
}

// Failed returns the steps that did not succeed.
func (r Result) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Runner executes cascade steps in order. A failing step does not stop the
// remaining ones and earlier steps are never rolled back.
type Runner struct {
	exec StepExecutor
	log  *logger.Logger
}

// NewRunner creates a cascade runner.
func NewRunner(exec StepExecutor, log *logger.Logger) *Runner {
	return &Runner{exec: exec, log: log}
}

// Run attempts every step and reports each one.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID, target Target, steps []StepName) []StepResult {
	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		results = append(results, r.RunStep(ctx, runID, target, step, 1))
	}
	return results
}

// RunStep executes one step and records its outcome. Panics inside the
// executor are reported as a failed step.
func (r *Runner) RunStep(ctx context.Context, runID uuid.UUID, target Target, step StepName, attempt int) (result StepResult) {
	result = StepResult{Step: step, Attempts: attempt}

	defer func() {
		if p := recover(); p != nil {
			result.Status = StepFailed
			result.Error = fmt.Sprintf("panic: %v", p)
			result.FinishedAt = time.Now()
			r.logStep(runID, step, result, fmt.Errorf("%s", result.Error))
		}
	}()

	err := r.exec.Execute(ctx, step, target)
	result.FinishedAt = time.Now()
	if err != nil {
		result.Status = StepFailed
		result.Error = err.Error()
	} else {
		result.Status = StepSucceeded
	}
	r.logStep(runID, step, result, err)
	return result
}

func (r *Runner) logStep(runID uuid.UUID, step StepName, result StepResult, err error) {
	if r.log == nil {
		return
	}
	r.log.CascadeStep(runID.String(), string(step), string(result.Status), err)
}

// IsPartial reports whether any step failed.
func IsPartial(results []StepResult) bool {
	for _, res := range results {
		if res.Status == StepFailed {
			return true
		}
	}
	return false
}
