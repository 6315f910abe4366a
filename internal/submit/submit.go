// Package submit runs a form against the execution service and records the
// outcome in run history.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/internal/store"
	"github.com/me/schedlab/pkg/model"
)

// DefaultTimeout bounds one execution request.
const DefaultTimeout = 60 * time.Second

// Service submits forms. A form has at most one request in flight; responses
// that arrive after the form was reloaded are recorded as discarded.
type Service struct {
	executor backend.Executor
	runs     store.Store
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService creates a submission service. runs may be nil to disable history.
func NewService(executor backend.Executor, runs store.Store, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		executor: executor,
		runs:     runs,
		timeout:  timeout,
		logger:   logger.With("component", "submit"),
	}
}

// Outcome is the result of a submission as seen by the caller.
type Outcome struct {
	Run *model.Run
	// Message is the user-facing error text when the run failed.
	Message string
}

// Submit validates and sends the form, then applies the response to it.
// Validation failures and concurrent submissions are returned as errors
// without creating a run. Execution failures are not errors: they leave the
// form in SUBMISSION_FAILED and are reported through Outcome.Message.
func (s *Service) Submit(ctx context.Context, st *form.Store) (*Outcome, error) {
	sub, err := st.BeginSubmit()
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}
	logger := s.logger.With("form_id", sub.FormID, "algorithm", sub.Algorithm)

	run := &model.Run{
		ID:        "run_" + uuid.New().String(),
		FormID:    sub.FormID,
		Algorithm: sub.Algorithm,
		State:     model.RunStatePending,
		Inputs:    sub.Values,
		CreatedAt: time.Now().UTC(),
	}
	if s.runs != nil {
		if err := s.runs.CreateRun(ctx, run); err != nil {
			logger.Error("record run", "run_id", run.ID, "error", err)
			_ = st.FailSubmit(sub.Token, "could not record the run")
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	res, execErr := s.executor.Execute(execCtx, sub.Algorithm, sub.Values)
	metrics.SubmissionLatency.Observe(time.Since(start).Seconds())

	out := &Outcome{Run: run}
	now := time.Now().UTC()
	run.CompletedAt = &now

	if execErr != nil {
		out.Message = backend.UserMessage(execErr)
		run.Error = out.Message
		err = st.FailSubmit(sub.Token, out.Message)
		run.State = model.RunStateFailed
	} else {
		err = st.CompleteSubmit(sub.Token, res)
		run.Result = res
		run.State = model.RunStateCompleted
	}

	outcome := metrics.OutcomeCompleted
	switch {
	case errors.Is(err, form.ErrStaleResponse):
		logger.Info("discarding response for reloaded form", "run_id", run.ID)
		run.State = model.RunStateDiscarded
		outcome = metrics.OutcomeStale
	case err != nil:
		return nil, err
	case execErr != nil:
		logger.Warn("execution failed", "run_id", run.ID, "error", execErr)
		outcome = metrics.OutcomeFailed
	default:
		logger.Info("execution completed", "run_id", run.ID, "duration", time.Since(start))
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()

	if s.runs != nil {
		// The request context may already be gone; history is still written.
		if err := s.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Error("update run", "run_id", run.ID, "error", err)
		}
	}
	return out, nil
}
