package controllers

import (
	"context"
	"net/http"

	"github.com/durent/durent-backend/api/responses"
	"github.com/durent/durent-backend/internal/cron"
	"github.com/durent/durent-backend/internal/rentals"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/durent/durent-backend/pkg/logger"
)

// JobRunner executes cron jobs on demand.
type JobRunner interface {
	Execute(ctx context.Context, job cron.Job) error
	Trigger(ctx context.Context, name string) error
}

// EndRequestSweeper runs the end-request sweep and reports the auto-accept summary.
type EndRequestSweeper interface {
	Sweep(ctx context.Context) (rentals.Summary, error)
}

type triggerResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
}

// TriggerJob runs the named job synchronously. Failures surface as 500 with the cause.
func TriggerJob(runner JobRunner, name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := runner.Trigger(r.Context(), name); err != nil {
			responses.WriteError(r.Context(), logg, w, jobFailed(name, err))
			return
		}
		responses.WriteSuccess(w, triggerResponse{Job: name, Status: "completed"})
	}
}

// TriggerEndRequestSweep runs the sweep through the runner so manual runs are
// logged and counted like scheduled ones, then returns the summary.
func TriggerEndRequestSweep(runner JobRunner, sweeper EndRequestSweeper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var summary rentals.Summary
		job := cron.Func(cron.EndRequestSweepJobName, func(ctx context.Context) error {
			var err error
			summary, err = sweeper.Sweep(ctx)
			return err
		})
		if err := runner.Execute(r.Context(), job); err != nil {
			responses.WriteError(r.Context(), logg, w, jobFailed(cron.EndRequestSweepJobName, err).WithDetails(map[string]any{
				"error":     err.Error(),
				"processed": summary.Processed,
				"accepted":  summary.Accepted,
				"errors":    summary.Errors,
			}))
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func jobFailed(name string, err error) *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeJobFailed, err, name+" failed").WithDetails(map[string]any{"error": err.Error()})
}
