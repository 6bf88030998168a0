package cron

import (
	"context"
	"fmt"

	"github.com/durent/durent-backend/internal/rentals"
	"github.com/durent/durent-backend/pkg/logger"
	"go.uber.org/multierr"
)

const EndRequestSweepJobName = "end-request-sweep"

// EndRequestSweepJob warns landlords about requests nearing their deadline
// and auto-accepts the ones past it.
type EndRequestSweepJob struct {
	rentals rentals.Service
	logg    *logger.Logger
}

func NewEndRequestSweepJob(svc rentals.Service, logg *logger.Logger) (*EndRequestSweepJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("rentals service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &EndRequestSweepJob{rentals: svc, logg: logg}, nil
}

func (j *EndRequestSweepJob) Name() string { return EndRequestSweepJobName }

func (j *EndRequestSweepJob) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep runs both steps and returns the auto-accept summary. A warning failure
// does not stop the auto-accept step; both errors are returned combined.
func (j *EndRequestSweepJob) Sweep(ctx context.Context) (rentals.Summary, error) {
	var errs error
	warned, err := j.rentals.SendAutoAcceptWarnings(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("send auto-accept warnings: %w", err))
	}

	summary, err := j.rentals.AutoAcceptExpired(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("auto-accept expired requests: %w", err))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"warned":    warned,
		"processed": summary.Processed,
		"accepted":  summary.Accepted,
		"errors":    summary.Errors,
	}), "cron.end_request_sweep.summary")
	return summary, errs
}
