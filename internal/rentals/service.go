package rentals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const warningLead = 24 * time.Hour

var errAlreadyAnswered = errors.New("end request already answered")

type notifier interface {
	SendEndRentalAutoAcceptWarning(ctx context.Context, landlordID uuid.UUID, req notifications.EndRentalInfo) notifications.Outcome
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Summary reports the outcome of one auto-accept sweep.
type Summary struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Errors    int `json:"errors"`
}

// Service runs the end-of-rental request lifecycle jobs.
type Service interface {
	AutoAcceptExpired(ctx context.Context) (Summary, error)
	SendAutoAcceptWarnings(ctx context.Context) (int, error)
}

// ServiceParams wires the rentals service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Notifier notifier
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier notifier
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		notifier: params.Notifier,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// AutoAcceptExpired accepts every pending request whose deadline has passed.
// Each request commits in its own transaction; a failing request is counted
// and the sweep moves on.
func (s *service) AutoAcceptExpired(ctx context.Context) (Summary, error) {
	now := s.now().UTC()
	rows, err := s.repo.Expired(ctx, now)
	if err != nil {
		return Summary{}, fmt.Errorf("load expired end requests: %w", err)
	}

	var (
		summary  Summary
		sweepErr error
	)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			accepted, err := repo.AutoAccept(ctx, row.RequestID, now)
			if err != nil {
				return err
			}
			if !accepted {
				return errAlreadyAnswered
			}
			return repo.EndRental(ctx, row.RentalID, row.EndDate)
		})
		switch {
		case err == nil:
			summary.Accepted++
		case errors.Is(err, errAlreadyAnswered):
			// answered between the scan and the update
		default:
			summary.Errors++
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("request %s: %w", row.RequestID, err))
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"processed": summary.Processed,
		"accepted":  summary.Accepted,
		"errors":    summary.Errors,
	})
	if sweepErr != nil {
		s.logg.Error(logCtx, "rentals.auto_accept.partial_failure", sweepErr)
	} else {
		s.logg.Info(logCtx, "rentals.auto_accept.completed")
	}
	return summary, nil
}

// SendAutoAcceptWarnings warns landlords about requests that will be
// auto-accepted within the next 24 hours. warning_sent_at is stamped only for
// settled outcomes; a lookup or persist failure leaves the request eligible
// for the next run.
func (s *service) SendAutoAcceptWarnings(ctx context.Context) (int, error) {
	now := s.now().UTC()
	rows, err := s.repo.DueForWarning(ctx, now, now.Add(warningLead))
	if err != nil {
		return 0, fmt.Errorf("load end requests due for warning: %w", err)
	}

	sent, retry := 0, 0
	var markErr error
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		outcome := s.notifier.SendEndRentalAutoAcceptWarning(ctx, row.LandlordID, notifications.EndRentalInfo{
			RequestID:        row.RequestID,
			RentalID:         row.RentalID,
			PropertyID:       row.PropertyID,
			PropertyTitle:    row.PropertyTitle,
			EndDate:          row.EndDate,
			ResponseDeadline: row.ResponseDeadline,
		})
		if outcome == notifications.OutcomeSent {
			sent++
		}
		if !outcome.Settled() {
			retry++
			continue
		}
		if err := s.repo.MarkWarningSent(ctx, row.RequestID, now); err != nil {
			markErr = multierr.Append(markErr, err)
		}
	}

	if markErr != nil {
		s.logg.Error(ctx, "rentals.auto_accept_warning.mark_failed", markErr)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"sent":       sent,
		"retry":      retry,
	}), "rentals.auto_accept_warning.completed")
	return sent, nil
}
