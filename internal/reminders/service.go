package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/google/uuid"
)

const defaultLeadDays = 3

type notifier interface {
	SendPaymentReminder(ctx context.Context, tenantID uuid.UUID, payment notifications.PaymentInfo) bool
	SendPaymentOverdue(ctx context.Context, tenantID, landlordID uuid.UUID, tenantName string, payment notifications.PaymentInfo) notifications.OverdueResult
}

// Service enumerates pending payments and hands them to the notifier.
type Service interface {
	SendPaymentReminders(ctx context.Context) error
	SendOverdueNotifications(ctx context.Context) error
}

// ServiceParams wires the reminder service.
type ServiceParams struct {
	Repo     Repository
	Notifier notifier
	Logger   *logger.Logger
	LeadDays int
	Location *time.Location
}

type service struct {
	repo     Repository
	notifier notifier
	logg     *logger.Logger
	leadDays int
	loc      *time.Location
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	leadDays := params.LeadDays
	if leadDays <= 0 {
		leadDays = defaultLeadDays
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:     params.Repo,
		notifier: params.Notifier,
		logg:     params.Logger,
		leadDays: leadDays,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// today returns local midnight, the boundary both queries are anchored on.
func (s *service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// SendPaymentReminders notifies tenants of pending payments due between today
// and the lead-day horizon, inclusive.
func (s *service) SendPaymentReminders(ctx context.Context) error {
	from := s.today()
	to := from.AddDate(0, 0, s.leadDays+1)

	rows, err := s.repo.PendingDueBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load upcoming payments: %w", err)
	}

	sent := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.notifier.SendPaymentReminder(ctx, row.TenantID, paymentInfo(row)) {
			sent++
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"sent":       sent,
		"lead_days":  s.leadDays,
	}), "reminders.payment_reminders.completed")
	return nil
}

// SendOverdueNotifications notifies both parties of every pending payment
// whose due date has passed.
func (s *service) SendOverdueNotifications(ctx context.Context) error {
	rows, err := s.repo.PendingDueBefore(ctx, s.today())
	if err != nil {
		return fmt.Errorf("load overdue payments: %w", err)
	}

	tenantSent, landlordSent := 0, 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := s.notifier.SendPaymentOverdue(ctx, row.TenantID, row.LandlordID, row.TenantName(), paymentInfo(row))
		if result.Tenant {
			tenantSent++
		}
		if result.Landlord {
			landlordSent++
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"candidates":    len(rows),
		"tenant_sent":   tenantSent,
		"landlord_sent": landlordSent,
	}), "reminders.overdue.completed")
	return nil
}

func paymentInfo(row PaymentRow) notifications.PaymentInfo {
	return notifications.PaymentInfo{
		PaymentID:     row.PaymentID,
		PropertyID:    row.PropertyID,
		PropertyTitle: row.PropertyTitle,
		Amount:        row.Amount,
		DueDate:       row.DueDate,
	}
}
