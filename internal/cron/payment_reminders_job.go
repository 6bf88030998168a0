package cron

import (
	"context"
	"fmt"
)

// PaymentRemindersJobName doubles as the metric label and dedup key segment.
const PaymentRemindersJobName = "payment-reminders"

type paymentReminders interface {
	SendPaymentReminders(ctx context.Context) error
	SendOverdueNotifications(ctx context.Context) error
}

// PaymentRemindersJob sends upcoming-payment reminders, then overdue notices.
// The first failing step aborts the run.
type PaymentRemindersJob struct {
	reminders paymentReminders
}

func NewPaymentRemindersJob(reminders paymentReminders) (*PaymentRemindersJob, error) {
	if reminders == nil {
		return nil, fmt.Errorf("reminders service required")
	}
	return &PaymentRemindersJob{reminders: reminders}, nil
}

func (j *PaymentRemindersJob) Name() string { return PaymentRemindersJobName }

func (j *PaymentRemindersJob) Run(ctx context.Context) error {
	if err := j.reminders.SendPaymentReminders(ctx); err != nil {
		return fmt.Errorf("send payment reminders: %w", err)
	}
	if err := j.reminders.SendOverdueNotifications(ctx); err != nil {
		return fmt.Errorf("send overdue notifications: %w", err)
	}
	return nil
}
