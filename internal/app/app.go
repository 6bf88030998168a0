// Package app wires the notification domain for the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/durent/durent-backend/internal/cron"
	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/internal/reminders"
	"github.com/durent/durent-backend/internal/rentals"
	"github.com/durent/durent-backend/internal/zones"
	"github.com/durent/durent-backend/pkg/config"
	"github.com/durent/durent-backend/pkg/db"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/mail"
	"github.com/durent/durent-backend/pkg/metrics"
	"github.com/durent/durent-backend/pkg/push"
	"github.com/durent/durent-backend/pkg/redis"
)

// Params carries the shared infrastructure both binaries open at startup.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	Registerer prometheus.Registerer
	// Gateway overrides the configured push provider. Tests only.
	Gateway push.Gateway
}

// Components are the wired services.
type Components struct {
	Notifications notifications.Service
	Notifier      *notifications.Notifier
	Reminders     reminders.Service
	Zones         zones.Service
	Rentals       rentals.Service
	Sweep         *cron.EndRequestSweepJob
	Cron          *cron.Service
}

// Build constructs every service from params. The Redis client is optional;
// without it scheduled fires are not deduplicated across replicas.
func Build(ctx context.Context, params Params) (*Components, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	cfg := params.Config
	logg := params.Logger
	conn := params.DB.DB()

	reg := params.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	gateway := params.Gateway
	if gateway == nil {
		var err error
		gateway, err = push.New(ctx, cfg.Push)
		if err != nil {
			return nil, fmt.Errorf("push gateway: %w", err)
		}
	}

	notificationRepo := notifications.NewRepository(conn)
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:    notificationRepo,
		Gateway: gateway,
		Logger:  logg,
		Metrics: metrics.NewNotificationMetrics(reg),
	})
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: %w", err)
	}
	notificationService, err := notifications.NewService(notificationRepo, notifications.NewSettingsRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	notifier, err := notifications.NewNotifier(dispatcher, loc)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	reminderService, err := reminders.NewService(reminders.ServiceParams{
		Repo:     reminders.NewRepository(conn),
		Notifier: notifier,
		Logger:   logg,
		LeadDays: cfg.Scheduler.ReminderLeadDays,
		Location: loc,
	})
	if err != nil {
		return nil, fmt.Errorf("reminders service: %w", err)
	}

	zoneParams := zones.ServiceParams{
		Repo:     zones.NewRepository(conn),
		Notifier: notifier,
		Logger:   logg,
	}
	if cfg.Mail.Enabled() {
		mailer, err := mail.NewMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromEmail)
		if err != nil {
			return nil, fmt.Errorf("mailer: %w", err)
		}
		zoneParams.Mailer = mailer
	}
	zoneService, err := zones.NewService(zoneParams)
	if err != nil {
		return nil, fmt.Errorf("zones service: %w", err)
	}

	rentalService, err := rentals.NewService(rentals.ServiceParams{
		Repo:     rentals.NewRepository(conn),
		Tx:       params.DB,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("rentals service: %w", err)
	}

	remindersJob, err := cron.NewPaymentRemindersJob(reminderService)
	if err != nil {
		return nil, err
	}
	digestJob, err := cron.NewZoneDigestJob(zoneService)
	if err != nil {
		return nil, err
	}
	sweepJob, err := cron.NewEndRequestSweepJob(rentalService, logg)
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry(
		cron.Entry{Spec: cfg.Scheduler.PaymentRemindersCron, Job: remindersJob},
		cron.Entry{Spec: cfg.Scheduler.ZoneDigestCron, Job: digestJob},
		cron.Entry{Spec: cfg.Scheduler.EndRequestSweepCron, Job: sweepJob},
	)

	cronParams := cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Location: loc,
	}
	if params.Redis != nil {
		guard, err := cron.NewRedisFireGuard(params.Redis, cfg.Scheduler.DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("cron fire guard: %w", err)
		}
		cronParams.Guard = guard
	}
	cronService, err := cron.NewService(cronParams)
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}

	return &Components{
		Notifications: notificationService,
		Notifier:      notifier,
		Reminders:     reminderService,
		Zones:         zoneService,
		Rentals:       rentalService,
		Sweep:         sweepJob,
		Cron:          cronService,
	}, nil
}
