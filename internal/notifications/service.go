package notifications

import (
	"context"

	"github.com/durent/durent-backend/pkg/db"
	"github.com/durent/durent-backend/pkg/db/models"
	pkgerrors "github.com/durent/durent-backend/pkg/errors"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Service defines the per-user notification read and settings operations.
// Storage failures on the read paths are logged and reported as empty
// results rather than errors.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) int64
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) bool
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) bool
	Delete(ctx context.Context, userID, notificationID uuid.UUID) bool
	Settings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, patch SettingsPatch) (*models.NotificationSettings, error)
}

type service struct {
	repo     Repository
	settings SettingsRepository
	logg     *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor,omitempty"`
}

// SettingsPatch carries a partial settings update; nil fields are untouched.
type SettingsPatch struct {
	PaymentReminders          *bool `json:"paymentReminders" validate:"required_without_all=PaymentUpdates Messages EndRentalNotifications TenantUpdates PaymentDateChangeRequests"`
	PaymentUpdates            *bool `json:"paymentUpdates"`
	Messages                  *bool `json:"messages"`
	EndRentalNotifications    *bool `json:"endRentalNotifications"`
	TenantUpdates             *bool `json:"tenantUpdates"`
	PaymentDateChangeRequests *bool `json:"paymentDateChangeRequests"`
}

func (p SettingsPatch) columns() map[string]any {
	fields := map[string]any{}
	set := func(column string, value *bool) {
		if value != nil {
			fields[column] = *value
		}
	}
	set("payment_reminders", p.PaymentReminders)
	set("payment_updates", p.PaymentUpdates)
	set("messages", p.Messages)
	set("end_rental_notifications", p.EndRentalNotifications)
	set("tenant_updates", p.TenantUpdates)
	set("payment_date_change_requests", p.PaymentDateChangeRequests)
	return fields
}

// NewService wires notifications dependencies.
func NewService(repo Repository, settings SettingsRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification settings repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, settings: settings, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID: params.UserID,
		Limit:  pagination.NormalizeLimit(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, params.UserID.String()), "notifications.list_failed", err)
		return &ListResult{Items: []models.Notification{}}, nil
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) int64 {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "notifications.count_unread_failed", err)
		return 0
	}
	return count
}

// MarkAsRead is idempotent: an already-read notification still reports true.
func (s *service) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) bool {
	result, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "notifications.mark_read_failed", err)
		return false
	}
	return result.Found
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) bool {
	if _, err := s.repo.MarkAllRead(ctx, userID); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "notifications.mark_all_read_failed", err)
		return false
	}
	return true
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) bool {
	deleted, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "notifications.delete_failed", err)
		return false
	}
	return deleted
}

// Settings returns the user's settings, creating the all-enabled default row
// when none exists.
func (s *service) Settings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	settings, err := s.settings.Find(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification settings")
	}

	defaults := models.DefaultNotificationSettings(userID)
	if err := s.settings.Create(ctx, &defaults); err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost a race with a concurrent request; read the winner
			existing, findErr := s.settings.Find(ctx, userID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load notification settings")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification settings")
	}
	return &defaults, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID uuid.UUID, patch SettingsPatch) (*models.NotificationSettings, error) {
	if _, err := s.Settings(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.settings.Update(ctx, userID, patch.columns()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notification settings")
	}
	updated, err := s.settings.Find(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification settings")
	}
	return updated, nil
}
