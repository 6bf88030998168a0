package models

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationSettings holds the per-category push toggles for a user. The
// bool columns default to true in the schema; the gorm tags deliberately omit
// a default so explicit false values are written.
type NotificationSettings struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	PaymentReminders          bool      `gorm:"column:payment_reminders;not null" json:"paymentReminders"`
	PaymentUpdates            bool      `gorm:"column:payment_updates;not null" json:"paymentUpdates"`
	Messages                  bool      `gorm:"column:messages;not null" json:"messages"`
	EndRentalNotifications    bool      `gorm:"column:end_rental_notifications;not null" json:"endRentalNotifications"`
	TenantUpdates             bool      `gorm:"column:tenant_updates;not null" json:"tenantUpdates"`
	PaymentDateChangeRequests bool      `gorm:"column:payment_date_change_requests;not null" json:"paymentDateChangeRequests"`
	CreatedAt                 time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt                 time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (NotificationSettings) TableName() string { return "notification_settings" }

func (s *NotificationSettings) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// DefaultNotificationSettings returns the all-enabled settings for a user.
func DefaultNotificationSettings(userID uuid.UUID) NotificationSettings {
	return NotificationSettings{
		UserID:                    userID,
		PaymentReminders:          true,
		PaymentUpdates:            true,
		Messages:                  true,
		EndRentalNotifications:    true,
		TenantUpdates:             true,
		PaymentDateChangeRequests: true,
	}
}

// Enabled reports the toggle for a category. Unknown categories are enabled.
func (s NotificationSettings) Enabled(category enums.NotificationCategory) bool {
	switch category {
	case enums.NotificationCategoryPaymentReminders:
		return s.PaymentReminders
	case enums.NotificationCategoryPaymentUpdates:
		return s.PaymentUpdates
	case enums.NotificationCategoryMessages:
		return s.Messages
	case enums.NotificationCategoryEndRentalNotifications:
		return s.EndRentalNotifications
	case enums.NotificationCategoryTenantUpdates:
		return s.TenantUpdates
	case enums.NotificationCategoryPaymentDateChangeRequests:
		return s.PaymentDateChangeRequests
	default:
		return true
	}
}
