package notifications

import (
	"github.com/durent/durent-backend/pkg/db/models"
	"github.com/durent/durent-backend/pkg/enums"
)

// categoryByType gates each notification type behind a settings toggle.
// Types missing from the table are always delivered.
var categoryByType = map[enums.NotificationType]enums.NotificationCategory{
	enums.NotificationTypePaymentReminder:            enums.NotificationCategoryPaymentReminders,
	enums.NotificationTypePaymentOverdue:             enums.NotificationCategoryPaymentReminders,
	enums.NotificationTypePaymentApproved:            enums.NotificationCategoryPaymentUpdates,
	enums.NotificationTypePaymentRejected:            enums.NotificationCategoryPaymentUpdates,
	enums.NotificationTypePaymentVerificationNeeded:  enums.NotificationCategoryPaymentUpdates,
	enums.NotificationTypeNewMessage:                 enums.NotificationCategoryMessages,
	enums.NotificationTypeEndRentalRequest:           enums.NotificationCategoryEndRentalNotifications,
	enums.NotificationTypeEndRentalAutoAcceptWarning: enums.NotificationCategoryEndRentalNotifications,
	enums.NotificationTypeNewTenantJoined:            enums.NotificationCategoryTenantUpdates,
	enums.NotificationTypePaymentDateChangeRequest:   enums.NotificationCategoryPaymentDateChangeRequests,
	enums.NotificationTypePaymentDateChangeApproved:  enums.NotificationCategoryPaymentDateChangeRequests,
	enums.NotificationTypePaymentDateChangeRejected:  enums.NotificationCategoryPaymentDateChangeRequests,
}

// CategoryFor returns the settings category for a type.
func CategoryFor(t enums.NotificationType) (enums.NotificationCategory, bool) {
	category, ok := categoryByType[t]
	return category, ok
}

// Allowed reports whether a user with the given settings accepts the type.
// A nil settings row means every category is enabled.
func Allowed(t enums.NotificationType, settings *models.NotificationSettings) bool {
	if settings == nil {
		return true
	}
	category, ok := CategoryFor(t)
	if !ok {
		return true
	}
	return settings.Enabled(category)
}
