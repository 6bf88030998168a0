package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypePaymentReminder            NotificationType = "PAYMENT_REMINDER"
	NotificationTypePaymentOverdue             NotificationType = "PAYMENT_OVERDUE"
	NotificationTypePaymentApproved            NotificationType = "PAYMENT_APPROVED"
	NotificationTypePaymentRejected            NotificationType = "PAYMENT_REJECTED"
	NotificationTypePaymentVerificationNeeded  NotificationType = "PAYMENT_VERIFICATION_NEEDED"
	NotificationTypeNewMessage                 NotificationType = "NEW_MESSAGE"
	NotificationTypeEndRentalRequest           NotificationType = "END_RENTAL_REQUEST"
	NotificationTypeEndRentalAutoAcceptWarning NotificationType = "END_RENTAL_AUTO_ACCEPT_WARNING"
	NotificationTypeNewTenantJoined            NotificationType = "NEW_TENANT_JOINED"
	NotificationTypePaymentDateChangeRequest   NotificationType = "PAYMENT_DATE_CHANGE_REQUEST"
	NotificationTypePaymentDateChangeApproved  NotificationType = "PAYMENT_DATE_CHANGE_APPROVED"
	NotificationTypePaymentDateChangeRejected  NotificationType = "PAYMENT_DATE_CHANGE_REJECTED"
	NotificationTypeZoneDigest                 NotificationType = "ZONE_DIGEST"
	NotificationTypeTest                       NotificationType = "TEST"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePaymentReminder,
	NotificationTypePaymentOverdue,
	NotificationTypePaymentApproved,
	NotificationTypePaymentRejected,
	NotificationTypePaymentVerificationNeeded,
	NotificationTypeNewMessage,
	NotificationTypeEndRentalRequest,
	NotificationTypeEndRentalAutoAcceptWarning,
	NotificationTypeNewTenantJoined,
	NotificationTypePaymentDateChangeRequest,
	NotificationTypePaymentDateChangeApproved,
	NotificationTypePaymentDateChangeRejected,
	NotificationTypeZoneDigest,
	NotificationTypeTest,
}

// NotificationTypes returns every known type.
func NotificationTypes() []NotificationType {
	out := make([]NotificationType, len(validNotificationTypes))
	copy(out, validNotificationTypes)
	return out
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationCategory names a user-facing settings toggle.
type NotificationCategory string

const (
	NotificationCategoryPaymentReminders          NotificationCategory = "paymentReminders"
	NotificationCategoryPaymentUpdates            NotificationCategory = "paymentUpdates"
	NotificationCategoryMessages                  NotificationCategory = "messages"
	NotificationCategoryEndRentalNotifications    NotificationCategory = "endRentalNotifications"
	NotificationCategoryTenantUpdates             NotificationCategory = "tenantUpdates"
	NotificationCategoryPaymentDateChangeRequests NotificationCategory = "paymentDateChangeRequests"
)
