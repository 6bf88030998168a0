package notifications

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Payload is the typed data attached to a notification. Each event kind has
// its own variant; Fields flattens it into the stored key/value bag.
type Payload interface {
	Type() enums.NotificationType
	Fields() map[string]any
}

type PaymentReminderPayload struct {
	PaymentID    uuid.UUID
	PropertyID   uuid.UUID
	Amount       decimal.Decimal
	DueDate      time.Time
	DaysUntilDue int
}

func (PaymentReminderPayload) Type() enums.NotificationType {
	return enums.NotificationTypePaymentReminder
}

func (p PaymentReminderPayload) Fields() map[string]any {
	return map[string]any{
		"paymentId":    p.PaymentID.String(),
		"propertyId":   p.PropertyID.String(),
		"amount":       p.Amount.StringFixed(2),
		"dueDate":      p.DueDate.Format(dateLayout),
		"daysUntilDue": p.DaysUntilDue,
	}
}

type PaymentOverduePayload struct {
	PaymentID   uuid.UUID
	PropertyID  uuid.UUID
	Amount      decimal.Decimal
	DueDate     time.Time
	DaysOverdue int
	Recipient   enums.UserRole
}

func (PaymentOverduePayload) Type() enums.NotificationType {
	return enums.NotificationTypePaymentOverdue
}

func (p PaymentOverduePayload) Fields() map[string]any {
	return map[string]any{
		"paymentId":   p.PaymentID.String(),
		"propertyId":  p.PropertyID.String(),
		"amount":      p.Amount.StringFixed(2),
		"dueDate":     p.DueDate.Format(dateLayout),
		"daysOverdue": p.DaysOverdue,
		"recipient":   string(p.Recipient),
	}
}

// PaymentDecisionPayload covers both approval and rejection.
type PaymentDecisionPayload struct {
	PaymentID  uuid.UUID
	PropertyID uuid.UUID
	Amount     decimal.Decimal
	Approved   bool
	Reason     string
}

func (p PaymentDecisionPayload) Type() enums.NotificationType {
	if p.Approved {
		return enums.NotificationTypePaymentApproved
	}
	return enums.NotificationTypePaymentRejected
}

func (p PaymentDecisionPayload) Fields() map[string]any {
	fields := map[string]any{
		"paymentId":  p.PaymentID.String(),
		"propertyId": p.PropertyID.String(),
		"amount":     p.Amount.StringFixed(2),
	}
	if p.Reason != "" {
		fields["reason"] = p.Reason
	}
	return fields
}

type PaymentVerificationPayload struct {
	PaymentID  uuid.UUID
	PropertyID uuid.UUID
	TenantID   uuid.UUID
	Amount     decimal.Decimal
}

func (PaymentVerificationPayload) Type() enums.NotificationType {
	return enums.NotificationTypePaymentVerificationNeeded
}

func (p PaymentVerificationPayload) Fields() map[string]any {
	return map[string]any{
		"paymentId":  p.PaymentID.String(),
		"propertyId": p.PropertyID.String(),
		"tenantId":   p.TenantID.String(),
		"amount":     p.Amount.StringFixed(2),
	}
}

type NewMessagePayload struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	SenderID       uuid.UUID
}

func (NewMessagePayload) Type() enums.NotificationType {
	return enums.NotificationTypeNewMessage
}

func (p NewMessagePayload) Fields() map[string]any {
	return map[string]any{
		"conversationId": p.ConversationID.String(),
		"messageId":      p.MessageID.String(),
		"senderId":       p.SenderID.String(),
	}
}

type EndRentalRequestPayload struct {
	RequestID        uuid.UUID
	RentalID         uuid.UUID
	PropertyID       uuid.UUID
	EndDate          time.Time
	ResponseDeadline time.Time
}

func (EndRentalRequestPayload) Type() enums.NotificationType {
	return enums.NotificationTypeEndRentalRequest
}

func (p EndRentalRequestPayload) Fields() map[string]any {
	return map[string]any{
		"requestId":        p.RequestID.String(),
		"rentalId":         p.RentalID.String(),
		"propertyId":       p.PropertyID.String(),
		"endDate":          p.EndDate.Format(dateLayout),
		"responseDeadline": p.ResponseDeadline.UTC().Format(time.RFC3339),
	}
}

type EndRentalAutoAcceptWarningPayload struct {
	RequestID        uuid.UUID
	RentalID         uuid.UUID
	PropertyID       uuid.UUID
	ResponseDeadline time.Time
}

func (EndRentalAutoAcceptWarningPayload) Type() enums.NotificationType {
	return enums.NotificationTypeEndRentalAutoAcceptWarning
}

func (p EndRentalAutoAcceptWarningPayload) Fields() map[string]any {
	return map[string]any{
		"requestId":        p.RequestID.String(),
		"rentalId":         p.RentalID.String(),
		"propertyId":       p.PropertyID.String(),
		"responseDeadline": p.ResponseDeadline.UTC().Format(time.RFC3339),
	}
}

type NewTenantJoinedPayload struct {
	PropertyID uuid.UUID
	RentalID   uuid.UUID
	TenantID   uuid.UUID
}

func (NewTenantJoinedPayload) Type() enums.NotificationType {
	return enums.NotificationTypeNewTenantJoined
}

func (p NewTenantJoinedPayload) Fields() map[string]any {
	return map[string]any{
		"propertyId": p.PropertyID.String(),
		"rentalId":   p.RentalID.String(),
		"tenantId":   p.TenantID.String(),
	}
}

type PaymentDateChangeRequestPayload struct {
	RequestID    uuid.UUID
	RentalID     uuid.UUID
	CurrentDay   int
	RequestedDay int
}

func (PaymentDateChangeRequestPayload) Type() enums.NotificationType {
	return enums.NotificationTypePaymentDateChangeRequest
}

func (p PaymentDateChangeRequestPayload) Fields() map[string]any {
	return map[string]any{
		"requestId":    p.RequestID.String(),
		"rentalId":     p.RentalID.String(),
		"currentDay":   p.CurrentDay,
		"requestedDay": p.RequestedDay,
	}
}

type PaymentDateChangeResponsePayload struct {
	RequestID    uuid.UUID
	RentalID     uuid.UUID
	RequestedDay int
	Approved     bool
}

func (p PaymentDateChangeResponsePayload) Type() enums.NotificationType {
	if p.Approved {
		return enums.NotificationTypePaymentDateChangeApproved
	}
	return enums.NotificationTypePaymentDateChangeRejected
}

func (p PaymentDateChangeResponsePayload) Fields() map[string]any {
	return map[string]any{
		"requestId":    p.RequestID.String(),
		"rentalId":     p.RentalID.String(),
		"requestedDay": p.RequestedDay,
		"approved":     p.Approved,
	}
}

type ZoneDigestPayload struct {
	Zones    []string
	Listings int
}

func (ZoneDigestPayload) Type() enums.NotificationType {
	return enums.NotificationTypeZoneDigest
}

func (p ZoneDigestPayload) Fields() map[string]any {
	zones := make([]any, 0, len(p.Zones))
	for _, z := range p.Zones {
		zones = append(zones, z)
	}
	return map[string]any{
		"zones":    zones,
		"listings": p.Listings,
	}
}

type TestPayload struct {
	SentAt time.Time
}

func (TestPayload) Type() enums.NotificationType {
	return enums.NotificationTypeTest
}

func (p TestPayload) Fields() map[string]any {
	return map[string]any{"test": true, "requestedAt": p.SentAt.UTC().Format(time.RFC3339)}
}
