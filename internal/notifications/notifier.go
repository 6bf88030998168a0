package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	messagePreviewLimit = 100
	truncationMarker    = "..."
	currencyLabel       = "AED"
	displayDateLayout   = "2 Jan 2006"
)

type dispatcher interface {
	Deliver(ctx context.Context, userID uuid.UUID, title, body string, payload Payload) Outcome
}

// Notifier formats business events into notifications.
type Notifier struct {
	dispatcher dispatcher
	loc        *time.Location
	now        func() time.Time
}

// NewNotifier formats dates and counts days in loc, the scheduler's zone.
// A nil loc means UTC.
func NewNotifier(d dispatcher, loc *time.Location) (*Notifier, error) {
	if d == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{dispatcher: d, loc: loc, now: time.Now}, nil
}

// PaymentInfo describes the rent installment an event refers to.
type PaymentInfo struct {
	PaymentID     uuid.UUID
	PropertyID    uuid.UUID
	PropertyTitle string
	Amount        decimal.Decimal
	DueDate       time.Time
}

// OverdueResult reports each recipient's outcome independently.
type OverdueResult struct {
	Tenant   bool
	Landlord bool
}

func (n *Notifier) SendPaymentReminder(ctx context.Context, tenantID uuid.UUID, payment PaymentInfo) bool {
	days := daysBetween(n.now(), payment.DueDate, n.loc)
	var when string
	switch {
	case days <= 0:
		when = "today"
	case days == 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days", days)
	}
	body := fmt.Sprintf("Your rent of %s for %s is due %s (%s).",
		formatAmount(payment.Amount), payment.PropertyTitle, when, payment.DueDate.In(n.loc).Format(displayDateLayout))
	return n.send(ctx, tenantID, "Rent payment reminder", body, PaymentReminderPayload{
		PaymentID:    payment.PaymentID,
		PropertyID:   payment.PropertyID,
		Amount:       payment.Amount,
		DueDate:      payment.DueDate,
		DaysUntilDue: max(days, 0),
	})
}

// SendPaymentOverdue notifies the tenant and the landlord with two
// independent dispatches; each is gated by its own recipient's settings.
func (n *Notifier) SendPaymentOverdue(ctx context.Context, tenantID, landlordID uuid.UUID, tenantName string, payment PaymentInfo) OverdueResult {
	daysOverdue := max(daysBetween(payment.DueDate, n.now(), n.loc), 1)
	payload := PaymentOverduePayload{
		PaymentID:   payment.PaymentID,
		PropertyID:  payment.PropertyID,
		Amount:      payment.Amount,
		DueDate:     payment.DueDate,
		DaysOverdue: daysOverdue,
	}

	tenantPayload := payload
	tenantPayload.Recipient = enums.UserRoleTenant
	tenantBody := fmt.Sprintf("Your rent of %s for %s is %s overdue. Please pay as soon as possible.",
		formatAmount(payment.Amount), payment.PropertyTitle, pluralDays(daysOverdue))

	landlordPayload := payload
	landlordPayload.Recipient = enums.UserRoleLandlord
	landlordBody := fmt.Sprintf("%s's rent of %s for %s is %s overdue.",
		fallback(tenantName, "Your tenant"), formatAmount(payment.Amount), payment.PropertyTitle, pluralDays(daysOverdue))

	return OverdueResult{
		Tenant:   n.send(ctx, tenantID, "Rent payment overdue", tenantBody, tenantPayload),
		Landlord: n.send(ctx, landlordID, "Tenant payment overdue", landlordBody, landlordPayload),
	}
}

func (n *Notifier) SendPaymentApproved(ctx context.Context, tenantID uuid.UUID, payment PaymentInfo) bool {
	body := fmt.Sprintf("Your payment of %s for %s has been approved.", formatAmount(payment.Amount), payment.PropertyTitle)
	return n.send(ctx, tenantID, "Payment approved", body, PaymentDecisionPayload{
		PaymentID:  payment.PaymentID,
		PropertyID: payment.PropertyID,
		Amount:     payment.Amount,
		Approved:   true,
	})
}

func (n *Notifier) SendPaymentRejected(ctx context.Context, tenantID uuid.UUID, payment PaymentInfo, reason string) bool {
	body := fmt.Sprintf("Your payment of %s for %s was rejected.", formatAmount(payment.Amount), payment.PropertyTitle)
	if reason = strings.TrimSpace(reason); reason != "" {
		body = fmt.Sprintf("%s Reason: %s", body, reason)
	}
	return n.send(ctx, tenantID, "Payment rejected", body, PaymentDecisionPayload{
		PaymentID:  payment.PaymentID,
		PropertyID: payment.PropertyID,
		Amount:     payment.Amount,
		Reason:     reason,
	})
}

func (n *Notifier) SendPaymentVerificationNeeded(ctx context.Context, landlordID, tenantID uuid.UUID, tenantName string, payment PaymentInfo) bool {
	body := fmt.Sprintf("%s submitted a payment of %s for %s. Please review it.",
		fallback(tenantName, "Your tenant"), formatAmount(payment.Amount), payment.PropertyTitle)
	return n.send(ctx, landlordID, "Payment needs verification", body, PaymentVerificationPayload{
		PaymentID:  payment.PaymentID,
		PropertyID: payment.PropertyID,
		TenantID:   tenantID,
		Amount:     payment.Amount,
	})
}

// MessageInfo describes a chat message.
type MessageInfo struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	SenderID       uuid.UUID
	SenderName     string
	Content        string
}

func (n *Notifier) SendNewMessage(ctx context.Context, recipientID uuid.UUID, msg MessageInfo) bool {
	title := fmt.Sprintf("New message from %s", fallback(msg.SenderName, "someone"))
	return n.send(ctx, recipientID, title, PreviewMessage(msg.Content), NewMessagePayload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.MessageID,
		SenderID:       msg.SenderID,
	})
}

// PreviewMessage truncates message content to 100 characters plus a marker.
func PreviewMessage(content string) string {
	if utf8.RuneCountInString(content) <= messagePreviewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:messagePreviewLimit]) + truncationMarker
}

// EndRentalInfo describes an end-of-rental request.
type EndRentalInfo struct {
	RequestID        uuid.UUID
	RentalID         uuid.UUID
	PropertyID       uuid.UUID
	PropertyTitle    string
	RequesterName    string
	EndDate          time.Time
	ResponseDeadline time.Time
}

func (n *Notifier) SendEndRentalRequest(ctx context.Context, recipientID uuid.UUID, req EndRentalInfo) bool {
	body := fmt.Sprintf("%s requested to end the rental of %s on %s.",
		fallback(req.RequesterName, "Your tenant"), req.PropertyTitle, req.EndDate.In(n.loc).Format(displayDateLayout))
	return n.send(ctx, recipientID, "End of rental requested", body, EndRentalRequestPayload{
		RequestID:        req.RequestID,
		RentalID:         req.RentalID,
		PropertyID:       req.PropertyID,
		EndDate:          req.EndDate,
		ResponseDeadline: req.ResponseDeadline,
	})
}

// SendEndRentalAutoAcceptWarning returns the full outcome so the sweep can tell
// a storage failure, worth retrying next run, from a settled dispatch.
func (n *Notifier) SendEndRentalAutoAcceptWarning(ctx context.Context, landlordID uuid.UUID, req EndRentalInfo) Outcome {
	hours := int(req.ResponseDeadline.Sub(n.now()).Hours())
	if hours < 1 {
		hours = 1
	}
	body := fmt.Sprintf("The request to end the rental of %s will be accepted automatically in %d hour(s) unless you respond.",
		req.PropertyTitle, hours)
	return n.dispatcher.Deliver(ctx, landlordID, "End of rental request expiring", body, EndRentalAutoAcceptWarningPayload{
		RequestID:        req.RequestID,
		RentalID:         req.RentalID,
		PropertyID:       req.PropertyID,
		ResponseDeadline: req.ResponseDeadline,
	})
}

// TenantJoinedInfo describes a tenant accepting an invite.
type TenantJoinedInfo struct {
	PropertyID    uuid.UUID
	PropertyTitle string
	RentalID      uuid.UUID
	TenantID      uuid.UUID
	TenantName    string
}

func (n *Notifier) SendNewTenantJoined(ctx context.Context, landlordID uuid.UUID, info TenantJoinedInfo) bool {
	body := fmt.Sprintf("%s joined %s.", fallback(info.TenantName, "A new tenant"), info.PropertyTitle)
	return n.send(ctx, landlordID, "New tenant joined", body, NewTenantJoinedPayload{
		PropertyID: info.PropertyID,
		RentalID:   info.RentalID,
		TenantID:   info.TenantID,
	})
}

// DateChangeInfo describes a request to move the monthly payment day.
type DateChangeInfo struct {
	RequestID     uuid.UUID
	RentalID      uuid.UUID
	PropertyTitle string
	TenantName    string
	CurrentDay    int
	RequestedDay  int
}

func (n *Notifier) SendPaymentDateChangeRequest(ctx context.Context, landlordID uuid.UUID, info DateChangeInfo) bool {
	body := fmt.Sprintf("%s asked to move the payment date for %s from day %d to day %d.",
		fallback(info.TenantName, "Your tenant"), info.PropertyTitle, info.CurrentDay, info.RequestedDay)
	return n.send(ctx, landlordID, "Payment date change requested", body, PaymentDateChangeRequestPayload{
		RequestID:    info.RequestID,
		RentalID:     info.RentalID,
		CurrentDay:   info.CurrentDay,
		RequestedDay: info.RequestedDay,
	})
}

func (n *Notifier) SendPaymentDateChangeResponse(ctx context.Context, tenantID uuid.UUID, info DateChangeInfo, approved bool) bool {
	title := "Payment date change rejected"
	body := fmt.Sprintf("Your request to move the payment date for %s to day %d was rejected.", info.PropertyTitle, info.RequestedDay)
	if approved {
		title = "Payment date change approved"
		body = fmt.Sprintf("Your payment date for %s is now day %d of each month.", info.PropertyTitle, info.RequestedDay)
	}
	return n.send(ctx, tenantID, title, body, PaymentDateChangeResponsePayload{
		RequestID:    info.RequestID,
		RentalID:     info.RentalID,
		RequestedDay: info.RequestedDay,
		Approved:     approved,
	})
}

func (n *Notifier) SendZoneDigest(ctx context.Context, userID uuid.UUID, zones []string, listings int) bool {
	title := "New listings in your zones"
	body := fmt.Sprintf("%d new listing(s) in %s today.", listings, strings.Join(zones, ", "))
	return n.send(ctx, userID, title, body, ZoneDigestPayload{Zones: zones, Listings: listings})
}

func (n *Notifier) SendTestPush(ctx context.Context, userID uuid.UUID) bool {
	return n.send(ctx, userID, "Test notification", "This is a test notification from duRent.", TestPayload{SentAt: n.now()})
}

func formatAmount(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", currencyLabel, amount.StringFixed(2))
}

func (n *Notifier) send(ctx context.Context, userID uuid.UUID, title, body string, payload Payload) bool {
	return n.dispatcher.Deliver(ctx, userID, title, body, payload) == OutcomeSent
}

// daysBetween counts calendar days from a to b as seen in loc. The dates are
// re-anchored in UTC so DST transitions don't shorten a day.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

func pluralDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
