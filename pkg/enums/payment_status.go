package enums

import "fmt"

// PaymentStatus tracks a rent payment from due to verified. Only PENDING
// payments are reminded about or reported overdue; once the tenant uploads a
// receipt the payment waits on the landlord instead.
type PaymentStatus string

const (
	PaymentStatusPending             PaymentStatus = "PENDING"
	PaymentStatusPendingVerification PaymentStatus = "PENDING_VERIFICATION"
	PaymentStatusApproved            PaymentStatus = "APPROVED"
	PaymentStatusRejected            PaymentStatus = "REJECTED"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPendingVerification, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// AwaitsTenant reports whether the tenant still owes action on the payment.
func (p PaymentStatus) AwaitsTenant() bool {
	return p == PaymentStatusPending
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
