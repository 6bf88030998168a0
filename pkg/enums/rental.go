package enums

// RentalStatus tracks whether a tenancy is live.
type RentalStatus string

const (
	RentalStatusActive RentalStatus = "ACTIVE"
	RentalStatusEnded  RentalStatus = "ENDED"
)

// EndRequestStatus tracks an end-of-rental request.
type EndRequestStatus string

const (
	EndRequestStatusPending      EndRequestStatus = "PENDING"
	EndRequestStatusAccepted     EndRequestStatus = "ACCEPTED"
	EndRequestStatusRejected     EndRequestStatus = "REJECTED"
	EndRequestStatusAutoAccepted EndRequestStatus = "AUTO_ACCEPTED"
)

// IsTerminal reports whether the request no longer awaits a response.
func (s EndRequestStatus) IsTerminal() bool {
	return s != EndRequestStatusPending
}

// PropertyStatus tracks listing availability.
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "AVAILABLE"
	PropertyStatusRented    PropertyStatus = "RENTED"
)
