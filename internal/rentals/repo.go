package rentals

import (
	"context"
	"time"

	"github.com/durent/durent-backend/pkg/db/models"
	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EndRequestRow is a pending end-of-rental request with its rental context.
type EndRequestRow struct {
	RequestID        uuid.UUID
	RentalID         uuid.UUID
	RequestedBy      uuid.UUID
	EndDate          time.Time
	ResponseDeadline time.Time
	PropertyID       uuid.UUID
	PropertyTitle    string
	LandlordID       uuid.UUID
	TenantID         uuid.UUID
}

// Repository reads and transitions end-of-rental requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Expired(ctx context.Context, now time.Time) ([]EndRequestRow, error)
	DueForWarning(ctx context.Context, now, until time.Time) ([]EndRequestRow, error)
	AutoAccept(ctx context.Context, requestID uuid.UUID, respondedAt time.Time) (bool, error)
	EndRental(ctx context.Context, rentalID uuid.UUID, endedAt time.Time) error
	MarkWarningSent(ctx context.Context, requestID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

const endRequestColumns = `end_rental_requests.id AS request_id, end_rental_requests.rental_id,
end_rental_requests.requested_by, end_rental_requests.end_date, end_rental_requests.response_deadline,
rentals.property_id, properties.title AS property_title, rentals.landlord_id, rentals.tenant_id`

func (r *repository) pending(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("end_rental_requests").
		Select(endRequestColumns).
		Joins("JOIN rentals ON rentals.id = end_rental_requests.rental_id").
		Joins("JOIN properties ON properties.id = rentals.property_id").
		Where("end_rental_requests.status = ?", enums.EndRequestStatusPending)
}

// Expired returns pending requests whose response deadline has passed.
func (r *repository) Expired(ctx context.Context, now time.Time) ([]EndRequestRow, error) {
	var rows []EndRequestRow
	err := r.pending(ctx).
		Where("end_rental_requests.response_deadline <= ?", now).
		Order("end_rental_requests.response_deadline ASC").
		Scan(&rows).Error
	return rows, err
}

// DueForWarning returns pending, unwarned requests whose deadline falls in
// (now, until].
func (r *repository) DueForWarning(ctx context.Context, now, until time.Time) ([]EndRequestRow, error) {
	var rows []EndRequestRow
	err := r.pending(ctx).
		Where("end_rental_requests.warning_sent_at IS NULL").
		Where("end_rental_requests.response_deadline > ? AND end_rental_requests.response_deadline <= ?", now, until).
		Order("end_rental_requests.response_deadline ASC").
		Scan(&rows).Error
	return rows, err
}

// AutoAccept flips a still-pending request to AUTO_ACCEPTED. It reports false
// when the request was answered concurrently.
func (r *repository) AutoAccept(ctx context.Context, requestID uuid.UUID, respondedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EndRentalRequest{}).
		Where("id = ? AND status = ?", requestID, enums.EndRequestStatusPending).
		UpdateColumns(map[string]any{
			"status":       enums.EndRequestStatusAutoAccepted,
			"responded_at": respondedAt,
			"updated_at":   respondedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) EndRental(ctx context.Context, rentalID uuid.UUID, endedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Rental{}).
		Where("id = ?", rentalID).
		UpdateColumns(map[string]any{
			"status":     enums.RentalStatusEnded,
			"ended_at":   endedAt,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkWarningSent(ctx context.Context, requestID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.EndRentalRequest{}).
		Where("id = ?", requestID).
		UpdateColumn("warning_sent_at", at).Error
}
