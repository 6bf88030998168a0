package reminders

import (
	"context"
	"strings"
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRow is an unpaid installment joined with the fields the reminder
// copy needs.
type PaymentRow struct {
	PaymentID       uuid.UUID
	RentalID        uuid.UUID
	PropertyID      uuid.UUID
	TenantID        uuid.UUID
	LandlordID      uuid.UUID
	Amount          decimal.Decimal
	DueDate         time.Time
	PropertyTitle   string
	TenantFirstName string
	TenantLastName  string
}

// TenantName joins the tenant's first and last name.
func (p PaymentRow) TenantName() string {
	return strings.TrimSpace(p.TenantFirstName + " " + p.TenantLastName)
}

// Repository reads pending payments.
type Repository interface {
	PendingDueBetween(ctx context.Context, from, to time.Time) ([]PaymentRow, error)
	PendingDueBefore(ctx context.Context, before time.Time) ([]PaymentRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

const paymentRowColumns = `payments.id AS payment_id, payments.rental_id, payments.property_id,
payments.tenant_id, payments.landlord_id, payments.amount, payments.due_date,
properties.title AS property_title, users.first_name AS tenant_first_name,
users.last_name AS tenant_last_name`

func (r *repository) pending(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("payments").
		Select(paymentRowColumns).
		Joins("JOIN properties ON properties.id = payments.property_id").
		Joins("JOIN users ON users.id = payments.tenant_id").
		Where("payments.status = ?", enums.PaymentStatusPending.String())
}

// PendingDueBetween returns pending payments due in [from, to).
func (r *repository) PendingDueBetween(ctx context.Context, from, to time.Time) ([]PaymentRow, error) {
	var rows []PaymentRow
	err := r.pending(ctx).
		Where("payments.due_date >= ? AND payments.due_date < ?", from, to).
		Order("payments.due_date ASC, payments.id ASC").
		Scan(&rows).Error
	return rows, err
}

// PendingDueBefore returns pending payments due strictly before the cutoff.
func (r *repository) PendingDueBefore(ctx context.Context, before time.Time) ([]PaymentRow, error) {
	var rows []PaymentRow
	err := r.pending(ctx).
		Where("payments.due_date < ?", before).
		Order("payments.due_date ASC, payments.id ASC").
		Scan(&rows).Error
	return rows, err
}
