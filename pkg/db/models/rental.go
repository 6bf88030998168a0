package models

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rental links a tenant to a property for the duration of a tenancy.
type Rental struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID          `gorm:"type:uuid;not null"`
	TenantID   uuid.UUID          `gorm:"type:uuid;not null"`
	LandlordID uuid.UUID          `gorm:"type:uuid;not null"`
	Status     enums.RentalStatus `gorm:"type:text;not null"`
	StartedAt  time.Time          `gorm:"column:started_at;not null"`
	EndedAt    *time.Time         `gorm:"column:ended_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Rental) TableName() string { return "rentals" }

func (r *Rental) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// EndRentalRequest asks the counterparty to end a rental by EndDate. When the
// landlord does not answer before ResponseDeadline it is auto-accepted.
type EndRentalRequest struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey"`
	RentalID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	RequestedBy      uuid.UUID              `gorm:"type:uuid;not null"`
	Status           enums.EndRequestStatus `gorm:"type:text;not null"`
	EndDate          time.Time              `gorm:"column:end_date;not null"`
	ResponseDeadline time.Time              `gorm:"column:response_deadline;not null"`
	WarningSentAt    *time.Time             `gorm:"column:warning_sent_at"`
	RespondedAt      *time.Time             `gorm:"column:responded_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (EndRentalRequest) TableName() string { return "end_rental_requests" }

func (e *EndRentalRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
