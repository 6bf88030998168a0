package models

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is a single rent installment.
type Payment struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	RentalID   uuid.UUID           `gorm:"type:uuid;not null"`
	PropertyID uuid.UUID           `gorm:"type:uuid;not null"`
	TenantID   uuid.UUID           `gorm:"type:uuid;not null"`
	LandlordID uuid.UUID           `gorm:"type:uuid;not null"`
	Amount     decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	DueDate    time.Time           `gorm:"column:due_date;not null;index"`
	Status     enums.PaymentStatus `gorm:"type:text;not null"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
