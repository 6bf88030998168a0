package models

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Property is a rental listing. Only the fields the digest reads are mapped.
type Property struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	LandlordID  uuid.UUID            `gorm:"type:uuid;not null"`
	Title       string               `gorm:"type:text;not null"`
	Zone        string               `gorm:"type:text;not null;index"`
	MonthlyRent decimal.Decimal      `gorm:"type:numeric(12,2);not null"`
	Status      enums.PropertyStatus `gorm:"type:text;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (Property) TableName() string { return "properties" }

func (p *Property) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ZoneSubscription opts a user into the daily digest for a zone.
type ZoneSubscription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Zone        string    `gorm:"type:text;not null"`
	EmailDigest bool      `gorm:"column:email_digest;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ZoneSubscription) TableName() string { return "zone_subscriptions" }

func (z *ZoneSubscription) BeforeCreate(*gorm.DB) error {
	ensureID(&z.ID)
	return nil
}
