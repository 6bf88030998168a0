package models

import (
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is a per-user in-app notification. SentAt is nil until a push
// succeeds and is reset to nil when delivery fails.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index" json:"userId"`
	Type      enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title     string                 `gorm:"type:text;not null" json:"title"`
	Body      string                 `gorm:"type:text;not null" json:"body"`
	Data      datatypes.JSONMap      `gorm:"type:jsonb" json:"data"`
	Read      bool                   `gorm:"column:read;not null" json:"read"`
	SentAt    *time.Time             `gorm:"column:sent_at" json:"sentAt"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
