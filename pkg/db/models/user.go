package models

import (
	"strings"
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the subset of the identity record the notification path reads.
type User struct {
	ID                   uuid.UUID             `gorm:"type:uuid;primaryKey"`
	Email                string                `gorm:"type:text;not null;uniqueIndex"`
	FirstName            string                `gorm:"column:first_name;not null"`
	LastName             string                `gorm:"column:last_name;not null"`
	Role                 enums.UserRole        `gorm:"type:text;not null"`
	ExpoPushToken        *string               `gorm:"column:expo_push_token"`
	NotificationSettings *NotificationSettings `gorm:"foreignKey:UserID;references:ID"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// PushToken returns the trimmed registered token or "".
func (u *User) PushToken() string {
	if u == nil || u.ExpoPushToken == nil {
		return ""
	}
	return strings.TrimSpace(*u.ExpoPushToken)
}

// DisplayName joins first and last name, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
