package models

import (
	"testing"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
)

func TestDefaultNotificationSettingsEnablesEverything(t *testing.T) {
	settings := DefaultNotificationSettings(uuid.New())
	categories := []enums.NotificationCategory{
		enums.NotificationCategoryPaymentReminders,
		enums.NotificationCategoryPaymentUpdates,
		enums.NotificationCategoryMessages,
		enums.NotificationCategoryEndRentalNotifications,
		enums.NotificationCategoryTenantUpdates,
		enums.NotificationCategoryPaymentDateChangeRequests,
	}
	for _, category := range categories {
		if !settings.Enabled(category) {
			t.Fatalf("expected %s enabled by default", category)
		}
	}
	if !settings.Enabled("unknownCategory") {
		t.Fatal("unknown categories should be enabled")
	}
}

func TestUserPushTokenAndDisplayName(t *testing.T) {
	var nilUser *User
	if nilUser.PushToken() != "" {
		t.Fatal("nil user should have no token")
	}

	token := "  ExponentPushToken[abc] "
	user := &User{Email: "a@b.c", ExpoPushToken: &token}
	if got := user.PushToken(); got != "ExponentPushToken[abc]" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := user.DisplayName(); got != "a@b.c" {
		t.Fatalf("expected email fallback, got %q", got)
	}
	user.FirstName, user.LastName = "Sara", "Haddad"
	if got := user.DisplayName(); got != "Sara Haddad" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestEnsureIDKeepsExisting(t *testing.T) {
	id := uuid.New()
	n := &Notification{ID: id}
	if err := n.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ID != id {
		t.Fatal("existing id overwritten")
	}
	fresh := &Notification{}
	_ = fresh.BeforeCreate(nil)
	if fresh.ID == uuid.Nil {
		t.Fatal("expected id to be generated")
	}
}
