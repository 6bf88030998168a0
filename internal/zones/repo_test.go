package zones

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/durent/durent-backend/pkg/db/models"
	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupZonesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL,
  expo_push_token TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  landlord_id TEXT NOT NULL,
  title TEXT NOT NULL,
  zone TEXT NOT NULL,
  monthly_rent NUMERIC NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS zone_subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  zone TEXT NOT NULL,
  email_digest INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedProperty(t *testing.T, db *gorm.DB, zone string, status enums.PropertyStatus, createdAt time.Time) {
	t.Helper()
	property := models.Property{
		LandlordID:  uuid.New(),
		Title:       "Listing in " + zone,
		Zone:        zone,
		MonthlyRent: decimal.NewFromInt(6000),
		Status:      status,
		CreatedAt:   createdAt.UTC(),
	}
	require.NoError(t, db.Create(&property).Error)
}

func TestRepositorySubscriptionsJoinsUsers(t *testing.T) {
	db := setupZonesTestDB(t)
	repo := NewRepository(db)

	user := models.User{Email: "amal@example.com", FirstName: "Amal", LastName: "Haddad", Role: enums.UserRoleTenant}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.ZoneSubscription{UserID: user.ID, Zone: "JLT", EmailDigest: true}).Error)
	require.NoError(t, db.Create(&models.ZoneSubscription{UserID: uuid.New(), Zone: "Deira"}).Error)

	rows, err := repo.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, user.ID, rows[0].UserID)
	assert.Equal(t, "JLT", rows[0].Zone)
	assert.True(t, rows[0].EmailDigest)
	assert.Equal(t, "amal@example.com", rows[0].Email)
	assert.Equal(t, "Amal Haddad", rows[0].Name())
}

func TestRepositoryNewListingCounts(t *testing.T) {
	db := setupZonesTestDB(t)
	repo := NewRepository(db)

	now := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	since := now.Add(-24 * time.Hour)
	seedProperty(t, db, "JLT", enums.PropertyStatusAvailable, now.Add(-time.Hour))
	seedProperty(t, db, "JLT", enums.PropertyStatusAvailable, now.Add(-2*time.Hour))
	seedProperty(t, db, "JLT", enums.PropertyStatusRented, now.Add(-time.Hour))
	seedProperty(t, db, "JLT", enums.PropertyStatusAvailable, now.Add(-48*time.Hour))
	seedProperty(t, db, "Deira", enums.PropertyStatusAvailable, now.Add(-time.Hour))
	seedProperty(t, db, "Marina", enums.PropertyStatusAvailable, now.Add(-time.Hour))

	counts, err := repo.NewListingCounts(context.Background(), []string{"JLT", "Deira", "Al Barsha"}, since)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"JLT": 2, "Deira": 1}, counts)

	empty, err := repo.NewListingCounts(context.Background(), nil, since)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
