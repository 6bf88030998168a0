package rentals

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

func setupRentalsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  landlord_id TEXT NOT NULL,
  title TEXT NOT NULL,
  zone TEXT NOT NULL,
  monthly_rent NUMERIC NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS rentals (
  id TEXT PRIMARY KEY,
  property_id TEXT NOT NULL,
  tenant_id TEXT NOT NULL,
  landlord_id TEXT NOT NULL,
  status TEXT NOT NULL,
  started_at DATETIME NOT NULL,
  ended_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS end_rental_requests (
  id TEXT PRIMARY KEY,
  rental_id TEXT NOT NULL,
  requested_by TEXT NOT NULL,
  status TEXT NOT NULL,
  end_date DATETIME NOT NULL,
  response_deadline DATETIME NOT NULL,
  warning_sent_at DATETIME,
  responded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

type rentalFixture struct {
	property models.Property
	rental   models.Rental
}

func seedRental(t *testing.T, db *gorm.DB) rentalFixture {
	t.Helper()
	landlordID, tenantID := uuid.New(), uuid.New()
	property := models.Property{LandlordID: landlordID, Title: "Marina View 12B", Zone: "Dubai Marina", MonthlyRent: decimal.NewFromInt(5500), Status: enums.PropertyStatusRented}
	require.NoError(t, db.Create(&property).Error)

	rental := models.Rental{
		PropertyID: property.ID,
		TenantID:   tenantID,
		LandlordID: landlordID,
		Status:     enums.RentalStatusActive,
		StartedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&rental).Error)
	return rentalFixture{property: property, rental: rental}
}

func seedEndRequest(t *testing.T, db *gorm.DB, fx rentalFixture, deadline time.Time, status enums.EndRequestStatus) models.EndRentalRequest {
	t.Helper()
	req := models.EndRentalRequest{
		RentalID:         fx.rental.ID,
		RequestedBy:      fx.rental.TenantID,
		Status:           status,
		EndDate:          time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		ResponseDeadline: deadline.UTC(),
	}
	require.NoError(t, db.Create(&req).Error)
	return req
}

func TestRepositoryExpired(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	fx := seedRental(t, db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	expired := seedEndRequest(t, db, fx, now.Add(-time.Hour), enums.EndRequestStatusPending)
	seedEndRequest(t, db, fx, now.Add(time.Hour), enums.EndRequestStatusPending)
	seedEndRequest(t, db, fx, now.Add(-2*time.Hour), enums.EndRequestStatusRejected)

	rows, err := repo.Expired(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, expired.ID, rows[0].RequestID)
	assert.Equal(t, fx.rental.ID, rows[0].RentalID)
	assert.Equal(t, fx.rental.LandlordID, rows[0].LandlordID)
	assert.Equal(t, "Marina View 12B", rows[0].PropertyTitle)
}

func TestRepositoryDueForWarning(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	fx := seedRental(t, db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	soon := seedEndRequest(t, db, fx, now.Add(10*time.Hour), enums.EndRequestStatusPending)
	seedEndRequest(t, db, fx, now.Add(30*time.Hour), enums.EndRequestStatusPending)
	seedEndRequest(t, db, fx, now.Add(-time.Hour), enums.EndRequestStatusPending)

	rows, err := repo.DueForWarning(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, soon.ID, rows[0].RequestID)

	require.NoError(t, repo.MarkWarningSent(ctx, soon.ID, now))
	rows, err = repo.DueForWarning(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryAutoAcceptOnlyPending(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	fx := seedRental(t, db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	req := seedEndRequest(t, db, fx, now.Add(-time.Hour), enums.EndRequestStatusPending)

	accepted, err := repo.AutoAccept(ctx, req.ID, now)
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = repo.AutoAccept(ctx, req.ID, now)
	require.NoError(t, err)
	assert.False(t, accepted)

	var stored models.EndRentalRequest
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	assert.Equal(t, enums.EndRequestStatusAutoAccepted, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	assert.ErrorIs(t, repo.EndRental(ctx, uuid.New(), now), gorm.ErrRecordNotFound)
}
