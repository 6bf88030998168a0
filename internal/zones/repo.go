package zones

import (
	"context"
	"strings"
	"time"

	"github.com/durent/durent-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionRow is a zone subscription joined with its subscriber.
type SubscriptionRow struct {
	UserID      uuid.UUID
	Zone        string
	EmailDigest bool
	Email       string
	FirstName   string
	LastName    string
}

func (s SubscriptionRow) Name() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Repository reads digest inputs.
type Repository interface {
	Subscriptions(ctx context.Context) ([]SubscriptionRow, error)
	NewListingCounts(ctx context.Context, zones []string, since time.Time) (map[string]int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Subscriptions(ctx context.Context) ([]SubscriptionRow, error) {
	var rows []SubscriptionRow
	err := r.db.WithContext(ctx).
		Table("zone_subscriptions").
		Select("zone_subscriptions.user_id, zone_subscriptions.zone, zone_subscriptions.email_digest, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = zone_subscriptions.user_id").
		Order("zone_subscriptions.user_id ASC, zone_subscriptions.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

type zoneCount struct {
	Zone  string
	Total int
}

// NewListingCounts counts available properties created since the cutoff,
// grouped by zone. Zones without listings are absent from the map.
func (r *repository) NewListingCounts(ctx context.Context, zones []string, since time.Time) (map[string]int, error) {
	counts := make(map[string]int)
	if len(zones) == 0 {
		return counts, nil
	}

	var rows []zoneCount
	if err := r.db.WithContext(ctx).
		Table("properties").
		Select("zone, COUNT(*) AS total").
		Where("zone IN ? AND status = ? AND created_at >= ?", zones, enums.PropertyStatusAvailable, since).
		Group("zone").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Zone] = row.Total
	}
	return counts, nil
}
