package zones

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/mail"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const digestWindow = 24 * time.Hour

type notifier interface {
	SendZoneDigest(ctx context.Context, userID uuid.UUID, zones []string, listings int) bool
}

type digestMailer interface {
	SendDigest(ctx context.Context, email mail.DigestEmail) error
}

// Service sends the daily new-listings digest to zone subscribers.
type Service interface {
	SendDailyDigest(ctx context.Context) error
}

// ServiceParams wires the digest service. Mailer is optional.
type ServiceParams struct {
	Repo     Repository
	Notifier notifier
	Mailer   digestMailer
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	notifier notifier
	mailer   digestMailer
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("zones repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		notifier: params.Notifier,
		mailer:   params.Mailer,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

type subscriber struct {
	userID      uuid.UUID
	email       string
	name        string
	emailDigest bool
	zones       []string
}

// SendDailyDigest pushes one digest per subscriber whose zones received new
// listings in the last 24 hours. Email delivery failures are logged and do
// not fail the run.
func (s *service) SendDailyDigest(ctx context.Context) error {
	rows, err := s.repo.Subscriptions(ctx)
	if err != nil {
		return fmt.Errorf("load zone subscriptions: %w", err)
	}
	subscribers, zones := groupSubscribers(rows)

	counts, err := s.repo.NewListingCounts(ctx, zones, s.now().Add(-digestWindow))
	if err != nil {
		return fmt.Errorf("count new listings: %w", err)
	}

	var (
		pushed  int
		emailed int
		mailErr error
	)
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return err
		}

		var matched []mail.ZoneCount
		total := 0
		for _, zone := range sub.zones {
			if n := counts[zone]; n > 0 {
				matched = append(matched, mail.ZoneCount{Zone: zone, Count: n})
				total += n
			}
		}
		if total == 0 {
			continue
		}

		names := make([]string, 0, len(matched))
		for _, m := range matched {
			names = append(names, m.Zone)
		}
		if s.notifier.SendZoneDigest(ctx, sub.userID, names, total) {
			pushed++
		}

		if sub.emailDigest && s.mailer != nil {
			err := s.mailer.SendDigest(ctx, mail.DigestEmail{To: sub.email, Name: sub.name, Zones: matched})
			if err != nil {
				mailErr = multierr.Append(mailErr, fmt.Errorf("user %s: %w", sub.userID, err))
				continue
			}
			emailed++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"subscribers": len(subscribers),
		"pushed":      pushed,
		"emailed":     emailed,
	})
	if mailErr != nil {
		s.logg.Error(s.logg.WithField(logCtx, "email_failures", len(multierr.Errors(mailErr))), "zones.digest.email_failed", mailErr)
	}
	s.logg.Info(logCtx, "zones.digest.completed")
	return nil
}

// groupSubscribers folds subscription rows into one entry per user, keeping
// first-seen order, and returns the distinct zones across all of them.
func groupSubscribers(rows []SubscriptionRow) ([]*subscriber, []string) {
	byUser := make(map[uuid.UUID]*subscriber)
	var ordered []*subscriber
	seenZones := make(map[string]struct{})
	var zones []string

	for _, row := range rows {
		sub, ok := byUser[row.UserID]
		if !ok {
			sub = &subscriber{userID: row.UserID, email: row.Email, name: row.Name()}
			byUser[row.UserID] = sub
			ordered = append(ordered, sub)
		}
		sub.emailDigest = sub.emailDigest || row.EmailDigest
		if !slices.Contains(sub.zones, row.Zone) {
			sub.zones = append(sub.zones, row.Zone)
		}

		if _, ok := seenZones[row.Zone]; !ok {
			seenZones[row.Zone] = struct{}{}
			zones = append(zones, row.Zone)
		}
	}
	return ordered, zones
}
