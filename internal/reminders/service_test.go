package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/durent/durent-backend/internal/notifications"
	"github.com/durent/durent-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepository struct {
	dueBetweenFn func(ctx context.Context, from, to time.Time) ([]PaymentRow, error)
	dueBeforeFn  func(ctx context.Context, before time.Time) ([]PaymentRow, error)
}

func (f *fakeRepository) PendingDueBetween(ctx context.Context, from, to time.Time) ([]PaymentRow, error) {
	if f.dueBetweenFn != nil {
		return f.dueBetweenFn(ctx, from, to)
	}
	return nil, nil
}

func (f *fakeRepository) PendingDueBefore(ctx context.Context, before time.Time) ([]PaymentRow, error) {
	if f.dueBeforeFn != nil {
		return f.dueBeforeFn(ctx, before)
	}
	return nil, nil
}

type fakeNotifier struct {
	reminders []uuid.UUID
	overdue   [][2]uuid.UUID
	names     []string
}

func (f *fakeNotifier) SendPaymentReminder(ctx context.Context, tenantID uuid.UUID, payment notifications.PaymentInfo) bool {
	f.reminders = append(f.reminders, tenantID)
	return true
}

func (f *fakeNotifier) SendPaymentOverdue(ctx context.Context, tenantID, landlordID uuid.UUID, tenantName string, payment notifications.PaymentInfo) notifications.OverdueResult {
	f.overdue = append(f.overdue, [2]uuid.UUID{tenantID, landlordID})
	f.names = append(f.names, tenantName)
	return notifications.OverdueResult{Tenant: true, Landlord: false}
}

func newTestService(t *testing.T, repo Repository, n notifier, loc *time.Location, now time.Time) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Notifier: n, Logger: logger.Nop(), Location: loc})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	impl := svc.(*service)
	impl.now = func() time.Time { return now }
	return impl
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Notifier: &fakeNotifier{}, Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewService(ServiceParams{Repo: &fakeRepository{}, Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without notifier")
	}
	svc, err := NewService(ServiceParams{Repo: &fakeRepository{}, Notifier: &fakeNotifier{}, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.(*service).leadDays != defaultLeadDays {
		t.Fatalf("expected default lead days, got %d", svc.(*service).leadDays)
	}
}

func TestSendPaymentRemindersWindow(t *testing.T) {
	dubai := time.FixedZone("UTC+4", 4*60*60)
	// 22:30 UTC on the 9th is already the 10th in Dubai.
	now := time.Date(2026, 3, 9, 22, 30, 0, 0, time.UTC)
	tenant := uuid.New()

	repo := &fakeRepository{
		dueBetweenFn: func(ctx context.Context, from, to time.Time) ([]PaymentRow, error) {
			wantFrom := time.Date(2026, 3, 10, 0, 0, 0, 0, dubai)
			if !from.Equal(wantFrom) {
				t.Fatalf("unexpected window start %s", from)
			}
			if !to.Equal(wantFrom.AddDate(0, 0, 4)) {
				t.Fatalf("unexpected window end %s", to)
			}
			return []PaymentRow{{TenantID: tenant, Amount: decimal.NewFromInt(4000)}}, nil
		},
	}
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n, dubai, now)

	if err := svc.SendPaymentReminders(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.reminders) != 1 || n.reminders[0] != tenant {
		t.Fatalf("expected one reminder to the tenant, got %v", n.reminders)
	}
}

func TestSendPaymentRemindersQueryFailure(t *testing.T) {
	repo := &fakeRepository{
		dueBetweenFn: func(ctx context.Context, from, to time.Time) ([]PaymentRow, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestService(t, repo, &fakeNotifier{}, time.UTC, time.Now())
	if err := svc.SendPaymentReminders(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSendOverdueNotificationsBothRecipients(t *testing.T) {
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	tenant, landlord := uuid.New(), uuid.New()
	repo := &fakeRepository{
		dueBeforeFn: func(ctx context.Context, before time.Time) ([]PaymentRow, error) {
			if !before.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected cutoff %s", before)
			}
			return []PaymentRow{{TenantID: tenant, LandlordID: landlord, TenantFirstName: "Sara", TenantLastName: "Khan"}}, nil
		},
	}
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n, time.UTC, now)

	if err := svc.SendOverdueNotifications(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(n.overdue) != 1 || n.overdue[0] != [2]uuid.UUID{tenant, landlord} {
		t.Fatalf("unexpected overdue calls %v", n.overdue)
	}
	if n.names[0] != "Sara Khan" {
		t.Fatalf("unexpected tenant name %q", n.names[0])
	}
}

func TestSendOverdueNotificationsStopsOnCancel(t *testing.T) {
	repo := &fakeRepository{
		dueBeforeFn: func(ctx context.Context, before time.Time) ([]PaymentRow, error) {
			return []PaymentRow{{TenantID: uuid.New()}, {TenantID: uuid.New()}}, nil
		},
	}
	n := &fakeNotifier{}
	svc := newTestService(t, repo, n, time.UTC, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.SendOverdueNotifications(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if len(n.overdue) != 0 {
		t.Fatalf("expected no dispatches after cancel, got %d", len(n.overdue))
	}
}
