package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFireStore struct {
	claimed map[string]string
	err     error
	ttl     time.Duration
}

func (f *fakeFireStore) ClaimCronFire(ctx context.Context, job, fire, owner string, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed == nil {
		f.claimed = map[string]string{}
	}
	f.ttl = ttl
	key := job + ":" + fire
	if _, ok := f.claimed[key]; ok {
		return false, nil
	}
	f.claimed[key] = owner
	return true, nil
}

func (f *fakeFireStore) CronFireOwner(ctx context.Context, job, fire string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	owner, ok := f.claimed[job+":"+fire]
	return owner, ok, nil
}

func (f *fakeFireStore) ReleaseCronFire(ctx context.Context, job, fire string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.claimed, job+":"+fire)
	return nil
}

func TestRedisFireGuardOwnerAndRelease(t *testing.T) {
	store := &fakeFireStore{}
	guard, err := NewRedisFireGuard(store, 0)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()
	fire := time.Date(2026, 3, 10, 6, 0, 40, 0, time.UTC)

	if _, ok, err := guard.Owner(ctx, "payment-reminders", fire); err != nil || ok {
		t.Fatalf("expected unclaimed fire, got %v %v", ok, err)
	}
	if claimed, err := guard.Claim(ctx, "payment-reminders", fire); err != nil || !claimed {
		t.Fatalf("claim: %v %v", claimed, err)
	}
	owner, ok, err := guard.Owner(ctx, "payment-reminders", fire.Add(-30*time.Second))
	if err != nil || !ok || owner != guard.owner {
		t.Fatalf("expected this guard to own the fire, got %q %v %v", owner, ok, err)
	}

	if err := guard.Release(ctx, "payment-reminders", fire); err != nil {
		t.Fatalf("release: %v", err)
	}
	other, _ := NewRedisFireGuard(store, 0)
	if claimed, err := other.Claim(ctx, "payment-reminders", fire); err != nil || !claimed {
		t.Fatalf("expected released fire to be claimable, got %v %v", claimed, err)
	}
}

func TestRedisFireGuardClaimsOncePerFire(t *testing.T) {
	store := &fakeFireStore{}
	first, err := NewRedisFireGuard(store, 0)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	second, _ := NewRedisFireGuard(store, 0)

	fire := time.Date(2026, 3, 10, 6, 0, 12, 0, time.UTC)
	ok, err := first.Claim(context.Background(), "payment-reminders", fire)
	if err != nil || !ok {
		t.Fatalf("expected first claim to win, ok=%v err=%v", ok, err)
	}
	ok, err = second.Claim(context.Background(), "payment-reminders", fire.Add(30*time.Second))
	if err != nil || ok {
		t.Fatalf("expected second replica to lose, ok=%v err=%v", ok, err)
	}
	ok, _ = second.Claim(context.Background(), "zone-digest", fire)
	if !ok {
		t.Fatal("expected a different job to claim independently")
	}
	if store.ttl != defaultClaimTTL {
		t.Fatalf("expected default ttl, got %s", store.ttl)
	}
}

func TestRedisFireGuardErrors(t *testing.T) {
	if _, err := NewRedisFireGuard(nil, time.Hour); err == nil {
		t.Fatal("expected error without client")
	}
	guard, _ := NewRedisFireGuard(&fakeFireStore{err: errors.New("redis down")}, time.Hour)
	if _, err := guard.Claim(context.Background(), "job", time.Now()); err == nil {
		t.Fatal("expected claim error")
	}
}

func TestFireKeyTruncatesToMinuteUTC(t *testing.T) {
	dubai := time.FixedZone("UTC+4", 4*60*60)
	fire := time.Date(2026, 3, 10, 10, 0, 45, 0, dubai)
	if got := FireKey(fire); got != "202603100600" {
		t.Fatalf("unexpected fire key %q", got)
	}
}
