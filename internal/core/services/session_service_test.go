package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	session.CreatedAt = time.Now()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *fakeSessionRepo) GetActiveByUserID(ctx context.Context, userID uint) ([]*models.Session, error) {
	var out []*models.Session
	for _, session := range r.sessions {
		if session.UserID == userID && !session.IsRevoked() && !session.IsExpired() {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Revoke(ctx context.Context, id string) error {
	session, ok := r.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if session.RevokedAt == nil {
		now := time.Now()
		session.RevokedAt = &now
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	now := time.Now()
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeSessionRepo) CountActiveByUserID(ctx context.Context, userID uint) (int64, error) {
	var n int64
	for _, session := range r.sessions {
		if session.UserID == userID && !session.IsRevoked() && !session.IsExpired() {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// revokeHookRepo lets a test interleave calls at the start of the
// database revoke, before the row is marked
type revokeHookRepo struct {
	*fakeSessionRepo
	onRevoke func()
}

func (r *revokeHookRepo) Revoke(ctx context.Context, id string) error {
	if r.onRevoke != nil {
		r.onRevoke()
	}
	return r.fakeSessionRepo.Revoke(ctx, id)
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestSessionServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	rdb, _ := newTestRedis(t)
	svc := NewSessionService(repo, rdb)

	const id = "11111111-2222-3333-4444-555555555555"
	session, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.UserID != 7 {
		t.Errorf("UserID = %d, want 7", session.UserID)
	}

	active, err := svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if !active {
		t.Error("IsActive() = false right after creation, want true")
	}

	if err := svc.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	active, err = svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if active {
		t.Error("IsActive() = true after revocation, want false")
	}
}

func TestSessionServiceRevokeSurvivesInterleavedCheck(t *testing.T) {
	ctx := context.Background()
	hooked := &revokeHookRepo{fakeSessionRepo: newFakeSessionRepo()}
	rdb, mr := newTestRedis(t)
	svc := NewSessionService(hooked, rdb)

	const id = "mid-revoke-session"
	if _, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A liveness check lands inside the revoke, before the row is
	// marked. It may still answer true at that instant, but it must
	// not leave anything in the cache that outlives the revoke.
	hooked.onRevoke = func() {
		if _, err := svc.IsActive(ctx, id); err != nil {
			t.Errorf("interleaved IsActive() error = %v", err)
		}
	}

	if err := svc.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	active, err := svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if active {
		t.Error("IsActive() = true after Revoke returned, stale cache positive survived")
	}
	if mr.Exists("session:active:" + id) {
		t.Error("cache key still present after Revoke returned")
	}
}

func TestSessionServiceCacheMissDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	rdb, mr := newTestRedis(t)
	svc := NewSessionService(repo, rdb)

	const id = "evicted-session"
	if _, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Simulate cache loss (restart, eviction)
	mr.Del("session:active:" + id)

	active, err := svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if !active {
		t.Fatal("IsActive() = false, the database path should answer true")
	}

	// Only Create writes the cache; the database fallthrough must not
	if mr.Exists("session:active:" + id) {
		t.Error("IsActive() re-seeded the cache key")
	}
}

func TestSessionServiceWithoutRedis(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil)

	const id = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	if _, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	active, err := svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if !active {
		t.Error("IsActive() = false without cache, want true from the database path")
	}
}

func TestSessionServiceUnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(newFakeSessionRepo(), nil)

	tests := []struct {
		name string
		id   string
	}{
		{"empty id", ""},
		{"unknown id", "does-not-exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, err := svc.IsActive(ctx, tt.id)
			if err != nil {
				t.Fatalf("IsActive() error = %v", err)
			}
			if active {
				t.Error("IsActive() = true, want false")
			}
		})
	}
}

func TestSessionServiceExpiredIsInactiveButKept(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil)

	const id = "expired-session"
	if _, err := svc.Create(ctx, id, 7, "fingerprint", -time.Minute); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	active, err := svc.IsActive(ctx, id)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if active {
		t.Error("IsActive() = true for expired session, want false")
	}

	// Expiry never deletes the row; only the retention purge does
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Errorf("expired session row should still exist, got %v", err)
	}
}

func TestSessionServiceRevokeAll(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	rdb, _ := newTestRedis(t)
	svc := NewSessionService(repo, rdb)

	for _, id := range []string{"s1", "s2", "s3"} {
		if _, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	if _, err := svc.Create(ctx, "other", 8, "fingerprint", time.Hour); err != nil {
		t.Fatalf("Create(other) error = %v", err)
	}

	if err := svc.RevokeAll(ctx, 7); err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}

	for _, id := range []string{"s1", "s2", "s3"} {
		active, err := svc.IsActive(ctx, id)
		if err != nil {
			t.Fatalf("IsActive(%s) error = %v", id, err)
		}
		if active {
			t.Errorf("IsActive(%s) = true after RevokeAll, want false", id)
		}
	}

	active, err := svc.IsActive(ctx, "other")
	if err != nil {
		t.Fatalf("IsActive(other) error = %v", err)
	}
	if !active {
		t.Error("IsActive(other) = false, RevokeAll must not touch other users")
	}
}

func TestSessionServiceRevocationIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil)

	const id = "once-revoked"
	if _, err := svc.Create(ctx, id, 7, "fingerprint", time.Hour); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Revoke(ctx, id); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	first, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// A second revoke keeps the original timestamp
	if err := svc.Revoke(ctx, id); err != nil {
		t.Fatalf("second Revoke() error = %v", err)
	}
	second, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first.RevokedAt == nil || second.RevokedAt == nil {
		t.Fatal("RevokedAt should be set after revocation")
	}
	if !first.RevokedAt.Equal(*second.RevokedAt) {
		t.Errorf("RevokedAt changed on repeat revoke: %v then %v", first.RevokedAt, second.RevokedAt)
	}
}

func TestSessionServiceGet(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(newFakeSessionRepo(), nil)

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrSessionNotFound)
	}
}

func TestSessionServicePurgeExpired(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil)

	// One long expired, one freshly expired, one live
	if _, err := svc.Create(ctx, "ancient", 7, "fingerprint", -60*24*time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "recent", 7, "fingerprint", -time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "live", 7, "fingerprint", time.Hour); err != nil {
		t.Fatal(err)
	}

	purged, err := svc.PurgeExpired(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := repo.GetByID(ctx, "ancient"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Error("ancient session should be purged")
	}
	if _, err := repo.GetByID(ctx, "recent"); err != nil {
		t.Error("recently expired session is inside the retention window, should be kept")
	}
	if _, err := repo.GetByID(ctx, "live"); err != nil {
		t.Error("live session should be kept")
	}
}
