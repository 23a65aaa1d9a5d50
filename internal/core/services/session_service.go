package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/adapters/persistence/repositories"
	"bookhaven/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SessionService tracks login sessions independently of token
// cryptographic validity. The database is the source of truth; redis,
// when configured, is a positive liveness cache keyed by session id so
// the hot path skips the database. Only Create seeds the cache;
// revocation deletes the key after the database update lands, so a
// liveness check running concurrently with a revoke can never leave a
// stale positive behind.
type SessionService struct {
	repo repositories.SessionRepository
	rdb  *redis.Client // nil disables the cache
}

// NewSessionService creates a new session service. rdb may be nil.
func NewSessionService(repo repositories.SessionRepository, rdb *redis.Client) *SessionService {
	return &SessionService{repo: repo, rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:active:%s", id)
}

// Create records a new session for a login. The fingerprint binds the
// session to the issued token without persisting the token itself.
func (s *SessionService) Create(ctx context.Context, id string, userID uint, fingerprint string, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{
		ID:          id,
		UserID:      userID,
		Fingerprint: fingerprint,
		ExpiresAt:   time.Now().Add(ttl),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, sessionKey(id), userID, ttl).Err(); err != nil {
			// Cache failure is not fatal, the database path still works
			log.Printf("⚠️ Session cache set failed for %s: %v", id, err)
		}
	}

	return session, nil
}

// IsActive reports whether a session exists, is unrevoked and
// unexpired. Expired rows are not deleted here; they are simply
// treated as inactive.
func (s *SessionService) IsActive(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, sessionKey(sessionID)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		// Cache miss or cache error falls through to the database
	}

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if session.IsRevoked() || session.IsExpired() {
		return false, nil
	}

	// Never re-seed the cache here: a check racing a revoke could
	// otherwise write back an active key the revoke just deleted
	return true, nil
}

// Get returns a session by id
func (s *SessionService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &domain.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		RevokedAt:   session.RevokedAt,
	}, nil
}

// Revoke invalidates one session. The database update goes first;
// together with IsActive never writing the cache, the key delete
// afterwards is final and no interleaved check can resurrect it.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if err := s.repo.Revoke(ctx, sessionID); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
			log.Printf("⚠️ Session cache delete failed for %s: %v", sessionID, err)
		}
	}
	return nil
}

// RevokeAll invalidates every live session for a user
// (forced logout, deactivation, password change). The ids are fetched
// before the database revoke empties the active set; the cache keys
// are deleted after it lands, same ordering as Revoke.
func (s *SessionService) RevokeAll(ctx context.Context, userID uint) error {
	var ids []string
	if s.rdb != nil {
		sessions, err := s.repo.GetActiveByUserID(ctx, userID)
		if err == nil {
			for _, sess := range sessions {
				ids = append(ids, sess.ID)
			}
		}
	}

	if err := s.repo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	for _, id := range ids {
		s.rdb.Del(ctx, sessionKey(id))
	}
	return nil
}

// PurgeExpired deletes session rows whose expiry predates the
// retention window. Housekeeping only.
func (s *SessionService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteExpiredBefore(ctx, cutoff)
}
