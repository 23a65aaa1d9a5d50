package repositories

import (
	"context"
	"time"

	"bookhaven/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID gets a session by ID, revoked or not
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetActiveByUserID gets all unrevoked, unexpired sessions for a user
func (r *sessionRepository) GetActiveByUserID(ctx context.Context, userID uint) ([]*models.Session, error) {
	var sessions []*models.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Revoke marks a session revoked. Revocation is monotonic: a row that
// already carries revoked_at is left untouched.
func (r *sessionRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now).Error
}

// RevokeAllByUserID revokes every live session for a user
func (r *sessionRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now).Error
}

// CountActiveByUserID counts unrevoked, unexpired sessions for a user
func (r *sessionRepository) CountActiveByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Count(&count).Error
	return count, err
}

// DeleteExpiredBefore removes sessions whose expiry passed before the
// cutoff. Retention housekeeping only; liveness checks never rely on
// rows being deleted.
func (r *sessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
