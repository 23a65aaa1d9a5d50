package services

import (
	"context"
	"errors"
	"log"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/adapters/persistence/repositories"
	"bookhaven/internal/core/domain"

	"gorm.io/gorm"
)

// UserService handles user administration
type UserService struct {
	userRepo repositories.UserRepository
	sessions *SessionService
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, sessions *SessionService) *UserService {
	return &UserService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// List returns users with pagination
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	return s.userRepo.List(ctx, offset, limit)
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetRole assigns a new role. Existing sessions keep their old
// permission claims until they expire or are revoked, so the role
// change also revokes every live session for the user.
func (s *UserService) SetRole(ctx context.Context, id uint, role domain.Role) error {
	if !role.IsValid() {
		return domain.ErrInvalidInput
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.SetRole(ctx, id, role); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ User %d role set to %s, sessions revoked", id, role)
	return nil
}

// Deactivate marks a user inactive and force-logs them out everywhere.
// Users are never hard-deleted; orders and reviews reference them.
func (s *UserService) Deactivate(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ User %d deactivated, sessions revoked", id)
	return nil
}
