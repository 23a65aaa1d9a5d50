package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/adapters/persistence/repositories"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/pkg/jwt"
	"bookhaven/internal/pkg/password"
	"bookhaven/internal/pkg/rbac"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic: registration,
// login with token issuance, and session revocation
type AuthService struct {
	userRepo repositories.UserRepository
	sessions *SessionService
	issuer   *jwt.Issuer
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, sessions *SessionService, issuer *jwt.Issuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		issuer:   issuer,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents authentication response. The permission list
// is returned alongside the token so clients can make local UI
// decisions without decoding it.
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	Token       string               `json:"token"`
	SessionID   string               `json:"session_id"`
	ExpiresAt   time.Time            `json:"expires_at"`
	Permissions []string             `json:"permissions"`
}

// Register registers a new member account and logs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Username: strings.TrimSpace(input.Username),
		Password: hashed,
		Role:     string(domain.RoleMember),
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Two registrations can pass the existence checks together;
		// the loser hits the unique index and still reads as a
		// conflict, not a server error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}

	log.Printf("✅ User registered: %s (%s)", user.Username, user.Email)

	return s.startSession(ctx, user)
}

// Login authenticates a user and opens a new session. Multiple live
// sessions per user are allowed; each is independently revocable.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	resp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Username)
	return resp, nil
}

// Logout revokes the session carried by the caller's token
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("✅ Session revoked: %s", sessionID)
	return nil
}

// LogoutAll revokes every live session for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// startSession resolves the role's permission bundle, issues a token
// embedding every permission individually, and records the session
// bound to the token's fingerprint
func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	perms := rbac.PermissionsForRole(domain.Role(user.Role))
	sessionID := uuid.New().String()

	token, expiresAt, err := s.issuer.Issue(user.ToDomain(), perms, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = s.sessions.Create(ctx, sessionID, user.ID, password.Fingerprint(token), time.Until(expiresAt))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:        user.ToResponse(),
		Token:       token,
		SessionID:   sessionID,
		ExpiresAt:   expiresAt,
		Permissions: perms,
	}, nil
}
