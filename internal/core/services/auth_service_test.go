package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/pkg/jwt"
	"bookhaven/internal/pkg/rbac"

	"gorm.io/gorm"
)

type fakeUserRepo struct {
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[uint]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) SetRole(ctx context.Context, id uint, role domain.Role) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Role = string(role)
	return nil
}

func (r *fakeUserRepo) Deactivate(ctx context.Context, id uint) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = false
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range r.users {
		cp := *user
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo, *SessionService, *jwt.Issuer) {
	t.Helper()
	issuer, err := jwt.NewIssuer("test-secret", "bookhaven", "bookhaven-web", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	users := newFakeUserRepo()
	sessions := NewSessionService(newFakeSessionRepo(), nil)
	return NewAuthService(users, sessions, issuer), users, sessions, issuer
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions, issuer := newTestAuthService(t)

	reg, err := svc.Register(ctx, &RegisterInput{
		Email:    "Reader@Example.com",
		Username: "reader",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.User.Email != "reader@example.com" {
		t.Errorf("Email = %q, want lowercased", reg.User.Email)
	}
	if reg.User.Role != string(domain.RoleMember) {
		t.Errorf("Role = %q, new accounts must start as %q", reg.User.Role, domain.RoleMember)
	}
	if reg.Token == "" || reg.SessionID == "" {
		t.Fatal("registration should log the account in")
	}

	// The token embeds the member bundle and the session id
	claims, err := issuer.Validate(reg.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.SessionID != reg.SessionID {
		t.Errorf("token SessionID = %q, want %q", claims.SessionID, reg.SessionID)
	}
	want := rbac.PermissionsForRole(domain.RoleMember)
	if len(claims.Permissions) != len(want) {
		t.Errorf("token carries %d permissions, want %d", len(claims.Permissions), len(want))
	}

	active, err := sessions.IsActive(ctx, reg.SessionID)
	if err != nil || !active {
		t.Errorf("IsActive(%s) = %v, %v; want true", reg.SessionID, active, err)
	}

	// Login with the registered credentials opens a second session
	login, err := svc.Login(ctx, &LoginInput{Email: "reader@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.SessionID == reg.SessionID {
		t.Error("each login must open its own session")
	}
}

func TestAuthServiceRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestAuthService(t)

	if _, err := svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "reader", Password: "secretpass"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name  string
		input *RegisterInput
	}{
		{"duplicate email", &RegisterInput{Email: "reader@example.com", Username: "other", Password: "secretpass"}},
		{"duplicate email different case", &RegisterInput{Email: "READER@example.com", Username: "other", Password: "secretpass"}},
		{"duplicate username", &RegisterInput{Email: "other@example.com", Username: "reader", Password: "secretpass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.input); !errors.Is(err, domain.ErrUserAlreadyExists) {
				t.Errorf("Register() error = %v, want %v", err, domain.ErrUserAlreadyExists)
			}
		})
	}
}

// racedUserRepo models a rival registration committing between the
// existence checks and the insert: the checks see nothing, the unique
// index still rejects the row
type racedUserRepo struct {
	*fakeUserRepo
}

func (r *racedUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r *racedUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (r *racedUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	return r.fakeUserRepo.Create(ctx, user)
}

func TestAuthServiceRegisterLostRaceIsConflict(t *testing.T) {
	ctx := context.Background()
	issuer, err := jwt.NewIssuer("test-secret", "bookhaven", "bookhaven-web", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	raced := &racedUserRepo{fakeUserRepo: newFakeUserRepo()}
	svc := NewAuthService(raced, NewSessionService(newFakeSessionRepo(), nil), issuer)

	if _, err := svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "reader", Password: "secretpass"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The second registration passes the checks but loses the insert
	_, err = svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "other", Password: "secretpass"})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("Register() error = %v, want %v", err, domain.ErrUserAlreadyExists)
	}
}

func TestAuthServiceLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newTestAuthService(t)

	reg, err := svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "reader", Password: "secretpass"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Unknown account and wrong password read identically
	if _, err := svc.Login(ctx, &LoginInput{Email: "nobody@example.com", Password: "secretpass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() unknown email error = %v, want %v", err, domain.ErrInvalidCredentials)
	}
	if _, err := svc.Login(ctx, &LoginInput{Email: "reader@example.com", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() wrong password error = %v, want %v", err, domain.ErrInvalidCredentials)
	}

	if err := users.Deactivate(ctx, reg.User.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if _, err := svc.Login(ctx, &LoginInput{Email: "reader@example.com", Password: "secretpass"}); !errors.Is(err, domain.ErrUserInactive) {
		t.Errorf("Login() inactive error = %v, want %v", err, domain.ErrUserInactive)
	}
}

func TestAuthServiceLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions, _ := newTestAuthService(t)

	reg, err := svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "reader", Password: "secretpass"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.Logout(ctx, reg.SessionID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	active, err := sessions.IsActive(ctx, reg.SessionID)
	if err != nil {
		t.Fatalf("IsActive() error = %v", err)
	}
	if active {
		t.Error("session should be inactive after logout")
	}
}

func TestAuthServiceLogoutAll(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions, _ := newTestAuthService(t)

	first, err := svc.Register(ctx, &RegisterInput{Email: "reader@example.com", Username: "reader", Password: "secretpass"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := svc.Login(ctx, &LoginInput{Email: "reader@example.com", Password: "secretpass"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.LogoutAll(ctx, first.User.ID); err != nil {
		t.Fatalf("LogoutAll() error = %v", err)
	}

	for _, id := range []string{first.SessionID, second.SessionID} {
		active, err := sessions.IsActive(ctx, id)
		if err != nil {
			t.Fatalf("IsActive(%s) error = %v", id, err)
		}
		if active {
			t.Errorf("session %s still active after LogoutAll", id)
		}
	}
}
