package repositories

import (
	"context"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role domain.Role) error
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// SessionRepository defines session repository interface. Revocation is
// monotonic; a revoked session is never re-activated.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetActiveByUserID(ctx context.Context, userID uint) ([]*models.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository defines order repository interface
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Order, int64, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, offset, limit int) ([]*models.Order, int64, error)
	ExistsByClaimCode(ctx context.Context, code string) (bool, error)
}

// BookRepository defines read access to the catalog storage.
// Catalog CRUD endpoints are outside this service.
type BookRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	CountAll(ctx context.Context) (int64, error)
}

// DiscountRepository defines read access to discount storage.
// Only discounts live at placement time are returned.
type DiscountRepository interface {
	ListActive(ctx context.Context, at time.Time) ([]*models.Discount, error)
	Create(ctx context.Context, discount *models.Discount) error
	CountAll(ctx context.Context) (int64, error)
}
