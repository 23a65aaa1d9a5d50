package models

import (
	"time"

	"gorm.io/gorm"

	"bookhaven/internal/core/domain"
)

// ============================================================
// Auth & Identity Tables
// ============================================================

// User represents the users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// ToDomain converts the record to the domain identity
func (u *User) ToDomain() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Password:  u.Password,
		Role:      domain.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Session represents the sessions table. One row per login; revocation
// is monotonic (RevokedAt is set once and never cleared). Expired rows
// are kept for audit and only purged by the retention job.
type Session struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Fingerprint string     `gorm:"size:64;not null;index" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt   *time.Time `gorm:"index" json:"revoked_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================
// Catalog Tables (storage only, consumed by order placement)
// ============================================================

// Book represents the books table
type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Author    string         `gorm:"size:100" json:"author"`
	Price     float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock     int            `gorm:"default:0" json:"stock"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// Discount represents the discounts table. BookID nil means the
// discount applies to the whole order.
type Discount struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Percent   float64    `gorm:"type:decimal(5,2);not null" json:"percent"`
	BookID    *uint      `gorm:"index" json:"book_id"`
	MinAmount float64    `gorm:"type:decimal(10,2);default:0" json:"min_amount"`
	Stackable bool       `gorm:"default:false" json:"stackable"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Discount) TableName() string {
	return "discounts"
}

// AppliesAt reports whether the discount is live at the given time
func (d *Discount) AppliesAt(t time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartsAt != nil && t.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && t.After(*d.EndsAt) {
		return false
	}
	return true
}

// ============================================================
// Order Tables
// ============================================================

// Order represents the orders table. Orders are never deleted; the
// rows are the fulfillment audit trail. References are one-way foreign
// keys only.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	MemberID        uint        `gorm:"index;not null" json:"member_id"`
	TotalAmount     float64     `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountApplied float64     `gorm:"type:decimal(12,2);default:0" json:"discount_applied"`
	ClaimCode       string      `gorm:"size:16;uniqueIndex;not null" json:"-"`
	Status          string      `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ProcessedBy     *uint       `json:"processed_by"`
	ProcessedAt     *time.Time  `json:"processed_at"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem represents a line item frozen at placement time. Title and
// unit price are snapshots; later catalog edits never touch them.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	BookID    uint    `gorm:"not null" json:"book_id"`
	Title     string  `gorm:"size:200;not null" json:"title"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderResponse DTO. The claim code is included only in the placement
// response for the owning member, never in listings.
type OrderResponse struct {
	ID              uint        `json:"id"`
	MemberID        uint        `json:"member_id"`
	TotalAmount     float64     `json:"total_amount"`
	DiscountApplied float64     `json:"discount_applied"`
	NetAmount       float64     `json:"net_amount"`
	ClaimCode       string      `json:"claim_code,omitempty"`
	Status          string      `json:"status"`
	ProcessedBy     *uint       `json:"processed_by"`
	ProcessedAt     *time.Time  `json:"processed_at"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items"`
}

// ToResponse converts an order for API output. withCode controls
// whether the claim code is exposed (owner-facing placement only).
func (o *Order) ToResponse(withCode bool) *OrderResponse {
	resp := &OrderResponse{
		ID:              o.ID,
		MemberID:        o.MemberID,
		TotalAmount:     o.TotalAmount,
		DiscountApplied: o.DiscountApplied,
		NetAmount:       o.TotalAmount - o.DiscountApplied,
		Status:          o.Status,
		ProcessedBy:     o.ProcessedBy,
		ProcessedAt:     o.ProcessedAt,
		CreatedAt:       o.CreatedAt,
		Items:           o.Items,
	}
	if withCode {
		resp.ClaimCode = o.ClaimCode
	}
	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&Book{},
		&Discount{},
		&Order{},
		&OrderItem{},
	)
}
