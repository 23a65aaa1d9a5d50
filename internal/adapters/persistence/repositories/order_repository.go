package repositories

import (
	"context"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"

	"gorm.io/gorm"
)

// orderRepository implements OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order with its items in one transaction
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID gets an order with its items
func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Save persists order mutations (status, processed_by, processed_at)
func (r *orderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(order).Error
}

// ListByMember returns a member's orders, newest first
func (r *orderRepository) ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("member_id = ?", memberID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByStatus returns orders in a given status, oldest first so staff
// work the backlog in placement order
func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", string(status))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ExistsByClaimCode checks whether any order already holds the code
func (r *orderRepository) ExistsByClaimCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("claim_code = ?", code).
		Count(&count).Error
	return count > 0, err
}
