package repositories

import (
	"context"
	"time"

	"bookhaven/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// discountRepository implements DiscountRepository interface
type discountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository creates a new discount repository
func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

// ListActive returns discounts live at the given time
func (r *discountRepository) ListActive(ctx context.Context, at time.Time) ([]*models.Discount, error) {
	var discounts []*models.Discount
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at >= ?", at).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// Create creates a discount (used by seeding only)
func (r *discountRepository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

// CountAll counts all discounts including inactive ones
func (r *discountRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Discount{}).Count(&count).Error
	return count, err
}
