package repositories

import (
	"context"

	"bookhaven/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// GetByID gets an active book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("is_active = ?", true).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDs gets active books for a set of IDs
func (r *bookRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("is_active = ?", true).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Create creates a book (used by seeding only)
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// CountAll counts all books including inactive ones
func (r *bookRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error
	return count, err
}
