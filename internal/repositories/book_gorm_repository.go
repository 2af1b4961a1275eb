package repositories

import (
	"errors"
	"fmt"

	"bookshelf/internal/models"

	"gorm.io/gorm"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

// Create inserts a new book row.
func (r *GORMBookRepository) Create(book *models.Book) error {
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's books in insertion order.
func (r *GORMBookRepository) ListByOwner(ownerID uint) ([]models.Book, error) {
	books := make([]models.Book, 0)
	if err := r.db.Where("owner_id = ?", ownerID).Order("id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books for owner %d: %w", ownerID, err)
	}
	return books, nil
}

// GetByIDForOwner retrieves a book only if it belongs to ownerID. A book owned
// by someone else is reported exactly like a missing one.
func (r *GORMBookRepository) GetByIDForOwner(id, ownerID uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book with ID %d: %w", id, ErrBookNotFound)
		}
		return nil, fmt.Errorf("failed to get book by ID %d: %w", id, err)
	}
	return &book, nil
}
