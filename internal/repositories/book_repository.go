package repositories

import (
	"errors"

	"bookshelf/internal/models"
)

// ErrBookNotFound is returned when a book does not exist for the given owner.
var ErrBookNotFound = errors.New("book not found")

// BookRepository defines the interface for book record access. Every read is
// scoped to an owner.
type BookRepository interface {
	Create(book *models.Book) error
	ListByOwner(ownerID uint) ([]models.Book, error)
	GetByIDForOwner(id, ownerID uint) (*models.Book, error)
}
