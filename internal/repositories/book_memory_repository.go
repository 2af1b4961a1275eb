package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"bookshelf/internal/models"
)

// MemoryBookRepository is an in-memory implementation of BookRepository.
type MemoryBookRepository struct {
	books  map[uint]models.Book
	nextID uint
	mu     sync.RWMutex
}

// NewMemoryBookRepository creates a new instance of MemoryBookRepository.
func NewMemoryBookRepository() *MemoryBookRepository {
	return &MemoryBookRepository{
		books:  make(map[uint]models.Book),
		nextID: 1,
	}
}

// Create adds a new book, assigning its ID.
func (r *MemoryBookRepository) Create(book *models.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book.ID = r.nextID
	r.nextID++
	book.CreatedAt = time.Now()
	r.books[book.ID] = *book
	return nil
}

// ListByOwner returns the owner's books ordered by ID.
func (r *MemoryBookRepository) ListByOwner(ownerID uint) ([]models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookList := make([]models.Book, 0)
	for _, b := range r.books {
		if b.OwnerID == ownerID {
			bookList = append(bookList, b)
		}
	}
	sort.Slice(bookList, func(i, j int) bool { return bookList[i].ID < bookList[j].ID })
	return bookList, nil
}

// GetByIDForOwner returns a book only if ownerID owns it.
func (r *MemoryBookRepository) GetByIDForOwner(id, ownerID uint) (*models.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok || book.OwnerID != ownerID {
		return nil, fmt.Errorf("book with ID %d: %w", id, ErrBookNotFound)
	}
	return &book, nil
}
