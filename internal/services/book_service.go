package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/repositories"
	"bookshelf/internal/storage"
)

// EventPublisher receives notifications about stored books.
type EventPublisher interface {
	PublishBookUploaded(event map[string]interface{}) error
}

// BookService ties the book registry to the blob store.
type BookService struct {
	bookRepo  repositories.BookRepository
	blobs     *storage.BlobStore
	publisher EventPublisher // optional
}

// NewBookService creates a new BookService. publisher may be nil.
func NewBookService(bookRepo repositories.BookRepository, blobs *storage.BlobStore, publisher EventPublisher) *BookService {
	return &BookService{
		bookRepo:  bookRepo,
		blobs:     blobs,
		publisher: publisher,
	}
}

// ListBooks returns the owner's books in upload order.
func (s *BookService) ListBooks(owner *models.User) ([]models.Book, error) {
	return s.bookRepo.ListByOwner(owner.ID)
}

// Summaries converts books into the listing shape, each with its download URL.
func Summaries(books []models.Book) []models.BookSummary {
	out := make([]models.BookSummary, 0, len(books))
	for _, b := range books {
		out = append(out, models.BookSummary{
			ID:   b.ID,
			Name: b.Name,
			Size: b.Size,
			URL:  fmt.Sprintf("/api/download/%d", b.ID),
		})
	}
	return out
}

// RecordUpload persists a book row for a blob that is already on disk.
// Identical names are not deduplicated.
func (s *BookService) RecordUpload(owner *models.User, name string, blob *storage.Blob) (*models.Book, error) {
	book := &models.Book{
		Name:       name,
		StorageKey: blob.Key,
		FilePath:   blob.Path,
		Size:       blob.Size,
		OwnerID:    owner.ID,
	}
	if err := s.bookRepo.Create(book); err != nil {
		return nil, err
	}
	return book, nil
}

// UploadBook stores r as a new book named filename for owner. The blob is
// written first and the registry row committed after it; if the commit
// fails the blob is removed again.
func (s *BookService) UploadBook(owner *models.User, filename string, r io.Reader) (*models.Book, error) {
	name := DisplayName(filename)
	if name == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	blob, err := s.blobs.Store(owner.ID, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	book, err := s.RecordUpload(owner, name, blob)
	if err != nil {
		if rmErr := s.blobs.Remove(blob.Path); rmErr != nil {
			log.Printf("Failed to remove orphaned blob %s: %v", blob.Path, rmErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.publishUploaded(owner, book)
	return book, nil
}

// GetOwnedBook returns the book only if owner owns it.
func (s *BookService) GetOwnedBook(owner *models.User, bookID uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByIDForOwner(bookID, owner.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, bookID)
		}
		return nil, err
	}
	return book, nil
}

// OpenBook resolves an owned book to its blob on disk. The caller must close
// the returned reader.
func (s *BookService) OpenBook(owner *models.User, bookID uint) (*models.Book, io.ReadCloser, int64, error) {
	book, err := s.GetOwnedBook(owner, bookID)
	if err != nil {
		return nil, nil, 0, err
	}

	f, size, err := s.blobs.Open(book.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("Book %d is registered but its file is missing: %v", book.ID, err)
			return nil, nil, 0, fmt.Errorf("%w: file for book %d", ErrNotFound, book.ID)
		}
		return nil, nil, 0, err
	}
	return book, f, size, nil
}

func (s *BookService) publishUploaded(owner *models.User, book *models.Book) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"event":    "book.uploaded",
		"book_id":  book.ID,
		"owner_id": owner.ID,
		"name":     book.Name,
		"size":     book.Size,
		"time":     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookUploaded(event); err != nil {
		log.Printf("Failed to publish upload event for book %d: %v", book.ID, err)
	}
}

// DisplayName reduces a client-supplied filename to its last path element.
// It is only ever shown to the owner; storage paths never derive from it.
func DisplayName(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}
