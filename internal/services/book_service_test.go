package services_test

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/models"
	"bookshelf/internal/repositories"
	"bookshelf/internal/services"
	"bookshelf/internal/storage"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookRepository is a mock implementation of repositories.BookRepository
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Create(book *models.Book) error {
	args := m.Called(book)
	return args.Error(0)
}

func (m *MockBookRepository) ListByOwner(ownerID uint) ([]models.Book, error) {
	args := m.Called(ownerID)
	return args.Get(0).([]models.Book), args.Error(1)
}

func (m *MockBookRepository) GetByIDForOwner(id, ownerID uint) (*models.Book, error) {
	args := m.Called(id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

// MockPublisher records upload events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookUploaded(event map[string]interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

type bookFixture struct {
	service *services.BookService
	fs      afero.Fs
	blobs   *storage.BlobStore
	alice   *models.User
	bob     *models.User
}

func setupBookService(t *testing.T, publisher services.EventPublisher) *bookFixture {
	t.Helper()
	db, err := database.Open(&config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)

	users := repositories.NewGORMUserRepository(db)
	alice := &models.User{Username: "alice", PasswordHash: "h"}
	bob := &models.User{Username: "bob", PasswordHash: "h"}
	require.NoError(t, users.Create(alice))
	require.NoError(t, users.Create(bob))

	fs := afero.NewMemMapFs()
	blobs, err := storage.NewBlobStore(fs, "/uploads")
	require.NoError(t, err)

	return &bookFixture{
		service: services.NewBookService(repositories.NewGORMBookRepository(db), blobs, publisher),
		fs:      fs,
		blobs:   blobs,
		alice:   alice,
		bob:     bob,
	}
}

func TestBookService_RoundTrip(t *testing.T) {
	f := setupBookService(t, nil)
	content := []byte("It was a bright cold day in April")

	book, err := f.service.UploadBook(f.alice, "1984.txt", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "1984.txt", book.Name)
	assert.Equal(t, int64(len(content)), book.Size)
	assert.Equal(t, f.alice.ID, book.OwnerID)

	got, rc, size, err := f.service.OpenBook(f.alice, book.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "1984.txt", got.Name)
	assert.Equal(t, int64(len(content)), size)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestBookService_ListingIsolatedPerOwner(t *testing.T) {
	f := setupBookService(t, nil)

	_, err := f.service.UploadBook(f.alice, "x.txt", strings.NewReader("alice's x"))
	require.NoError(t, err)
	_, err = f.service.UploadBook(f.bob, "x.txt", strings.NewReader("bob's x"))
	require.NoError(t, err)

	aliceBooks, err := f.service.ListBooks(f.alice)
	require.NoError(t, err)
	require.Len(t, aliceBooks, 1)
	assert.Equal(t, f.alice.ID, aliceBooks[0].OwnerID)

	bobBooks, err := f.service.ListBooks(f.bob)
	require.NoError(t, err)
	require.Len(t, bobBooks, 1)
	assert.Equal(t, f.bob.ID, bobBooks[0].OwnerID)

	// Same name, distinct blobs
	assert.NotEqual(t, aliceBooks[0].FilePath, bobBooks[0].FilePath)
}

func TestBookService_SameNameTwiceKeepsBoth(t *testing.T) {
	f := setupBookService(t, nil)

	first, err := f.service.UploadBook(f.alice, "notes.md", strings.NewReader("v1"))
	require.NoError(t, err)
	second, err := f.service.UploadBook(f.alice, "notes.md", strings.NewReader("version two"))
	require.NoError(t, err)

	books, err := f.service.ListBooks(f.alice)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, first.ID, books[0].ID)
	assert.Equal(t, second.ID, books[1].ID)

	// The first upload's content is not overwritten
	_, rc, _, err := f.service.OpenBook(f.alice, first.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
}

func TestBookService_GetOwnedBookHidesOtherOwners(t *testing.T) {
	f := setupBookService(t, nil)

	book, err := f.service.UploadBook(f.alice, "secret.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	_, err = f.service.GetOwnedBook(f.bob, book.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.service.GetOwnedBook(f.alice, book.ID+1000)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, _, _, err = f.service.OpenBook(f.bob, book.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestBookService_MissingFileIsNotFound(t *testing.T) {
	f := setupBookService(t, nil)

	book, err := f.service.UploadBook(f.alice, "gone.txt", strings.NewReader("soon deleted"))
	require.NoError(t, err)
	require.NoError(t, f.fs.Remove(book.FilePath))

	// The record is still there, the file is not
	_, err = f.service.GetOwnedBook(f.alice, book.ID)
	require.NoError(t, err)
	_, _, _, err = f.service.OpenBook(f.alice, book.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestBookService_TraversalNameStaysInOwnerDir(t *testing.T) {
	f := setupBookService(t, nil)

	book, err := f.service.UploadBook(f.alice, "../../etc/passwd", strings.NewReader("root:x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", book.Name)
	assert.True(t, strings.HasPrefix(book.FilePath, f.blobs.OwnerDir(f.alice.ID)))

	_, err = f.service.UploadBook(f.alice, "..", strings.NewReader("x"))
	assert.ErrorIs(t, err, services.ErrInvalidFilename)
}

func TestBookService_ConcurrentUploads(t *testing.T) {
	f := setupBookService(t, nil)

	uploads := map[string]string{
		"a.txt": strings.Repeat("a", 4096),
		"b.txt": strings.Repeat("b", 1234),
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(uploads))
	for name, content := range uploads {
		wg.Add(1)
		go func(name, content string) {
			defer wg.Done()
			_, err := f.service.UploadBook(f.alice, name, strings.NewReader(content))
			errs <- err
		}(name, content)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	books, err := f.service.ListBooks(f.alice)
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, b := range books {
		assert.Equal(t, int64(len(uploads[b.Name])), b.Size, b.Name)

		_, rc, _, err := f.service.OpenBook(f.alice, b.ID)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, uploads[b.Name], string(data))
	}
}

func TestBookService_StorageFailureLeavesNoRecord(t *testing.T) {
	f := setupBookService(t, nil)

	_, err := f.service.UploadBook(f.alice, "broken.bin", io.MultiReader(strings.NewReader("part"), &errReader{}))
	assert.ErrorIs(t, err, services.ErrStorageFailure)

	books, err := f.service.ListBooks(f.alice)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBookService_CommitFailureRemovesBlob(t *testing.T) {
	fs := afero.NewMemMapFs()
	blobs, err := storage.NewBlobStore(fs, "/uploads")
	require.NoError(t, err)

	mockRepo := new(MockBookRepository)
	mockRepo.On("Create", mock.AnythingOfType("*models.Book")).Return(fmt.Errorf("disk I/O error")).Once()
	service := services.NewBookService(mockRepo, blobs, nil)
	owner := &models.User{ID: 5, Username: "carol"}

	_, err = service.UploadBook(owner, "book.epub", strings.NewReader("epub bytes"))
	assert.ErrorIs(t, err, services.ErrStorageFailure)
	mockRepo.AssertExpectations(t)

	entries, err := afero.ReadDir(fs, blobs.OwnerDir(owner.ID))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBookService_PublishesUploadEvent(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("PublishBookUploaded", mock.MatchedBy(func(e map[string]interface{}) bool {
		return e["event"] == "book.uploaded" && e["name"] == "ok.txt" && e["size"] == int64(2)
	})).Return(nil).Once()

	f := setupBookService(t, publisher)
	_, err := f.service.UploadBook(f.alice, "ok.txt", strings.NewReader("ok"))
	require.NoError(t, err)
	publisher.AssertExpectations(t)

	// A failing publisher does not fail the upload
	publisher.On("PublishBookUploaded", mock.Anything).Return(fmt.Errorf("broker down")).Once()
	_, err = f.service.UploadBook(f.alice, "ok2.txt", strings.NewReader("ok"))
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestSummaries(t *testing.T) {
	summaries := services.Summaries([]models.Book{{ID: 3, Name: "a.pdf", Size: 10}})
	require.Len(t, summaries, 1)
	assert.Equal(t, models.BookSummary{ID: 3, Name: "a.pdf", Size: 10, URL: "/api/download/3"}, summaries[0])
	assert.NotNil(t, services.Summaries(nil))
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"book.pdf":           "book.pdf",
		"  spaced.txt ":      "spaced.txt",
		"dir/sub/file.epub":  "file.epub",
		`C:\Users\me\a.docx`: "a.docx",
		"../../etc/passwd":   "passwd",
		"":                   "",
		"..":                 "",
		"/":                  "",
		`\`:                  "",
		"a/..":               "",
		"shelf/":             "shelf",
	}
	for in, want := range cases {
		assert.Equal(t, want, services.DisplayName(in), in)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, fmt.Errorf("unexpected EOF from client") }

func TestBookService_InMemoryRepositories(t *testing.T) {
	users := repositories.NewMemoryUserRepository()
	owner := &models.User{Username: "dave", PasswordHash: "h"}
	require.NoError(t, users.Create(owner))

	blobs, err := storage.NewBlobStore(afero.NewMemMapFs(), "/uploads")
	require.NoError(t, err)
	service := services.NewBookService(repositories.NewMemoryBookRepository(), blobs, nil)

	book, err := service.UploadBook(owner, "dune.epub", strings.NewReader("spice"))
	require.NoError(t, err)

	_, rc, size, err := service.OpenBook(owner, book.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(5), size)

	_, err = service.GetOwnedBook(&models.User{ID: owner.ID + 1}, book.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
