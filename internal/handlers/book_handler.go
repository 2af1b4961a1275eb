package handlers

import (
	"errors"
	"log"
	"mime"
	"path/filepath"

	"bookshelf/internal/middleware"
	"bookshelf/internal/services"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles HTTP requests for listing, uploading and downloading books.
type BookHandler struct {
	service     *services.BookService
	authService *services.AuthService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(service *services.BookService, authService *services.AuthService) *BookHandler {
	return &BookHandler{
		service:     service,
		authService: authService,
	}
}

// RegisterRoutes registers the book routes with the Fiber app.
func (h *BookHandler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api")
	api.Get("/books", middleware.AuthRequired(h.authService, middleware.FromHeader), h.HandleListBooks)
	api.Post("/upload", middleware.AuthRequired(h.authService, middleware.FromHeader), h.HandleUpload)
	// Download links are plain hyperlinks, so the token travels in the query string.
	api.Get("/download/:id", middleware.AuthRequired(h.authService, middleware.FromQuery("token")), h.HandleDownload)
}

// HandleListBooks returns the caller's books.
func (h *BookHandler) HandleListBooks(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	books, err := h.service.ListBooks(user)
	if err != nil {
		log.Printf("Error listing books for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve books",
		})
	}
	return c.JSON(services.Summaries(books))
}

// HandleUpload stores the multipart "file" field as a new book.
func (h *BookHandler) HandleUpload(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A multipart 'file' field is required",
			"error":   err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded file %s: %v", fileHeader.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read uploaded file",
		})
	}
	defer file.Close()

	book, err := h.service.UploadBook(user, fileHeader.Filename, file)
	if err != nil {
		log.Printf("Error uploading %s for user %d: %v", fileHeader.Filename, user.ID, err)
		if errors.Is(err, services.ErrInvalidFilename) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid filename",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Upload failed",
			"error":   services.ErrStorageFailure.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"filename": book.Name,
		"message":  "Upload successful",
	})
}

// HandleDownload streams an owned book back with its original filename.
func (h *BookHandler) HandleDownload(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	bookID, err := c.ParamsInt("id")
	if err != nil || bookID <= 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Book not found",
		})
	}

	book, reader, size, err := h.service.OpenBook(user, uint(bookID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Book not found",
			})
		}
		log.Printf("Error opening book %d for user %d: %v", bookID, user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read book",
		})
	}

	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": book.Name}))
	if ext := filepath.Ext(book.Name); ext != "" {
		c.Type(ext)
	}
	// fasthttp closes the reader once the body is written.
	return c.SendStream(reader, int(size))
}
