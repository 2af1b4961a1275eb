package handlers

import (
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// StaticHandler serves a built single-page front end.
type StaticHandler struct {
	dir string
}

// NewStaticHandler creates a StaticHandler for the files in dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// RegisterRoutes serves files under dir and falls back to dir/index.html for
// any other GET. It registers nothing when dir has no index.html. Must be
// registered after the API routes.
func (h *StaticHandler) RegisterRoutes(router fiber.Router) {
	index := filepath.Join(h.dir, "index.html")
	if info, err := os.Stat(index); err != nil || info.IsDir() {
		log.Printf("No front end at %s, static routes disabled", h.dir)
		return
	}

	router.Static("/", h.dir)
	router.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile(index)
	})
}
