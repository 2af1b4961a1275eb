package middleware

import (
	"errors"
	"log"
	"strings"

	"bookshelf/internal/models"
	"bookshelf/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userLocalsKey = "user"

var (
	errMissingHeader = errors.New("authorization header is required")
	errHeaderFormat  = errors.New("authorization header format must be 'Bearer <token>'")
	errMissingQuery  = errors.New("token query parameter is required")
)

// TokenExtractor pulls a raw bearer token out of a request.
type TokenExtractor func(c *fiber.Ctx) (string, error)

// FromHeader reads the token from an "Authorization: Bearer <token>" header.
func FromHeader(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingHeader
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errHeaderFormat
	}
	return strings.TrimSpace(parts[1]), nil
}

// FromQuery reads the token from the named query parameter. Download links
// use it because a plain hyperlink cannot carry headers.
func FromQuery(param string) TokenExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", errMissingQuery
		}
		return token, nil
	}
}

// AuthRequired is a Fiber middleware that resolves the request's bearer token
// to a user. Every extractor goes through the same AuthService.Authenticate.
func AuthRequired(authService *services.AuthService, extract TokenExtractor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extract(c)
		if err != nil {
			return unauthorized(c, err.Error())
		}

		user, err := authService.Authenticate(tokenString)
		if err != nil {
			log.Printf("Token authentication failed: %v", err)
			return unauthorized(c, "Could not validate credentials")
		}

		// Store the user in Fiber context for subsequent handlers
		c.Locals(userLocalsKey, user)

		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
	})
}
