package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username does not exist, so a
// missing user costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bookshelf-dummy-password"), bcrypt.DefaultCost)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	tokens     *TokenService
	tokenDurat time.Duration // Lifetime of tokens issued at login
	cost       int
}

// NewAuthService creates a new AuthService. Tokens issued by LoginUser live for tokenTTL.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		tokenDurat: tokenTTL,
		cost:       bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// RegisterUser creates a user storing only a bcrypt hash of password.
func (s *AuthService) RegisterUser(username, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByUsername(username)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s': %w", username, ErrDuplicateUsername)
	}
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			return nil, fmt.Errorf("username '%s': %w", username, ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// VerifyCredentials returns the user when password matches the stored hash.
func (s *AuthService) VerifyCredentials(username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Burn the same bcrypt work so response timing does not reveal the user is missing.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		if !errors.Is(err, repositories.ErrUserNotFound) {
			log.Printf("Credential lookup failed for %s: %v", username, err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginUser authenticates a user and returns a bearer token if successful.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.VerifyCredentials(username, password)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueToken(user.Username, s.tokenDurat)
}

// Authenticate resolves a bearer token to a live user.
func (s *AuthService) Authenticate(tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	subject, err := s.tokens.VerifyToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByUsername(subject)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			log.Printf("Token subject lookup failed for %s: %v", subject, err)
		}
		return nil, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
	}
	return user, nil
}
