package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/zenora-hq/zenora-core/internal/domain"
	"github.com/zenora-hq/zenora-core/internal/domain/user"
	"github.com/zenora-hq/zenora-core/internal/port/database"
)

// AuthService handles password verification and opaque API tokens. Tokens are
// random strings handed to the client once; only their SHA-256 hash is stored.
type AuthService struct {
	store      database.Store
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(store database.Store, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{store: store, bcryptCost: bcryptCost}
}

// HashPassword returns the bcrypt hash of a plaintext password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the credentials against the tenant in context and mints a
// fresh API token for the user. Invalid credentials and unknown emails are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthenticated
		}
		return nil, "", err
	}
	if u.Status == user.StatusInactive {
		return nil, "", domain.ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrUnauthenticated
	}

	token, err := s.MintToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// MintToken issues a new opaque API token for the user, replacing any
// previous one, and returns the plaintext token.
func (s *AuthService) MintToken(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.store.SetUserTokenHash(ctx, userID, hashToken(token)); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// ValidateToken resolves a bearer token to its user. It satisfies
// middleware.TokenValidator.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.store.GetUserByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if u.Status == user.StatusInactive {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

// TempPassword generates a random temporary password for imported users. The
// plaintext is delivered once over the welcome email and only its bcrypt hash
// is stored.
func (s *AuthService) TempPassword() (string, error) {
	raw := make([]byte, 9)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}
	return "zn-" + hex.EncodeToString(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
