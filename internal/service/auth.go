package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/verdantiq/esgpilot/internal/domain"
)

const apiKeyPrefix = "esg_"

type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByID(ctx context.Context, id string) (*domain.APIKey, error)
	GetByHash(ctx context.Context, hash string) (*domain.APIKey, error)
	List(ctx context.Context) ([]*domain.APIKey, error)
	Revoke(ctx context.Context, id string) error
}

// AuthService issues and validates API keys. Only the SHA-256 hash of
// a token is stored; the plaintext is returned once at creation.
type AuthService struct {
	keyRepo APIKeyRepository
	uuidGen UUIDGenerator
}

func NewAuthService(keyRepo APIKeyRepository, uuidGen UUIDGenerator) *AuthService {
	return &AuthService{keyRepo: keyRepo, uuidGen: uuidGen}
}

// CreateAPIKey mints a new token, persists its hash under the given
// name, and returns the plaintext token.
func (s *AuthService) CreateAPIKey(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "API key name is required")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to generate API key", err)
	}
	token := apiKeyPrefix + hex.EncodeToString(raw)

	key := &domain.APIKey{
		ID:        s.uuidGen.NewString(),
		Name:      name,
		KeyHash:   hashToken(token),
		CreatedAt: time.Now().UTC(),
	}
	if err := domain.ValidateAPIKey(key); err != nil {
		return "", err
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateAPIKey checks that token is well formed, known, and not
// revoked. Unknown tokens map to ErrInvalidAPIKey so callers cannot
// distinguish bad from missing.
func (s *AuthService) ValidateAPIKey(ctx context.Context, token string) error {
	if !IsValidAPIToken(token) {
		return domain.ErrInvalidAPIKey
	}

	key, err := s.keyRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		if err == domain.ErrAPIKeyNotFound {
			return domain.ErrInvalidAPIKey
		}
		return err
	}
	if key.IsRevoked() {
		return domain.ErrAPIKeyRevoked
	}

	return nil
}

func (s *AuthService) RevokeAPIKey(ctx context.Context, keyID string) error {
	if keyID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "API key ID is required")
	}
	return s.keyRepo.Revoke(ctx, keyID)
}

func (s *AuthService) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return s.keyRepo.List(ctx)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsValidAPIToken reports whether token has the esg_ prefix followed
// by exactly 64 hex characters.
func IsValidAPIToken(token string) bool {
	body, ok := strings.CutPrefix(token, apiKeyPrefix)
	if !ok || len(body) != 64 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
