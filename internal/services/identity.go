package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signon-id/apiserver/internal/store"
	"github.com/signon-id/apiserver/types"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByUsername(ctx context.Context, username string) (types.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username, passwordHash string) (types.Account, error)
	ListAll(ctx context.Context) ([]types.Account, error)
	Count(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// IdentityService encapsulates registration, authentication and account
// lookup. It holds no mutable state; the repository is the only shared
// resource underneath.
type IdentityService struct {
	repo   UserRepository
	hasher PasswordHasher
	rules  CredentialRules
}

func NewIdentityService(repo UserRepository, hasher PasswordHasher, rules CredentialRules) *IdentityService {
	return &IdentityService{repo: repo, hasher: hasher, rules: rules}
}

// Register validates the credentials, hashes the password and creates
// the account. The unique constraint is the authority on duplicates: a
// create that loses the race reports ErrUsernameTaken even though the
// earlier existence check passed.
func (s *IdentityService) Register(ctx context.Context, username, pass string) (types.PublicIdentity, error) {
	username, err := s.rules.ValidateUsername(username)
	if err != nil {
		return types.PublicIdentity{}, err
	}
	if _, err := s.rules.ValidatePassword(pass); err != nil {
		return types.PublicIdentity{}, err
	}

	taken, err := s.repo.Exists(ctx, username)
	if err != nil {
		return types.PublicIdentity{}, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return types.PublicIdentity{}, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return types.PublicIdentity{}, fmt.Errorf("hashing password: %w", err)
	}

	account, err := s.repo.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return types.PublicIdentity{}, ErrUsernameTaken
		}
		return types.PublicIdentity{}, fmt.Errorf("creating account: %w", err)
	}
	return account.Public(), nil
}

// Login authenticates a username/password pair. Unknown-user and
// wrong-password outcomes stay distinct here; the transport layer is
// expected to render both as the same rejection.
func (s *IdentityService) Login(ctx context.Context, username, pass string) (types.PublicIdentity, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return types.PublicIdentity{}, ErrMissingCredentials
	}

	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicIdentity{}, ErrUserNotFound
		}
		return types.PublicIdentity{}, fmt.Errorf("loading account: %w", err)
	}

	if !s.hasher.Verify(pass, account.PasswordHash) {
		return types.PublicIdentity{}, ErrInvalidPassword
	}
	return account.Public(), nil
}

// GetByID resolves an account id to its public projection. Non-positive
// ids are rejected without touching storage.
func (s *IdentityService) GetByID(ctx context.Context, id int) (types.PublicIdentity, error) {
	if id <= 0 {
		return types.PublicIdentity{}, ErrInvalidID
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.PublicIdentity{}, ErrAccountNotFound
		}
		return types.PublicIdentity{}, fmt.Errorf("loading account: %w", err)
	}
	return account.Public(), nil
}

// Exists reports whether a username is taken.
func (s *IdentityService) Exists(ctx context.Context, username string) (bool, error) {
	return s.repo.Exists(ctx, username)
}

// ListAll returns the public projection of every account, most recently
// created first. Debug use only; hashes never leave this boundary.
func (s *IdentityService) ListAll(ctx context.Context) ([]types.PublicIdentity, error) {
	accounts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	identities := make([]types.PublicIdentity, 0, len(accounts))
	for _, account := range accounts {
		identities = append(identities, account.Public())
	}
	return identities, nil
}

// Count returns the number of accounts.
func (s *IdentityService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ClearAll removes every account. Development-only.
func (s *IdentityService) ClearAll(ctx context.Context) error {
	return s.repo.ClearAll(ctx)
}
