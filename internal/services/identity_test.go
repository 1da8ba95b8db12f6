package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/signon-id/apiserver/internal/password"
	"github.com/signon-id/apiserver/internal/store"
	"github.com/signon-id/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeRepository is an in-memory UserRepository enforcing the same
// uniqueness rule the database constraint does.
type fakeRepository struct {
	mu       sync.Mutex
	nextID   int
	accounts map[string]types.Account
	// created records insertion order so ListAll can mirror the store's
	// newest-first contract.
	created []string

	// failWith, when set, makes every operation fail with this error.
	failWith error
	// existsLies makes Exists report false regardless of state, to
	// force the create race path.
	existsLies bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1, accounts: map[string]types.Account{}}
}

func (f *fakeRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	for _, account := range f.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return types.Account{}, store.ErrNotFound
}

func (f *fakeRepository) GetByUsername(ctx context.Context, username string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	account, ok := f.accounts[username]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (f *fakeRepository) Exists(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	if f.existsLies {
		return false, nil
	}
	_, ok := f.accounts[username]
	return ok, nil
}

func (f *fakeRepository) Create(ctx context.Context, username, passwordHash string) (types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.Account{}, f.failWith
	}
	if _, ok := f.accounts[username]; ok {
		return types.Account{}, store.ErrDuplicateUsername
	}
	account := types.Account{
		ID:           f.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.nextID++
	f.accounts[username] = account
	f.created = append(f.created, username)
	return account, nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	accounts := make([]types.Account, 0, len(f.created))
	for i := len(f.created) - 1; i >= 0; i-- {
		accounts = append(accounts, f.accounts[f.created[i]])
	}
	return accounts, nil
}

func (f *fakeRepository) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return len(f.accounts), nil
}

func (f *fakeRepository) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.accounts = map[string]types.Account{}
	f.created = nil
	return nil
}

// plainHasher keeps service tests fast; hashing itself is covered in the
// password package.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (plainHasher) Verify(plaintext, hash string) bool    { return hash == "hashed:"+plaintext }

func newTestService(repo UserRepository) *IdentityService {
	return NewIdentityService(repo, plainHasher{}, DefaultCredentialRules())
}

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)
	assert.Equal(t, "alice_1", registered.Username)
	assert.Positive(t, registered.ID)
	assert.False(t, registered.CreatedAt.IsZero())

	loggedIn, err := svc.Login(ctx, "alice_1", "pass123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.Equal(t, registered.Username, loggedIn.Username)
}

func TestRegister_ValidationShortCircuits(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	repo.failWith = errors.New("storage must not be reached")
	svc := newTestService(repo)
	ctx := context.Background()

	var validationErr *ValidationError

	_, err := svc.Register(ctx, "ab", "pass123")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "username", validationErr.Field)

	_, err = svc.Register(ctx, "alice_1", "has space")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Field)
}

func TestRegister_LongPasswordIsValidationError(t *testing.T) {
	t.Parallel()

	// Real hasher: passwords past bcrypt's 72-byte limit must be caught
	// by validation, never surface as a hashing failure.
	svc := NewIdentityService(newFakeRepository(), password.NewHasher(bcrypt.MinCost), DefaultCredentialRules())
	ctx := context.Background()

	var validationErr *ValidationError
	_, err := svc.Register(ctx, "longpass_user", strings.Repeat("a", 100))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Field)

	longest := strings.Repeat("a", 72)
	registered, err := svc.Register(ctx, "longpass_user", longest)
	require.NoError(t, err)

	loggedIn, err := svc.Login(ctx, "longpass_user", longest)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
}

func TestRegister_UsernameTaken(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice_1", "other1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_LosesCreateRace(t *testing.T) {
	t.Parallel()

	// Exists reports free, so the duplicate is only caught by Create,
	// the way a concurrent insert would be caught by the constraint.
	repo := newFakeRepository()
	repo.existsLies = true
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice_1", "other1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	repo.existsLies = true
	svc := newTestService(repo)
	ctx := context.Background()

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, "contended", "pass123")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, taken int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrUsernameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one registration should win")
	assert.Equal(t, attempts-1, taken)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "", "pass123")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = svc.Login(ctx, "alice_1", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = svc.Login(ctx, "nobody", "pass123")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Login(ctx, "alice_1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)

	found, err := svc.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Username, found.Username)

	_, err = svc.GetByID(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.GetByID(ctx, -5)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.GetByID(ctx, registered.ID+100)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetByID_InvalidIDSkipsStorage(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	repo.failWith = errors.New("storage must not be reached")
	svc := newTestService(repo)

	_, err := svc.GetByID(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStorageErrorsPropagate(t *testing.T) {
	t.Parallel()

	storageErr := errors.New("connection refused")
	repo := newFakeRepository()
	repo.failWith = storageErr
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice_1", "pass123")
	require.ErrorIs(t, err, storageErr)
	assert.False(t, IsDomainError(err))

	_, err = svc.Login(ctx, "alice_1", "pass123")
	require.ErrorIs(t, err, storageErr)
	assert.False(t, IsDomainError(err))

	_, err = svc.GetByID(ctx, 1)
	require.ErrorIs(t, err, storageErr)
	assert.False(t, IsDomainError(err))
}

func TestListAll_ProjectsPublicIdentity(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob_2", "pass456")
	require.NoError(t, err)

	identities, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 2)

	// Most recently created first.
	assert.Equal(t, "bob_2", identities[0].Username)
	assert.Equal(t, "alice_1", identities[1].Username)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, svc.ClearAll(ctx))
	count, err = svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestExistsPassthrough(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeRepository())
	ctx := context.Background()

	taken, err := svc.Exists(ctx, "alice_1")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = svc.Register(ctx, "alice_1", "pass123")
	require.NoError(t, err)

	taken, err = svc.Exists(ctx, "alice_1")
	require.NoError(t, err)
	assert.True(t, taken)
}
