package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/webservertaskmanager/task-api/internal/locks"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"github.com/webservertaskmanager/task-api/internal/security"
	"github.com/webservertaskmanager/task-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	repos   repository.Repositories
	metrics *metrics.Metrics
	issuer  *security.TokenIssuer
	auth    *AuthService
	users   *UserService
	tasks   *TaskService
}

type envOptions struct {
	locker      locks.RotationLocker
	tokenHasher security.Hasher
	seed        SeedOptions
	suggester   TaskSuggester
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repository.New(db)
	m := metrics.New()
	passwords := security.NewPasswordHasher(bcrypt.MinCost)
	tokenHasher := opts.tokenHasher
	if tokenHasher == nil {
		tokenHasher = security.NewTokenHasher(bcrypt.MinCost)
	}
	issuer := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
	})

	auth, err := NewAuthService(repos.Users, passwords, tokenHasher, issuer, opts.locker, m)
	require.NoError(t, err)

	return &testEnv{
		db:      db,
		repos:   repos,
		metrics: m,
		issuer:  issuer,
		auth:    auth,
		users:   NewUserService(repos.Users, repository.NewTransactor(db), auth, passwords, m, opts.seed),
		tasks:   NewTaskService(repos.Tasks, opts.suggester),
	}
}

func (e *testEnv) register(t *testing.T, email string) *CreateUserResult {
	t.Helper()
	result, err := e.users.CreateUser(context.Background(), CreateUserInput{
		Email:    email,
		Username: "user",
		Password: "password123",
	})
	require.NoError(t, err)
	return result
}

// MockHasher is a testify mock of security.Hasher.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(plaintext, digest string) bool {
	return m.Called(plaintext, digest).Bool(0)
}

// MockSuggester is a testify mock of TaskSuggester.
type MockSuggester struct {
	mock.Mock
}

func (m *MockSuggester) SuggestTasks(ctx context.Context, text string) ([]SuggestedTask, error) {
	args := m.Called(ctx, text)
	tasks, _ := args.Get(0).([]SuggestedTask)
	return tasks, args.Error(1)
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (func(), error) {
	return nil, locks.ErrLockHeld
}
