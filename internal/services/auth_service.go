package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/webservertaskmanager/task-api/internal/locks"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"github.com/webservertaskmanager/task-api/internal/security"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// TokenPair is the access/refresh pair handed to clients.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles login, token rotation and logout. The only state it
// touches is the refresh token hash on the user row.
type AuthService struct {
	userRepo    repository.UserRepository
	passwords   security.Hasher
	tokenHasher security.Hasher
	issuer      *security.TokenIssuer
	locker      locks.RotationLocker
	metrics     *metrics.Metrics

	// dummyDigest is verified against when the email is unknown so both
	// login failures cost one bcrypt comparison.
	dummyDigest string
}

// NewAuthService creates a new AuthService. A nil locker disables the
// rotation lock.
func NewAuthService(
	userRepo repository.UserRepository,
	passwords security.Hasher,
	tokenHasher security.Hasher,
	issuer *security.TokenIssuer,
	locker locks.RotationLocker,
	m *metrics.Metrics,
) (*AuthService, error) {
	if locker == nil {
		locker = locks.Noop{}
	}
	dummy, err := passwords.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}

	return &AuthService{
		userRepo:    userRepo,
		passwords:   passwords,
		tokenHasher: tokenHasher,
		issuer:      issuer,
		locker:      locker,
		metrics:     m,
		dummyDigest: dummy,
	}, nil
}

// Login verifies credentials and rotates the user's refresh token. Unknown
// email and wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	pair, err := s.login(ctx, email, password)
	s.metrics.RecordAuthAttempt("login", err == nil)
	return pair, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.passwords.Verify(password, s.dummyDigest)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.passwords.Verify(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.IssueTokens(ctx, s.userRepo, user)
}

// RefreshTokens exchanges a valid refresh token for a new pair. The presented
// token stops working once the new hash is stored.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	s.metrics.RecordAuthAttempt("refresh", err == nil)
	return pair, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	release, err := s.locker.Acquire(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, locks.ErrLockHeld) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	defer release()

	user, err := s.userRepo.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasRefreshToken() || !s.tokenHasher.Verify(refreshToken, *user.RefreshToken) {
		return nil, ErrInvalidToken
	}

	return s.IssueTokens(ctx, s.userRepo, user)
}

// Logout clears the stored refresh token hash. Calling it twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// IssueTokens signs a new pair for user and stores the refresh token hash
// through users, which may be bound to a transaction.
func (s *AuthService) IssueTokens(ctx context.Context, users repository.UserRepository, user *models.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(security.AccessClaims{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	hash, err := s.tokenHasher.Hash(refresh)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}
	if err := users.SetRefreshToken(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &hash

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate resolves an access token to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
