package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/webservertaskmanager/task-api/internal/constants"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"github.com/webservertaskmanager/task-api/internal/security"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRequired        = errors.New("email is required")
	ErrUsernameTooShort     = errors.New("username too short")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// SeedOptions controls the task created for every new user.
type SeedOptions struct {
	Enabled bool
	Title   string
}

// UserService handles registration and profile management.
type UserService struct {
	userRepo   repository.UserRepository
	transactor repository.Transactor
	auth       *AuthService
	passwords  security.Hasher
	metrics    *metrics.Metrics
	seed       SeedOptions
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	transactor repository.Transactor,
	auth *AuthService,
	passwords security.Hasher,
	m *metrics.Metrics,
	seed SeedOptions,
) *UserService {
	if seed.Title == "" {
		seed.Title = constants.DefaultTaskTitle
	}
	return &UserService{
		userRepo:   userRepo,
		transactor: transactor,
		auth:       auth,
		passwords:  passwords,
		metrics:    m,
		seed:       seed,
	}
}

// CreateUserInput represents the required information to create a new user.
type CreateUserInput struct {
	Email    string
	Username string
	Password string
}

// CreateUserResult is the new user together with its first token pair.
type CreateUserResult struct {
	User   *models.User
	Tokens *TokenPair
}

// UpdateUserInput holds the optional profile fields. Passwords cannot be
// changed through it.
type UpdateUserInput struct {
	Email    *string
	Username *string
}

// CreateUser registers a user. Inserting the user, seeding the default task
// and storing the first refresh token hash commit together or not at all.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*CreateUserResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	username := strings.TrimSpace(input.Username)
	if len(username) < constants.MinUsernameLength {
		return nil, ErrUsernameTooShort
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(input.Password) > constants.MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
	}

	var tokens *TokenPair
	err = s.transactor.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if s.seed.Enabled {
			if err := repos.Tasks.Create(ctx, &models.Task{Title: s.seed.Title, AuthorID: user.ID}); err != nil {
				return fmt.Errorf("failed to seed default task: %w", err)
			}
		}
		pair, err := s.auth.IssueTokens(ctx, repos.Users, user)
		if err != nil {
			return err
		}
		tokens = pair
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncrementUsersCreated()
	return &CreateUserResult{User: user, Tokens: tokens}, nil
}

// UpdateUser applies a partial profile update.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	fields := map[string]interface{}{}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil {
			if existing.ID != id {
				return nil, ErrEmailTaken
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		fields["email"] = email
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if len(username) < constants.MinUsernameLength {
			return nil, ErrUsernameTooShort
		}
		fields["username"] = username
	}

	user, err := s.userRepo.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrEmailTaken
		default:
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return user, nil
}

// DeleteUser deletes a user and every task they own.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return user, nil
}

// FindAllUsers lists every user. There is no pagination.
func (s *UserService) FindAllUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
