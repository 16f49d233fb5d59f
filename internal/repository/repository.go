package repository

import (
	"context"

	"github.com/webservertaskmanager/task-api/internal/models"
	"gorm.io/gorm"
)

// TaskRepository defines the interface for task data access.
// Every lookup and mutation is scoped by author, so a task owned by someone
// else behaves exactly like a missing one (gorm.ErrRecordNotFound).
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// ListByAuthor lists the author's tasks in insertion order
	ListByAuthor(ctx context.Context, authorID string) ([]models.Task, error)

	// FindOwned finds a task by ID if authorID owns it
	FindOwned(ctx context.Context, taskID, authorID string) (*models.Task, error)

	// UpdateOwned applies fields to a task owned by authorID and returns the result
	UpdateOwned(ctx context.Context, taskID, authorID string, fields map[string]interface{}) (*models.Task, error)

	// DeleteOwned deletes a task owned by authorID and returns the deleted row
	DeleteOwned(ctx context.Context, taskID, authorID string) (*models.Task, error)

	// DeleteByAuthor deletes every task of an author
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindAll lists every user ordered by creation time
	FindAll(ctx context.Context) ([]models.User, error)

	// Update applies fields to a user and returns the result
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)

	// SetRefreshToken stores a refresh token hash; nil clears it
	SetRefreshToken(ctx context.Context, id string, hash *string) error

	// Delete deletes a user together with their tasks and returns the deleted row
	Delete(ctx context.Context, id string) (*models.User, error)
}

// Repositories groups the repositories bound to one *gorm.DB handle.
type Repositories struct {
	Users UserRepository
	Tasks TaskRepository
}

// New builds the repositories on top of db.
func New(db *gorm.DB) Repositories {
	return Repositories{
		Users: NewUserRepository(db),
		Tasks: NewTaskRepository(db),
	}
}

// Transactor runs work that has to commit or roll back as a unit.
type Transactor interface {
	// WithinTransaction calls fn with repositories bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// GormTransactor is a GORM implementation of Transactor
type GormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a new Transactor
func NewTransactor(db *gorm.DB) Transactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
