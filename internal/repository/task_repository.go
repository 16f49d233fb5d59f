package repository

import (
	"context"

	"github.com/webservertaskmanager/task-api/internal/database"
	"github.com/webservertaskmanager/task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// ListByAuthor lists an author's tasks oldest first
func (r *GormTaskRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(authorID), database.InsertionOrder).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// FindOwned finds a task by ID scoped to its author
func (r *GormTaskRepository) FindOwned(ctx context.Context, taskID, authorID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Scopes(database.OwnedTask(taskID, authorID)).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateOwned updates a task scoped to its author
func (r *GormTaskRepository) UpdateOwned(ctx context.Context, taskID, authorID string, fields map[string]interface{}) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedTask(taskID, authorID)).First(&task).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&models.Task{}).
			Scopes(database.OwnedTask(taskID, authorID)).
			Updates(fields).Error; err != nil {
			return err
		}
		return tx.Scopes(database.OwnedTask(taskID, authorID)).First(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteOwned deletes a task scoped to its author
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, taskID, authorID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(database.OwnedTask(taskID, authorID)).First(&task).Error; err != nil {
			return err
		}
		result := tx.Scopes(database.OwnedTask(taskID, authorID)).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteByAuthor deletes every task of an author
func (r *GormTaskRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	result := r.db.WithContext(ctx).Scopes(database.OwnedBy(authorID)).Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
