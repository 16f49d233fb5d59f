package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/webservertaskmanager/task-api/internal/constants"
	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrSuggestionsUnavailable = errors.New("task suggestions are unavailable")
)

// TaskService handles task business logic. Every operation is scoped to the
// requesting user; tasks of other users are reported as not found.
type TaskService struct {
	taskRepo  repository.TaskRepository
	suggester TaskSuggester
}

// NewTaskService creates a new TaskService. suggester may be nil.
func NewTaskService(taskRepo repository.TaskRepository, suggester TaskSuggester) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		suggester: suggester,
	}
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title     *string
	Completed *bool
}

// FindAllTasksForUser returns the user's tasks in insertion order
func (s *TaskService) FindAllTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a new task owned by authorID
func (s *TaskService) CreateTask(ctx context.Context, title, authorID string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	task := &models.Task{
		Title:    title,
		AuthorID: authorID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update. An input without fields returns the
// task unchanged.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID string, input UpdateTaskInput) (*models.Task, error) {
	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		fields["title"] = title
	}
	if input.Completed != nil {
		fields["completed"] = *input.Completed
	}

	task, err := s.taskRepo.UpdateOwned(ctx, taskID, userID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask deletes a task owned by userID and returns it
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.DeleteOwned(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}

	return task, nil
}

// SuggestTasks asks the configured suggester for task titles found in text.
// Nothing is persisted.
func (s *TaskService) SuggestTasks(ctx context.Context, text string) ([]SuggestedTask, error) {
	if s.suggester == nil {
		return nil, ErrSuggestionsUnavailable
	}

	suggestions, err := s.suggester.SuggestTasks(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSuggestionsUnavailable, err)
	}

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, suggestion := range suggestions {
		title := strings.TrimSpace(suggestion.Title)
		if title == "" {
			continue
		}
		valid = append(valid, SuggestedTask{Title: title})
		if len(valid) == constants.MaxSuggestedTasks {
			break
		}
	}

	return valid, nil
}
