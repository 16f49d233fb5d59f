package dto

import (
	"time"

	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SuggestTasksResponse lists suggested task titles
type SuggestTasksResponse struct {
	Tasks []SuggestedTaskDTO `json:"tasks"`
}

type SuggestedTaskDTO struct {
	Title string `json:"title"`
}

func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:        task.ID,
		Title:     task.Title,
		Completed: task.Completed,
		AuthorID:  task.AuthorID,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// ToTaskDTOs never returns nil, so an empty list encodes as [].
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, ToTaskDTO(task))
	}
	return dtos
}

func ToSuggestTasksResponse(suggestions []services.SuggestedTask) SuggestTasksResponse {
	tasks := make([]SuggestedTaskDTO, 0, len(suggestions))
	for _, s := range suggestions {
		tasks = append(tasks, SuggestedTaskDTO{Title: s.Title})
	}
	return SuggestTasksResponse{Tasks: tasks}
}
