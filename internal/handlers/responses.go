package handlers

import (
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gofrs/uuid"
)

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	DateJoined time.Time `json:"date_joined"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type TaskResponse struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at"`
	User        uuid.UUID           `json:"user"`
	Project     *uuid.UUID          `json:"project"`
	UserEmail   string              `json:"user_email"`
	ProjectName *string             `json:"project_name"`
}

type ToggleResponse struct {
	Message string       `json:"message"`
	Task    TaskResponse `json:"task"`
}

type ProjectResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	User        uuid.UUID `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	services.ProjectStats
}

type ProjectDetailResponse struct {
	ProjectResponse
	Tasks []TaskResponse `json:"tasks"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, DateJoined: u.DateJoined}
}

func newTaskResponse(t *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		User:        t.UserID,
		Project:     t.ProjectID,
	}
	if t.User != nil {
		resp.UserEmail = t.User.Email
	}
	if t.Project != nil {
		name := t.Project.Name
		resp.ProjectName = &name
	}
	return resp
}

func newTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = newTaskResponse(&tasks[i])
	}
	return out
}

func newProjectResponse(p *services.ProjectWithStats) ProjectResponse {
	return ProjectResponse{
		ID:           p.Project.ID,
		Name:         p.Project.Name,
		Description:  p.Project.Description,
		User:         p.Project.UserID,
		CreatedAt:    p.Project.CreatedAt,
		UpdatedAt:    p.Project.UpdatedAt,
		ProjectStats: p.Stats,
	}
}
