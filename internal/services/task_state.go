package services

import (
	"strings"
	"time"

	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
)

const (
	msgTaskLocked   = "Completed tasks cannot be edited. Change status first to edit other fields."
	msgPastDueDate  = "Due date cannot be in the past."
	msgMarkComplete = "Task marked as complete"
	msgMarkPending  = "Task marked as incomplete"
	maxTitleLength  = 200
)

// TaskInput is the body of a task creation request.
type TaskInput struct {
	Title       string              `json:"title" binding:"required,max=200"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ProjectID   *uuid.UUID          `json:"project"`
}

// TaskPatch is a partial task update. Absent fields are left untouched.
type TaskPatch struct {
	Title       Optional[string]              `json:"title"`
	Description Optional[string]              `json:"description"`
	Status      Optional[models.TaskStatus]   `json:"status"`
	Priority    Optional[models.TaskPriority] `json:"priority"`
	DueDate     Optional[*time.Time]          `json:"due_date"`
	ProjectID   Optional[*uuid.UUID]          `json:"project"`
}

// lockedFields lists the present fields that a completed task refuses.
func (p TaskPatch) lockedFields() []string {
	var fields []string
	if p.Title.Set {
		fields = append(fields, "title")
	}
	if p.Description.Set {
		fields = append(fields, "description")
	}
	if p.Priority.Set {
		fields = append(fields, "priority")
	}
	if p.DueDate.Set {
		fields = append(fields, "due_date")
	}
	if p.ProjectID.Set {
		fields = append(fields, "project")
	}
	return fields
}

func invalidStatus() error {
	valid := make([]string, len(models.TaskStatuses))
	for i, s := range models.TaskStatuses {
		valid[i] = string(s)
	}
	return fieldError(ErrInvalidStatus, "status", "Invalid status. Must be one of: "+strings.Join(valid, ", "))
}

func checkTitle(errs fieldErrors, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		errs.add("title", "This field may not be blank.")
	case len([]rune(title)) > maxTitleLength:
		errs.add("title", "Ensure this field has no more than 200 characters.")
	}
}

func checkPriority(errs fieldErrors, p models.TaskPriority) {
	if !p.Valid() {
		errs.add("priority", "\""+string(p)+"\" is not a valid choice.")
	}
}

// ValidateNewTask checks a creation request against now. Status and priority
// default to pending and medium.
func ValidateNewTask(in *TaskInput, now time.Time) error {
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Status.Valid() {
		return invalidStatus()
	}

	errs := fieldErrors{}
	checkTitle(errs, in.Title)
	checkPriority(errs, in.Priority)
	if err := errs.err(); err != nil {
		return err
	}

	if in.DueDate != nil && in.DueDate.Before(now) {
		return fieldError(ErrPastDueDate, "due_date", msgPastDueDate)
	}
	return nil
}

// NewTask builds the row for a validated creation request.
func NewTask(owner uuid.UUID, in TaskInput, now time.Time) models.Task {
	task := models.Task{
		UserID:      owner,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
	setStatus(&task, in.Status, now)
	return task
}

// setStatus moves task to status, keeping completed_at in step: entering
// completed stamps it, leaving completed clears it, and staying completed
// keeps the original stamp.
func setStatus(task *models.Task, status models.TaskStatus, now time.Time) {
	switch {
	case status == models.StatusCompleted && !task.IsCompleted():
		stamp := now
		task.CompletedAt = &stamp
	case status != models.StatusCompleted:
		task.CompletedAt = nil
	}
	task.Status = status
}

// ApplyPatch validates patch against the persisted task and applies it in
// place. On error task is unchanged.
func ApplyPatch(task *models.Task, patch TaskPatch, now time.Time) error {
	if patch.Status.Set && !patch.Status.Value.Valid() {
		return invalidStatus()
	}

	if task.IsCompleted() {
		reopening := patch.Status.Set && patch.Status.Value != models.StatusCompleted
		if locked := patch.lockedFields(); !reopening && len(locked) > 0 {
			fields := make(map[string][]string, len(locked))
			for _, f := range locked {
				fields[f] = []string{msgTaskLocked}
			}
			return &ValidationError{Kind: ErrTaskLocked, Message: msgTaskLocked, Fields: fields}
		}
	}

	errs := fieldErrors{}
	if patch.Title.Set {
		checkTitle(errs, patch.Title.Value)
	}
	if patch.Priority.Set {
		checkPriority(errs, patch.Priority.Value)
	}
	if err := errs.err(); err != nil {
		return err
	}

	if patch.Status.Set {
		setStatus(task, patch.Status.Value, now)
	}
	if patch.Title.Set {
		task.Title = patch.Title.Value
	}
	if patch.Description.Set {
		task.Description = patch.Description.Value
	}
	if patch.Priority.Set {
		task.Priority = patch.Priority.Value
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Value
	}
	if patch.ProjectID.Set {
		task.ProjectID = patch.ProjectID.Value
		task.Project = nil
	}
	return nil
}

// Toggle flips a task between completed and pending and returns the message
// describing the new state.
func Toggle(task *models.Task, now time.Time) string {
	if task.IsCompleted() {
		setStatus(task, models.StatusPending, now)
		return msgMarkPending
	}
	setStatus(task, models.StatusCompleted, now)
	return msgMarkComplete
}
