package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the valid statuses in display order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID    `json:"user" gorm:"type:uuid;not null;index"`
	ProjectID   *uuid.UUID   `json:"project" gorm:"type:uuid;index"`
	Title       string       `json:"title" gorm:"size:200;not null"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status" gorm:"size:20;not null;default:'pending';index"`
	Priority    TaskPriority `json:"priority" gorm:"size:10;not null;default:'medium'"`
	DueDate     *time.Time   `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`

	User    *User    `json:"-" gorm:"foreignKey:UserID"`
	Project *Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	return assignID(&t.ID)
}

func (t *Task) OwnerID() uuid.UUID {
	return t.UserID
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}
