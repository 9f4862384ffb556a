package services

import (
	"errors"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskService interface {
	ListTasks(db *gorm.DB, principal *models.User, query repositories.TaskQuery) ([]models.Task, error)
	CreateTask(db *gorm.DB, principal *models.User, input TaskInput) (*models.Task, error)
	GetTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, error)
	UpdateTask(db *gorm.DB, principal *models.User, id uuid.UUID, patch TaskPatch, full bool) (*models.Task, error)
	DeleteTask(db *gorm.DB, principal *models.User, id uuid.UUID) error
	ToggleTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, string, error)
}

type TaskServiceImpl struct {
	logger *log.Logger
	now    func() time.Time
}

func NewTaskService(logger *log.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{logger: logger, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *TaskServiceImpl) WithClock(now func() time.Time) *TaskServiceImpl {
	s.now = now
	return s
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, principal *models.User, query repositories.TaskQuery) ([]models.Task, error) {
	tasks := []models.Task{}
	err := db.Preload("Project").
		Scopes(repositories.OwnedBy(principal.ID), repositories.TaskFilters(query), repositories.Ordering(query.Ordering)).
		Find(&tasks).Error
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	for i := range tasks {
		tasks[i].User = principal
	}
	return tasks, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, principal *models.User, input TaskInput) (*models.Task, error) {
	now := s.now()
	if err := ValidateNewTask(&input, now); err != nil {
		return nil, err
	}

	task := NewTask(principal.ID, input, now)
	err := db.Transaction(func(tx *gorm.DB) error {
		project, err := s.resolveProject(tx, principal, task.ProjectID)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
			return storeError("create task", err)
		}
		task.Project = project
		task.User = principal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) GetTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, error) {
	return loadTask(db.Preload("Project"), principal, id)
}

// UpdateTask applies patch under a row lock. A full update must carry a
// title; that check follows the ownership guard.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, principal *models.User, id uuid.UUID, patch TaskPatch, full bool) (*models.Task, error) {
	var task *models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}
		if full && !patch.Title.Set {
			return fieldError(ErrValidation, "title", "This field is required.")
		}

		if err := ApplyPatch(task, patch, s.now()); err != nil {
			return err
		}
		if patch.ProjectID.Set {
			if _, err := s.resolveProject(tx, principal, task.ProjectID); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return storeError("update task", err)
		}
		return attachProject(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, principal *models.User, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		task, err := loadTask(tx, principal, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, "id = ?", task.ID).Error; err != nil {
			return storeError("delete task", err)
		}
		return nil
	})
}

// ToggleTask flips completion as one locked read-modify-write.
func (s *TaskServiceImpl) ToggleTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, string, error) {
	var (
		task    *models.Task
		message string
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = loadTask(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}

		message = Toggle(task, s.now())
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return storeError("toggle task", err)
		}
		return attachProject(tx, task)
	})
	if err != nil {
		return nil, "", err
	}
	return task, message, nil
}

// resolveProject checks that projectID names an existing project. Assigning
// another user's project is allowed but logged.
func (s *TaskServiceImpl) resolveProject(tx *gorm.DB, principal *models.User, projectID *uuid.UUID) (*models.Project, error) {
	if projectID == nil {
		return nil, nil
	}

	var project models.Project
	if err := tx.First(&project, "id = ?", *projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fieldError(ErrValidation, "project", "Invalid pk \""+projectID.String()+"\" - object does not exist.")
		}
		return nil, storeError("load project", err)
	}

	if !IsPermitted(principal, &project) && s.logger != nil {
		s.logger.WithFields(log.Fields{
			"user_id":       principal.ID,
			"project_id":    project.ID,
			"project_owner": project.UserID,
		}).Warn("task assigned to a project owned by another user")
	}
	return &project, nil
}

// loadTask fetches a task and applies the ownership guard.
func loadTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return nil, storeError("load task", err)
	}
	if !IsPermitted(principal, &task) {
		return nil, ErrNotFound
	}
	task.User = principal
	return &task, nil
}

func attachProject(tx *gorm.DB, task *models.Task) error {
	task.Project = nil
	if task.ProjectID == nil {
		return nil
	}

	var project models.Project
	if err := tx.First(&project, "id = ?", *task.ProjectID).Error; err != nil {
		return storeError("load task project", err)
	}
	task.Project = &project
	return nil
}
