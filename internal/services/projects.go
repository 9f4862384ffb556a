package services

import (
	"strings"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectInput struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

type ProjectPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

// ProjectWithStats pairs a project with its derived counts.
type ProjectWithStats struct {
	Project models.Project
	Stats   ProjectStats
}

type ProjectService interface {
	ListProjects(db *gorm.DB, principal *models.User) ([]ProjectWithStats, error)
	CreateProject(db *gorm.DB, principal *models.User, input ProjectInput) (*ProjectWithStats, error)
	GetProject(db *gorm.DB, principal *models.User, id uuid.UUID) (*ProjectWithStats, []models.Task, error)
	UpdateProject(db *gorm.DB, principal *models.User, id uuid.UUID, patch ProjectPatch, full bool) (*ProjectWithStats, error)
	DeleteProject(db *gorm.DB, principal *models.User, id uuid.UUID) error
}

type ProjectServiceImpl struct {
	logger *log.Logger
}

func NewProjectService(logger *log.Logger) *ProjectServiceImpl {
	return &ProjectServiceImpl{logger: logger}
}

func checkName(errs fieldErrors, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		errs.add("name", "This field may not be blank.")
	case len([]rune(name)) > 200:
		errs.add("name", "Ensure this field has no more than 200 characters.")
	}
}

func (s *ProjectServiceImpl) ListProjects(db *gorm.DB, principal *models.User) ([]ProjectWithStats, error) {
	var projects []models.Project
	if err := db.Scopes(repositories.OwnedBy(principal.ID), repositories.CreationOrder).Find(&projects).Error; err != nil {
		return nil, storeError("list projects", err)
	}

	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	stats, err := StatsFor(db, ids)
	if err != nil {
		return nil, err
	}

	result := make([]ProjectWithStats, len(projects))
	for i, p := range projects {
		result[i] = ProjectWithStats{Project: p, Stats: stats[p.ID]}
	}
	return result, nil
}

func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, principal *models.User, input ProjectInput) (*ProjectWithStats, error) {
	errs := fieldErrors{}
	checkName(errs, input.Name)
	if err := errs.err(); err != nil {
		return nil, err
	}

	project := models.Project{
		UserID:      principal.ID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := db.Create(&project).Error; err != nil {
		return nil, storeError("create project", err)
	}
	return &ProjectWithStats{Project: project, Stats: NewProjectStats(0, 0)}, nil
}

// GetProject returns the project with its stats and its tasks in creation order.
func (s *ProjectServiceImpl) GetProject(db *gorm.DB, principal *models.User, id uuid.UUID) (*ProjectWithStats, []models.Task, error) {
	project, err := loadProject(db, principal, id)
	if err != nil {
		return nil, nil, err
	}

	tasks := []models.Task{}
	if err := db.Preload("User").Where("project_id = ?", project.ID).Scopes(repositories.CreationOrder).Find(&tasks).Error; err != nil {
		return nil, nil, storeError("list project tasks", err)
	}

	var completed int64
	for i := range tasks {
		tasks[i].Project = project
		if tasks[i].IsCompleted() {
			completed++
		}
	}
	return &ProjectWithStats{Project: *project, Stats: NewProjectStats(int64(len(tasks)), completed)}, tasks, nil
}

func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, principal *models.User, id uuid.UUID, patch ProjectPatch, full bool) (*ProjectWithStats, error) {
	var result *ProjectWithStats
	err := db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx.Clauses(clause.Locking{Strength: "UPDATE"}), principal, id)
		if err != nil {
			return err
		}

		errs := fieldErrors{}
		if full && !patch.Name.Set {
			errs.add("name", "This field is required.")
		} else if patch.Name.Set {
			checkName(errs, patch.Name.Value)
		}
		if err := errs.err(); err != nil {
			return err
		}

		if patch.Name.Set {
			project.Name = patch.Name.Value
		}
		if patch.Description.Set {
			project.Description = patch.Description.Value
		}
		if err := tx.Save(project).Error; err != nil {
			return storeError("update project", err)
		}

		stats, err := StatsFor(tx, []uuid.UUID{project.ID})
		if err != nil {
			return err
		}
		result = &ProjectWithStats{Project: *project, Stats: stats[project.ID]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteProject removes the project and its tasks in one transaction.
func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, principal *models.User, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, principal, id)
		if err != nil {
			return err
		}

		removed := tx.Where("project_id = ?", project.ID).Delete(&models.Task{})
		if removed.Error != nil {
			return storeError("delete project tasks", removed.Error)
		}
		if err := tx.Delete(&models.Project{}, "id = ?", project.ID).Error; err != nil {
			return storeError("delete project", err)
		}

		if s.logger != nil {
			s.logger.WithFields(log.Fields{
				"project_id": project.ID,
				"tasks":      removed.RowsAffected,
			}).Info("project deleted")
		}
		return nil
	})
}

func loadProject(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		return nil, storeError("load project", err)
	}
	if !IsPermitted(principal, &project) {
		return nil, ErrNotFound
	}
	return &project, nil
}
