package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db             *gorm.DB
	projectService services.ProjectService
}

func NewProjectHandler(db *gorm.DB, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: projectService}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	projects, err := h.projectService.ListProjects(h.db.WithContext(c.Request.Context()), user)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = newProjectResponse(&projects[i])
	}
	c.JSON(http.StatusOK, out)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input services.ProjectInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(h.db.WithContext(c.Request.Context()), user, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProjectResponse(project))
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	project, tasks, err := h.projectService.GetProject(h.db.WithContext(c.Request.Context()), user, pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProjectDetailResponse{
		ProjectResponse: newProjectResponse(project),
		Tasks:           newTaskResponses(tasks),
	})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var patch services.ProjectPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}

	full := c.Request.Method == http.MethodPut
	project, err := h.projectService.UpdateProject(h.db.WithContext(c.Request.Context()), user, pathID(c), patch, full)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(project))
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.projectService.DeleteProject(h.db.WithContext(c.Request.Context()), user, pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
