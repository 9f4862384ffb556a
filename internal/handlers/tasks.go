package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	query, err := taskQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.taskService.ListTasks(h.db.WithContext(c.Request.Context()), user, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponses(tasks))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input services.TaskInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(h.db.WithContext(c.Request.Context()), user, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	task, err := h.taskService.GetTask(h.db.WithContext(c.Request.Context()), user, pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// UpdateTask serves both PUT and PATCH; PUT must carry a title.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var patch services.TaskPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}

	full := c.Request.Method == http.MethodPut
	task, err := h.taskService.UpdateTask(h.db.WithContext(c.Request.Context()), user, pathID(c), patch, full)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.taskService.DeleteTask(h.db.WithContext(c.Request.Context()), user, pathID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) ToggleComplete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	task, message, err := h.taskService.ToggleTask(h.db.WithContext(c.Request.Context()), user, pathID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Message: message, Task: newTaskResponse(task)})
}

// pathID parses the :id segment. A malformed id yields uuid.Nil, which
// matches no row and so answers 404.
func pathID(c *gin.Context) uuid.UUID {
	return uuid.FromStringOrNil(c.Param("id"))
}

func taskQuery(c *gin.Context) (repositories.TaskQuery, error) {
	query := repositories.TaskQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	fields := map[string][]string{}
	if query.Status != "" && !models.TaskStatus(query.Status).Valid() {
		fields["status"] = []string{"Select a valid choice. " + query.Status + " is not one of the available choices."}
	}
	if query.Priority != "" && !models.TaskPriority(query.Priority).Valid() {
		fields["priority"] = []string{"Select a valid choice. " + query.Priority + " is not one of the available choices."}
	}
	if raw := c.Query("project"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			fields["project"] = []string{"\"" + raw + "\" is not a valid UUID."}
		} else {
			query.ProjectID = &id
		}
	}

	if len(fields) > 0 {
		return query, &services.ValidationError{Kind: services.ErrValidation, Message: "Invalid filter.", Fields: fields}
	}
	return query, nil
}
