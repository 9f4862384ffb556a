package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-manager/api/internal/handlers"
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"
	"task-manager/api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type MockTaskService struct {
	err       error
	tasks     []models.Task
	lastPatch services.TaskPatch
	lastFull  bool
	lastQuery repositories.TaskQuery
}

func (m *MockTaskService) ListTasks(db *gorm.DB, principal *models.User, query repositories.TaskQuery) ([]models.Task, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.tasks, nil
}

func (m *MockTaskService) CreateTask(db *gorm.DB, principal *models.User, input services.TaskInput) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	task := models.Task{ID: uuid.Must(uuid.NewV4()), UserID: principal.ID, Title: input.Title, Status: models.StatusPending, User: principal}
	return &task, nil
}

func (m *MockTaskService) GetTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: id, Title: "Test Task", Status: models.StatusPending}, nil
}

func (m *MockTaskService) UpdateTask(db *gorm.DB, principal *models.User, id uuid.UUID, patch services.TaskPatch, full bool) (*models.Task, error) {
	m.lastPatch, m.lastFull = patch, full
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: id, Title: patch.Title.Value}, nil
}

func (m *MockTaskService) DeleteTask(db *gorm.DB, principal *models.User, id uuid.UUID) error {
	return m.err
}

func (m *MockTaskService) ToggleTask(db *gorm.DB, principal *models.User, id uuid.UUID) (*models.Task, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return &models.Task{ID: id, Status: models.StatusCompleted}, "Task marked as complete", nil
}

func setupTaskHandler(t *testing.T) (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(testutil.OpenDB(t), mockService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user", &models.User{ID: uuid.Must(uuid.NewV4()), Email: "user@example.com"})
		c.Next()
	})
	router.GET("/tasks", handler.ListTasks)
	router.POST("/tasks", handler.CreateTask)
	router.GET("/tasks/:id", handler.GetTask)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.PATCH("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)
	router.POST("/tasks/:id/toggle-complete", handler.ToggleComplete)
	return mockService, router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCreateTask(t *testing.T) {
	_, router := setupTaskHandler(t)

	w := perform(router, "POST", "/tasks", `{"title":"Test Task","description":"Test Description"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var task handlers.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("Failed to decode task: %v", err)
	}
	if task.Title != "Test Task" || task.UserEmail != "user@example.com" {
		t.Errorf("Unexpected task body: %+v", task)
	}
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	_, router := setupTaskHandler(t)

	w := perform(router, "POST", "/tasks", "invalid json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if body := decodeError(t, w); body.Error != "validation_error" {
		t.Errorf("Expected validation_error, got %s", body.Error)
	}
}

func TestCreateTaskMissingTitle(t *testing.T) {
	_, router := setupTaskHandler(t)

	for _, body := range []string{`{"description":"no title"}`, ""} {
		w := perform(router, "POST", "/tasks", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		errBody := decodeError(t, w)
		if got := errBody.Fields["title"]; len(got) != 1 || got[0] != "This field is required." {
			t.Errorf("Expected title required error, got %v", errBody.Fields)
		}
	}
}

func TestCreateTaskWrongType(t *testing.T) {
	_, router := setupTaskHandler(t)

	w := perform(router, "POST", "/tasks", `{"title":42}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if _, ok := decodeError(t, w).Fields["title"]; !ok {
		t.Error("Expected a title field error")
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound, "not_found"},
		{"locked", &services.ValidationError{Kind: services.ErrTaskLocked, Message: "locked"}, http.StatusBadRequest, "task_locked"},
		{"invalid status", &services.ValidationError{Kind: services.ErrInvalidStatus, Message: "bad"}, http.StatusBadRequest, "invalid_status"},
		{"past due", &services.ValidationError{Kind: services.ErrPastDueDate, Message: "past"}, http.StatusBadRequest, "past_due_date"},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := setupTaskHandler(t)
			mockService.err = tt.err

			w := perform(router, "GET", "/tasks/"+uuid.Must(uuid.NewV4()).String(), "")
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			body := decodeError(t, w)
			if body.Error != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, body.Error)
			}
			if tt.status == http.StatusInternalServerError && body.Message == "disk full" {
				t.Error("Expected store detail to stay out of the response")
			}
		})
	}
}

func TestUpdateTask_PutIsFullPatchIsPartial(t *testing.T) {
	mockService, router := setupTaskHandler(t)
	id := uuid.Must(uuid.NewV4()).String()

	w := perform(router, "PATCH", "/tasks/"+id, `{"status":"pending"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.lastFull {
		t.Error("Expected PATCH to be a partial update")
	}
	if !mockService.lastPatch.Status.Set || mockService.lastPatch.Title.Set {
		t.Errorf("Unexpected patch presence: %+v", mockService.lastPatch)
	}

	perform(router, "PUT", "/tasks/"+id, `{"title":"Full"}`)
	if !mockService.lastFull {
		t.Error("Expected PUT to be a full update")
	}

	w = perform(router, "PATCH", "/tasks/"+id, "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected empty PATCH to succeed, got %d", w.Code)
	}
}

func TestListTasks_QueryParameters(t *testing.T) {
	mockService, router := setupTaskHandler(t)
	project := uuid.Must(uuid.NewV4())

	w := perform(router, "GET", "/tasks?status=completed&priority=high&search=doc&ordering=-due_date&project="+project.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	q := mockService.lastQuery
	if q.Status != "completed" || q.Priority != "high" || q.Search != "doc" || q.Ordering != "-due_date" {
		t.Errorf("Unexpected query: %+v", q)
	}
	if q.ProjectID == nil || *q.ProjectID != project {
		t.Errorf("Expected project filter %s, got %v", project, q.ProjectID)
	}
	if w.Body.String() != "[]" {
		t.Errorf("Expected empty JSON array, got %s", w.Body.String())
	}

	w = perform(router, "GET", "/tasks?status=done&project=nope", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	fields := decodeError(t, w).Fields
	if _, ok := fields["status"]; !ok {
		t.Error("Expected a status filter error")
	}
	if _, ok := fields["project"]; !ok {
		t.Error("Expected a project filter error")
	}
}

func TestDeleteAndToggle(t *testing.T) {
	_, router := setupTaskHandler(t)
	id := uuid.Must(uuid.NewV4()).String()

	if w := perform(router, "DELETE", "/tasks/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w := perform(router, "POST", "/tasks/"+id+"/toggle-complete", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp handlers.ToggleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode toggle response: %v", err)
	}
	if resp.Message != "Task marked as complete" || resp.Task.Status != models.StatusCompleted {
		t.Errorf("Unexpected toggle response: %+v", resp)
	}
}
