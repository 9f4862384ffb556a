package services

import (
	"testing"

	"task-manager/api/internal/models"
	"task-manager/api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_DetailCounts(t *testing.T) {
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "secret123")
	service := NewProjectService(nil)

	created, err := service.CreateProject(db, owner, ProjectInput{Name: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, ProjectStats{}, created.Stats)

	project := created.Project
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &project.ID, Title: "a", Status: models.StatusCompleted})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &project.ID, Title: "b"})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &project.ID, Title: "c", Status: models.StatusInProgress})

	detail, tasks, err := service.GetProject(db, owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.Stats.TaskCount)
	assert.Equal(t, int64(1), detail.Stats.CompletedTasks)
	assert.Equal(t, 33.3, detail.Stats.CompletionPercentage)
	assert.Len(t, tasks, 3)

	list, err := service.ListProjects(db, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, detail.Stats, list[0].Stats)
}

func TestProjectService_ListGroupsStatsPerProject(t *testing.T) {
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "secret123")
	other := testutil.CreateUser(t, db, "other@example.com", "secret123")
	service := NewProjectService(nil)

	empty := testutil.CreateProject(t, db, owner.ID, "Empty")
	busy := testutil.CreateProject(t, db, owner.ID, "Busy")
	testutil.CreateProject(t, db, other.ID, "Theirs")
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &busy.ID, Title: "a", Status: models.StatusCompleted})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &busy.ID, Title: "b", Status: models.StatusCompleted})

	list, err := service.ListProjects(db, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byName := map[string]ProjectStats{}
	for _, p := range list {
		byName[p.Project.Name] = p.Stats
	}
	assert.Equal(t, NewProjectStats(0, 0), byName[empty.Name])
	assert.Equal(t, NewProjectStats(2, 2), byName[busy.Name])
}

func TestProjectService_UpdateAndOwnership(t *testing.T) {
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "secret123")
	other := testutil.CreateUser(t, db, "other@example.com", "secret123")
	service := NewProjectService(nil)
	project := testutil.CreateProject(t, db, owner.ID, "Draft")

	_, err := service.UpdateProject(db, other, project.ID, ProjectPatch{Name: Some("Stolen")}, false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.UpdateProject(db, owner, project.ID, ProjectPatch{Description: Some("d")}, true)
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := service.UpdateProject(db, owner, project.ID, ProjectPatch{Name: Some("Final")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Project.Name)

	_, _, err = service.GetProject(db, other, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectService_DeleteCascadesTasks(t *testing.T) {
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "secret123")
	service := NewProjectService(nil)
	project := testutil.CreateProject(t, db, owner.ID, "Doomed")
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, ProjectID: &project.ID, Title: "a"})
	loose := testutil.CreateTask(t, db, models.Task{UserID: owner.ID, Title: "keep"})

	require.NoError(t, service.DeleteProject(db, owner, project.ID))

	var tasks []models.Task
	require.NoError(t, db.Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, loose.ID, tasks[0].ID)

	assert.ErrorIs(t, service.DeleteProject(db, owner, project.ID), ErrNotFound)
}

func TestSummaryFor(t *testing.T) {
	db := testutil.OpenDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "secret123")
	testutil.CreateProject(t, db, owner.ID, "One")
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, Title: "a", Status: models.StatusCompleted})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, Title: "b", Status: models.StatusInProgress})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, Title: "c"})
	testutil.CreateTask(t, db, models.Task{UserID: owner.ID, Title: "d"})

	summary, err := SummaryFor(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{
		TotalTasks:      4,
		CompletedTasks:  1,
		PendingTasks:    2,
		InProgressTasks: 1,
		TotalProjects:   1,
	}, summary)
}
