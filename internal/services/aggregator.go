package services

import (
	"math"

	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// ProjectStats is derived on every read; nothing here is stored.
type ProjectStats struct {
	TaskCount            int64   `json:"task_count"`
	CompletedTasks       int64   `json:"completed_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

func NewProjectStats(total, completed int64) ProjectStats {
	stats := ProjectStats{TaskCount: total, CompletedTasks: completed}
	if total > 0 {
		stats.CompletionPercentage = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return stats
}

// StatsFor computes stats for every listed project with one grouped query.
// Projects without tasks are present with zero counts.
func StatsFor(db *gorm.DB, projectIDs []uuid.UUID) (map[uuid.UUID]ProjectStats, error) {
	result := make(map[uuid.UUID]ProjectStats, len(projectIDs))
	if len(projectIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ProjectID uuid.UUID
		Total     int64
		Completed int64
	}
	err := db.Model(&models.Task{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", models.StatusCompleted).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("aggregate project tasks", err)
	}

	for _, id := range projectIDs {
		result[id] = NewProjectStats(0, 0)
	}
	for _, row := range rows {
		result[row.ProjectID] = NewProjectStats(row.Total, row.Completed)
	}
	return result, nil
}

type DashboardSummary struct {
	TotalTasks      int64 `json:"total_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	TotalProjects   int64 `json:"total_projects"`
}

func SummaryFor(db *gorm.DB, userID uuid.UUID) (DashboardSummary, error) {
	var summary DashboardSummary

	var rows []struct {
		Status models.TaskStatus
		Total  int64
	}
	err := db.Model(&models.Task{}).
		Scopes(repositories.OwnedBy(userID)).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return summary, storeError("aggregate tasks", err)
	}

	for _, row := range rows {
		summary.TotalTasks += row.Total
		switch row.Status {
		case models.StatusCompleted:
			summary.CompletedTasks = row.Total
		case models.StatusPending:
			summary.PendingTasks = row.Total
		case models.StatusInProgress:
			summary.InProgressTasks = row.Total
		}
	}

	if err := db.Model(&models.Project{}).Scopes(repositories.OwnedBy(userID)).Count(&summary.TotalProjects).Error; err != nil {
		return summary, storeError("count projects", err)
	}
	return summary, nil
}
