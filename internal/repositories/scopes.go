// Package repositories holds reusable GORM query scopes for the task store.
package repositories

import (
	"strings"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Scope = func(*gorm.DB) *gorm.DB

// OwnedBy restricts a query to rows whose user_id is userID.
func OwnedBy(userID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// TaskQuery carries the optional list filters accepted by the task list.
type TaskQuery struct {
	Status    string
	Priority  string
	ProjectID *uuid.UUID
	Search    string
	Ordering  string
}

// likeEscaper makes search terms match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func TaskFilters(q TaskQuery) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		if q.Priority != "" {
			db = db.Where("priority = ?", q.Priority)
		}
		if q.ProjectID != nil {
			db = db.Where("project_id = ?", *q.ProjectID)
		}
		if s := strings.TrimSpace(q.Search); s != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
			db = db.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
		}
		return db
	}
}

const priorityRank = "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 END"

var orderings = map[string]string{
	"due_date":   "due_date",
	"created_at": "created_at",
	"priority":   priorityRank,
}

// Ordering sorts by one of due_date, created_at or priority, descending when
// prefixed with "-". Unknown keys fall back to creation order.
func Ordering(ordering string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		key := strings.TrimSpace(ordering)
		direction := "ASC"
		if strings.HasPrefix(key, "-") {
			key = key[1:]
			direction = "DESC"
		}

		expr, ok := orderings[key]
		if !ok {
			return db.Order("created_at ASC")
		}
		if key == "created_at" {
			return db.Order("created_at " + direction)
		}
		return db.Order(expr + " " + direction).Order("created_at ASC")
	}
}

// CreationOrder is the default ordering for child collections.
func CreationOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
