package services

import (
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
)

// Owned is implemented by every resource that belongs to a single user.
type Owned interface {
	OwnerID() uuid.UUID
}

// IsPermitted reports whether principal owns resource. Callers answer a
// denial with ErrNotFound so other users' ids are not disclosed.
func IsPermitted(principal *models.User, resource Owned) bool {
	if principal == nil || resource == nil {
		return false
	}
	return resource.OwnerID() == principal.ID
}
