package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Token is an opaque bearer credential. A user holds at most one.
type Token struct {
	Key       string    `json:"key" gorm:"primaryKey;size:40"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
