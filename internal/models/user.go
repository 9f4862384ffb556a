package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email      string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	Password   string    `json:"-" gorm:"not null"`
	IsActive   bool      `json:"is_active" gorm:"not null"`
	DateJoined time.Time `json:"date_joined" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at"`

	Projects []Project `json:"-" gorm:"foreignKey:UserID"`
	Tasks    []Task    `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	return assignID(&u.ID)
}

func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	newID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	*id = newID
	return nil
}
