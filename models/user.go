package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors an identity-provider account. Rows are created lazily on the
// first successful authentication, keyed by the provider's subject claim, and
// are never deleted by this service.
type User struct {
	Id         string    `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"-" gorm:"uniqueIndex;not null"`
	Email      string    `json:"email"`
	IsStaff    bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	return
}
