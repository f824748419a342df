package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAuthor   UserRole = "author"
	RoleReviewer UserRole = "reviewer"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAuthor, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// User records are owned by the identity service; this module only reads
// them to resolve reviewers and notification recipients.
type User struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	Username    string         `json:"username" gorm:"uniqueIndex;not null"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Institution string         `json:"institution"`
	Role        UserRole       `json:"role" gorm:"default:'author'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Actor is the authenticated caller of a core operation, as vouched for by
// the identity collaborator.
type Actor struct {
	UserID uint     `json:"user_id"`
	Role   UserRole `json:"role"`
}

// IsEditor reports whether the actor holds the editor-privileged role.
func (a Actor) IsEditor() bool {
	return a.Role == RoleAdmin
}
