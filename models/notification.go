package models

import (
	"time"

	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is what the core decides to say and to whom. Delivery and
// read-state bookkeeping belong to the notification collaborator.
type Notification struct {
	ID            uint                          `json:"id" gorm:"primarykey"`
	EventID       string                        `json:"event_id" gorm:"uniqueIndex"`
	Title         string                        `json:"title" gorm:"not null"`
	Message       string                        `json:"message" gorm:"type:text"`
	Severity      Severity                      `json:"severity" gorm:"default:'info'"`
	TargetRoles   datatypes.JSONSlice[UserRole] `json:"target_roles" gorm:"type:jsonb"`
	TargetUserIDs datatypes.JSONSlice[uint]     `json:"target_user_ids,omitempty" gorm:"type:jsonb"`
	ManuscriptID  *uint                         `json:"manuscript_id,omitempty" gorm:"index"`
	CreatedAt     time.Time                     `json:"created_at"`
}

// Targets reports whether the actor is an addressee of the notification.
func (n *Notification) Targets(actor Actor) bool {
	for _, role := range n.TargetRoles {
		if role == actor.Role {
			return true
		}
	}
	for _, id := range n.TargetUserIDs {
		if id == actor.UserID {
			return true
		}
	}
	return false
}
