package models

import "time"

type AssignmentStatus string

const (
	AssignmentInvited          AssignmentStatus = "invited"
	AssignmentAccepted         AssignmentStatus = "accepted"
	AssignmentDeclined         AssignmentStatus = "declined"
	AssignmentUnderReview      AssignmentStatus = "under_review"
	AssignmentRevisionRequired AssignmentStatus = "revision_required"
	AssignmentCompleted        AssignmentStatus = "completed"
)

type ReviewDecision string

const (
	DecisionNone             ReviewDecision = ""
	DecisionAccepted         ReviewDecision = "accepted"
	DecisionRejected         ReviewDecision = "rejected"
	DecisionRevisionRequired ReviewDecision = "revision_required"
)

func (d ReviewDecision) Valid() bool {
	switch d {
	case DecisionAccepted, DecisionRejected, DecisionRevisionRequired:
		return true
	}
	return false
}

// ReviewerAssignment is one reviewer's relationship to one manuscript. It is
// kept after publication and only removed by an explicit editor action.
type ReviewerAssignment struct {
	ID             uint             `json:"id" gorm:"primarykey"`
	ManuscriptID   uint             `json:"manuscript_id" gorm:"not null;uniqueIndex:idx_assignment_reviewer"`
	ReviewerID     uint             `json:"reviewer_id" gorm:"not null;uniqueIndex:idx_assignment_reviewer;index"`
	Status         AssignmentStatus `json:"status" gorm:"not null;default:'invited'"`
	Decision       ReviewDecision   `json:"decision,omitempty"`
	Comments       string           `json:"comments,omitempty" gorm:"type:text"`
	InvitedBy      uint             `json:"invited_by"`
	TransitionedAt time.Time        `json:"transitioned_at"`
	CreatedAt      time.Time        `json:"created_at"`
}
