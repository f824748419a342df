package workflow

import (
	"strings"
	"time"

	"manuscript-workflow/models"
)

const DefaultMaxReviewers = 5

// Assign attaches a new invited assignment. Callers must run it against a
// locked snapshot of m so the capacity check and the insert are one unit.
func Assign(m *models.Manuscript, reviewerID, invitedBy uint, maxReviewers int, now time.Time) (*models.ReviewerAssignment, error) {
	if maxReviewers < 1 {
		maxReviewers = DefaultMaxReviewers
	}
	if m.Status.Terminal() {
		return nil, models.InvalidTransition("cannot assign reviewers to a %s manuscript", m.Status)
	}
	if existing, _ := m.Assignment(reviewerID); existing != nil {
		if existing.Status == models.AssignmentDeclined {
			return nil, models.InvalidTransition("reviewer %d declined this manuscript; remove the assignment before inviting again", reviewerID)
		}
		return nil, models.InvalidTransition("reviewer %d is already assigned", reviewerID)
	}
	if n := m.ActiveReviewerCount(); n >= maxReviewers {
		return nil, models.NewError(models.CodeCapacityExceeded, "manuscript already has %d of %d reviewers", n, maxReviewers)
	}

	m.Reviewers = append(m.Reviewers, models.ReviewerAssignment{
		ManuscriptID:   m.ID,
		ReviewerID:     reviewerID,
		Status:         models.AssignmentInvited,
		InvitedBy:      invitedBy,
		TransitionedAt: now,
		CreatedAt:      now,
	})
	return &m.Reviewers[len(m.Reviewers)-1], nil
}

// Respond records the reviewer's answer to an invitation.
func Respond(a *models.ReviewerAssignment, accept bool, now time.Time) error {
	if a.Status != models.AssignmentInvited {
		return models.InvalidTransition("cannot respond to an assignment in status %s", a.Status)
	}
	if accept {
		a.Status = models.AssignmentAccepted
	} else {
		a.Status = models.AssignmentDeclined
	}
	a.TransitionedAt = now
	return nil
}

// BeginReview moves an engaged reviewer into active review, including the
// re-review after a requested revision.
func BeginReview(a *models.ReviewerAssignment, now time.Time) error {
	switch a.Status {
	case models.AssignmentAccepted, models.AssignmentRevisionRequired:
	default:
		return models.InvalidTransition("cannot begin review from status %s", a.Status)
	}
	a.Status = models.AssignmentUnderReview
	a.TransitionedAt = now
	return nil
}

// SubmitReview records a decision. Accept and reject complete the
// assignment; a revision request parks it in revision_required. Comments stay
// on the assignment until an editor relays them.
func SubmitReview(a *models.ReviewerAssignment, decision models.ReviewDecision, comments string, now time.Time) error {
	switch a.Status {
	case models.AssignmentAccepted, models.AssignmentUnderReview, models.AssignmentRevisionRequired:
	default:
		return models.InvalidTransition("cannot submit a review from status %s", a.Status)
	}

	comments = strings.TrimSpace(comments)
	errs := models.ValidationErrors{}
	if !decision.Valid() {
		errs.Add("decision", "decision must be one of accepted, rejected, revision_required")
	}
	if decision == models.DecisionRevisionRequired && comments == "" {
		errs.Add("comments", "comments are required when requesting a revision")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	a.Decision = decision
	a.Comments = comments
	if decision == models.DecisionRevisionRequired {
		a.Status = models.AssignmentRevisionRequired
	} else {
		a.Status = models.AssignmentCompleted
	}
	a.TransitionedAt = now
	return nil
}

// Remove deletes the reviewer's assignment whatever its state.
func Remove(m *models.Manuscript, reviewerID uint) (*models.ReviewerAssignment, error) {
	a, idx := m.Assignment(reviewerID)
	if a == nil {
		return nil, models.NotFound("reviewer assignment")
	}
	removed := *a
	m.Reviewers = append(m.Reviewers[:idx], m.Reviewers[idx+1:]...)
	return &removed, nil
}

// RelayComments appends a reviewer's comments to the manuscript's
// reviewer-facing comments.
func RelayComments(m *models.Manuscript, reviewerID uint) error {
	a, _ := m.Assignment(reviewerID)
	if a == nil {
		return models.NotFound("reviewer assignment")
	}
	if a.Comments == "" {
		errs := models.ValidationErrors{}
		errs.Add("comments", "reviewer %d has no comments to relay", reviewerID)
		return errs.Err()
	}
	if m.ReviewerComments == "" {
		m.ReviewerComments = a.Comments
	} else {
		m.ReviewerComments += "\n\n" + a.Comments
	}
	return nil
}
