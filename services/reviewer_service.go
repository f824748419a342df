package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"
	"manuscript-workflow/workflow"
)

type ReviewerService interface {
	Assign(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.ReviewerAssignment, error)
	Remove(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) error
	Respond(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint, accept bool) (*models.ReviewerAssignment, error)
	BeginReview(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.ReviewerAssignment, error)
	SubmitReview(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint, req models.SubmitReviewRequest) (*models.ReviewerAssignment, error)
	RelayComments(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.Manuscript, error)
	GetMyAssignments(ctx context.Context, actor models.Actor) ([]models.ReviewerAssignment, error)
}

type reviewerService struct {
	repo     repositories.ManuscriptRepository
	users    repositories.UserRepository
	notifier NotificationService
	settings Settings
	now      func() time.Time
}

func NewReviewerService(repo repositories.ManuscriptRepository, users repositories.UserRepository, notifier NotificationService, settings Settings) ReviewerService {
	return &reviewerService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		settings: settings.withDefaults(),
		now:      time.Now,
	}
}

// requireSelf limits an assignment action to the reviewer it belongs to.
func requireSelf(actor models.Actor, reviewerID uint) error {
	if actor.UserID != reviewerID {
		return models.Forbidden("only the assigned reviewer may act on this assignment")
	}
	return nil
}

func (s *reviewerService) Assign(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.ReviewerAssignment, error) {
	if err := requireEditor(actor, "assign reviewers"); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, reviewerID)
	if errors.Is(err, models.ErrNotFound) {
		errs := models.ValidationErrors{}
		errs.Add("reviewer_id", "user %d does not exist", reviewerID)
		return nil, errs.Err()
	}
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleReviewer {
		errs := models.ValidationErrors{}
		errs.Add("reviewer_id", "user %d does not hold the reviewer role", reviewerID)
		return nil, errs.Err()
	}

	var assigned models.ReviewerAssignment
	m, err := s.repo.Update(ctx, manuscriptID, func(m *models.Manuscript) (*models.StatusHistory, error) {
		a, err := workflow.Assign(m, reviewerID, actor.UserID, s.settings.MaxReviewers, s.now())
		if err != nil {
			return nil, err
		}
		assigned = *a
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if a, _ := m.Assignment(reviewerID); a != nil {
		assigned = *a
	}

	s.notifier.Notify(ctx, models.Notification{
		Title:         "Review invitation",
		Message:       fmt.Sprintf("You have been invited to review manuscript %s: %s.", m.Code, m.Title),
		Severity:      models.SeverityInfo,
		TargetUserIDs: []uint{reviewerID},
		ManuscriptID:  manuscriptRef(m),
	})
	return &assigned, nil
}

func (s *reviewerService) Remove(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) error {
	if err := requireEditor(actor, "remove reviewers"); err != nil {
		return err
	}
	_, err := s.repo.Update(ctx, manuscriptID, func(m *models.Manuscript) (*models.StatusHistory, error) {
		_, err := workflow.Remove(m, reviewerID)
		return nil, err
	})
	return err
}

func (s *reviewerService) Respond(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint, accept bool) (*models.ReviewerAssignment, error) {
	if err := requireSelf(actor, reviewerID); err != nil {
		return nil, err
	}
	a, err := s.repo.UpdateAssignment(ctx, manuscriptID, reviewerID, func(a *models.ReviewerAssignment) error {
		return workflow.Respond(a, accept, s.now())
	})
	if err != nil {
		return nil, err
	}

	answer, severity := "accepted", models.SeveritySuccess
	if !accept {
		answer, severity = "declined", models.SeverityWarning
	}
	s.notifier.Notify(ctx, models.Notification{
		Title:        "Reviewer responded",
		Message:      fmt.Sprintf("Reviewer %d %s the invitation for manuscript %d.", reviewerID, answer, manuscriptID),
		Severity:     severity,
		TargetRoles:  []models.UserRole{models.RoleAdmin},
		ManuscriptID: &a.ManuscriptID,
	})
	return a, nil
}

func (s *reviewerService) BeginReview(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.ReviewerAssignment, error) {
	if err := requireSelf(actor, reviewerID); err != nil {
		return nil, err
	}
	return s.repo.UpdateAssignment(ctx, manuscriptID, reviewerID, func(a *models.ReviewerAssignment) error {
		return workflow.BeginReview(a, s.now())
	})
}

func (s *reviewerService) SubmitReview(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint, req models.SubmitReviewRequest) (*models.ReviewerAssignment, error) {
	if err := requireSelf(actor, reviewerID); err != nil {
		return nil, err
	}
	a, err := s.repo.UpdateAssignment(ctx, manuscriptID, reviewerID, func(a *models.ReviewerAssignment) error {
		return workflow.SubmitReview(a, req.Decision, req.Comments, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		Title:        "Review submitted",
		Message:      fmt.Sprintf("Reviewer %d recommended %s for manuscript %d.", reviewerID, a.Decision, manuscriptID),
		Severity:     models.SeverityInfo,
		TargetRoles:  []models.UserRole{models.RoleAdmin},
		ManuscriptID: &a.ManuscriptID,
	})
	return a, nil
}

func (s *reviewerService) RelayComments(ctx context.Context, actor models.Actor, manuscriptID, reviewerID uint) (*models.Manuscript, error) {
	if err := requireEditor(actor, "relay reviewer comments"); err != nil {
		return nil, err
	}
	m, err := s.repo.Update(ctx, manuscriptID, func(m *models.Manuscript) (*models.StatusHistory, error) {
		return nil, workflow.RelayComments(m, reviewerID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		Title:         "New reviewer comments",
		Message:       fmt.Sprintf("The editor shared reviewer comments on manuscript %s.", m.Code),
		Severity:      models.SeverityInfo,
		TargetUserIDs: []uint{m.SubmitterID},
		ManuscriptID:  manuscriptRef(m),
	})
	return m, nil
}

// GetMyAssignments is not gated on the current role: assignments outlive a
// role change.
func (s *reviewerService) GetMyAssignments(ctx context.Context, actor models.Actor) ([]models.ReviewerAssignment, error) {
	return s.repo.ListAssignmentsByReviewer(ctx, actor.UserID)
}
