package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"
	"manuscript-workflow/workflow"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SubmissionService interface {
	Start(ctx context.Context, actor models.Actor) (*models.SubmissionSession, error)
	GetSession(ctx context.Context, actor models.Actor, id string) (*models.SubmissionSession, error)
	SaveStep(ctx context.Context, actor models.Actor, id string, step models.SubmissionStep, data models.SubmissionData) (*models.SubmissionSession, error)
	Navigate(ctx context.Context, actor models.Actor, id string, target models.SubmissionStep) (*models.SubmissionSession, error)
	RecordPreview(ctx context.Context, actor models.Actor, id, reference string) (*models.PreviewArtifact, error)
	ViewPreview(ctx context.Context, actor models.Actor, id, previewID string) (*models.PreviewArtifact, error)
	Submit(ctx context.Context, actor models.Actor, id string) (*models.Manuscript, error)
}

type submissionService struct {
	sessions    repositories.SubmissionSessionRepository
	manuscripts repositories.ManuscriptRepository
	notifier    NotificationService
	gate        *workflow.SubmissionGate
	settings    Settings
	now         func() time.Time
}

func NewSubmissionService(sessions repositories.SubmissionSessionRepository, manuscripts repositories.ManuscriptRepository, notifier NotificationService, settings Settings) SubmissionService {
	return &submissionService{
		sessions:    sessions,
		manuscripts: manuscripts,
		notifier:    notifier,
		gate:        workflow.NewSubmissionGate(),
		settings:    settings.withDefaults(),
		now:         time.Now,
	}
}

func (s *submissionService) Start(ctx context.Context, actor models.Actor) (*models.SubmissionSession, error) {
	if actor.Role != models.RoleAuthor && !actor.IsEditor() {
		return nil, models.Forbidden("role %q may not submit manuscripts", actor.Role)
	}
	now := s.now()
	session := &models.SubmissionSession{
		ID:          uuid.NewString(),
		AuthorID:    actor.UserID,
		CurrentStep: models.FirstStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *submissionService) GetSession(ctx context.Context, actor models.Actor, id string) (*models.SubmissionSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.AuthorID != actor.UserID {
		return nil, models.NotFound("submission session")
	}
	return session, nil
}

// SaveStep stores the fields belonging to step. Any edit invalidates a preview
// generated from the earlier data.
func (s *submissionService) SaveStep(ctx context.Context, actor models.Actor, id string, step models.SubmissionStep, data models.SubmissionData) (*models.SubmissionSession, error) {
	session, err := s.GetSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !step.Valid() {
		errs := models.ValidationErrors{}
		errs.Add("step", "unknown step %d", step)
		return nil, errs.Err()
	}
	if step > session.CurrentStep {
		return nil, models.NewError(models.CodeStepsSkipped,
			"cannot fill step %d (%s) while on step %d (%s)", step, step, session.CurrentStep, session.CurrentStep)
	}

	d := &session.Data
	switch step {
	case models.StepDetails:
		d.PaperType = data.PaperType
		d.Title = data.Title
		d.Abstract = data.Abstract
	case models.StepFiles:
		d.Files = data.Files
	case models.StepKeywords:
		d.Keywords = data.Keywords
	case models.StepAuthors:
		d.Authors = data.Authors
	case models.StepReviewers:
		d.SuggestedReviewers = data.SuggestedReviewers
	case models.StepDeclarations:
		d.Declarations = data.Declarations
	case models.StepFinalProof:
		errs := models.ValidationErrors{}
		errs.Add("step", "the final proof step has no data; generate and view a preview instead")
		return nil, errs.Err()
	}
	session.Proof.Preview = nil

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *submissionService) Navigate(ctx context.Context, actor models.Actor, id string, target models.SubmissionStep) (*models.SubmissionSession, error) {
	session, err := s.GetSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Navigate(session.CurrentStep, target, session.Data, session.Proof); err != nil {
		return nil, err
	}

	if target == models.StepFinalProof && session.CurrentStep != models.StepFinalProof {
		// A new visit: any earlier preview no longer counts.
		session.Proof = models.ProofState{VisitID: uuid.NewString()}
	}
	session.CurrentStep = target
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *submissionService) RecordPreview(ctx context.Context, actor models.Actor, id, reference string) (*models.PreviewArtifact, error) {
	session, err := s.GetSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	errs := models.ValidationErrors{}
	if session.CurrentStep != models.StepFinalProof {
		errs.Add("step", "a preview can only be generated on the final proof step")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		errs.Add("reference", "preview reference is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	preview := &models.PreviewArtifact{
		ID:          uuid.NewString(),
		VisitID:     session.Proof.VisitID,
		Reference:   reference,
		GeneratedAt: s.now(),
	}
	session.Proof.Preview = preview
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return preview, nil
}

func (s *submissionService) ViewPreview(ctx context.Context, actor models.Actor, id, previewID string) (*models.PreviewArtifact, error) {
	session, err := s.GetSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p := session.Proof.Preview
	if p == nil || p.ID != previewID || p.VisitID != session.Proof.VisitID {
		return nil, models.NotFound("preview")
	}
	if p.ViewedAt == nil {
		now := s.now()
		p.ViewedAt = &now
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *submissionService) Submit(ctx context.Context, actor models.Actor, id string) (*models.Manuscript, error) {
	session, err := s.GetSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.readyToSubmit(session); err != nil {
		return nil, err
	}

	// Claim the session so a repeated submit cannot create a second manuscript.
	session, err = s.sessions.Take(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.AuthorID != actor.UserID {
		s.restore(ctx, session)
		return nil, models.NotFound("submission session")
	}
	if err := s.readyToSubmit(session); err != nil {
		s.restore(ctx, session)
		return nil, err
	}

	m := workflow.BuildManuscript(session.Data, actor.UserID)
	if err := s.manuscripts.Create(ctx, m, s.settings.ManuscriptPrefix); err != nil {
		s.restore(ctx, session)
		return nil, err
	}

	s.notifier.Notify(ctx, models.Notification{
		Title:        "New manuscript submitted",
		Message:      fmt.Sprintf("Manuscript %s (%s) was submitted and awaits triage.", m.Code, m.Title),
		Severity:     models.SeverityInfo,
		TargetRoles:  []models.UserRole{models.RoleAdmin},
		ManuscriptID: manuscriptRef(m),
	})
	return m, nil
}

func (s *submissionService) readyToSubmit(session *models.SubmissionSession) error {
	if session.CurrentStep != models.LastStep {
		return models.NewError(models.CodeStepsSkipped,
			"submission is only possible from step %d (%s); currently on step %d (%s)",
			models.LastStep, models.LastStep, session.CurrentStep, session.CurrentStep)
	}
	return s.gate.ValidateAll(session.Data, session.Proof)
}

// restore puts back a session claimed by a submit that did not complete.
func (s *submissionService) restore(ctx context.Context, session *models.SubmissionSession) {
	if err := s.sessions.Save(context.WithoutCancel(ctx), session); err != nil {
		logrus.WithContext(ctx).WithError(err).WithField("session_id", session.ID).Warn("submission session not restored")
	}
}

func (s *submissionService) save(ctx context.Context, session *models.SubmissionSession) error {
	session.UpdatedAt = s.now()
	return s.sessions.Save(ctx, session)
}
