package services

import (
	"context"
	"fmt"
	"strings"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"
	"manuscript-workflow/workflow"

	"github.com/sirupsen/logrus"
)

// Settings carries the workflow knobs shared by the services.
type Settings struct {
	DOIPrefix           string
	ManuscriptPrefix    string
	AcceptanceThreshold int
	MaxReviewers        int
	PublishRetries      int
}

func (s Settings) withDefaults() Settings {
	if s.DOIPrefix == "" {
		s.DOIPrefix = "10.5555"
	}
	if s.ManuscriptPrefix == "" {
		s.ManuscriptPrefix = "MS"
	}
	if s.AcceptanceThreshold < 1 {
		s.AcceptanceThreshold = workflow.DefaultAcceptanceThreshold
	}
	if s.MaxReviewers < 1 {
		s.MaxReviewers = workflow.DefaultMaxReviewers
	}
	if s.PublishRetries < 1 {
		s.PublishRetries = 3
	}
	return s
}

type ManuscriptService interface {
	GetManuscript(ctx context.Context, actor models.Actor, id uint) (*models.Manuscript, error)
	GetManuscripts(ctx context.Context, actor models.Actor, params models.ManuscriptListParams) ([]models.Manuscript, int64, error)
	GetHistory(ctx context.Context, actor models.Actor, id uint) ([]models.StatusHistory, error)
	Readiness(ctx context.Context, actor models.Actor, id uint) (*models.GateResult, error)
	Transition(ctx context.Context, actor models.Actor, id uint, req models.TransitionRequest) (*models.Manuscript, error)
	GenerateDOI(ctx context.Context, actor models.Actor, id uint) (*models.Manuscript, error)
	AttachFinalPDF(ctx context.Context, actor models.Actor, id uint, reference string) (*models.Manuscript, error)
}

type manuscriptService struct {
	repo     repositories.ManuscriptRepository
	notifier NotificationService
	machine  workflow.Machine
	settings Settings
}

func NewManuscriptService(repo repositories.ManuscriptRepository, notifier NotificationService, settings Settings) ManuscriptService {
	settings = settings.withDefaults()
	return &manuscriptService{
		repo:     repo,
		notifier: notifier,
		machine:  workflow.NewMachine(workflow.NewGate(settings.AcceptanceThreshold)),
		settings: settings,
	}
}

// canView: editors see everything, authors their own submissions, reviewers
// the manuscripts they are attached to.
func canView(actor models.Actor, m *models.Manuscript) bool {
	if actor.IsEditor() || m.SubmitterID == actor.UserID {
		return true
	}
	a, _ := m.Assignment(actor.UserID)
	return a != nil
}

func requireEditor(actor models.Actor, action string) error {
	if !actor.IsEditor() {
		return models.Forbidden("only editors may %s", action)
	}
	return nil
}

func (s *manuscriptService) GetManuscript(ctx context.Context, actor models.Actor, id uint) (*models.Manuscript, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, m) {
		// Indistinguishable from a missing manuscript.
		return nil, models.NotFound("manuscript")
	}
	return m, nil
}

func (s *manuscriptService) GetManuscripts(ctx context.Context, actor models.Actor, params models.ManuscriptListParams) ([]models.Manuscript, int64, error) {
	switch {
	case actor.IsEditor():
	case actor.Role == models.RoleAuthor:
		params.SubmitterID = actor.UserID
	case actor.Role == models.RoleReviewer:
		params.ReviewerID = actor.UserID
	default:
		return nil, 0, models.Forbidden("role %q may not list manuscripts", actor.Role)
	}
	return s.repo.List(ctx, params)
}

func (s *manuscriptService) GetHistory(ctx context.Context, actor models.Actor, id uint) ([]models.StatusHistory, error) {
	if _, err := s.GetManuscript(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *manuscriptService) Readiness(ctx context.Context, actor models.Actor, id uint) (*models.GateResult, error) {
	if err := requireEditor(actor, "check publication readiness"); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.machine.Gate.Evaluate(m)
	return &res, nil
}

func (s *manuscriptService) Transition(ctx context.Context, actor models.Actor, id uint, req models.TransitionRequest) (*models.Manuscript, error) {
	if err := requireEditor(actor, "change a manuscript's status"); err != nil {
		return nil, err
	}

	var history *models.StatusHistory
	m, err := s.repo.Update(ctx, id, func(m *models.Manuscript) (*models.StatusHistory, error) {
		h, err := s.machine.Apply(m, workflow.Transition{
			To:       req.Status,
			Actor:    actor,
			Comments: req.Comments,
			Override: req.Override,
		})
		history = h
		return h, err
	})
	if err != nil {
		return nil, err
	}

	announceTransition(ctx, s.notifier, m, history)
	return m, nil
}

// announceTransition logs overrides and tells the submitting author (and the
// editors, on publication or override) about a status change.
func announceTransition(ctx context.Context, notifier NotificationService, m *models.Manuscript, h *models.StatusHistory) {
	if h == nil {
		return
	}
	if h.Override {
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"actor_id":      h.ActorID,
			"manuscript_id": m.Code,
			"from":          h.FromStatus,
			"to":            h.ToStatus,
		}).Warn("administrative override applied")
		notifier.Notify(ctx, models.Notification{
			Title:        "Administrative override",
			Message:      fmt.Sprintf("Manuscript %s was moved from %s to %s by override.", m.Code, h.FromStatus, h.ToStatus),
			Severity:     models.SeverityWarning,
			TargetRoles:  []models.UserRole{models.RoleAdmin},
			ManuscriptID: manuscriptRef(m),
		})
	}

	n := models.Notification{
		Title:         "Manuscript status updated",
		Message:       fmt.Sprintf("Manuscript %s is now %s.", m.Code, h.ToStatus),
		Severity:      severityFor(h.ToStatus),
		TargetUserIDs: []uint{m.SubmitterID},
		ManuscriptID:  manuscriptRef(m),
	}
	if h.ToStatus == models.StatusPublished {
		n.Title = "Manuscript published"
		if m.Placed() {
			n.Message = fmt.Sprintf("Manuscript %s was published in %s as article %d.", m.Code, m.Issue, *m.ArticleNumber)
		}
		n.TargetRoles = []models.UserRole{models.RoleAdmin}
	}
	notifier.Notify(ctx, n)
}

func severityFor(status models.ManuscriptStatus) models.Severity {
	switch status {
	case models.StatusAccepted, models.StatusPublished:
		return models.SeveritySuccess
	case models.StatusRevisionRequired:
		return models.SeverityWarning
	case models.StatusRejected:
		return models.SeverityError
	}
	return models.SeverityInfo
}

func (s *manuscriptService) GenerateDOI(ctx context.Context, actor models.Actor, id uint) (*models.Manuscript, error) {
	if err := requireEditor(actor, "generate a DOI"); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(m *models.Manuscript) (*models.StatusHistory, error) {
		if m.DOI != "" {
			return nil, nil
		}
		switch m.Status {
		case models.StatusAccepted, models.StatusPublished:
		default:
			return nil, models.InvalidTransition("a DOI can only be generated for accepted or published manuscripts, not %s", m.Status)
		}
		m.DOI = s.settings.DOIPrefix + "/" + strings.ToLower(m.Code)
		return nil, nil
	})
}

func (s *manuscriptService) AttachFinalPDF(ctx context.Context, actor models.Actor, id uint, reference string) (*models.Manuscript, error) {
	if err := requireEditor(actor, "attach the final PDF"); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		errs := models.ValidationErrors{}
		errs.Add("reference", "final PDF reference is required")
		return nil, errs.Err()
	}
	return s.repo.Update(ctx, id, func(m *models.Manuscript) (*models.StatusHistory, error) {
		if m.Status != models.StatusAccepted {
			return nil, models.InvalidTransition("the final PDF can only be attached to an accepted manuscript, not %s", m.Status)
		}
		m.FinalPDF = reference
		return nil, nil
	})
}
