package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"
	"manuscript-workflow/workflow"

	"github.com/sirupsen/logrus"
)

type IssueService interface {
	EnsureIssue(ctx context.Context, actor models.Actor, req models.EnsureIssueRequest) (*models.Issue, bool, error)
	GetIssues(ctx context.Context) ([]models.Issue, error)
	NextArticleNumber(ctx context.Context, actor models.Actor, volume, number int) (*models.NextArticleNumber, error)
	PublishInto(ctx context.Context, actor models.Actor, volume, number int, req models.PublishRequest) (*models.Manuscript, error)
}

type issueService struct {
	issues      repositories.IssueRepository
	manuscripts repositories.ManuscriptRepository
	notifier    NotificationService
	machine     workflow.Machine
	settings    Settings
}

func NewIssueService(issues repositories.IssueRepository, manuscripts repositories.ManuscriptRepository, notifier NotificationService, settings Settings) IssueService {
	settings = settings.withDefaults()
	return &issueService{
		issues:      issues,
		manuscripts: manuscripts,
		notifier:    notifier,
		machine:     workflow.NewMachine(workflow.NewGate(settings.AcceptanceThreshold)),
		settings:    settings,
	}
}

func (s *issueService) EnsureIssue(ctx context.Context, actor models.Actor, req models.EnsureIssueRequest) (*models.Issue, bool, error) {
	if err := requireEditor(actor, "create issues"); err != nil {
		return nil, false, err
	}

	errs := models.ValidationErrors{}
	if req.Volume < 1 {
		errs.Add("volume", "volume must be a positive integer")
	}
	if req.Number < 1 {
		errs.Add("number", "number must be a positive integer")
	}
	issueType := req.Type
	if issueType == "" {
		issueType = models.IssueRegular
	}
	if !issueType.Valid() {
		errs.Add("type", "issue type must be regular or special")
	}
	var published *time.Time
	if req.PublicationDate != "" {
		t, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			errs.Add("publication_date", "publication date must be formatted as YYYY-MM-DD")
		} else {
			published = &t
		}
	}
	if err := errs.Err(); err != nil {
		return nil, false, err
	}

	return s.issues.Ensure(ctx, &models.Issue{
		Volume:          req.Volume,
		Number:          req.Number,
		Type:            issueType,
		Title:           strings.TrimSpace(req.Title),
		PublicationDate: published,
	})
}

func (s *issueService) GetIssues(ctx context.Context) ([]models.Issue, error) {
	return s.issues.List(ctx)
}

// NextArticleNumber is a preview only; PublishInto re-derives the number when
// it commits.
func (s *issueService) NextArticleNumber(ctx context.Context, actor models.Actor, volume, number int) (*models.NextArticleNumber, error) {
	if err := requireEditor(actor, "preview article numbers"); err != nil {
		return nil, err
	}
	highest, err := s.manuscripts.MaxArticleNumber(ctx, volume, number)
	if err != nil {
		return nil, err
	}
	issue := models.Issue{Volume: volume, Number: number}
	return &models.NextArticleNumber{
		Volume:        volume,
		Number:        number,
		Issue:         issue.Label(),
		ArticleNumber: highest + 1,
	}, nil
}

func (s *issueService) PublishInto(ctx context.Context, actor models.Actor, volume, number int, req models.PublishRequest) (*models.Manuscript, error) {
	if err := requireEditor(actor, "publish manuscripts"); err != nil {
		return nil, err
	}
	if req.ArticleNumber < 0 {
		errs := models.ValidationErrors{}
		errs.Add("article_number", "article number must be positive")
		return nil, errs.Err()
	}

	var history *models.StatusHistory
	publish := func(m *models.Manuscript) (*models.StatusHistory, error) {
		h, err := s.machine.Apply(m, workflow.Transition{
			To:       models.StatusPublished,
			Actor:    actor,
			Override: req.Override,
			Comments: fmt.Sprintf("published in %s as article %d", m.Issue, *m.ArticleNumber),
		})
		history = h
		return h, err
	}

	articleNumber := req.ArticleNumber
	var (
		m   *models.Manuscript
		err error
	)
	for attempt := 0; ; attempt++ {
		m, err = s.manuscripts.PublishInto(ctx, req.ManuscriptID, volume, number, articleNumber, publish)
		if err == nil || !errors.Is(err, models.ErrDuplicateArticleNumber) || req.Exact || attempt >= s.settings.PublishRetries {
			break
		}
		highest, merr := s.manuscripts.MaxArticleNumber(ctx, volume, number)
		if merr != nil {
			return nil, merr
		}
		logrus.WithContext(ctx).WithFields(logrus.Fields{
			"manuscript_id": req.ManuscriptID,
			"volume":        volume,
			"number":        number,
			"taken":         articleNumber,
			"next":          highest + 1,
		}).Info("article number taken, retrying")
		articleNumber = highest + 1
	}
	if err != nil {
		return nil, err
	}

	announceTransition(ctx, s.notifier, m, history)
	return m, nil
}
