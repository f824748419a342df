package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"manuscript-workflow/models"
	"manuscript-workflow/repositories"

	"github.com/stretchr/testify/require"
)

var (
	editorActor   = models.Actor{UserID: 1, Role: models.RoleAdmin}
	authorActor   = models.Actor{UserID: 2, Role: models.RoleAuthor}
	strangerActor = models.Actor{UserID: 3, Role: models.RoleAuthor}
)

func reviewerActor(id uint) models.Actor {
	return models.Actor{UserID: id, Role: models.RoleReviewer}
}

type recordingSink struct {
	mu        sync.Mutex
	err       error
	delivered []models.Notification
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.delivered = append(s.delivered, n)
	return s.err
}

func (s *recordingSink) titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.delivered))
	for _, n := range s.delivered {
		out = append(out, n.Title)
	}
	return out
}

type fixture struct {
	db          *repositories.MemoryDB
	manuscripts repositories.ManuscriptRepository
	issues      repositories.IssueRepository
	sink        *recordingSink
	notifier    NotificationService

	manuscriptService ManuscriptService
	reviewerService   ReviewerService
	issueService      IssueService
	submissionService SubmissionService
}

// newFixture wires every service over the in-memory stores with one editor
// (1), two authors (2, 3) and reviewers 10 through 17.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repositories.NewMemoryDB()
	db.PutUser(models.User{ID: 1, Username: "editor", Email: "editor@journal.test", Role: models.RoleAdmin})
	db.PutUser(models.User{ID: 2, Username: "author", Email: "author@uni.test", Role: models.RoleAuthor})
	db.PutUser(models.User{ID: 3, Username: "stranger", Email: "stranger@uni.test", Role: models.RoleAuthor})
	for id := uint(10); id <= 17; id++ {
		db.PutUser(models.User{ID: id, Username: "reviewer", Role: models.RoleReviewer})
	}

	f := &fixture{
		db:          db,
		manuscripts: repositories.NewMemoryManuscriptRepository(db),
		issues:      repositories.NewMemoryIssueRepository(db),
		sink:        &recordingSink{},
	}
	f.notifier = NewNotificationService(repositories.NewMemoryNotificationRepository(db), f.sink)

	settings := Settings{}
	users := repositories.NewMemoryUserRepository(db)
	sessions := repositories.NewMemorySubmissionSessionRepository(time.Hour)
	f.manuscriptService = NewManuscriptService(f.manuscripts, f.notifier, settings)
	f.reviewerService = NewReviewerService(f.manuscripts, users, f.notifier, settings)
	f.issueService = NewIssueService(f.issues, f.manuscripts, f.notifier, settings)
	f.submissionService = NewSubmissionService(sessions, f.manuscripts, f.notifier, settings)
	return f
}

func (f *fixture) put(m *models.Manuscript) *models.Manuscript {
	if m.SubmitterID == 0 {
		m.SubmitterID = authorActor.UserID
	}
	if m.Code == "" {
		m.Code = repositories.FormatManuscriptCode("MS", 2026, m.ID)
	}
	f.db.PutManuscript(m)
	return m
}

// putPublishable stores an accepted manuscript that satisfies the publication
// gate.
func (f *fixture) putPublishable(id uint) *models.Manuscript {
	return f.put(&models.Manuscript{
		ID:       id,
		Code:     repositories.FormatManuscriptCode("MS", 2026, id),
		Title:    "Publishable",
		Status:   models.StatusAccepted,
		DOI:      "10.5555/ms",
		FinalPDF: "final.pdf",
		Reviewers: []models.ReviewerAssignment{
			{ReviewerID: 10, Status: models.AssignmentCompleted, Decision: models.DecisionAccepted},
			{ReviewerID: 11, Status: models.AssignmentCompleted, Decision: models.DecisionAccepted},
		},
	})
}

func (f *fixture) ensureIssue(t *testing.T, volume, number int) {
	t.Helper()
	_, _, err := f.issueService.EnsureIssue(context.Background(), editorActor, models.EnsureIssueRequest{Volume: volume, Number: number})
	require.NoError(t, err)
}

func (f *fixture) notificationsFor(t *testing.T, actor models.Actor) []models.Notification {
	t.Helper()
	list, err := f.notifier.List(context.Background(), actor, 100)
	require.NoError(t, err)
	return list
}

func codeOf(err error) models.ErrorCode {
	var merr *models.Error
	if errors.As(err, &merr) {
		return merr.Code
	}
	return ""
}
