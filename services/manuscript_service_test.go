package services

import (
	"context"
	"testing"

	"manuscript-workflow/models"
	"manuscript-workflow/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetManuscriptVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Status: models.StatusUnderReview, Reviewers: []models.ReviewerAssignment{
		{ReviewerID: 10, Status: models.AssignmentInvited},
	}})

	for _, actor := range []models.Actor{editorActor, authorActor, reviewerActor(10)} {
		_, err := f.manuscriptService.GetManuscript(ctx, actor, 1)
		assert.NoError(t, err, actor)
	}

	// Assignment, not the current role, grants access.
	_, err := f.manuscriptService.GetManuscript(ctx, models.Actor{UserID: 10, Role: models.RoleAuthor}, 1)
	assert.NoError(t, err)

	for _, actor := range []models.Actor{strangerActor, reviewerActor(11)} {
		_, err := f.manuscriptService.GetManuscript(ctx, actor, 1)
		assert.ErrorIs(t, err, models.ErrNotFound, actor)
	}
}

func TestGetManuscriptsScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Status: models.StatusSubmitted})
	f.put(&models.Manuscript{ID: 2, SubmitterID: 3, Status: models.StatusUnderReview, Reviewers: []models.ReviewerAssignment{
		{ReviewerID: 10, Status: models.AssignmentAccepted},
	}})

	all, total, err := f.manuscriptService.GetManuscripts(ctx, editorActor, models.ManuscriptListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	// An author cannot widen the filter to someone else's submissions.
	mine, _, err := f.manuscriptService.GetManuscripts(ctx, authorActor, models.ManuscriptListParams{SubmitterID: 3})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint(1), mine[0].ID)

	assigned, _, err := f.manuscriptService.GetManuscripts(ctx, reviewerActor(10), models.ManuscriptListParams{})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, uint(2), assigned[0].ID)
}

func TestTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Status: models.StatusSubmitted})

	_, err := f.manuscriptService.Transition(ctx, authorActor, 1, models.TransitionRequest{Status: models.StatusUnderReview})
	require.ErrorIs(t, err, models.ErrForbidden)

	m, err := f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, m.Status)

	_, err = f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{Status: models.StatusPublished})
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	m, err = f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{
		Status:   models.StatusRevisionRequired,
		Comments: "Please clarify the sampling method.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Please clarify the sampling method.", m.ReviewerComments)

	history, err := f.manuscriptService.GetHistory(ctx, authorActor, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusSubmitted, history[0].FromStatus)
	assert.Equal(t, models.StatusRevisionRequired, history[1].ToStatus)

	notes := f.notificationsFor(t, authorActor)
	require.Len(t, notes, 2)
	assert.Equal(t, "Manuscript status updated", notes[0].Title)
	assert.Equal(t, models.SeverityWarning, notes[0].Severity)
	assert.Contains(t, notes[0].Message, "revision_required")
}

func TestTransitionOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Status: models.StatusRejected})

	m, err := f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{
		Status:   models.StatusUnderReview,
		Override: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, m.Status)

	history, err := f.manuscriptService.GetHistory(ctx, editorActor, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Override)

	editorNotes := f.notificationsFor(t, editorActor)
	require.NotEmpty(t, editorNotes)
	assert.Equal(t, "Administrative override", editorNotes[0].Title)
	assert.Equal(t, models.SeverityWarning, editorNotes[0].Severity)
}

func TestTransitionPublishScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.putPublishable(1)
	m.Reviewers = append(m.Reviewers,
		models.ReviewerAssignment{ReviewerID: 12, Status: models.AssignmentDeclined},
		models.ReviewerAssignment{ReviewerID: 13, Status: models.AssignmentInvited},
	)
	f.db.PutManuscript(m)

	res, err := f.manuscriptService.Readiness(ctx, editorActor, 1)
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	assert.Equal(t, 2, res.Accepted)

	published, err := f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.False(t, published.Placed())
}

func TestTransitionPublishGateFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.putPublishable(1)
	m.DOI = ""
	f.db.PutManuscript(m)

	_, err := f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{Status: models.StatusPublished})

	require.ErrorIs(t, err, models.ErrPublicationGateNotSatisfied)
	var merr *models.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, workflow.RuleDOIPresent, merr.Rule)

	stored, err := f.manuscripts.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, stored.Status)

	history, err := f.manuscriptService.GetHistory(ctx, editorActor, 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGenerateDOI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Code: "MS-2026-00001", Status: models.StatusUnderReview})

	_, err := f.manuscriptService.GenerateDOI(ctx, editorActor, 1)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.manuscriptService.Transition(ctx, editorActor, 1, models.TransitionRequest{Status: models.StatusAccepted})
	require.NoError(t, err)

	_, err = f.manuscriptService.GenerateDOI(ctx, authorActor, 1)
	require.ErrorIs(t, err, models.ErrForbidden)

	m, err := f.manuscriptService.GenerateDOI(ctx, editorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.5555/ms-2026-00001", m.DOI)

	again, err := f.manuscriptService.GenerateDOI(ctx, editorActor, 1)
	require.NoError(t, err)
	assert.Equal(t, m.DOI, again.DOI)
}

func TestAttachFinalPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.put(&models.Manuscript{ID: 1, Status: models.StatusUnderReview})
	f.put(&models.Manuscript{ID: 2, Status: models.StatusAccepted})

	_, err := f.manuscriptService.AttachFinalPDF(ctx, editorActor, 1, "final.pdf")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.manuscriptService.AttachFinalPDF(ctx, editorActor, 2, "  ")
	assert.ErrorIs(t, err, models.ErrValidationFailed)

	m, err := f.manuscriptService.AttachFinalPDF(ctx, editorActor, 2, "artifacts/final.pdf")
	require.NoError(t, err)
	assert.Equal(t, "artifacts/final.pdf", m.FinalPDF)

	_, err = f.manuscriptService.AttachFinalPDF(ctx, editorActor, 9, "final.pdf")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
