package services

import (
	"context"
	"sync"
	"testing"

	"manuscript-workflow/models"
	"manuscript-workflow/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.issueService.EnsureIssue(ctx, authorActor, models.EnsureIssueRequest{Volume: 1, Number: 1})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = f.issueService.EnsureIssue(ctx, editorActor, models.EnsureIssueRequest{
		Volume: 1, Number: 1, Type: "quarterly", PublicationDate: "01/02/2026",
	})
	require.ErrorIs(t, err, models.ErrValidationFailed)
	var merr *models.Error
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, merr.Fields, "type")
	assert.Contains(t, merr.Fields, "publication_date")

	issue, created, err := f.issueService.EnsureIssue(ctx, editorActor, models.EnsureIssueRequest{
		Volume: 5, Number: 1, Title: " Spring ", PublicationDate: "2026-04-01",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.IssueRegular, issue.Type)
	assert.Equal(t, "Spring", issue.Title)
	require.NotNil(t, issue.PublicationDate)
	assert.Equal(t, 2026, issue.PublicationDate.Year())

	again, created, err := f.issueService.EnsureIssue(ctx, editorActor, models.EnsureIssueRequest{Volume: 5, Number: 1, Type: models.IssueSpecial})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, issue.ID, again.ID)
	assert.Equal(t, models.IssueRegular, again.Type)

	issues, err := f.issueService.GetIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestNextArticleNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.issueService.NextArticleNumber(ctx, authorActor, 5, 1)
	require.ErrorIs(t, err, models.ErrForbidden)

	next, err := f.issueService.NextArticleNumber(ctx, editorActor, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, next.ArticleNumber)
	assert.Equal(t, "Vol V, Issue I", next.Issue)

	f.ensureIssue(t, 5, 1)
	f.putPublishable(1)
	_, err = f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 1, ArticleNumber: 4})
	require.NoError(t, err)

	next, err = f.issueService.NextArticleNumber(ctx, editorActor, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, next.ArticleNumber)
}

func TestPublishInto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ensureIssue(t, 5, 1)
	f.putPublishable(1)

	m, err := f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, m.Status)
	assert.Equal(t, "Vol V, Issue I", m.Issue)
	assert.Equal(t, 1, *m.ArticleNumber)
	assert.NotNil(t, m.PublishedAt)

	history, err := f.manuscriptService.GetHistory(ctx, editorActor, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPublished, history[0].ToStatus)
	assert.Contains(t, history[0].Comments, "Vol V, Issue I")

	authorNotes := f.notificationsFor(t, authorActor)
	require.Len(t, authorNotes, 1)
	assert.Equal(t, "Manuscript published", authorNotes[0].Title)
	assert.Equal(t, "Manuscript MS-2026-00001 was published in Vol V, Issue I as article 1.", authorNotes[0].Message)
	assert.Len(t, f.notificationsFor(t, editorActor), 1)

	_, err = f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 1})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestPublishIntoFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ensureIssue(t, 5, 1)
	f.putPublishable(1)
	f.put(&models.Manuscript{ID: 2, Status: models.StatusUnderReview})
	noPDF := f.putPublishable(3)
	noPDF.FinalPDF = ""
	f.db.PutManuscript(noPDF)

	_, err := f.issueService.PublishInto(ctx, authorActor, 5, 1, models.PublishRequest{ManuscriptID: 1})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.issueService.PublishInto(ctx, editorActor, 9, 9, models.PublishRequest{ManuscriptID: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 2})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 3})
	require.ErrorIs(t, err, models.ErrPublicationGateNotSatisfied)
	var merr *models.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, workflow.RuleFinalPDFPresent, merr.Rule)

	for _, id := range []uint{2, 3} {
		stored, err := f.manuscripts.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, stored.Placed(), id)
		assert.Nil(t, stored.ArticleNumber, id)
	}

	// An override publishes past the gate.
	m, err := f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 3, Override: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, m.Status)
}

func TestPublishIntoTakenNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ensureIssue(t, 5, 1)
	for id := uint(1); id <= 3; id++ {
		f.putPublishable(id)
	}

	first, err := f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 1, ArticleNumber: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, *first.ArticleNumber)

	_, err = f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 2, ArticleNumber: 5, Exact: true})
	require.ErrorIs(t, err, models.ErrDuplicateArticleNumber)

	second, err := f.issueService.PublishInto(ctx, editorActor, 5, 1, models.PublishRequest{ManuscriptID: 2, ArticleNumber: 5})
	require.NoError(t, err)
	assert.Equal(t, 6, *second.ArticleNumber)
}

func TestPublishIntoConcurrentSameNumber(t *testing.T) {
	f := newFixture(t)
	f.ensureIssue(t, 5, 1)
	f.putPublishable(1)
	f.putPublishable(2)

	var wg sync.WaitGroup
	numbers := make([]int, 2)
	for i := range numbers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := f.issueService.PublishInto(context.Background(), editorActor, 5, 1,
				models.PublishRequest{ManuscriptID: uint(i + 1), ArticleNumber: 5})
			if assert.NoError(t, err) {
				numbers[i] = *m.ArticleNumber
			}
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{5, 6}, numbers)
}

func TestPublishIntoConcurrentAllocation(t *testing.T) {
	f := newFixture(t)
	f.ensureIssue(t, 2, 3)
	const n = 12
	for id := uint(1); id <= n; id++ {
		f.putPublishable(id)
	}

	var wg sync.WaitGroup
	numbers := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := f.issueService.PublishInto(context.Background(), editorActor, 2, 3,
				models.PublishRequest{ManuscriptID: uint(i + 1)})
			if assert.NoError(t, err) {
				numbers[i] = *m.ArticleNumber
			}
		}(i)
	}
	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.ElementsMatch(t, want, numbers)
}
