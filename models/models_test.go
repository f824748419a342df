package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoman(t *testing.T) {
	tests := map[int]string{
		1:    "I",
		4:    "IV",
		5:    "V",
		9:    "IX",
		14:   "XIV",
		40:   "XL",
		1994: "MCMXCIV",
		2026: "MMXXVI",
		0:    "0",
		-3:   "-3",
	}
	for n, want := range tests {
		assert.Equal(t, want, Roman(n), n)
	}
}

func TestIssueLabel(t *testing.T) {
	issue := &Issue{Volume: 5, Number: 1}
	assert.Equal(t, "Vol V, Issue I", issue.Label())
}

func TestPlace(t *testing.T) {
	m := &Manuscript{}
	assert.False(t, m.Placed())

	m.Place(&Issue{Volume: 12, Number: 3}, 7)

	assert.True(t, m.Placed())
	assert.Equal(t, "Vol XII, Issue III", m.Issue)
	assert.Equal(t, 12, *m.IssueVolume)
	assert.Equal(t, 3, *m.IssueNumber)
	assert.Equal(t, 7, *m.ArticleNumber)
}

func TestCloneDoesNotAlias(t *testing.T) {
	m := &Manuscript{Keywords: []string{"a", "b"}, Reviewers: []ReviewerAssignment{{ReviewerID: 1}}}
	m.Place(&Issue{Volume: 1, Number: 1}, 1)

	c := m.Clone()
	c.Keywords[0] = "z"
	c.Reviewers[0].Status = AssignmentDeclined
	*c.ArticleNumber = 9

	assert.Equal(t, "a", m.Keywords[0])
	assert.Empty(t, m.Reviewers[0].Status)
	assert.Equal(t, 1, *m.ArticleNumber)
}

func TestErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("publish: %w", InvalidTransition("cannot move from %s to %s", StatusSubmitted, StatusPublished))

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "publish: cannot move from submitted to published", err.Error())
	assert.False(t, errors.Is(errors.New("invalid_transition"), ErrInvalidTransition))
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{}
	require.NoError(t, errs.Err())

	errs.Add("title", "title is required")
	errs.Add("abstract", "abstract is required")
	errs.Add("title", "title is too long")

	err := errs.Err()
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, CodeValidationFailed, merr.Code)
	assert.Equal(t, "validation failed: abstract: abstract is required, title: title is required; title is too long", merr.Message)
	assert.Len(t, merr.Fields["title"], 2)
}

func TestActiveReviewerCount(t *testing.T) {
	m := &Manuscript{Reviewers: []ReviewerAssignment{
		{ReviewerID: 1, Status: AssignmentInvited},
		{ReviewerID: 2, Status: AssignmentDeclined},
		{ReviewerID: 3, Status: AssignmentCompleted},
	}}
	assert.Equal(t, 2, m.ActiveReviewerCount())

	a, idx := m.Assignment(3)
	require.NotNil(t, a)
	assert.Equal(t, 2, idx)

	a, idx = m.Assignment(9)
	assert.Nil(t, a)
	assert.Equal(t, -1, idx)
}

func TestNotificationTargets(t *testing.T) {
	n := &Notification{TargetRoles: []UserRole{RoleAdmin}, TargetUserIDs: []uint{7}}

	assert.True(t, n.Targets(Actor{UserID: 1, Role: RoleAdmin}))
	assert.True(t, n.Targets(Actor{UserID: 7, Role: RoleAuthor}))
	assert.False(t, n.Targets(Actor{UserID: 8, Role: RoleReviewer}))
}
