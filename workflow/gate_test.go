package workflow

import (
	"testing"

	"manuscript-workflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(m *models.Manuscript)
		rule     string
		accepted int
	}{
		{
			name:     "satisfied",
			mutate:   func(m *models.Manuscript) {},
			accepted: 2,
		},
		{
			name: "one acceptance",
			mutate: func(m *models.Manuscript) {
				m.Reviewers[1].Decision = models.DecisionRejected
			},
			rule:     RuleReviewerConsensus,
			accepted: 1,
		},
		{
			name: "revision decisions do not count",
			mutate: func(m *models.Manuscript) {
				m.Reviewers[0].Decision = models.DecisionRevisionRequired
				m.Reviewers[0].Status = models.AssignmentRevisionRequired
			},
			rule:     RuleReviewerConsensus,
			accepted: 1,
		},
		{
			name:     "missing doi",
			mutate:   func(m *models.Manuscript) { m.DOI = "" },
			rule:     RuleDOIPresent,
			accepted: 2,
		},
		{
			name:     "missing final pdf",
			mutate:   func(m *models.Manuscript) { m.FinalPDF = "" },
			rule:     RuleFinalPDFPresent,
			accepted: 2,
		},
		{
			name: "consensus is reported before artifacts",
			mutate: func(m *models.Manuscript) {
				m.Reviewers = nil
				m.DOI = ""
				m.FinalPDF = ""
			},
			rule:     RuleReviewerConsensus,
			accepted: 0,
		},
		{
			name: "doi is reported before pdf",
			mutate: func(m *models.Manuscript) {
				m.DOI = ""
				m.FinalPDF = ""
			},
			rule:     RuleDOIPresent,
			accepted: 2,
		},
	}

	gate := NewGate(2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := publishable()
			tt.mutate(m)

			res := gate.Evaluate(m)

			assert.Equal(t, tt.rule == "", res.Satisfied)
			assert.Equal(t, tt.rule, res.Rule)
			assert.Equal(t, tt.accepted, res.Accepted)
			assert.Equal(t, 2, res.Threshold)
		})
	}
}

func TestGateThreshold(t *testing.T) {
	m := publishable()

	assert.False(t, NewGate(3).Evaluate(m).Satisfied)
	assert.True(t, NewGate(1).Evaluate(m).Satisfied)
	assert.Equal(t, DefaultAcceptanceThreshold, NewGate(0).Threshold)
	assert.True(t, Gate{}.Evaluate(m).Satisfied)
}

func TestGateError(t *testing.T) {
	m := publishable()
	m.FinalPDF = ""

	err := GateError(NewGate(2).Evaluate(m))

	var merr *models.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, models.CodePublicationGateNotSatisfied, merr.Code)
	assert.Equal(t, RuleFinalPDFPresent, merr.Rule)
	assert.Contains(t, merr.Error(), "final_pdf_present")
}
