package workflow

import (
	"fmt"

	"manuscript-workflow/models"
)

const DefaultAcceptanceThreshold = 2

// Gate rule names, in evaluation order.
const (
	RuleReviewerConsensus = "reviewer_consensus"
	RuleDOIPresent        = "doi_present"
	RuleFinalPDFPresent   = "final_pdf_present"
)

// Gate decides whether a manuscript may become published.
type Gate struct {
	Threshold int
}

func NewGate(threshold int) Gate {
	if threshold < 1 {
		threshold = DefaultAcceptanceThreshold
	}
	return Gate{Threshold: threshold}
}

// Evaluate is a pure predicate over the manuscript's current assignments and
// artifacts. It stops at the first failing rule.
func (g Gate) Evaluate(m *models.Manuscript) models.GateResult {
	threshold := g.Threshold
	if threshold < 1 {
		threshold = DefaultAcceptanceThreshold
	}

	accepted := 0
	for _, a := range m.Reviewers {
		if a.Decision == models.DecisionAccepted {
			accepted++
		}
	}
	res := models.GateResult{Accepted: accepted, Threshold: threshold}

	switch {
	case accepted < threshold:
		res.Rule = RuleReviewerConsensus
		res.Detail = fmt.Sprintf("%d of %d required reviewer acceptances", accepted, threshold)
	case m.DOI == "":
		res.Rule = RuleDOIPresent
		res.Detail = "a DOI has not been generated"
	case m.FinalPDF == "":
		res.Rule = RuleFinalPDFPresent
		res.Detail = "the final PDF has not been attached"
	default:
		res.Satisfied = true
	}
	return res
}

// GateError converts an unsatisfied result into the caller-facing error.
func GateError(res models.GateResult) error {
	return &models.Error{
		Code:    models.CodePublicationGateNotSatisfied,
		Rule:    res.Rule,
		Message: fmt.Sprintf("publication gate not satisfied (%s): %s", res.Rule, res.Detail),
	}
}
