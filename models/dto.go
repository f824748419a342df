package models

type TransitionRequest struct {
	Status   ManuscriptStatus `json:"status" validate:"required"`
	Comments string           `json:"comments"`
	Override bool             `json:"override"`
}

type AssignReviewerRequest struct {
	ReviewerID uint `json:"reviewer_id" validate:"required"`
}

type RespondRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

type SubmitReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required"`
	Comments string         `json:"comments"`
}

type FinalPDFRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type EnsureIssueRequest struct {
	Volume          int       `json:"volume" validate:"required,min=1"`
	Number          int       `json:"number" validate:"required,min=1"`
	Title           string    `json:"title" validate:"max=255"`
	Type            IssueType `json:"type"`
	PublicationDate string    `json:"publication_date"`
}

// PublishRequest places a manuscript into an issue. ArticleNumber 0 takes the
// next free number. A non-zero number is normally the previewed one; if it
// was taken meanwhile the next free number is used instead, unless Exact is
// set, in which case the call fails.
type PublishRequest struct {
	ManuscriptID  uint `json:"manuscript_id" validate:"required"`
	ArticleNumber int  `json:"article_number" validate:"min=0"`
	Exact         bool `json:"exact"`
	Override      bool `json:"override"`
}

type NavigateRequest struct {
	Target SubmissionStep `json:"target" validate:"required"`
}

type PreviewRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type ManuscriptListParams struct {
	Status      string `form:"status"`
	SubmitterID uint   `form:"submitter_id"`
	ReviewerID  uint   `form:"reviewer_id"`
	Page        int    `form:"page,default=1"`
	Limit       int    `form:"limit,default=10"`
	SortBy      string `form:"sort_by,default=created_at"`
	SortOrder   string `form:"sort_order,default=desc"`
}

// GateResult is the outcome of the publication gate evaluation.
type GateResult struct {
	Satisfied bool   `json:"satisfied"`
	Rule      string `json:"rule,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Accepted  int    `json:"accepted"`
	Threshold int    `json:"threshold"`
}

type NextArticleNumber struct {
	Volume        int    `json:"volume"`
	Number        int    `json:"number"`
	Issue         string `json:"issue"`
	ArticleNumber int    `json:"article_number"`
}
