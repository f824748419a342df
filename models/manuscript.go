package models

import (
	"time"

	"gorm.io/datatypes"
)

type ManuscriptStatus string

const (
	StatusSubmitted        ManuscriptStatus = "submitted"
	StatusUnderReview      ManuscriptStatus = "under_review"
	StatusRevisionRequired ManuscriptStatus = "revision_required"
	StatusAccepted         ManuscriptStatus = "accepted"
	StatusPublished        ManuscriptStatus = "published"
	StatusRejected         ManuscriptStatus = "rejected"
)

func (s ManuscriptStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusRevisionRequired,
		StatusAccepted, StatusPublished, StatusRejected:
		return true
	}
	return false
}

func (s ManuscriptStatus) Terminal() bool {
	return s == StatusPublished || s == StatusRejected
}

type PaperType string

const (
	PaperResearchArticle    PaperType = "research_article"
	PaperReviewArticle      PaperType = "review_article"
	PaperShortCommunication PaperType = "short_communication"
	PaperCaseStudy          PaperType = "case_study"
	PaperEditorial          PaperType = "editorial"
)

var PaperTypes = []PaperType{
	PaperResearchArticle,
	PaperReviewArticle,
	PaperShortCommunication,
	PaperCaseStudy,
	PaperEditorial,
}

func (p PaperType) Valid() bool {
	for _, t := range PaperTypes {
		if p == t {
			return true
		}
	}
	return false
}

type Author struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Institution   string `json:"institution" validate:"required"`
	Corresponding bool   `json:"corresponding"`
}

type SuggestedReviewer struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Institution string `json:"institution"`
}

type Manuscript struct {
	ID uint `json:"id" gorm:"primarykey"`

	// Code is the human-facing manuscript id, e.g. MS-2026-00042.
	Code               string                                 `json:"manuscript_id" gorm:"uniqueIndex;not null"`
	SubmitterID        uint                                   `json:"submitter_id" gorm:"not null;index"`
	Title              string                                 `json:"title" gorm:"not null"`
	Abstract           string                                 `json:"abstract" gorm:"type:text"`
	Keywords           datatypes.JSONSlice[string]            `json:"keywords" gorm:"type:jsonb"`
	Authors            datatypes.JSONSlice[Author]            `json:"authors" gorm:"type:jsonb"`
	SuggestedReviewers datatypes.JSONSlice[SuggestedReviewer] `json:"suggested_reviewers,omitempty" gorm:"type:jsonb"`
	PaperType          PaperType                              `json:"paper_type" gorm:"not null"`
	ManuscriptFile     string                                 `json:"manuscript_file"`
	CoverLetter        string                                 `json:"cover_letter,omitempty"`
	SupplementaryFiles datatypes.JSONSlice[string]            `json:"supplementary_files,omitempty" gorm:"type:jsonb"`
	FinalPDF           string                                 `json:"final_pdf,omitempty"`
	DOI                string                                 `json:"doi,omitempty"`
	Status             ManuscriptStatus                       `json:"status" gorm:"index;default:'submitted'"`
	ReviewerComments   string                                 `json:"reviewer_comments" gorm:"type:text"`
	Reviewers          []ReviewerAssignment                   `json:"reviewers" gorm:"foreignKey:ManuscriptID;constraint:OnDelete:CASCADE"`

	// Placement columns are written together by the numbering allocator.
	Issue         string     `json:"issue,omitempty"`
	IssueVolume   *int       `json:"issue_volume,omitempty" gorm:"uniqueIndex:idx_issue_article"`
	IssueNumber   *int       `json:"issue_number,omitempty" gorm:"uniqueIndex:idx_issue_article"`
	ArticleNumber *int       `json:"article_number,omitempty" gorm:"uniqueIndex:idx_issue_article"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Placed reports whether the manuscript has been numbered into an issue.
func (m *Manuscript) Placed() bool {
	return m.ArticleNumber != nil && m.Issue != ""
}

// Place sets the issue label, coordinates and article number together.
func (m *Manuscript) Place(issue *Issue, articleNumber int) {
	volume, number := issue.Volume, issue.Number
	m.Issue = issue.Label()
	m.IssueVolume = &volume
	m.IssueNumber = &number
	m.ArticleNumber = &articleNumber
}

// Assignment finds the reviewer's assignment; the index is -1 when absent.
func (m *Manuscript) Assignment(reviewerID uint) (*ReviewerAssignment, int) {
	for i := range m.Reviewers {
		if m.Reviewers[i].ReviewerID == reviewerID {
			return &m.Reviewers[i], i
		}
	}
	return nil, -1
}

// ActiveReviewerCount counts assignments that occupy a reviewer slot.
func (m *Manuscript) ActiveReviewerCount() int {
	n := 0
	for _, a := range m.Reviewers {
		if a.Status != AssignmentDeclined {
			n++
		}
	}
	return n
}

// Clone returns a deep copy, so callers can mutate without aliasing stored slices.
func (m *Manuscript) Clone() *Manuscript {
	c := *m
	c.Keywords = append(datatypes.JSONSlice[string](nil), m.Keywords...)
	c.Authors = append(datatypes.JSONSlice[Author](nil), m.Authors...)
	c.SuggestedReviewers = append(datatypes.JSONSlice[SuggestedReviewer](nil), m.SuggestedReviewers...)
	c.SupplementaryFiles = append(datatypes.JSONSlice[string](nil), m.SupplementaryFiles...)
	c.Reviewers = append([]ReviewerAssignment(nil), m.Reviewers...)
	c.IssueVolume = cloneInt(m.IssueVolume)
	c.IssueNumber = cloneInt(m.IssueNumber)
	c.ArticleNumber = cloneInt(m.ArticleNumber)
	if m.PublishedAt != nil {
		t := *m.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StatusHistory is the audit trail of manuscript status changes.
type StatusHistory struct {
	ID           uint             `json:"id" gorm:"primarykey"`
	ManuscriptID uint             `json:"manuscript_id" gorm:"not null;index"`
	FromStatus   ManuscriptStatus `json:"from_status"`
	ToStatus     ManuscriptStatus `json:"to_status" gorm:"not null"`
	ActorID      uint             `json:"actor_id"`
	ActorRole    UserRole         `json:"actor_role"`
	Override     bool             `json:"override"`
	Comments     string           `json:"comments,omitempty" gorm:"type:text"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "manuscript_status_history"
}
