package models

import "time"

// SubmissionStep is a 1-based position in the intake wizard.
type SubmissionStep int

const (
	StepDetails SubmissionStep = iota + 1
	StepFiles
	StepKeywords
	StepAuthors
	StepReviewers
	StepDeclarations
	StepFinalProof
)

const FirstStep, LastStep = StepDetails, StepFinalProof

var stepNames = map[SubmissionStep]string{
	StepDetails:      "details",
	StepFiles:        "files",
	StepKeywords:     "keywords",
	StepAuthors:      "authors",
	StepReviewers:    "reviewers",
	StepDeclarations: "declarations",
	StepFinalProof:   "final_proof",
}

func (s SubmissionStep) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s SubmissionStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

type FileKind string

const (
	FileMainDocument  FileKind = "main_document"
	FileCoverLetter   FileKind = "cover_letter"
	FileSupplementary FileKind = "supplementary"
)

// SubmissionFile is an opaque reference handed over by artifact storage.
type SubmissionFile struct {
	Name      string   `json:"name"`
	Reference string   `json:"reference"`
	Kind      FileKind `json:"kind"`
}

type Declarations struct {
	OriginalWork     bool `json:"original_work"`
	ConsentToPublish bool `json:"consent_to_publish"`
}

// SubmissionData accumulates what the author entered across all steps.
type SubmissionData struct {
	PaperType          PaperType           `json:"paper_type"`
	Title              string              `json:"title"`
	Abstract           string              `json:"abstract"`
	Files              []SubmissionFile    `json:"files"`
	Keywords           []string            `json:"keywords"`
	Authors            []Author            `json:"authors"`
	SuggestedReviewers []SuggestedReviewer `json:"suggested_reviewers"`
	Declarations       Declarations        `json:"declarations"`
}

// PreviewArtifact is a generated proof bound to the visit it was produced in.
type PreviewArtifact struct {
	ID          string     `json:"id"`
	VisitID     string     `json:"visit_id"`
	Reference   string     `json:"reference"`
	GeneratedAt time.Time  `json:"generated_at"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
}

// ProofState is what the final step needs to decide whether the proof is fresh.
type ProofState struct {
	VisitID string           `json:"visit_id"`
	Preview *PreviewArtifact `json:"preview,omitempty"`
}

// SubmissionSession is the wizard state held before any manuscript exists.
type SubmissionSession struct {
	ID          string         `json:"id"`
	AuthorID    uint           `json:"author_id"`
	CurrentStep SubmissionStep `json:"current_step"`
	Data        SubmissionData `json:"data"`
	Proof       ProofState     `json:"proof"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
