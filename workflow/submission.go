package workflow

import (
	"fmt"
	"strings"

	"manuscript-workflow/models"

	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
)

const (
	MaxTitleWords         = 25
	MaxAbstractWords      = 300
	MinKeywords           = 2
	MaxKeywords           = 6
	MaxSuggestedReviewers = 5
)

// SubmissionGate validates the ordered intake steps.
type SubmissionGate struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewSubmissionGate() *SubmissionGate {
	v, trans := NewValidator()
	return &SubmissionGate{validate: v, trans: trans}
}

// CanAdvance validates the data of the current step, which must hold before
// the author may leave it forward (or complete the wizard from the last step).
func (g *SubmissionGate) CanAdvance(current models.SubmissionStep, data models.SubmissionData, proof models.ProofState) error {
	if !current.Valid() {
		errs := models.ValidationErrors{}
		errs.Add("step", "unknown step %d", current)
		return errs.Err()
	}
	return g.validateStep(current, data, proof).Err()
}

// Navigate checks a move from current to target. Moving back is always
// allowed; moving forward is allowed one step at a time.
func (g *SubmissionGate) Navigate(current, target models.SubmissionStep, data models.SubmissionData, proof models.ProofState) error {
	if !target.Valid() {
		errs := models.ValidationErrors{}
		errs.Add("target", "unknown step %d", target)
		return errs.Err()
	}
	if target <= current {
		return nil
	}
	if target > current+1 {
		return models.NewError(models.CodeStepsSkipped,
			"cannot move from step %d (%s) to step %d (%s); complete step %d (%s) first",
			current, current, target, target, current+1, current+1)
	}
	return g.CanAdvance(current, data, proof)
}

// ValidateAll re-checks every step before a manuscript is created.
func (g *SubmissionGate) ValidateAll(data models.SubmissionData, proof models.ProofState) error {
	errs := models.ValidationErrors{}
	for step := models.FirstStep; step <= models.LastStep; step++ {
		errs.Merge(g.validateStep(step, data, proof))
	}
	return errs.Err()
}

func (g *SubmissionGate) validateStep(step models.SubmissionStep, data models.SubmissionData, proof models.ProofState) models.ValidationErrors {
	errs := models.ValidationErrors{}
	switch step {
	case models.StepDetails:
		validateDetails(errs, data)
	case models.StepFiles:
		validateFiles(errs, data.Files)
	case models.StepKeywords:
		validateKeywords(errs, data.Keywords)
	case models.StepAuthors:
		g.validateAuthors(errs, data.Authors)
	case models.StepReviewers:
		g.validateSuggestedReviewers(errs, data.SuggestedReviewers)
	case models.StepDeclarations:
		if !data.Declarations.OriginalWork {
			errs.Add("declarations.original_work", "the originality declaration must be accepted")
		}
		if !data.Declarations.ConsentToPublish {
			errs.Add("declarations.consent_to_publish", "the publication consent must be accepted")
		}
	case models.StepFinalProof:
		if !FreshProof(proof) {
			errs.Add("preview", "a preview must be generated and viewed during this visit to the final step")
		}
	}
	return errs
}

// FreshProof reports whether the preview was produced and viewed in the
// current visit to the final step.
func FreshProof(proof models.ProofState) bool {
	p := proof.Preview
	return p != nil && proof.VisitID != "" && p.VisitID == proof.VisitID && p.ViewedAt != nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func validateDetails(errs models.ValidationErrors, data models.SubmissionData) {
	if !data.PaperType.Valid() {
		errs.Add("paper_type", "paper type must be one of %v", models.PaperTypes)
	}
	switch n := wordCount(data.Title); {
	case n == 0:
		errs.Add("title", "title is required")
	case n > MaxTitleWords:
		errs.Add("title", "title must be at most %d words, got %d", MaxTitleWords, n)
	}
	switch n := wordCount(data.Abstract); {
	case n == 0:
		errs.Add("abstract", "abstract is required")
	case n > MaxAbstractWords:
		errs.Add("abstract", "abstract must be at most %d words, got %d", MaxAbstractWords, n)
	}
}

func validateFiles(errs models.ValidationErrors, files []models.SubmissionFile) {
	main, covers := 0, 0
	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)
		if strings.TrimSpace(f.Name) == "" {
			errs.Add(field+".name", "file name is required")
		}
		if strings.TrimSpace(f.Reference) == "" {
			errs.Add(field+".reference", "file has not been uploaded")
		}
		switch f.Kind {
		case models.FileMainDocument:
			main++
		case models.FileCoverLetter:
			covers++
		case models.FileSupplementary:
		default:
			errs.Add(field+".kind", "unknown file kind %q", f.Kind)
		}
	}
	if main == 0 {
		errs.Add("files", "at least one uploaded file must be tagged as the main document")
	}
	if covers > 1 {
		errs.Add("files", "at most one cover letter may be uploaded")
	}
}

func validateKeywords(errs models.ValidationErrors, keywords []string) {
	seen := make(map[string]bool, len(keywords))
	count := 0
	for i, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			errs.Add(fmt.Sprintf("keywords[%d]", i), "keyword must not be blank")
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			errs.Add(fmt.Sprintf("keywords[%d]", i), "duplicate keyword %q", kw)
			continue
		}
		seen[key] = true
		count++
	}
	if count < MinKeywords {
		errs.Add("keywords", "at least %d keywords are required, got %d", MinKeywords, count)
	}
	if count > MaxKeywords {
		errs.Add("keywords", "at most %d keywords are allowed, got %d", MaxKeywords, count)
	}
}

func (g *SubmissionGate) validateAuthors(errs models.ValidationErrors, authors []models.Author) {
	if len(authors) == 0 {
		errs.Add("authors", "at least one author is required")
		return
	}
	corresponding := false
	for i, a := range authors {
		g.structErrors(errs, fmt.Sprintf("authors[%d]", i), trimAuthor(a))
		if a.Corresponding {
			corresponding = true
		}
	}
	if !corresponding {
		errs.Add("authors", "one author must be marked as corresponding")
	}
}

func (g *SubmissionGate) validateSuggestedReviewers(errs models.ValidationErrors, reviewers []models.SuggestedReviewer) {
	if len(reviewers) > MaxSuggestedReviewers {
		errs.Add("suggested_reviewers", "at most %d reviewers may be suggested", MaxSuggestedReviewers)
	}
	for i, r := range reviewers {
		r.Name = strings.TrimSpace(r.Name)
		r.Email = strings.TrimSpace(r.Email)
		g.structErrors(errs, fmt.Sprintf("suggested_reviewers[%d]", i), r)
	}
}

func (g *SubmissionGate) structErrors(errs models.ValidationErrors, prefix string, v any) {
	err := g.validate.Struct(v)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(prefix, "%v", err)
		return
	}
	for _, fe := range verrs {
		errs.Add(prefix+"."+fe.Field(), "%s", fe.Translate(g.trans))
	}
}

func trimAuthor(a models.Author) models.Author {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)
	a.Institution = strings.TrimSpace(a.Institution)
	return a
}

// BuildManuscript turns completed wizard data into a new submitted manuscript.
func BuildManuscript(data models.SubmissionData, submitterID uint) *models.Manuscript {
	m := &models.Manuscript{
		SubmitterID: submitterID,
		PaperType:   data.PaperType,
		Title:       strings.Join(strings.Fields(data.Title), " "),
		Abstract:    strings.TrimSpace(data.Abstract),
		Status:      models.StatusSubmitted,
	}
	for _, kw := range data.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			m.Keywords = append(m.Keywords, kw)
		}
	}
	for _, a := range data.Authors {
		m.Authors = append(m.Authors, trimAuthor(a))
	}
	m.SuggestedReviewers = append(m.SuggestedReviewers, data.SuggestedReviewers...)
	for _, f := range data.Files {
		switch f.Kind {
		case models.FileMainDocument:
			if m.ManuscriptFile == "" {
				m.ManuscriptFile = f.Reference
			} else {
				m.SupplementaryFiles = append(m.SupplementaryFiles, f.Reference)
			}
		case models.FileCoverLetter:
			m.CoverLetter = f.Reference
		default:
			m.SupplementaryFiles = append(m.SupplementaryFiles, f.Reference)
		}
	}
	return m
}
