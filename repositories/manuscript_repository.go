package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"manuscript-workflow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mutation edits a locked manuscript snapshot and may return an audit record
// stored in the same unit. Returning an error discards every change.
type Mutation func(m *models.Manuscript) (*models.StatusHistory, error)

// AssignmentMutation edits a single locked reviewer assignment.
type AssignmentMutation func(a *models.ReviewerAssignment) error

type ManuscriptRepository interface {
	Create(ctx context.Context, m *models.Manuscript, codePrefix string) error
	GetByID(ctx context.Context, id uint) (*models.Manuscript, error)
	GetByCode(ctx context.Context, code string) (*models.Manuscript, error)
	List(ctx context.Context, params models.ManuscriptListParams) ([]models.Manuscript, int64, error)
	Update(ctx context.Context, id uint, fn Mutation) (*models.Manuscript, error)
	UpdateAssignment(ctx context.Context, manuscriptID, reviewerID uint, fn AssignmentMutation) (*models.ReviewerAssignment, error)
	ListAssignmentsByReviewer(ctx context.Context, reviewerID uint) ([]models.ReviewerAssignment, error)
	History(ctx context.Context, id uint) ([]models.StatusHistory, error)
	MaxArticleNumber(ctx context.Context, volume, number int) (int, error)
	// PublishInto locks the issue and the manuscript, allocates or checks the
	// article number, places the manuscript and runs fn, all in one unit.
	// articleNumber 0 allocates the next free number.
	PublishInto(ctx context.Context, id uint, volume, number, articleNumber int, fn Mutation) (*models.Manuscript, error)
}

// FormatManuscriptCode renders the human-facing manuscript id.
func FormatManuscriptCode(prefix string, year int, id uint) string {
	if prefix == "" {
		prefix = "MS"
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, id)
}

var manuscriptSortColumns = map[string]string{
	"created_at": "manuscripts.created_at",
	"updated_at": "manuscripts.updated_at",
	"title":      "manuscripts.title",
	"status":     "manuscripts.status",
}

type manuscriptRepository struct {
	db *gorm.DB
}

func NewManuscriptRepository(db *gorm.DB) ManuscriptRepository {
	return &manuscriptRepository{db: db}
}

func (r *manuscriptRepository) Create(ctx context.Context, m *models.Manuscript, codePrefix string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Code is unique and not null; a placeholder holds the slot until the id is known.
		m.Code = "pending-" + uuid.NewString()
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		m.Code = FormatManuscriptCode(codePrefix, m.CreatedAt.Year(), m.ID)
		return tx.Model(m).Update("code", m.Code).Error
	})
}

func (r *manuscriptRepository) GetByID(ctx context.Context, id uint) (*models.Manuscript, error) {
	var m models.Manuscript
	err := r.db.WithContext(ctx).
		Preload("Reviewers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&m, id).Error
	if err != nil {
		return nil, translate(err, "manuscript")
	}
	return &m, nil
}

func (r *manuscriptRepository) GetByCode(ctx context.Context, code string) (*models.Manuscript, error) {
	var m models.Manuscript
	err := r.db.WithContext(ctx).
		Preload("Reviewers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("code = ?", code).
		First(&m).Error
	if err != nil {
		return nil, translate(err, "manuscript")
	}
	return &m, nil
}

func (r *manuscriptRepository) List(ctx context.Context, params models.ManuscriptListParams) ([]models.Manuscript, int64, error) {
	var manuscripts []models.Manuscript
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Manuscript{})

	if params.Status != "" {
		query = query.Where("manuscripts.status = ?", params.Status)
	}
	if params.SubmitterID > 0 {
		query = query.Where("manuscripts.submitter_id = ?", params.SubmitterID)
	}
	if params.ReviewerID > 0 {
		query = query.Where("EXISTS (SELECT 1 FROM reviewer_assignments ra WHERE ra.manuscript_id = manuscripts.id AND ra.reviewer_id = ?)", params.ReviewerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy, ok := manuscriptSortColumns[params.SortBy]
	if !ok {
		sortBy = manuscriptSortColumns["created_at"]
	}
	sortOrder := "desc"
	if params.SortOrder == "asc" {
		sortOrder = "asc"
	}

	page, limit := normalizePage(params.Page, params.Limit)
	err := query.Preload("Reviewers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order(sortBy + " " + sortOrder).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&manuscripts).Error

	return manuscripts, total, err
}

func (r *manuscriptRepository) Update(ctx context.Context, id uint, fn Mutation) (*models.Manuscript, error) {
	var out *models.Manuscript
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := lockManuscript(tx, id)
		if err != nil {
			return err
		}
		original := m.Clone()

		history, err := fn(m)
		if err != nil {
			return err
		}
		if err := saveManuscript(tx, original, m); err != nil {
			return err
		}
		if err := createHistory(tx, m.ID, history); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *manuscriptRepository) UpdateAssignment(ctx context.Context, manuscriptID, reviewerID uint, fn AssignmentMutation) (*models.ReviewerAssignment, error) {
	var a models.ReviewerAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("manuscript_id = ? AND reviewer_id = ?", manuscriptID, reviewerID).
			First(&a).Error
		if err != nil {
			return translate(err, "reviewer assignment")
		}
		if err := fn(&a); err != nil {
			return err
		}
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *manuscriptRepository) ListAssignmentsByReviewer(ctx context.Context, reviewerID uint) ([]models.ReviewerAssignment, error) {
	var assignments []models.ReviewerAssignment
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("created_at desc").
		Find(&assignments).Error
	return assignments, err
}

func (r *manuscriptRepository) History(ctx context.Context, id uint) ([]models.StatusHistory, error) {
	var history []models.StatusHistory
	err := r.db.WithContext(ctx).
		Where("manuscript_id = ?", id).
		Order("id").
		Find(&history).Error
	return history, err
}

func (r *manuscriptRepository) MaxArticleNumber(ctx context.Context, volume, number int) (int, error) {
	return maxArticleNumber(r.db.WithContext(ctx), volume, number)
}

func (r *manuscriptRepository) PublishInto(ctx context.Context, id uint, volume, number, articleNumber int, fn Mutation) (*models.Manuscript, error) {
	var out *models.Manuscript
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The issue row lock serializes every publisher numbering into this issue.
		var issue models.Issue
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("volume = ? AND number = ?", volume, number).
			First(&issue).Error
		if err != nil {
			return translate(err, "issue")
		}

		m, err := lockManuscript(tx, id)
		if err != nil {
			return err
		}
		if m.Placed() {
			return models.InvalidTransition("manuscript %s is already placed in %s as article %d", m.Code, m.Issue, *m.ArticleNumber)
		}
		original := m.Clone()

		if articleNumber == 0 {
			highest, err := maxArticleNumber(tx, volume, number)
			if err != nil {
				return err
			}
			articleNumber = highest + 1
		} else {
			var taken int64
			err := tx.Model(&models.Manuscript{}).
				Where("issue_volume = ? AND issue_number = ? AND article_number = ?", volume, number, articleNumber).
				Count(&taken).Error
			if err != nil {
				return err
			}
			if taken > 0 {
				return duplicateArticleNumber(&issue, articleNumber)
			}
		}

		m.Place(&issue, articleNumber)
		history, err := fn(m)
		if err != nil {
			return err
		}
		if err := saveManuscript(tx, original, m); err != nil {
			return err
		}
		if err := createHistory(tx, m.ID, history); err != nil {
			return err
		}
		out = m
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The unique placement index caught a writer that bypassed the issue lock.
		issue := models.Issue{Volume: volume, Number: number}
		return nil, duplicateArticleNumber(&issue, articleNumber)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockManuscript(tx *gorm.DB, id uint) (*models.Manuscript, error) {
	var m models.Manuscript
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
		return nil, translate(err, "manuscript")
	}
	// Assignment rows are locked too, so reviewer updates cannot be overwritten
	// by a stale copy saved here.
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("manuscript_id = ?", id).
		Order("id").
		Find(&m.Reviewers).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// saveManuscript writes the manuscript columns and reconciles its assignments
// against the snapshot taken when the row was locked.
func saveManuscript(tx *gorm.DB, original, m *models.Manuscript) error {
	m.UpdatedAt = time.Now()
	if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
		return err
	}

	before := make(map[uint]models.ReviewerAssignment, len(original.Reviewers))
	for _, a := range original.Reviewers {
		before[a.ID] = a
	}

	keep := make([]uint, 0, len(m.Reviewers))
	for _, a := range m.Reviewers {
		if a.ID != 0 {
			keep = append(keep, a.ID)
		}
	}
	del := tx.Where("manuscript_id = ?", m.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&models.ReviewerAssignment{}).Error; err != nil {
		return err
	}

	for i := range m.Reviewers {
		a := &m.Reviewers[i]
		a.ManuscriptID = m.ID
		if prev, ok := before[a.ID]; ok && a.ID != 0 && prev == *a {
			continue
		}
		if err := tx.Save(a).Error; err != nil {
			return err
		}
	}
	return nil
}

func createHistory(tx *gorm.DB, manuscriptID uint, history *models.StatusHistory) error {
	if history == nil {
		return nil
	}
	history.ManuscriptID = manuscriptID
	return tx.Create(history).Error
}

func maxArticleNumber(db *gorm.DB, volume, number int) (int, error) {
	var highest int
	err := db.Model(&models.Manuscript{}).
		Select("COALESCE(MAX(article_number), 0)").
		Where("issue_volume = ? AND issue_number = ?", volume, number).
		Scan(&highest).Error
	return highest, err
}

func duplicateArticleNumber(issue *models.Issue, articleNumber int) error {
	return models.NewError(models.CodeDuplicateArticleNumber,
		"article number %d is already taken in %s", articleNumber, issue.Label())
}

func translate(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFound(what)
	}
	return err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
