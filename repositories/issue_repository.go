package repositories

import (
	"context"

	"manuscript-workflow/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IssueRepository interface {
	// Ensure creates the issue unless one already exists for its (volume,
	// number); it returns the stored issue and whether this call created it.
	Ensure(ctx context.Context, issue *models.Issue) (*models.Issue, bool, error)
	Get(ctx context.Context, volume, number int) (*models.Issue, error)
	List(ctx context.Context) ([]models.Issue, error)
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Ensure(ctx context.Context, issue *models.Issue) (*models.Issue, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "volume"}, {Name: "number"}},
		DoNothing: true,
	}).Create(issue)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return issue, true, nil
	}

	existing, err := r.Get(ctx, issue.Volume, issue.Number)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *issueRepository) Get(ctx context.Context, volume, number int) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.WithContext(ctx).Where("volume = ? AND number = ?", volume, number).First(&issue).Error
	if err != nil {
		return nil, translate(err, "issue")
	}
	return &issue, nil
}

func (r *issueRepository) List(ctx context.Context) ([]models.Issue, error) {
	var issues []models.Issue
	err := r.db.WithContext(ctx).Order("volume desc, number desc").Find(&issues).Error
	return issues, err
}
