package repositories

import (
	"context"

	"manuscript-workflow/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListByRoles(ctx context.Context, roles []models.UserRole) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	return users, err
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []models.UserRole) ([]models.User, error) {
	var users []models.User
	if len(roles) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("role IN ?", roles).Order("id").Find(&users).Error
	return users, err
}
