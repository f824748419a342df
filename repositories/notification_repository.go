package repositories

import (
	"context"
	"fmt"

	"manuscript-workflow/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListFor(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListFor(ctx context.Context, actor models.Actor, limit int) ([]models.Notification, error) {
	_, limit = normalizePage(1, limit)
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("target_roles @> ?::jsonb OR target_user_ids @> ?::jsonb",
			fmt.Sprintf(`[%q]`, actor.Role), fmt.Sprintf(`[%d]`, actor.UserID)).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
