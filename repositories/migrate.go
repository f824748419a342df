package repositories

import (
	"manuscript-workflow/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by this service, including the
// unique indexes the allocator and the assignment lookup rely on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Manuscript{},
		&models.ReviewerAssignment{},
		&models.StatusHistory{},
		&models.Issue{},
		&models.Notification{},
	)
}
