package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the postgres connection. SQL statements are logged at info
// outside production; production only logs slow queries and errors unless
// DebugSQL is set.
func InitDB(cfg Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.Production() && !cfg.DebugSQL {
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(
			logrus.StandardLogger(),
			logger.Config{LogLevel: logLevel, IgnoreRecordNotFoundError: true},
		),
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logrus.Info("database connected")
	return db, nil
}
