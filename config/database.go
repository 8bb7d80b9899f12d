package config

import (
	"time"

	"salonpro-notifier/models"

	"github.com/cockroachdb/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig stamps rows in UTC so time comparisons are independent of the
// server's zone.
func GormConfig(log logger.Interface) *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  log,
	}
}

func ConnectDB(s Settings) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(s.DatabaseURL), GormConfig(logger.Default.LogMode(logger.Warn)))
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database handle")
	}
	sqlDB.SetMaxOpenConns(s.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(s.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(s.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(models.All()...), "auto migrate")
}
