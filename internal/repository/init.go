package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/mailsort/config"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/models"
)

type Repositories struct {
	SessionRunRepository interfaces.SessionRunRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		SessionRunRepository: NewSessionRunRepository(db),
	}
}

// MigrateMailsortDB creates the run history tables, then restores the
// configured pool limits.
func MigrateMailsortDB(dbConfig *config.DatabaseConfig, mailsortDB *gorm.DB) error {
	db, err := mailsortDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = mailsortDB.AutoMigrate(
		&models.SessionRun{},
	)

	if dbConfig.MaxIdleConn > 0 {
		db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	}
	if dbConfig.MaxConn > 0 {
		db.SetMaxOpenConns(dbConfig.MaxConn)
	} else {
		db.SetMaxOpenConns(0)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)
	}

	return err
}
