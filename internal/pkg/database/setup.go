package database

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// SetupJournal connects to the webhook journal database and migrates its
// table. It returns (nil, nil) when the journal is not configured.
func SetupJournal(cfg config.JournalConfig) (*gorm.DB, error) {
	if !cfg.Enabled() {
		log.Info("[Journal] DB_HOST/DB_NAME not set, webhook journal disabled")
		return nil, nil
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			DefaultStringSize:         256,
			SkipInitializeWithVersion: false,
		}), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			if err = db.AutoMigrate(&models.BillingWebhookEvent{}); err != nil {
				return nil, err
			}
			log.Infof("[Journal] Connected to %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
			return db, nil
		}

		log.Warnf("[Journal] Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}
