package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/le10del10/paybridge/app/models"
)

// Repository provides the webhook journal operations used by the service.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	IncrementDeliveries(id uint) error
	MarkWebhookProcessed(id uint, uid, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a journal repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) IncrementDeliveries(id uint) error {
	return r.db.Model(&models.BillingWebhookEvent{}).
		Where("id = ?", id).
		UpdateColumn("deliveries", gorm.Expr("deliveries + ?", 1)).Error
}

func (r *gormRepository) MarkWebhookProcessed(id uint, uid, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	if uid != "" {
		updates["uid"] = uid
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
