package payment

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qwinza/tani-web/models"
)

// GormOrderStore backs the adapter with the application database.
type GormOrderStore struct {
	db *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

func (s *GormOrderStore) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormOrderStore) Save(ctx context.Context, order *models.Order) error {
	// Save the changed columns in one statement so status and payment
	// type never land separately.
	return s.db.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"status":       order.Status,
		"payment_type": order.PaymentType,
		"external_id":  order.ExternalID,
		"snap_token":   order.SnapToken,
	}).Error
}
