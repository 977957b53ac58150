package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-marketplace/internal/models"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

type RefundGormRepository struct {
	db *gorm.DB
}

func NewRefundGormRepository(db *gorm.DB) *RefundGormRepository {
	return &RefundGormRepository{db: db}
}

func (r *RefundGormRepository) CreateRefundLog(ctx context.Context, log *models.RefundLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// BindRefundID only fills an empty refund_id. A webhook that got there first
// already carries the newer status.
func (r *RefundGormRepository) BindRefundID(ctx context.Context, logID, refundID, status string) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefundLog{}).
		Where("id = ? AND refund_id IS NULL", logID).
		Updates(map[string]any{
			"refund_id": refundID,
			"status":    status,
		}).Error
	if isUniqueViolation(err) {
		// the webhook created its own row for this refund first
		return nil
	}
	return err
}

func (r *RefundGormRepository) UpdateRefundLog(ctx context.Context, log *models.RefundLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

var _ paymentuc.RefundStore = (*RefundGormRepository)(nil)
