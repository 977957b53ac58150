package repository

import (
	"context"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/ticket"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

type TicketGormRepository struct {
	db *gorm.DB
}

func NewTicketGormRepository(db *gorm.DB) *TicketGormRepository {
	return &TicketGormRepository{db: db}
}

func (r *TicketGormRepository) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var ev models.Event
	if err := r.db.WithContext(ctx).First(&ev, "id = ?", eventID).Error; err != nil {
		return nil, notFound(err, "event_not_found", "event not found")
	}
	return &ev, nil
}

func (r *TicketGormRepository) CreatePurchase(ctx context.Context, p *models.TicketPurchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *TicketGormRepository) GetPurchase(ctx context.Context, purchaseID string) (*models.TicketPurchase, error) {
	var p models.TicketPurchase
	if err := r.db.WithContext(ctx).First(&p, "id = ?", purchaseID).Error; err != nil {
		return nil, notFound(err, "purchase_not_found", "ticket purchase not found")
	}
	return &p, nil
}

var _ domain.Repository = (*TicketGormRepository)(nil)
