package ticket

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

type Repository interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	CreatePurchase(ctx context.Context, p *models.TicketPurchase) error
	GetPurchase(ctx context.Context, purchaseID string) (*models.TicketPurchase, error)
}
