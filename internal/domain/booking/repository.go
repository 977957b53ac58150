package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

type Repository interface {
	GetService(ctx context.Context, id string) (*models.ServiceOffering, error)

	// HasActiveBooking reports a pending, confirmed or in-progress booking by
	// the same user for the same service and instant.
	HasActiveBooking(
		ctx context.Context,
		userID string,
		serviceID string,
		at time.Time,
	) (bool, error)

	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error

	// CompleteBooking saves b and bumps the owner's completed jobs counter
	// in one transaction.
	CompleteBooking(ctx context.Context, b *models.Booking) error

	ListForUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListForOwner(ctx context.Context, ownerID, status string) ([]models.Booking, error)
}
