package appointment

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

type Repository interface {
	// -------- Service --------
	GetService(ctx context.Context, id string) (*models.ServiceOffering, error)

	// -------- Appointment (create / conflict) --------

	// CreateWithoutConflict inserts ap after re-checking the owner's active
	// appointments for the day inside one locked transaction.
	CreateWithoutConflict(ctx context.Context, ap *models.Appointment) error

	// SaveWithoutConflict persists a moved appointment, ignoring ap itself
	// during the re-check.
	SaveWithoutConflict(ctx context.Context, ap *models.Appointment) error

	ListActiveForDay(ctx context.Context, ownerKey, date string) ([]models.Appointment, error)

	// -------- Appointment (state change) --------
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error

	// -------- Lists --------
	ListForUser(ctx context.Context, userID string) ([]models.Appointment, error)
	ListForOwner(ctx context.Context, ownerID, status, date string) ([]models.Appointment, error)

	// CompleteAppointment saves ap and bumps the owner's completed jobs
	// counter atomically.
	CompleteAppointment(ctx context.Context, ap *models.Appointment) error
}
