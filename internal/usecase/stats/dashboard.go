package stats

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/stats"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

type BookingSource interface {
	ListForOwner(ctx context.Context, ownerID, status string) ([]models.Booking, error)
}

type AppointmentSource interface {
	ListForOwner(ctx context.Context, ownerID, status, date string) ([]models.Appointment, error)
}

type GetDashboard struct {
	bookings     BookingSource
	appointments AppointmentSource
	clock        timezone.Clock
}

func NewGetDashboard(bookings BookingSource, appointments AppointmentSource, clock timezone.Clock) *GetDashboard {
	return &GetDashboard{bookings: bookings, appointments: appointments, clock: clock}
}

func (uc *GetDashboard) Execute(ctx context.Context, id lifecycle.Identity) (*domain.Dashboard, error) {
	if id.OwnerID == "" {
		return nil, httperr.NotAuthorized("owner identity required")
	}

	bookings, err := uc.bookings.ListForOwner(ctx, id.OwnerID, "")
	if err != nil {
		return nil, err
	}
	appointments, err := uc.appointments.ListForOwner(ctx, id.OwnerID, "", "")
	if err != nil {
		return nil, err
	}

	d := domain.Compute(bookings, appointments, uc.clock())
	return &d, nil
}
