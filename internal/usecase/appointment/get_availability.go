package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

type GetAvailability struct {
	repo  domain.Repository
	clock timezone.Clock
}

func NewGetAvailability(repo domain.Repository, clock timezone.Clock) *GetAvailability {
	return &GetAvailability{repo: repo, clock: clock}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	serviceID string,
	date string,
) (*domain.Availability, error) {

	svc, err := uc.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.AppointmentEnabled {
		return nil, httperr.Validation("not_appointment_service", "service does not take appointments")
	}

	day, err := schedule.ParseDate(date, uc.clock().Location())
	if err != nil {
		return nil, err
	}
	normalized := schedule.FormatDate(day)

	active, err := uc.repo.ListActiveForDay(ctx, domain.OwnerKey(svc), normalized)
	if err != nil {
		return nil, err
	}

	av := domain.BuildAvailability(svc, normalized, active)
	return &av, nil
}
