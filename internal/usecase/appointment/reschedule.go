package appointment

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

type RescheduleInput struct {
	Identity        lifecycle.Identity
	AppointmentID   string
	AppointmentDate string
	StartTime       string
	EndTime         string
	Note            string
}

type RescheduleAppointment struct {
	repo   domain.Repository
	locker SlotLocker
	audit  *audit.Dispatcher
	clock  timezone.Clock
}

func NewRescheduleAppointment(
	repo domain.Repository,
	locker SlotLocker,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *RescheduleAppointment {
	return &RescheduleAppointment{repo: repo, locker: locker, audit: audit, clock: clock}
}

// Execute moves the appointment in place. Status is kept; a conflict leaves
// the stored appointment untouched.
func (uc *RescheduleAppointment) Execute(ctx context.Context, in RescheduleInput) (*models.Appointment, error) {
	ap, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	now := uc.clock()
	loc := now.Location()

	date, err := schedule.ParseDate(in.AppointmentDate, loc)
	if err != nil {
		return nil, err
	}
	iv, err := schedule.ParseInterval(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if !schedule.Combine(date, iv.Start, loc).After(now) {
		return nil, httperr.Invariant("date_in_past", "appointment must start in the future")
	}

	newDate := schedule.FormatDate(date)
	release, err := acquire(ctx, uc.locker, ap.OwnerKey, newDate)
	if err != nil {
		return nil, err
	}
	defer release()

	slot := models.TimeSlot{StartTime: iv.Start.String(), EndTime: iv.End.String()}
	if err := domain.Reschedule(ap, newDate, slot, in.Note, now); err != nil {
		return nil, err
	}

	if err := uc.repo.SaveWithoutConflict(ctx, ap); err != nil {
		return nil, err
	}

	dispatch(uc.audit, ap, in.Identity.OwnerID, "appointment_rescheduled")
	return ap, nil
}
