package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/catalog"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

// SlotLocker serialises reservations on one owner calendar day.
type SlotLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func lockKey(ownerKey, date string) string {
	return "slot:" + ownerKey + "|" + date
}

func acquire(ctx context.Context, locker SlotLocker, ownerKey, date string) (func(), error) {
	release, err := locker.Acquire(ctx, lockKey(ownerKey, date))
	if err != nil {
		return nil, httperr.BusinessError{
			Kind:    httperr.KindConflict,
			Code:    "slot_busy",
			Message: "calendar is being updated, retry shortly",
			Err:     err,
		}
	}
	return release, nil
}

// ======================================================
// INPUT
// ======================================================

type CreateAppointmentInput struct {
	Identity  lifecycle.Identity
	OwnerKind string

	ServiceID       string
	SlotID          string
	AppointmentDate string
	StartTime       string
	EndTime         string
	DownPayment     float64
	Notes           string
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	repo   domain.Repository
	locker SlotLocker
	audit  *audit.Dispatcher
	clock  timezone.Clock
}

func NewCreateAppointment(
	repo domain.Repository,
	locker SlotLocker,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *CreateAppointment {
	return &CreateAppointment{
		repo:   repo,
		locker: locker,
		audit:  audit,
		clock:  clock,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	if in.Identity.UserID == "" {
		return nil, httperr.NotAuthorized("only users can book appointments")
	}

	// --------------------------------------------------
	// Service and slot template
	// --------------------------------------------------
	svc, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, httperr.Validation("service_inactive", "service is not active")
	}
	if svc.OwnerKind != in.OwnerKind {
		return nil, httperr.Validation("service_owner_mismatch", "service is not offered through this route")
	}
	if !svc.AppointmentEnabled {
		return nil, httperr.Validation("not_appointment_service", "service does not take appointments")
	}
	if err := catalog.Validate(svc); err != nil {
		return nil, err
	}

	slot, err := catalog.FindSlot(svc, in.SlotID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Date and interval in the business location
	// --------------------------------------------------
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

	total := slot.Price
	if in.DownPayment < 0 || payment.ToMinorUnits(in.DownPayment) > payment.ToMinorUnits(total) {
		return nil, httperr.Validation("invalid_down_payment", "down payment must be between 0 and the total")
	}

	ap := &models.Appointment{
		ID:              uuid.NewString(),
		UserID:          in.Identity.UserID,
		ServiceID:       svc.ID,
		OwnerKind:       svc.OwnerKind,
		OwnerID:         svc.OwnerID,
		EmployeeID:      svc.EmployeeID,
		OwnerKey:        domain.OwnerKey(svc),
		AppointmentDate: schedule.FormatDate(date),
		TimeSlot: models.TimeSlot{
			StartTime: iv.Start.String(),
			EndTime:   iv.End.String(),
		},
		SelectedSlot:      slot,
		ServiceSnapshot:   catalog.SnapshotForAppointment(svc, slot),
		TotalAmount:       total,
		DownPayment:       payment.Round2(in.DownPayment),
		PaymentStatus:     string(payment.StatusPending),
		AppointmentStatus: string(domain.InitialStatus()),
		Notes:             strings.TrimSpace(in.Notes),
	}

	// --------------------------------------------------
	// Reserve the slot
	// --------------------------------------------------
	release, err := acquire(ctx, uc.locker, ap.OwnerKey, ap.AppointmentDate)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := uc.repo.CreateWithoutConflict(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		OwnerID:  ap.OwnerID,
		ActorID:  ap.UserID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: ap.ID,
	})

	return ap, nil
}
