package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/catalog"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	Identity lifecycle.Identity

	// OwnerKind is fixed by the route: provider services or employee
	// services of a business owner.
	OwnerKind string

	ServiceID   string
	BookingDate time.Time
	DownPayment float64
	Notes       string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewCreateBooking(
	repo domain.Repository,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *CreateBooking {
	return &CreateBooking{
		repo:  repo,
		audit: audit,
		clock: clock,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*models.Booking, error) {

	if in.Identity.UserID == "" {
		return nil, httperr.NotAuthorized("only users can book services")
	}

	// --------------------------------------------------
	// Service
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
	if svc.AppointmentEnabled {
		return nil, httperr.Validation("appointment_service", "service takes appointments, not bookings")
	}
	if err := catalog.Validate(svc); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Date and amounts
	// --------------------------------------------------
	now := uc.clock()
	if in.BookingDate.IsZero() {
		return nil, httperr.Validation("invalid_date", "booking_date is required")
	}
	if !in.BookingDate.After(now) {
		return nil, httperr.Invariant("date_in_past", "booking_date must be in the future")
	}

	total := svc.BasePrice
	if err := domain.ValidateDownPayment(in.DownPayment, total); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Duplicate request
	// --------------------------------------------------
	dup, err := uc.repo.HasActiveBooking(ctx, in.Identity.UserID, svc.ID, in.BookingDate)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, httperr.Conflict("duplicate_booking", "an active booking already exists for this service and date")
	}

	b := &models.Booking{
		ID:              uuid.NewString(),
		UserID:          in.Identity.UserID,
		ServiceID:       svc.ID,
		OwnerKind:       svc.OwnerKind,
		OwnerID:         svc.OwnerID,
		EmployeeID:      svc.EmployeeID,
		BookingDate:     in.BookingDate.UTC(),
		ServiceSnapshot: catalog.SnapshotForBooking(svc),
		TotalAmount:     total,
		DownPayment:     payment.Round2(in.DownPayment),
		PaymentStatus:   string(payment.StatusPending),
		BookingStatus:   string(domain.InitialStatus()),
		Notes:           strings.TrimSpace(in.Notes),
	}
	b.ApplyPaymentInvariants()

	if err := uc.repo.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		OwnerID:  b.OwnerID,
		ActorID:  b.UserID,
		Action:   "booking_created",
		Entity:   "booking",
		EntityID: b.ID,
	})

	return b, nil
}
