package booking

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

type TransitionInput struct {
	Identity  lifecycle.Identity
	BookingID string
	Reason    string
}

// load fetches the booking and checks ownership before any transition rule.
func load(
	ctx context.Context,
	repo domain.Repository,
	id lifecycle.Identity,
	actor lifecycle.Actor,
	bookingID string,
) (*models.Booking, error) {
	b, err := repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(id, actor, b.UserID, b.OwnerID); err != nil {
		return nil, err
	}
	return b, nil
}

func dispatch(d *audit.Dispatcher, b *models.Booking, actorID, action string) {
	d.Dispatch(audit.Event{
		OwnerID:  b.OwnerID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "booking",
		EntityID: b.ID,
		Metadata: map[string]string{"booking_status": b.BookingStatus, "payment_status": b.PaymentStatus},
	})
}

// ======================================================
// ACCEPT
// ======================================================

type AcceptResult struct {
	Booking  *models.Booking    `json:"booking"`
	Checkout paymentuc.Checkout `json:"checkout"`
}

type AcceptBooking struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
	clock    timezone.Clock
}

func NewAcceptBooking(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *AcceptBooking {
	return &AcceptBooking{repo: repo, payments: payments, audit: audit, clock: clock}
}

// Execute opens the checkout first and persists confirmed only once the
// provider answered. A provider failure leaves the booking pending.
func (uc *AcceptBooking) Execute(ctx context.Context, in TransitionInput) (*AcceptResult, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Accept(b, uc.clock()); err != nil {
		return nil, err
	}

	checkout, err := uc.payments.BookingCheckout(ctx, b)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_accepted")
	return &AcceptResult{Booking: b, Checkout: checkout}, nil
}

// ======================================================
// REJECT
// ======================================================

type RejectBooking struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
	clock    timezone.Clock
}

func NewRejectBooking(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *RejectBooking {
	return &RejectBooking{repo: repo, payments: payments, audit: audit, clock: clock}
}

func (uc *RejectBooking) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Reject(b, in.Reason, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	uc.payments.CancelIntentBestEffort(ctx, b.PaymentIntentID, b.PaymentIntentStatus)

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_rejected")
	return b, nil
}

// ======================================================
// CANCEL (user)
// ======================================================

type CancelBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewCancelBooking(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *CancelBooking {
	return &CancelBooking{repo: repo, audit: audit, clock: clock}
}

func (uc *CancelBooking) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorUser, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Cancel(b, in.Reason, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.UserID, "booking_cancelled")
	return b, nil
}

// ======================================================
// START
// ======================================================

type StartBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewStartBooking(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *StartBooking {
	return &StartBooking{repo: repo, audit: audit, clock: clock}
}

func (uc *StartBooking) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Start(b, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_started")
	return b, nil
}

// ======================================================
// COMPLETE
// ======================================================

type CompleteBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewCompleteBooking(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *CompleteBooking {
	return &CompleteBooking{repo: repo, audit: audit, clock: clock}
}

func (uc *CompleteBooking) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.Complete(b, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.CompleteBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_completed")
	return b, nil
}
