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

// ======================================================
// REQUEST DUE
// ======================================================

type DueResult struct {
	Booking      *models.Booking `json:"booking"`
	ClientSecret string          `json:"client_secret"`
	DueAmount    float64         `json:"due_amount"`
}

type RequestDuePayment struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
}

func NewRequestDuePayment(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
) *RequestDuePayment {
	return &RequestDuePayment{repo: repo, payments: payments, audit: audit}
}

func (uc *RequestDuePayment) Execute(ctx context.Context, in TransitionInput) (*DueResult, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	due, err := uc.payments.RequestDue(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_due_requested")
	return &DueResult{Booking: b, ClientSecret: due.ClientSecret, DueAmount: due.DueAmount}, nil
}

// ======================================================
// MARK OFFLINE PAID
// ======================================================

type MarkOfflinePaid struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewMarkOfflinePaid(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *MarkOfflinePaid {
	return &MarkOfflinePaid{repo: repo, audit: audit, clock: clock}
}

func (uc *MarkOfflinePaid) Execute(ctx context.Context, in TransitionInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.MarkOfflinePaid(b, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.OwnerID, "booking_offline_paid")
	return b, nil
}
