package booking

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

// ======================================================
// REVIEW
// ======================================================

type ReviewInput struct {
	Identity  lifecycle.Identity
	BookingID string
	Rating    int
	Comment   string
}

type ReviewBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewReviewBooking(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *ReviewBooking {
	return &ReviewBooking{repo: repo, audit: audit, clock: clock}
}

func (uc *ReviewBooking) Execute(ctx context.Context, in ReviewInput) (*models.Booking, error) {
	b, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorUser, in.BookingID)
	if err != nil {
		return nil, err
	}

	if err := domain.AddReview(b, in.Rating, in.Comment, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	dispatch(uc.audit, b, in.Identity.UserID, "booking_reviewed")
	return b, nil
}

// ======================================================
// QUERIES
// ======================================================

type Queries struct {
	repo domain.Repository
}

func NewQueries(repo domain.Repository) *Queries {
	return &Queries{repo: repo}
}

// Get returns a booking to its user or its owner.
func (q *Queries) Get(ctx context.Context, id lifecycle.Identity, bookingID string) (*models.Booking, error) {
	b, err := q.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Authorize(id, lifecycle.ActorUser, b.UserID, b.OwnerID) == nil ||
		lifecycle.Authorize(id, lifecycle.ActorOwner, b.UserID, b.OwnerID) == nil {
		return b, nil
	}
	return nil, httperr.NotAuthorized("caller does not own this booking")
}

func (q *Queries) ListForUser(ctx context.Context, id lifecycle.Identity) ([]models.Booking, error) {
	if id.UserID == "" {
		return nil, httperr.NotAuthorized("user identity required")
	}
	return q.repo.ListForUser(ctx, id.UserID)
}

func (q *Queries) ListForOwner(ctx context.Context, id lifecycle.Identity, status string) ([]models.Booking, error) {
	if id.OwnerID == "" {
		return nil, httperr.NotAuthorized("owner identity required")
	}
	return q.repo.ListForOwner(ctx, id.OwnerID, status)
}
