package appointment

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/dto"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

// ======================================================
// REVIEW
// ======================================================

type ReviewInput struct {
	Identity      lifecycle.Identity
	AppointmentID string
	Rating        int
	Comment       string
}

type ReviewAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock timezone.Clock
}

func NewReviewAppointment(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *ReviewAppointment {
	return &ReviewAppointment{repo: repo, audit: audit, clock: clock}
}

func (uc *ReviewAppointment) Execute(ctx context.Context, in ReviewInput) (*models.Appointment, error) {
	ap, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorUser, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.AddReview(ap, in.Rating, in.Comment, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	dispatch(uc.audit, ap, in.Identity.UserID, "appointment_reviewed")
	return ap, nil
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

func (q *Queries) Get(ctx context.Context, id lifecycle.Identity, appointmentID string) (*models.Appointment, error) {
	ap, err := q.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Authorize(id, lifecycle.ActorUser, ap.UserID, ap.OwnerID) == nil ||
		lifecycle.Authorize(id, lifecycle.ActorOwner, ap.UserID, ap.OwnerID) == nil {
		return ap, nil
	}
	return nil, httperr.NotAuthorized("caller does not own this appointment")
}

func (q *Queries) ListForUser(ctx context.Context, id lifecycle.Identity) ([]models.Appointment, error) {
	if id.UserID == "" {
		return nil, httperr.NotAuthorized("user identity required")
	}
	return q.repo.ListForUser(ctx, id.UserID)
}

// ListForOwner returns the owner's calendar, optionally narrowed to one status
// or one date.
func (q *Queries) ListForOwner(
	ctx context.Context,
	id lifecycle.Identity,
	status string,
	date string,
) ([]dto.AppointmentListDTO, error) {
	if id.OwnerID == "" {
		return nil, httperr.NotAuthorized("owner identity required")
	}

	appointments, err := q.repo.ListForOwner(ctx, id.OwnerID, status, date)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		out = append(out, dto.FromAppointment(ap))
	}
	return out, nil
}
