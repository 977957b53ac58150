package appointment

import (
	"context"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

type TransitionInput struct {
	Identity      lifecycle.Identity
	AppointmentID string
	Reason        string
}

func load(
	ctx context.Context,
	repo domain.Repository,
	id lifecycle.Identity,
	actor lifecycle.Actor,
	appointmentID string,
) (*models.Appointment, error) {
	ap, err := repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(id, actor, ap.UserID, ap.OwnerID); err != nil {
		return nil, err
	}
	return ap, nil
}

func dispatch(d *audit.Dispatcher, ap *models.Appointment, actorID, action string) {
	d.Dispatch(audit.Event{
		OwnerID:  ap.OwnerID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "appointment",
		EntityID: ap.ID,
		Metadata: map[string]string{
			"appointment_status": ap.AppointmentStatus,
			"appointment_date":   ap.AppointmentDate,
			"start_time":         ap.TimeSlot.StartTime,
		},
	})
}

// ======================================================
// ACCEPT
// ======================================================

type AcceptResult struct {
	Appointment *models.Appointment `json:"appointment"`
	Checkout    paymentuc.Checkout  `json:"checkout"`
}

type AcceptAppointment struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
	clock    timezone.Clock
}

func NewAcceptAppointment(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *AcceptAppointment {
	return &AcceptAppointment{repo: repo, payments: payments, audit: audit, clock: clock}
}

func (uc *AcceptAppointment) Execute(ctx context.Context, in TransitionInput) (*AcceptResult, error) {
	ap, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Accept(ap, uc.clock()); err != nil {
		return nil, err
	}

	checkout, err := uc.payments.AppointmentCheckout(ctx, ap)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	dispatch(uc.audit, ap, in.Identity.OwnerID, "appointment_accepted")
	return &AcceptResult{Appointment: ap, Checkout: checkout}, nil
}

// ======================================================
// REJECT
// ======================================================

type RejectAppointment struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
	clock    timezone.Clock
}

func NewRejectAppointment(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *RejectAppointment {
	return &RejectAppointment{repo: repo, payments: payments, audit: audit, clock: clock}
}

func (uc *RejectAppointment) Execute(ctx context.Context, in TransitionInput) (*models.Appointment, error) {
	ap, err := load(ctx, uc.repo, in.Identity, lifecycle.ActorOwner, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Reject(ap, in.Reason, uc.clock()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.payments.CancelIntentBestEffort(ctx, ap.PaymentIntentID, ap.PaymentIntentStatus)

	dispatch(uc.audit, ap, in.Identity.OwnerID, "appointment_rejected")
	return ap, nil
}

// ======================================================
// SIMPLE TRANSITIONS
// ======================================================

// Transition runs one of the transitions that only stamp the aggregate.
type Transition struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	clock  timezone.Clock
	actor  lifecycle.Actor
	action string
	apply  func(ap *models.Appointment, in TransitionInput, c timezone.Clock) error
	save   func(ctx context.Context, repo domain.Repository, ap *models.Appointment) error
}

func update(ctx context.Context, repo domain.Repository, ap *models.Appointment) error {
	return repo.UpdateAppointment(ctx, ap)
}

func NewCancelAppointment(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *Transition {
	return &Transition{
		repo: repo, audit: audit, clock: clock,
		actor:  lifecycle.ActorUser,
		action: "appointment_cancelled",
		apply: func(ap *models.Appointment, in TransitionInput, c timezone.Clock) error {
			return domain.Cancel(ap, in.Reason, c())
		},
		save: update,
	}
}

func NewStartAppointment(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *Transition {
	return &Transition{
		repo: repo, audit: audit, clock: clock,
		actor:  lifecycle.ActorOwner,
		action: "appointment_started",
		apply: func(ap *models.Appointment, _ TransitionInput, c timezone.Clock) error {
			return domain.Start(ap, c())
		},
		save: update,
	}
}

func NewCompleteAppointment(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *Transition {
	return &Transition{
		repo: repo, audit: audit, clock: clock,
		actor:  lifecycle.ActorOwner,
		action: "appointment_completed",
		apply: func(ap *models.Appointment, _ TransitionInput, c timezone.Clock) error {
			return domain.Complete(ap, c())
		},
		save: func(ctx context.Context, repo domain.Repository, ap *models.Appointment) error {
			return repo.CompleteAppointment(ctx, ap)
		},
	}
}

func NewNoShowAppointment(repo domain.Repository, audit *audit.Dispatcher, clock timezone.Clock) *Transition {
	return &Transition{
		repo: repo, audit: audit, clock: clock,
		actor:  lifecycle.ActorOwner,
		action: "appointment_no_show",
		apply: func(ap *models.Appointment, _ TransitionInput, _ timezone.Clock) error {
			return domain.NoShow(ap)
		},
		save: update,
	}
}

func (uc *Transition) Execute(ctx context.Context, in TransitionInput) (*models.Appointment, error) {
	ap, err := load(ctx, uc.repo, in.Identity, uc.actor, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	if err := uc.apply(ap, in, uc.clock); err != nil {
		return nil, err
	}
	if err := uc.save(ctx, uc.repo, ap); err != nil {
		return nil, err
	}

	actorID := in.Identity.OwnerID
	if uc.actor == lifecycle.ActorUser {
		actorID = in.Identity.UserID
	}
	dispatch(uc.audit, ap, actorID, uc.action)
	return ap, nil
}
