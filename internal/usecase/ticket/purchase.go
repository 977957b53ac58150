package ticket

import (
	"context"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/ticket"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

type PurchaseInput struct {
	Identity lifecycle.Identity
	EventID  string
	Quantity int
}

type PurchaseResult struct {
	Purchase     *models.TicketPurchase `json:"purchase"`
	ClientSecret string                 `json:"client_secret"`
}

type CreatePurchase struct {
	repo     domain.Repository
	payments *paymentuc.Orchestrator
	audit    *audit.Dispatcher
	clock    timezone.Clock
}

func NewCreatePurchase(
	repo domain.Repository,
	payments *paymentuc.Orchestrator,
	audit *audit.Dispatcher,
	clock timezone.Clock,
) *CreatePurchase {
	return &CreatePurchase{repo: repo, payments: payments, audit: audit, clock: clock}
}

// Execute checks the sale window and capacity, opens a payment intent and
// stores the pending purchase. Tickets are only counted once the intent
// succeeds.
func (uc *CreatePurchase) Execute(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	if in.Identity.UserID == "" {
		return nil, httperr.NotAuthorized("only users can buy tickets")
	}

	ev, err := uc.repo.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePurchase(ev, in.Quantity, uc.clock()); err != nil {
		return nil, err
	}

	p := &models.TicketPurchase{
		ID:            uuid.NewString(),
		EventID:       ev.ID,
		UserID:        in.Identity.UserID,
		Quantity:      in.Quantity,
		TotalAmount:   payment.Round2(ev.TicketPrice * float64(in.Quantity)),
		PaymentStatus: string(payment.StatusPending),
	}
	if p.TotalAmount <= 0 {
		return nil, httperr.Invariant("free_event", "free events do not sell tickets through payments")
	}

	intent, err := uc.payments.TicketIntent(ctx, p, ev)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		OwnerID:  ev.EventManagerID,
		ActorID:  p.UserID,
		Action:   "ticket_purchase_created",
		Entity:   "ticket_purchase",
		EntityID: p.ID,
		Metadata: map[string]any{"event_id": ev.ID, "quantity": p.Quantity},
	})

	return &PurchaseResult{Purchase: p, ClientSecret: intent.ClientSecret}, nil
}

type GetPurchase struct {
	repo domain.Repository
}

func NewGetPurchase(repo domain.Repository) *GetPurchase {
	return &GetPurchase{repo: repo}
}

func (uc *GetPurchase) Execute(ctx context.Context, id lifecycle.Identity, purchaseID string) (*models.TicketPurchase, error) {
	p, err := uc.repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(id, lifecycle.ActorUser, p.UserID, ""); err != nil {
		return nil, err
	}
	return p, nil
}
