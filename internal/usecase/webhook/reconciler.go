package webhook

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/ticket"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

// ErrInvalidSignature is returned when the payload was not signed with the
// configured webhook secret.
var ErrInvalidSignature = payments.ErrInvalidSignature

type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeReplayed Outcome = "replayed"
	OutcomeIgnored  Outcome = "ignored"
)

type Refunder interface {
	RequestRefund(ctx context.Context, in paymentuc.RefundInput) (*models.RefundLog, error)
}

type Archiver interface {
	Archive(ctx context.Context, eventID string, payload []byte) error
}

type Reconciler struct {
	verifier payments.WebhookVerifier
	store    Store
	refunder Refunder
	archive  Archiver
	audit    *audit.Dispatcher
	logger   *zap.Logger
	clock    timezone.Clock
}

type Option func(*Reconciler)

func WithArchiver(a Archiver) Option {
	return func(r *Reconciler) { r.archive = a }
}

func WithAudit(d *audit.Dispatcher) Option {
	return func(r *Reconciler) { r.audit = d }
}

func NewReconciler(
	verifier payments.WebhookVerifier,
	store Store,
	refunder Refunder,
	logger *zap.Logger,
	clock timezone.Clock,
	opts ...Option,
) *Reconciler {
	r := &Reconciler{
		verifier: verifier,
		store:    store,
		refunder: refunder,
		logger:   logger,
		clock:    clock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// change is an effect worth announcing once the transaction committed.
type change struct {
	ownerID  string
	entity   string
	entityID string
	status   string
}

// oversold is a purchase that needs its money returned after commit.
type oversold struct {
	purchaseID string
	intentID   string
	amount     float64
}

type applyState struct {
	changes  []change
	oversold []oversold
}

// ======================================================
// HANDLE
// ======================================================

// Handle verifies and applies one provider delivery. The payload must be the
// untouched request body.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	ev, err := r.verifier.ParseWebhook(payload, signature)
	if err != nil {
		return "", err
	}

	if r.archive != nil {
		if aerr := r.archive.Archive(ctx, ev.ID, payload); aerr != nil {
			r.logger.Warn("webhook archive failed", zap.String("event_id", ev.ID), zap.Error(aerr))
		}
	}

	return r.Apply(ctx, ev)
}

// Apply runs the effects of ev exactly once per event id.
func (r *Reconciler) Apply(ctx context.Context, ev payments.WebhookEvent) (Outcome, error) {
	if ev.ID == "" {
		return "", errors.New("webhook: event id missing")
	}

	now := r.clock()
	outcome := OutcomeIgnored
	state := &applyState{}

	err := r.store.Transact(ctx, func(tx Tx) error {
		fresh, err := tx.MarkProcessed(ctx, ev.ID, ev.Type, now)
		if err != nil {
			return err
		}
		if !fresh {
			outcome = OutcomeReplayed
			return nil
		}

		handled, err := r.dispatch(ctx, tx, ev, state)
		if err != nil {
			return err
		}
		if handled {
			outcome = OutcomeApplied
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("webhook %s (%s): %w", ev.ID, ev.Type, err)
	}

	r.logger.Info("stripe webhook processed",
		zap.String("event_id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("outcome", string(outcome)),
	)

	r.afterCommit(ctx, ev, state)
	return outcome, nil
}

func (r *Reconciler) afterCommit(ctx context.Context, ev payments.WebhookEvent, state *applyState) {
	for _, c := range state.changes {
		r.audit.Dispatch(audit.Event{
			OwnerID:  c.ownerID,
			ActorID:  "stripe",
			Action:   "payment_updated",
			Entity:   c.entity,
			EntityID: c.entityID,
			Metadata: map[string]string{"event_id": ev.ID, "event_type": ev.Type, "payment_status": c.status},
		})
	}

	for _, o := range state.oversold {
		r.logger.Error("ticket purchase oversold",
			zap.String("purchase_id", o.purchaseID),
			zap.String("payment_intent", o.intentID),
		)
		if r.refunder == nil || o.intentID == "" {
			continue
		}
		amount := o.amount
		_, err := r.refunder.RequestRefund(ctx, paymentuc.RefundInput{
			PaymentIntentID: o.intentID,
			Amount:          &amount,
			Reason:          ticket.FailureOversold,
			Metadata:        map[string]string{payment.MetaEventTicketPurchaseID: o.purchaseID},
		})
		if err != nil {
			r.logger.Error("oversold refund failed", zap.String("purchase_id", o.purchaseID), zap.Error(err))
		}
	}
}

func (r *Reconciler) dispatch(ctx context.Context, tx Tx, ev payments.WebhookEvent, st *applyState) (bool, error) {
	switch ev.Type {
	case payments.EventCheckoutSessionCompleted:
		if ev.Session == nil || ev.Session.PaymentStatus != payments.SessionPaymentStatusPaid {
			return false, nil
		}
		return r.sessionCompleted(ctx, tx, ev.Session, st)

	case payments.EventIntentAmountCapturable,
		payments.EventIntentSucceeded,
		payments.EventIntentPaymentFailed,
		payments.EventIntentCanceled:
		if ev.Intent == nil {
			return false, nil
		}
		return r.intentChanged(ctx, tx, ev.Type, ev.Intent, st)

	case payments.EventRefundCreated,
		payments.EventRefundUpdated,
		payments.EventRefundFailed,
		payments.EventChargeRefundUpdated:
		if ev.Refund == nil {
			return false, nil
		}
		return r.refundChanged(ctx, tx, ev.Refund)
	}
	return false, nil
}

func metaValue(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}

func bookingLookup(intentID, sessionID string, meta map[string]string) Lookup {
	return Lookup{
		IntentID:   intentID,
		SessionID:  sessionID,
		MetadataID: metaValue(meta, payment.MetaBookingID, payment.MetaBusinessOwnerBookingID),
	}
}

func appointmentLookup(intentID, sessionID string, meta map[string]string) Lookup {
	return Lookup{
		IntentID:   intentID,
		SessionID:  sessionID,
		MetadataID: metaValue(meta, payment.MetaAppointmentID, payment.MetaBusinessOwnerAppointmentID),
	}
}

func purchaseLookup(intentID string, meta map[string]string) Lookup {
	return Lookup{
		IntentID:   intentID,
		MetadataID: metaValue(meta, payment.MetaEventTicketPurchaseID),
	}
}
