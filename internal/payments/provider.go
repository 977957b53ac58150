package payments

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("payments: invalid webhook signature")

// Gateway is the outbound side of the payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
	CreateRefund(ctx context.Context, req RefundRequest) (Refund, error)
}

// WebhookVerifier authenticates and decodes inbound provider events.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}

// CheckoutSessionRequest describes a single-item hosted checkout. Amount is in
// the smallest currency unit.
type CheckoutSessionRequest struct {
	Amount         int64
	Currency       string
	Name           string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID       string
	URL      string
	IntentID string
}

type PaymentIntentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
}

type RefundRequest struct {
	IntentID       string
	Amount         *int64
	Reason         string
	Metadata       map[string]string
	IdempotencyKey string
}

type Refund struct {
	ID     string
	Status string
}

// Event types consumed by the reconciler.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventIntentAmountCapturable   = "payment_intent.amount_capturable_updated"
	EventIntentSucceeded          = "payment_intent.succeeded"
	EventIntentPaymentFailed      = "payment_intent.payment_failed"
	EventIntentCanceled           = "payment_intent.canceled"
	EventRefundCreated            = "refund.created"
	EventRefundUpdated            = "refund.updated"
	EventRefundFailed             = "refund.failed"
	EventChargeRefundUpdated      = "charge.refund.updated"
)

const SessionPaymentStatusPaid = "paid"

// WebhookEvent is a verified provider event reduced to the fields the
// reconciler reads. Exactly one of Session, Intent or Refund is set for the
// handled types.
type WebhookEvent struct {
	ID   string
	Type string

	Session *SessionObject
	Intent  *IntentObject
	Refund  *RefundObject
}

type SessionObject struct {
	ID              string
	PaymentIntentID string
	PaymentStatus   string
	Metadata        map[string]string
}

type IntentObject struct {
	ID       string
	Status   string
	Metadata map[string]string
}

type RefundObject struct {
	ID              string
	PaymentIntentID string
	Status          string
	Amount          int64
	FailureReason   string
	Metadata        map[string]string
}
