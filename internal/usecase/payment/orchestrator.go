package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingdomain "github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	"github.com/BruksfildServices01/service-marketplace/internal/timezone"
)

// ======================================================
// DEPENDENCIES
// ======================================================

type Settings struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

type RefundStore interface {
	CreateRefundLog(ctx context.Context, log *models.RefundLog) error
	// BindRefundID attaches the provider refund id unless a webhook already did.
	BindRefundID(ctx context.Context, logID, refundID, status string) error
	UpdateRefundLog(ctx context.Context, log *models.RefundLog) error
}

type Orchestrator struct {
	gateway  payments.Gateway
	refunds  RefundStore
	settings Settings
	logger   *zap.Logger
	clock    timezone.Clock
}

func NewOrchestrator(
	gateway payments.Gateway,
	refunds RefundStore,
	settings Settings,
	logger *zap.Logger,
	clock timezone.Clock,
) *Orchestrator {
	if settings.Currency == "" {
		settings.Currency = "usd"
	}
	return &Orchestrator{
		gateway:  gateway,
		refunds:  refunds,
		settings: settings,
		logger:   logger,
		clock:    clock,
	}
}

// Checkout is returned to the owner after acceptance.
type Checkout struct {
	SessionID  string `json:"session_id,omitempty"`
	SessionURL string `json:"session_url,omitempty"`
}

func (o *Orchestrator) checkoutURLs() error {
	if strings.TrimSpace(o.settings.SuccessURL) == "" {
		return httperr.ConfigMissing("STRIPE_CHECKOUT_SUCCESS_URL")
	}
	if strings.TrimSpace(o.settings.CancelURL) == "" {
		return httperr.ConfigMissing("STRIPE_CHECKOUT_CANCEL_URL")
	}
	return nil
}

// ======================================================
// CHECKOUT ON ACCEPT
// ======================================================

// BookingCheckout opens a checkout for the down payment and stamps the session
// on b. Nothing is persisted here.
func (o *Orchestrator) BookingCheckout(ctx context.Context, b *models.Booking) (Checkout, error) {
	if err := o.checkoutURLs(); err != nil {
		return Checkout{}, err
	}

	session, err := o.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionRequest{
		Amount:     domain.ToMinorUnits(b.DownPayment),
		Currency:   o.settings.Currency,
		Name:       b.ServiceSnapshot.Headline,
		SuccessURL: o.settings.SuccessURL,
		CancelURL:  o.settings.CancelURL,
		Metadata: map[string]string{
			b.MetadataKey():       b.ID,
			domain.MetaUserID:     b.UserID,
			domain.MetaProviderID: b.OwnerID,
			domain.MetaType:       domain.TypeBookingDownPayment,
		},
		IdempotencyKey: "booking-checkout-" + b.ID,
	})
	if err != nil {
		return Checkout{}, httperr.ExternalPayment(err)
	}

	b.CheckoutSessionID = session.ID
	b.CheckoutSessionURL = session.URL
	b.PaymentIntentStatus = domain.IntentRequiresPaymentMethod
	if session.IntentID != "" {
		b.PaymentIntentID = session.IntentID
	}

	return Checkout{SessionID: session.ID, SessionURL: session.URL}, nil
}

// AppointmentCheckout charges the full total and records the platform split.
// Free slots need no checkout.
func (o *Orchestrator) AppointmentCheckout(ctx context.Context, ap *models.Appointment) (Checkout, error) {
	ap.PlatformFee, ap.ProviderPayoutFromPayment = domain.PlatformSplit(ap.TotalAmount)

	amount := domain.ToMinorUnits(ap.TotalAmount)
	if amount <= 0 {
		return Checkout{}, nil
	}
	if err := o.checkoutURLs(); err != nil {
		return Checkout{}, err
	}

	session, err := o.gateway.CreateCheckoutSession(ctx, payments.CheckoutSessionRequest{
		Amount:     amount,
		Currency:   o.settings.Currency,
		Name:       ap.ServiceSnapshot.Headline,
		SuccessURL: o.settings.SuccessURL,
		CancelURL:  o.settings.CancelURL,
		Metadata: map[string]string{
			ap.MetadataKey():      ap.ID,
			domain.MetaUserID:     ap.UserID,
			domain.MetaProviderID: ap.OwnerID,
			domain.MetaType:       domain.TypeAppointmentPayment,
		},
		IdempotencyKey: "appointment-checkout-" + ap.ID,
	})
	if err != nil {
		return Checkout{}, httperr.ExternalPayment(err)
	}

	ap.CheckoutSessionID = session.ID
	ap.CheckoutSessionURL = session.URL
	ap.PaymentIntentStatus = domain.IntentRequiresPaymentMethod
	if session.IntentID != "" {
		ap.PaymentIntentID = session.IntentID
	}

	return Checkout{SessionID: session.ID, SessionURL: session.URL}, nil
}

// ======================================================
// DUE PAYMENT
// ======================================================

type DueRequest struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	DueAmount       float64 `json:"due_amount"`
}

// RequestDue creates a direct intent for the outstanding balance of a
// completed booking and marks it due_requested.
func (o *Orchestrator) RequestDue(ctx context.Context, b *models.Booking) (DueRequest, error) {
	if err := bookingdomain.CanRequestDue(b); err != nil {
		return DueRequest{}, err
	}

	due := domain.Round2(b.RemainingAmount)
	intent, err := o.gateway.CreatePaymentIntent(ctx, payments.PaymentIntentRequest{
		Amount:      domain.ToMinorUnits(due),
		Currency:    o.settings.Currency,
		Description: "Balance for " + b.ServiceSnapshot.Headline,
		Metadata: map[string]string{
			b.MetadataKey():       b.ID,
			domain.MetaUserID:     b.UserID,
			domain.MetaProviderID: b.OwnerID,
			domain.MetaType:       domain.TypeBookingDuePayment,
		},
	})
	if err != nil {
		return DueRequest{}, httperr.ExternalPayment(err)
	}

	now := o.clock()
	b.DueAmount = due
	b.DuePaymentIntentID = intent.ID
	b.DuePaymentIntentStatus = intent.Status
	b.PaymentStatus = string(domain.StatusDueRequested)
	b.DueRequestedAt = &now

	return DueRequest{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		DueAmount:       due,
	}, nil
}

// ======================================================
// TICKETS
// ======================================================

type TicketIntent struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

// TicketIntent creates the direct intent paying for a ticket purchase and
// stamps it on p.
func (o *Orchestrator) TicketIntent(ctx context.Context, p *models.TicketPurchase, ev *models.Event) (TicketIntent, error) {
	intent, err := o.gateway.CreatePaymentIntent(ctx, payments.PaymentIntentRequest{
		Amount:      domain.ToMinorUnits(p.TotalAmount),
		Currency:    o.settings.Currency,
		Description: "Tickets for " + ev.Title,
		Metadata: map[string]string{
			domain.MetaEventTicketPurchaseID: p.ID,
			domain.MetaUserID:                p.UserID,
			domain.MetaType:                  domain.TypeEventTicket,
		},
		IdempotencyKey: "ticket-purchase-" + p.ID,
	})
	if err != nil {
		return TicketIntent{}, httperr.ExternalPayment(err)
	}

	p.PaymentIntentID = intent.ID
	p.PaymentIntentStatus = intent.Status

	return TicketIntent{PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// ======================================================
// CANCELLATION SIDE EFFECT
// ======================================================

// CancelIntentBestEffort cancels an uncaptured intent. Failures are logged
// and swallowed.
func (o *Orchestrator) CancelIntentBestEffort(ctx context.Context, intentID, status string) {
	if intentID == "" || status == domain.IntentSucceeded || status == domain.IntentCanceled {
		return
	}
	if err := o.gateway.CancelPaymentIntent(ctx, intentID); err != nil {
		o.logger.Warn("cancel payment intent failed",
			zap.String("payment_intent", intentID),
			zap.Error(err),
		)
	}
}

// ======================================================
// REFUNDS
// ======================================================

type RefundInput struct {
	PaymentIntentID string
	Amount          *float64
	Reason          string
	Metadata        map[string]string
}

// RequestRefund records a requested refund before calling the provider so the
// webhook can attach to it even if it arrives first.
func (o *Orchestrator) RequestRefund(ctx context.Context, in RefundInput) (*models.RefundLog, error) {
	if strings.TrimSpace(in.PaymentIntentID) == "" {
		return nil, httperr.Validation("payment_intent_required", "payment_intent_id is required")
	}
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, httperr.Validation("invalid_amount", "refund amount must be positive")
	}

	meta := map[string]string{domain.MetaType: domain.TypeRefund}
	for k, v := range in.Metadata {
		meta[k] = v
	}

	log := &models.RefundLog{
		ID:              uuid.NewString(),
		PaymentIntentID: in.PaymentIntentID,
		Reason:          in.Reason,
		Status:          string(domain.RefundRequested),
		Metadata:        meta,
	}
	var minor *int64
	if in.Amount != nil {
		log.Amount = domain.Round2(*in.Amount)
		v := domain.ToMinorUnits(*in.Amount)
		minor = &v
	}

	if err := o.refunds.CreateRefundLog(ctx, log); err != nil {
		return nil, err
	}

	refund, err := o.gateway.CreateRefund(ctx, payments.RefundRequest{
		IntentID:       in.PaymentIntentID,
		Amount:         minor,
		Reason:         in.Reason,
		Metadata:       meta,
		IdempotencyKey: "refund-" + log.ID,
	})
	if err != nil {
		log.Status = string(domain.RefundFailed)
		log.StripeError = err.Error()
		if uerr := o.refunds.UpdateRefundLog(ctx, log); uerr != nil {
			o.logger.Error("record refund failure", zap.String("refund_log", log.ID), zap.Error(uerr))
		}
		return log, httperr.ExternalPayment(err)
	}

	status := string(domain.NormalizeRefundStatus(refund.Status))
	if err := o.refunds.BindRefundID(ctx, log.ID, refund.ID, status); err != nil {
		return nil, err
	}
	log.RefundID = &refund.ID
	log.Status = status

	o.logger.Info("refund requested",
		zap.String("refund_log", log.ID),
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent", in.PaymentIntentID),
	)
	return log, nil
}
