package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testSecret = "whsec_test"

type stubSessions struct {
	last *stripe.CheckoutSessionParams
	resp *stripe.CheckoutSession
	err  error
}

func (s *stubSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.last = params
	return s.resp, s.err
}

type stubIntents struct {
	last      *stripe.PaymentIntentParams
	cancelled string
	resp      *stripe.PaymentIntent
	err       error
}

func (s *stubIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.last = params
	return s.resp, s.err
}

func (s *stubIntents) Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	s.cancelled = id
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusCanceled}, s.err
}

type stubRefunds struct {
	last *stripe.RefundParams
	resp *stripe.Refund
	err  error
}

func (s *stubRefunds) New(params *stripe.RefundParams) (*stripe.Refund, error) {
	s.last = params
	return s.resp, s.err
}

func newTestProvider(t *testing.T, sessions *stubSessions, intents *stubIntents, refunds *stubRefunds) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider(StripeProviderConfig{
		WebhookSecret: testSecret,
		Clients: &stripeClients{
			sessions: sessions,
			intents:  intents,
			refunds:  refunds,
		},
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestCreateCheckoutSessionCopiesMetadataToIntent(t *testing.T) {
	sessions := &stubSessions{resp: &stripe.CheckoutSession{
		ID:            "cs_1",
		URL:           "https://checkout.test/cs_1",
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
	}}
	p := newTestProvider(t, sessions, &stubIntents{}, &stubRefunds{})

	got, err := p.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{
		Amount:     3000,
		Currency:   "USD",
		SuccessURL: "https://app.test/ok",
		CancelURL:  "https://app.test/cancel",
		Metadata:   map[string]string{"bookingId": "b-1", "type": "booking_down_payment"},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if got.ID != "cs_1" || got.URL == "" || got.IntentID != "pi_1" {
		t.Fatalf("unexpected session: %+v", got)
	}

	params := sessions.last
	if *params.LineItems[0].PriceData.UnitAmount != 3000 || *params.LineItems[0].PriceData.Currency != "usd" {
		t.Fatalf("unexpected line item: %+v", params.LineItems[0].PriceData)
	}
	if params.Metadata["bookingId"] != "b-1" || params.PaymentIntentData.Metadata["bookingId"] != "b-1" {
		t.Fatalf("metadata not propagated: %+v / %+v", params.Metadata, params.PaymentIntentData.Metadata)
	}
}

func TestCreateCheckoutSessionWrapsErrors(t *testing.T) {
	boom := errors.New("card network down")
	p := newTestProvider(t, &stubSessions{err: boom}, &stubIntents{}, &stubRefunds{})

	_, err := p.CreateCheckoutSession(context.Background(), CheckoutSessionRequest{Amount: 100, Currency: "usd"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCreatePaymentIntentReturnsClientSecret(t *testing.T) {
	intents := &stubIntents{resp: &stripe.PaymentIntent{
		ID:           "pi_due",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		ClientSecret: "pi_due_secret",
	}}
	p := newTestProvider(t, &stubSessions{}, intents, &stubRefunds{})

	got, err := p.CreatePaymentIntent(context.Background(), PaymentIntentRequest{Amount: 7000, Currency: "usd"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if got.ClientSecret != "pi_due_secret" || got.Status != "requires_payment_method" {
		t.Fatalf("unexpected intent: %+v", got)
	}
	if *intents.last.Amount != 7000 {
		t.Fatalf("amount = %d", *intents.last.Amount)
	}
}

func TestCreateRefundMapsReason(t *testing.T) {
	refunds := &stubRefunds{resp: &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusPending}}
	p := newTestProvider(t, &stubSessions{}, &stubIntents{}, refunds)

	got, err := p.CreateRefund(context.Background(), RefundRequest{IntentID: "pi_1", Reason: "requested_by_customer"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got.ID != "re_1" || *refunds.last.PaymentIntent != "pi_1" || *refunds.last.Reason != "requested_by_customer" {
		t.Fatalf("unexpected refund call: %+v", refunds.last)
	}

	if _, err := p.CreateRefund(context.Background(), RefundRequest{IntentID: "pi_1", Reason: "oversold"}); err != nil {
		t.Fatal(err)
	}
	if refunds.last.Reason != nil {
		t.Fatal("unknown reasons must not be forwarded")
	}
}

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	p := newTestProvider(t, &stubSessions{}, &stubIntents{}, &stubRefunds{})

	_, err := p.ParseWebhook([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseWebhookCheckoutSession(t *testing.T) {
	p := newTestProvider(t, &stubSessions{}, &stubIntents{}, &stubRefunds{})

	header, body := signed(t, `{
		"id": "evt_cs",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"payment_intent": "pi_1",
			"payment_status": "paid",
			"metadata": {"appointmentId": "a-1"}
		}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.ID != "evt_cs" || ev.Session == nil {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Session.PaymentIntentID != "pi_1" || ev.Session.PaymentStatus != SessionPaymentStatusPaid || ev.Session.Metadata["appointmentId"] != "a-1" {
		t.Fatalf("unexpected session: %+v", ev.Session)
	}
}

func TestParseWebhookRefund(t *testing.T) {
	p := newTestProvider(t, &stubSessions{}, &stubIntents{}, &stubRefunds{})

	header, body := signed(t, `{
		"id": "evt_rf",
		"object": "event",
		"type": "refund.updated",
		"data": {"object": {
			"id": "re_1",
			"object": "refund",
			"payment_intent": "pi_1",
			"status": "succeeded",
			"amount": 2000
		}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Refund == nil || ev.Refund.ID != "re_1" || ev.Refund.PaymentIntentID != "pi_1" || ev.Refund.Status != "succeeded" {
		t.Fatalf("unexpected refund: %+v", ev.Refund)
	}
}

func TestParseWebhookIgnoresUnhandledObjects(t *testing.T) {
	p := newTestProvider(t, &stubSessions{}, &stubIntents{}, &stubRefunds{})

	header, body := signed(t, `{
		"id": "evt_cust",
		"object": "event",
		"type": "customer.created",
		"data": {"object": {"id": "cus_1", "object": "customer"}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Session != nil || ev.Intent != nil || ev.Refund != nil {
		t.Fatalf("unexpected decoded objects: %+v", ev)
	}
}
