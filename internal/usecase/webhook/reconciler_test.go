package webhook

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	ucBooking "github.com/BruksfildServices01/service-marketplace/internal/usecase/booking"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

var now = time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// ======================================================
// IN-MEMORY STORE
// ======================================================

type memStore struct {
	processed    map[string]bool
	bookings     map[string]*models.Booking
	appointments map[string]*models.Appointment
	purchases    map[string]*models.TicketPurchase
	events       map[string]*models.Event
	refunds      map[string]*models.RefundLog
	failOn       string
}

func newMemStore() *memStore {
	return &memStore{
		processed:    map[string]bool{},
		bookings:     map[string]*models.Booking{},
		appointments: map[string]*models.Appointment{},
		purchases:    map[string]*models.TicketPurchase{},
		events:       map[string]*models.Event{},
		refunds:      map[string]*models.RefundLog{},
	}
}

func (m *memStore) Transact(_ context.Context, fn func(tx Tx) error) error {
	return fn(m)
}

func (m *memStore) MarkProcessed(_ context.Context, id, _ string, _ time.Time) (bool, error) {
	if m.processed[id] {
		return false, nil
	}
	m.processed[id] = true
	return true, nil
}

func (m *memStore) FindBooking(_ context.Context, l Lookup) (*models.Booking, error) {
	for _, b := range m.bookings {
		if l.IntentID != "" && (b.PaymentIntentID == l.IntentID || b.DuePaymentIntentID == l.IntentID) {
			cp := *b
			return &cp, nil
		}
	}
	for _, b := range m.bookings {
		if (l.SessionID != "" && b.CheckoutSessionID == l.SessionID) || (l.MetadataID != "" && b.ID == l.MetadataID) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveBooking(_ context.Context, b *models.Booking) error {
	b.ApplyPaymentInvariants()
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) FindAppointment(_ context.Context, l Lookup) (*models.Appointment, error) {
	for _, ap := range m.appointments {
		if (l.IntentID != "" && ap.PaymentIntentID == l.IntentID) ||
			(l.SessionID != "" && ap.CheckoutSessionID == l.SessionID) ||
			(l.MetadataID != "" && ap.ID == l.MetadataID) {
			cp := *ap
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveAppointment(_ context.Context, ap *models.Appointment) error {
	ap.ApplyPaymentInvariants()
	cp := *ap
	m.appointments[ap.ID] = &cp
	return nil
}

func (m *memStore) FindPurchase(_ context.Context, l Lookup) (*models.TicketPurchase, error) {
	for _, p := range m.purchases {
		if (l.IntentID != "" && p.PaymentIntentID == l.IntentID) || (l.MetadataID != "" && p.ID == l.MetadataID) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SavePurchase(_ context.Context, p *models.TicketPurchase) error {
	cp := *p
	m.purchases[p.ID] = &cp
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (m *memStore) CreditTickets(_ context.Context, id string, qty int) (bool, error) {
	ev := m.events[id]
	if ev.TicketsSold+qty > ev.MaximumNumberOfTickets {
		return false, nil
	}
	ev.TicketsSold += qty
	return true, nil
}

func (m *memStore) FindRefund(_ context.Context, refundID, intentID string) (*models.RefundLog, error) {
	for _, r := range m.refunds {
		if r.RefundID != nil && *r.RefundID == refundID {
			cp := *r
			return &cp, nil
		}
	}
	var newest *models.RefundLog
	for _, r := range m.refunds {
		if r.RefundID != nil || r.PaymentIntentID != intentID || (r.Status != "requested" && r.Status != "pending") {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (m *memStore) SaveRefund(_ context.Context, log *models.RefundLog) error {
	if m.failOn == "refund" {
		return errors.New("db down")
	}
	cp := *log
	m.refunds[log.ID] = &cp
	return nil
}

func (m *memStore) refundedThrough(intentIDs ...string) float64 {
	var sum float64
	for _, r := range m.refunds {
		if r.Status == "succeeded" && slices.Contains(intentIDs, r.PaymentIntentID) {
			sum += r.Amount
		}
	}
	return sum
}

func (m *memStore) MarkRefunded(_ context.Context, intentID string) error {
	for _, b := range m.bookings {
		if (b.PaymentIntentID == intentID || b.DuePaymentIntentID == intentID) &&
			payment.FullyRefunded(m.refundedThrough(b.PaymentIntentID, b.DuePaymentIntentID), b.ChargedOnline()) {
			b.PaymentStatus = "refunded"
		}
	}
	for _, ap := range m.appointments {
		if ap.PaymentIntentID == intentID && payment.FullyRefunded(m.refundedThrough(intentID), ap.TotalAmount) {
			ap.PaymentStatus = "refunded"
		}
	}
	for _, p := range m.purchases {
		if p.PaymentIntentID == intentID && payment.FullyRefunded(m.refundedThrough(intentID), p.TotalAmount) {
			p.PaymentStatus = "refunded"
		}
	}
	return nil
}

type stubRefunder struct {
	calls []paymentuc.RefundInput
}

func (s *stubRefunder) RequestRefund(_ context.Context, in paymentuc.RefundInput) (*models.RefundLog, error) {
	s.calls = append(s.calls, in)
	return &models.RefundLog{}, nil
}

type stubVerifier struct {
	ev  payments.WebhookEvent
	err error
}

func (v stubVerifier) ParseWebhook([]byte, string) (payments.WebhookEvent, error) {
	return v.ev, v.err
}

type stubArchiver struct {
	keys []string
	err  error
}

func (a *stubArchiver) Archive(_ context.Context, id string, _ []byte) error {
	a.keys = append(a.keys, id)
	return a.err
}

func newReconciler(store *memStore, refunder Refunder) *Reconciler {
	return NewReconciler(stubVerifier{}, store, refunder, zap.NewNop(), clock)
}

func intentEvent(id, typ, intentID, status string, meta map[string]string) payments.WebhookEvent {
	return payments.WebhookEvent{
		ID:     id,
		Type:   typ,
		Intent: &payments.IntentObject{ID: intentID, Status: status, Metadata: meta},
	}
}

// ======================================================
// TICKETS
// ======================================================

func seedTicketSale(m *memStore) {
	m.events["E"] = &models.Event{ID: "E", MaximumNumberOfTickets: 10, TicketsSold: 8, ConfirmationCodePrefix: "gala"}
	m.purchases["P"] = &models.TicketPurchase{
		ID: "P", EventID: "E", UserID: "user-1", Quantity: 2, TotalAmount: 40,
		PaymentIntentID: "PI", PaymentStatus: "pending",
	}
}

func TestTicketReplayCreditsOnce(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	r := newReconciler(store, &stubRefunder{})

	ev := intentEvent("evt_1", payments.EventIntentSucceeded, "PI", "succeeded", nil)

	out, err := r.Apply(context.Background(), ev)
	if err != nil || out != OutcomeApplied {
		t.Fatalf("first delivery: %v %v", out, err)
	}
	if store.events["E"].TicketsSold != 10 || store.purchases["P"].PaymentStatus != "completed" {
		t.Fatalf("after first: sold=%d status=%s", store.events["E"].TicketsSold, store.purchases["P"].PaymentStatus)
	}
	code := store.purchases["P"].ConfirmationCode
	if len(code) != len("GALA-")+8 || code[:5] != "GALA-" {
		t.Fatalf("confirmation code = %q", code)
	}

	out, err = r.Apply(context.Background(), ev)
	if err != nil || out != OutcomeReplayed {
		t.Fatalf("replay: %v %v", out, err)
	}
	if store.events["E"].TicketsSold != 10 || store.purchases["P"].PaymentStatus != "completed" {
		t.Fatal("replay changed state")
	}
}

func TestTicketNewEventSameIntentDoesNotRecredit(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	r := newReconciler(store, &stubRefunder{})

	for _, id := range []string{"evt_1", "evt_2"} {
		if _, err := r.Apply(context.Background(), intentEvent(id, payments.EventIntentSucceeded, "PI", "succeeded", nil)); err != nil {
			t.Fatal(err)
		}
	}
	if store.events["E"].TicketsSold != 10 {
		t.Fatalf("tickets sold = %d", store.events["E"].TicketsSold)
	}
}

func TestTicketOversoldFailsAndRefunds(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	store.events["E"].TicketsSold = 9
	refunder := &stubRefunder{}
	r := newReconciler(store, refunder)

	if _, err := r.Apply(context.Background(), intentEvent("evt_1", payments.EventIntentSucceeded, "PI", "succeeded", nil)); err != nil {
		t.Fatal(err)
	}

	p := store.purchases["P"]
	if p.PaymentStatus != "failed" || p.FailureReason != "oversold" || p.TicketsCredited {
		t.Fatalf("unexpected purchase: %+v", p)
	}
	if store.events["E"].TicketsSold != 9 {
		t.Fatal("capacity exceeded")
	}
	if len(refunder.calls) != 1 || refunder.calls[0].PaymentIntentID != "PI" || *refunder.calls[0].Amount != 40 {
		t.Fatalf("refund not requested: %+v", refunder.calls)
	}
}

func TestTicketFailedIntentMarksPurchaseFailed(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), intentEvent("evt_1", payments.EventIntentPaymentFailed, "PI", "requires_payment_method", nil)); err != nil {
		t.Fatal(err)
	}
	if store.purchases["P"].PaymentStatus != "failed" {
		t.Fatalf("status = %s", store.purchases["P"].PaymentStatus)
	}
}

func TestTicketRetryAfterDeclineCredits(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	refunder := &stubRefunder{}
	r := newReconciler(store, refunder)

	if _, err := r.Apply(context.Background(), intentEvent("evt_1", payments.EventIntentPaymentFailed, "PI", "requires_payment_method", nil)); err != nil {
		t.Fatal(err)
	}
	if p := store.purchases["P"]; p.PaymentStatus != "failed" || p.FailureReason != "declined" {
		t.Fatalf("after decline: %+v", p)
	}

	if _, err := r.Apply(context.Background(), intentEvent("evt_2", payments.EventIntentSucceeded, "PI", "succeeded", nil)); err != nil {
		t.Fatal(err)
	}
	p := store.purchases["P"]
	if p.PaymentStatus != "completed" || !p.TicketsCredited || p.FailureReason != "" || p.ConfirmationCode == "" {
		t.Fatalf("retry not credited: %+v", p)
	}
	if store.events["E"].TicketsSold != 10 {
		t.Fatalf("tickets sold = %d", store.events["E"].TicketsSold)
	}
	if len(refunder.calls) != 0 {
		t.Fatalf("unexpected refunds: %+v", refunder.calls)
	}
}

// ======================================================
// BOOKINGS AND APPOINTMENTS
// ======================================================

func TestCheckoutCompletedSettlesAppointment(t *testing.T) {
	store := newMemStore()
	store.appointments["A"] = &models.Appointment{
		ID: "A", OwnerID: "prov-1", TotalAmount: 50, RemainingAmount: 50,
		PaymentStatus: "pending", AppointmentStatus: "confirmed",
		CheckoutSessionID: "cs_a", PaymentIntentStatus: "requires_payment_method",
	}
	r := newReconciler(store, nil)

	_, err := r.Apply(context.Background(), payments.WebhookEvent{
		ID:   "evt_cs",
		Type: payments.EventCheckoutSessionCompleted,
		Session: &payments.SessionObject{
			ID: "cs_a", PaymentIntentID: "pi_a", PaymentStatus: payments.SessionPaymentStatusPaid,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ap := store.appointments["A"]
	if ap.PaymentStatus != "completed" || ap.PaidVia != "online" || ap.RemainingAmount != 0 || ap.PaidAt == nil {
		t.Fatalf("unexpected appointment: %+v", ap)
	}
	if ap.PaymentIntentID != "pi_a" || ap.PaymentIntentStatus != "succeeded" {
		t.Fatalf("intent not stamped: %+v", ap)
	}
}

func TestUnpaidCheckoutSessionIgnored(t *testing.T) {
	store := newMemStore()
	store.appointments["A"] = &models.Appointment{ID: "A", TotalAmount: 50, PaymentStatus: "pending", CheckoutSessionID: "cs_a"}
	r := newReconciler(store, nil)

	out, err := r.Apply(context.Background(), payments.WebhookEvent{
		ID: "evt_cs", Type: payments.EventCheckoutSessionCompleted,
		Session: &payments.SessionObject{ID: "cs_a", PaymentStatus: "unpaid"},
	})
	if err != nil || out != OutcomeIgnored {
		t.Fatalf("out=%v err=%v", out, err)
	}
	if store.appointments["A"].PaymentStatus != "pending" {
		t.Fatal("unpaid session must not settle")
	}
}

// createdBookings backs the booking create use case so seeded bookings carry
// exactly what create persists.
type createdBookings struct {
	svc     *models.ServiceOffering
	created *models.Booking
}

func (r *createdBookings) GetService(context.Context, string) (*models.ServiceOffering, error) {
	cp := *r.svc
	return &cp, nil
}

func (r *createdBookings) HasActiveBooking(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}

func (r *createdBookings) CreateBooking(_ context.Context, b *models.Booking) error {
	r.created = b
	return nil
}

func (r *createdBookings) GetBooking(context.Context, string) (*models.Booking, error) {
	return r.created, nil
}

func (r *createdBookings) UpdateBooking(context.Context, *models.Booking) error   { return nil }
func (r *createdBookings) CompleteBooking(context.Context, *models.Booking) error { return nil }

func (r *createdBookings) ListForUser(context.Context, string) ([]models.Booking, error) {
	return nil, nil
}

func (r *createdBookings) ListForOwner(context.Context, string, string) ([]models.Booking, error) {
	return nil, nil
}

// seedBooking creates a 100.00 booking with a 30.00 down payment and then
// stamps what accept stores: confirmed plus the checkout session.
func seedBooking(t *testing.T, m *memStore) *models.Booking {
	t.Helper()
	repo := &createdBookings{svc: &models.ServiceOffering{
		ID: "svc-1", OwnerKind: models.OwnerKindProvider, OwnerID: "prov-1",
		Headline: "Deep clean", BasePrice: 100, IsActive: true,
	}}

	b, err := ucBooking.NewCreateBooking(repo, nil, clock).Execute(context.Background(), ucBooking.CreateBookingInput{
		Identity:    lifecycle.Identity{UserID: "user-1", Role: "user"},
		OwnerKind:   models.OwnerKindProvider,
		ServiceID:   "svc-1",
		BookingDate: now.Add(48 * time.Hour),
		DownPayment: 30,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	b.BookingStatus = "confirmed"
	b.CheckoutSessionID = "cs_b"
	m.bookings[b.ID] = b
	return b
}

func TestBookingDownPaymentFlow(t *testing.T) {
	store := newMemStore()
	id := seedBooking(t, store).ID
	r := newReconciler(store, nil)
	meta := map[string]string{"bookingId": id, "type": "booking_down_payment"}

	if got := store.bookings[id]; got.PaymentStatus != "partial" || got.PaidAt != nil {
		t.Fatalf("after create: %+v", got)
	}

	if _, err := r.Apply(context.Background(), intentEvent("evt_1", payments.EventIntentAmountCapturable, "pi_b", "requires_capture", meta)); err != nil {
		t.Fatal(err)
	}
	b := store.bookings[id]
	if b.PaymentStatus != "authorized" || b.PaymentIntentID != "pi_b" || b.PaymentIntentStatus != "requires_capture" || b.PaidAt != nil {
		t.Fatalf("after capturable: %+v", b)
	}

	if _, err := r.Apply(context.Background(), intentEvent("evt_2", payments.EventIntentSucceeded, "pi_b", "succeeded", meta)); err != nil {
		t.Fatal(err)
	}
	b = store.bookings[id]
	if b.PaymentStatus != "partial" || b.RemainingAmount != 70 || b.PaidAt == nil {
		t.Fatalf("after succeeded: %+v", b)
	}
	paidAt := *b.PaidAt

	now = now.Add(time.Hour)
	defer func() { now = now.Add(-time.Hour) }()
	for _, typ := range []string{payments.EventIntentSucceeded, payments.EventIntentAmountCapturable} {
		if _, err := r.Apply(context.Background(), intentEvent("evt_late_"+typ, typ, "pi_b", "succeeded", meta)); err != nil {
			t.Fatal(err)
		}
	}
	b = store.bookings[id]
	if !b.PaidAt.Equal(paidAt) || b.PaymentStatus != "partial" {
		t.Fatalf("late deliveries changed a paid booking: %+v", b)
	}
}

func TestCheckoutCompletedStampsDownPayment(t *testing.T) {
	store := newMemStore()
	id := seedBooking(t, store).ID
	r := newReconciler(store, nil)

	_, err := r.Apply(context.Background(), payments.WebhookEvent{
		ID:   "evt_cs_b",
		Type: payments.EventCheckoutSessionCompleted,
		Session: &payments.SessionObject{
			ID: "cs_b", PaymentIntentID: "pi_b", PaymentStatus: payments.SessionPaymentStatusPaid,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	b := store.bookings[id]
	if b.PaymentStatus != "partial" || b.PaidAt == nil || b.PaymentIntentID != "pi_b" {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestBookingDueIntentCompletes(t *testing.T) {
	store := newMemStore()
	b := seedBooking(t, store)
	b.PaymentIntentID = "pi_b"
	b.PaymentStatus = "due_requested"
	b.BookingStatus = "completed"
	b.DuePaymentIntentID = "pi_due"
	b.DueAmount = 70
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), intentEvent("evt_due", payments.EventIntentSucceeded, "pi_due", "succeeded", nil)); err != nil {
		t.Fatal(err)
	}

	got := store.bookings[b.ID]
	if got.PaymentStatus != "completed" || got.PaidVia != "online" || got.RemainingAmount != 0 || got.DuePaidAt == nil {
		t.Fatalf("unexpected booking: %+v", got)
	}
	if got.PaymentIntentStatus != "" || got.DuePaymentIntentStatus != "succeeded" {
		t.Fatalf("down intent must be untouched: %+v", got)
	}
}

func TestSucceededDoesNotRegressSettledBooking(t *testing.T) {
	store := newMemStore()
	b := seedBooking(t, store)
	b.PaymentIntentID = "pi_b"
	b.PaymentStatus = "offline_paid"
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), intentEvent("evt_late", payments.EventIntentSucceeded, "pi_b", "succeeded", nil)); err != nil {
		t.Fatal(err)
	}
	if store.bookings[b.ID].PaymentStatus != "offline_paid" {
		t.Fatalf("status = %s", store.bookings[b.ID].PaymentStatus)
	}
}

func TestUnknownAggregateIsAcknowledged(t *testing.T) {
	store := newMemStore()
	r := newReconciler(store, nil)

	out, err := r.Apply(context.Background(), intentEvent("evt_x", payments.EventIntentSucceeded, "pi_unknown", "succeeded", nil))
	if err != nil || out != OutcomeIgnored || !store.processed["evt_x"] {
		t.Fatalf("out=%v err=%v", out, err)
	}
}

// ======================================================
// REFUNDS
// ======================================================

func refundEvent(id, refundID, status string) payments.WebhookEvent {
	return payments.WebhookEvent{
		ID:   id,
		Type: payments.EventRefundUpdated,
		Refund: &payments.RefundObject{
			ID: refundID, PaymentIntentID: "PI", Status: status, Amount: 4000,
		},
	}
}

func TestRefundLateBinding(t *testing.T) {
	store := newMemStore()
	store.refunds["R"] = &models.RefundLog{ID: "R", PaymentIntentID: "PI", Status: "requested"}
	seedTicketSale(store)
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), refundEvent("evt_r1", "RF", "succeeded")); err != nil {
		t.Fatal(err)
	}
	got := store.refunds["R"]
	if got.RefundID == nil || *got.RefundID != "RF" || got.Status != "succeeded" || got.Amount != 40 {
		t.Fatalf("unexpected log: %+v", got)
	}
	if store.purchases["P"].PaymentStatus != "refunded" {
		t.Fatal("purchase should be refunded")
	}

	if _, err := r.Apply(context.Background(), refundEvent("evt_r2", "RF", "weird_status")); err != nil {
		t.Fatal(err)
	}
	if len(store.refunds) != 1 {
		t.Fatalf("duplicate refund logs: %d", len(store.refunds))
	}
	if store.refunds["R"].Status != "pending" {
		t.Fatalf("unknown status must normalise to pending, got %s", store.refunds["R"].Status)
	}
}

func TestRefundBindsNewestOpenLog(t *testing.T) {
	store := newMemStore()
	store.refunds["OLD"] = &models.RefundLog{ID: "OLD", PaymentIntentID: "PI", Status: "requested", CreatedAt: now.Add(-time.Hour)}
	store.refunds["NEW"] = &models.RefundLog{ID: "NEW", PaymentIntentID: "PI", Status: "pending", CreatedAt: now}
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), refundEvent("evt_r1", "RF", "pending")); err != nil {
		t.Fatal(err)
	}
	if got := store.refunds["NEW"]; got.RefundID == nil || *got.RefundID != "RF" {
		t.Fatalf("newest log not bound: %+v", got)
	}
	if store.refunds["OLD"].RefundID != nil {
		t.Fatal("oldest log must stay open")
	}
	if len(store.refunds) != 2 {
		t.Fatalf("logs = %d", len(store.refunds))
	}
}

func TestPartialRefundKeepsPaymentStatus(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	store.purchases["P"].PaymentStatus = "completed"
	r := newReconciler(store, nil)

	first := refundEvent("evt_r1", "RF1", "succeeded")
	first.Refund.Amount = 1500
	if _, err := r.Apply(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if store.purchases["P"].PaymentStatus != "completed" {
		t.Fatalf("partial refund flipped status to %s", store.purchases["P"].PaymentStatus)
	}

	second := refundEvent("evt_r2", "RF2", "succeeded")
	second.Refund.Amount = 2500
	if _, err := r.Apply(context.Background(), second); err != nil {
		t.Fatal(err)
	}
	if store.purchases["P"].PaymentStatus != "refunded" {
		t.Fatalf("cumulative refund should settle as refunded, got %s", store.purchases["P"].PaymentStatus)
	}
}

func TestRefundOfDownPaymentRefundsBooking(t *testing.T) {
	store := newMemStore()
	id := seedBooking(t, store).ID
	r := newReconciler(store, nil)
	meta := map[string]string{"bookingId": id}

	if _, err := r.Apply(context.Background(), intentEvent("evt_1", payments.EventIntentSucceeded, "pi_b", "succeeded", meta)); err != nil {
		t.Fatal(err)
	}
	ev := refundEvent("evt_r1", "RF", "succeeded")
	ev.Refund.PaymentIntentID = "pi_b"
	ev.Refund.Amount = 3000
	if _, err := r.Apply(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if store.bookings[id].PaymentStatus != "refunded" {
		t.Fatalf("status = %s", store.bookings[id].PaymentStatus)
	}
}

func TestRefundWithoutLogCreatesOne(t *testing.T) {
	store := newMemStore()
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), refundEvent("evt_r1", "RF", "pending")); err != nil {
		t.Fatal(err)
	}
	if len(store.refunds) != 1 {
		t.Fatalf("logs = %d", len(store.refunds))
	}
}

func TestStoreErrorIsReturned(t *testing.T) {
	store := newMemStore()
	store.failOn = "refund"
	r := newReconciler(store, nil)

	if _, err := r.Apply(context.Background(), refundEvent("evt_r1", "RF", "pending")); err == nil {
		t.Fatal("expected error")
	}
}

// ======================================================
// HANDLE
// ======================================================

func TestHandleArchivesAndApplies(t *testing.T) {
	store := newMemStore()
	seedTicketSale(store)
	archiver := &stubArchiver{err: errors.New("s3 down")}
	verifier := stubVerifier{ev: intentEvent("evt_1", payments.EventIntentSucceeded, "PI", "succeeded", nil)}
	r := NewReconciler(verifier, store, nil, zap.NewNop(), clock, WithArchiver(archiver))

	out, err := r.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil || out != OutcomeApplied {
		t.Fatalf("out=%v err=%v", out, err)
	}
	if len(archiver.keys) != 1 || archiver.keys[0] != "evt_1" {
		t.Fatalf("archive keys = %v", archiver.keys)
	}
}

func TestHandleRejectsBadSignature(t *testing.T) {
	r := NewReconciler(stubVerifier{err: payments.ErrInvalidSignature}, newMemStore(), nil, zap.NewNop(), clock)

	if _, err := r.Handle(context.Background(), []byte(`{}`), "bad"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}
