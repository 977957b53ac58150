package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/audit"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
	paymentuc "github.com/BruksfildServices01/service-marketplace/internal/usecase/payment"
)

var now = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// ======================================================
// STUBS
// ======================================================

type stubRepo struct {
	services  map[string]*models.ServiceOffering
	bookings  map[string]*models.Booking
	updates   int
	completed int
	active    bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		services: map[string]*models.ServiceOffering{
			"svc-1": {
				ID: "svc-1", OwnerKind: models.OwnerKindProvider, OwnerID: "prov-1",
				Headline: "Deep clean", BasePrice: 100, IsActive: true,
			},
			"svc-appt": {
				ID: "svc-appt", OwnerKind: models.OwnerKindProvider, OwnerID: "prov-1",
				AppointmentEnabled: true, IsActive: true,
				AppointmentSlots: []models.AppointmentSlot{{SlotID: "A", Duration: 60, DurationUnit: "minutes", Price: 50}},
			},
		},
		bookings: map[string]*models.Booking{},
	}
}

func (r *stubRepo) GetService(_ context.Context, id string) (*models.ServiceOffering, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, httperr.NotFoundErr("service_not_found", "service not found")
	}
	cp := *svc
	return &cp, nil
}

func (r *stubRepo) HasActiveBooking(context.Context, string, string, time.Time) (bool, error) {
	return r.active, nil
}

func (r *stubRepo) CreateBooking(_ context.Context, b *models.Booking) error {
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *stubRepo) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, httperr.NotFoundErr("booking_not_found", "booking not found")
	}
	cp := *b
	return &cp, nil
}

func (r *stubRepo) UpdateBooking(_ context.Context, b *models.Booking) error {
	r.updates++
	b.ApplyPaymentInvariants()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *stubRepo) CompleteBooking(ctx context.Context, b *models.Booking) error {
	r.completed++
	return r.UpdateBooking(ctx, b)
}

func (r *stubRepo) ListForUser(context.Context, string) ([]models.Booking, error) { return nil, nil }

func (r *stubRepo) ListForOwner(context.Context, string, string) ([]models.Booking, error) {
	return nil, nil
}

type stubGateway struct {
	sessionErr error
	cancelled  []string
}

func (g *stubGateway) CreateCheckoutSession(context.Context, payments.CheckoutSessionRequest) (payments.CheckoutSession, error) {
	if g.sessionErr != nil {
		return payments.CheckoutSession{}, g.sessionErr
	}
	return payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}, nil
}

func (g *stubGateway) CreatePaymentIntent(context.Context, payments.PaymentIntentRequest) (payments.PaymentIntent, error) {
	return payments.PaymentIntent{ID: "pi_due", Status: "requires_payment_method", ClientSecret: "secret"}, nil
}

func (g *stubGateway) CancelPaymentIntent(_ context.Context, id string) error {
	g.cancelled = append(g.cancelled, id)
	return nil
}

func (g *stubGateway) CreateRefund(context.Context, payments.RefundRequest) (payments.Refund, error) {
	return payments.Refund{}, nil
}

func newOrchestrator(gw *stubGateway) *paymentuc.Orchestrator {
	return paymentuc.NewOrchestrator(gw, nil, paymentuc.Settings{
		SuccessURL: "https://app.test/ok",
		CancelURL:  "https://app.test/cancel",
	}, zap.NewNop(), clock)
}

var (
	user  = lifecycle.Identity{UserID: "user-1", Role: "user"}
	owner = lifecycle.Identity{OwnerID: "prov-1", Role: "provider"}
)

func seed(r *stubRepo, status string) *models.Booking {
	b := &models.Booking{
		ID: "b-1", UserID: "user-1", ServiceID: "svc-1",
		OwnerKind: models.OwnerKindProvider, OwnerID: "prov-1",
		TotalAmount: 100, DownPayment: 30, RemainingAmount: 70,
		PaymentStatus: "partial", BookingStatus: status,
		PaymentIntentID: "pi_1", PaymentIntentStatus: "requires_capture",
	}
	r.bookings[b.ID] = b
	return b
}

// ======================================================
// CREATE
// ======================================================

func TestCreateBookingDownPaymentThresholds(t *testing.T) {
	repo := newStubRepo()
	uc := NewCreateBooking(repo, audit.NewDispatcher(zap.NewNop()), clock)

	in := CreateBookingInput{
		Identity:    user,
		OwnerKind:   models.OwnerKindProvider,
		ServiceID:   "svc-1",
		BookingDate: now.Add(48 * time.Hour),
	}

	in.DownPayment = 15
	if _, err := uc.Execute(context.Background(), in); !httperr.IsBusiness(err, "down_payment_below_minimum") {
		t.Fatalf("15: expected down_payment_below_minimum, got %v", err)
	}

	in.DownPayment = 25
	if _, err := uc.Execute(context.Background(), in); !httperr.IsBusiness(err, "down_payment_below_threshold") {
		t.Fatalf("25: expected down_payment_below_threshold, got %v", err)
	}

	in.DownPayment = 30
	b, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("30: %v", err)
	}
	if b.BookingStatus != "pending" || b.TotalAmount != 100 || b.RemainingAmount != 70 {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(repo.bookings) != 1 {
		t.Fatalf("expected exactly one stored booking, got %d", len(repo.bookings))
	}
}

func TestCreateBookingRejectsAppointmentService(t *testing.T) {
	uc := NewCreateBooking(newStubRepo(), nil, clock)

	_, err := uc.Execute(context.Background(), CreateBookingInput{
		Identity: user, OwnerKind: models.OwnerKindProvider, ServiceID: "svc-appt",
		BookingDate: now.Add(time.Hour), DownPayment: 30,
	})
	if !httperr.IsBusiness(err, "appointment_service") {
		t.Fatalf("expected appointment_service, got %v", err)
	}
}

func TestCreateBookingRejectsPastDateAndDuplicates(t *testing.T) {
	repo := newStubRepo()
	uc := NewCreateBooking(repo, nil, clock)
	in := CreateBookingInput{
		Identity: user, OwnerKind: models.OwnerKindProvider, ServiceID: "svc-1",
		BookingDate: now.Add(-time.Hour), DownPayment: 50,
	}

	if _, err := uc.Execute(context.Background(), in); !httperr.IsBusiness(err, "date_in_past") {
		t.Fatalf("expected date_in_past, got %v", err)
	}

	in.BookingDate = now.Add(time.Hour)
	repo.active = true
	_, err := uc.Execute(context.Background(), in)
	if kind, _ := httperr.KindOf(err); kind != httperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSnapshotSurvivesServiceEdits(t *testing.T) {
	repo := newStubRepo()
	uc := NewCreateBooking(repo, nil, clock)

	b, err := uc.Execute(context.Background(), CreateBookingInput{
		Identity: user, OwnerKind: models.OwnerKindProvider, ServiceID: "svc-1",
		BookingDate: now.Add(time.Hour), DownPayment: 30,
	})
	if err != nil {
		t.Fatal(err)
	}

	repo.services["svc-1"].Headline = "Renamed"
	repo.services["svc-1"].BasePrice = 500

	stored, _ := repo.GetBooking(context.Background(), b.ID)
	if stored.ServiceSnapshot.Headline != "Deep clean" || stored.ServiceSnapshot.BasePrice != 100 {
		t.Fatalf("snapshot changed: %+v", stored.ServiceSnapshot)
	}
}

// ======================================================
// TRANSITIONS
// ======================================================

func TestAcceptCreatesCheckout(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "pending")
	uc := NewAcceptBooking(repo, newOrchestrator(&stubGateway{}), nil, clock)

	res, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Checkout.SessionURL == "" || res.Booking.BookingStatus != "confirmed" {
		t.Fatalf("unexpected result: %+v", res)
	}

	stored := repo.bookings["b-1"]
	if stored.BookingStatus != "confirmed" || stored.CheckoutSessionID != "cs_1" || stored.PaymentIntentStatus != "requires_payment_method" {
		t.Fatalf("unexpected stored booking: %+v", stored)
	}
}

func TestAcceptProviderFailureKeepsPending(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "pending")
	uc := NewAcceptBooking(repo, newOrchestrator(&stubGateway{sessionErr: errors.New("stripe down")}), nil, clock)

	_, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if kind, _ := httperr.KindOf(err); kind != httperr.KindExternalPayment {
		t.Fatalf("expected external payment error, got %v", err)
	}
	if repo.updates != 0 || repo.bookings["b-1"].BookingStatus != "pending" {
		t.Fatalf("booking should stay pending, updates=%d status=%s", repo.updates, repo.bookings["b-1"].BookingStatus)
	}
}

func TestOwnershipCheckedBeforeTransition(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "completed")
	stranger := lifecycle.Identity{OwnerID: "prov-2"}

	uc := NewStartBooking(repo, nil, clock)
	_, err := uc.Execute(context.Background(), TransitionInput{Identity: stranger, BookingID: "b-1"})
	if !httperr.IsBusiness(err, "not_authorized") {
		t.Fatalf("expected not_authorized, got %v", err)
	}
}

func TestRejectCancelsIntentAfterPersisting(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "pending")
	gw := &stubGateway{}
	uc := NewRejectBooking(repo, newOrchestrator(gw), nil, clock)

	b, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1", Reason: "unavailable"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if b.BookingStatus != "rejected" || b.CancellationReason != "unavailable" {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if len(gw.cancelled) != 1 || gw.cancelled[0] != "pi_1" {
		t.Fatalf("intent not cancelled: %v", gw.cancelled)
	}
}

func TestIllegalTransitionLeavesStoredState(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "pending")
	uc := NewCompleteBooking(repo, nil, clock)

	_, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if !httperr.IsBusiness(err, "illegal_transition") {
		t.Fatalf("expected illegal_transition, got %v", err)
	}
	if repo.bookings["b-1"].BookingStatus != "pending" || repo.completed != 0 {
		t.Fatal("state changed on illegal transition")
	}
}

func TestCompleteBumpsCounter(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "in_progress")
	uc := NewCompleteBooking(repo, nil, clock)

	b, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.CompletedAt == nil || repo.completed != 1 {
		t.Fatalf("completion not recorded: %+v", b)
	}
}

func TestUserCancelAndOwnerCannotCancel(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "confirmed")
	uc := NewCancelBooking(repo, nil, clock)

	if _, err := uc.Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"}); !httperr.IsBusiness(err, "not_authorized") {
		t.Fatalf("owner cancel should be refused, got %v", err)
	}

	b, err := uc.Execute(context.Background(), TransitionInput{Identity: user, BookingID: "b-1", Reason: "changed plans"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.BookingStatus != "cancelled" || b.CancelledBy != "user" {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestRequestDueAndOfflinePaid(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "completed")
	orch := newOrchestrator(&stubGateway{})

	due, err := NewRequestDuePayment(repo, orch, nil).Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if err != nil {
		t.Fatalf("request due: %v", err)
	}
	if due.ClientSecret != "secret" || due.DueAmount != 70 || repo.bookings["b-1"].PaymentStatus != "due_requested" {
		t.Fatalf("unexpected due result: %+v", due)
	}

	b, err := NewMarkOfflinePaid(repo, nil, clock).Execute(context.Background(), TransitionInput{Identity: owner, BookingID: "b-1"})
	if err != nil {
		t.Fatalf("mark offline: %v", err)
	}
	if b.PaymentStatus != "offline_paid" || b.RemainingAmount != 0 || b.OfflinePaidAt == nil {
		t.Fatalf("unexpected booking: %+v", b)
	}
}

func TestReviewOnlyByBookingUser(t *testing.T) {
	repo := newStubRepo()
	seed(repo, "completed")
	uc := NewReviewBooking(repo, nil, clock)

	other := lifecycle.Identity{UserID: "user-2"}
	if _, err := uc.Execute(context.Background(), ReviewInput{Identity: other, BookingID: "b-1", Rating: 5}); !httperr.IsBusiness(err, "not_authorized") {
		t.Fatalf("expected not_authorized, got %v", err)
	}

	b, err := uc.Execute(context.Background(), ReviewInput{Identity: user, BookingID: "b-1", Rating: 5, Comment: "spotless"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if b.Review == nil || b.Review.Rating != 5 {
		t.Fatalf("review not stored: %+v", b.Review)
	}
}
