package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

const MaxReviewComment = 500

// ===============================
// Domain Actions
// ===============================

func transition(b *models.Booking, to Status, actor lifecycle.Actor) error {
	return Machine.Check(Status(b.BookingStatus), to, actor)
}

func Accept(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusConfirmed, lifecycle.ActorOwner); err != nil {
		return err
	}
	b.BookingStatus = string(StatusConfirmed)
	b.ConfirmedAt = &now
	return nil
}

func Reject(b *models.Booking, reason string, now time.Time) error {
	if err := transition(b, StatusRejected, lifecycle.ActorOwner); err != nil {
		return err
	}
	b.BookingStatus = string(StatusRejected)
	b.CancellationReason = strings.TrimSpace(reason)
	b.CancelledBy = string(lifecycle.ActorOwner)
	b.CancelledAt = &now
	return nil
}

func Cancel(b *models.Booking, reason string, now time.Time) error {
	if err := transition(b, StatusCancelled, lifecycle.ActorUser); err != nil {
		return err
	}
	b.BookingStatus = string(StatusCancelled)
	b.CancellationReason = strings.TrimSpace(reason)
	b.CancelledBy = string(lifecycle.ActorUser)
	b.CancelledAt = &now
	return nil
}

func Start(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusInProgress, lifecycle.ActorOwner); err != nil {
		return err
	}
	b.BookingStatus = string(StatusInProgress)
	b.StartedAt = &now
	return nil
}

func Complete(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusCompleted, lifecycle.ActorOwner); err != nil {
		return err
	}
	b.BookingStatus = string(StatusCompleted)
	b.CompletedAt = &now
	return nil
}

// MarkOfflinePaid settles a completed booking paid outside the provider.
func MarkOfflinePaid(b *models.Booking, now time.Time) error {
	if Status(b.BookingStatus) != StatusCompleted {
		return httperr.IllegalPaymentTransition(b.BookingStatus, "mark offline paid")
	}
	if payment.IsSettled(payment.Status(b.PaymentStatus)) {
		return httperr.IllegalPaymentTransition(b.PaymentStatus, "mark offline paid")
	}
	b.PaymentStatus = string(payment.StatusOfflinePaid)
	b.PaidVia = payment.PaidViaOffline
	b.OfflinePaidAt = &now
	b.RemainingAmount = 0
	return nil
}

// CanRequestDue checks that a completed booking still has a balance to collect.
// A new request is allowed once a previous due intent was canceled or failed.
func CanRequestDue(b *models.Booking) error {
	if Status(b.BookingStatus) != StatusCompleted {
		return httperr.IllegalPaymentTransition(b.BookingStatus, "request due payment")
	}
	switch payment.Status(b.PaymentStatus) {
	case payment.StatusPending, payment.StatusAuthorized, payment.StatusPartial:
	case payment.StatusDueRequested:
		if b.DuePaymentIntentStatus != payment.IntentCanceled &&
			b.DuePaymentIntentStatus != payment.IntentRequiresPaymentMethod {
			return httperr.IllegalPaymentTransition(b.PaymentStatus, "request due payment")
		}
	default:
		return httperr.IllegalPaymentTransition(b.PaymentStatus, "request due payment")
	}
	if b.RemainingAmount <= 0 {
		return httperr.IllegalPaymentTransition(b.PaymentStatus, "request due payment")
	}
	return nil
}

func AddReview(b *models.Booking, rating int, comment string, now time.Time) error {
	if Status(b.BookingStatus) != StatusCompleted {
		return httperr.Validation("not_completed", "only completed bookings can be reviewed")
	}
	if b.Review != nil {
		return httperr.Conflict("already_reviewed", "booking already has a review")
	}
	r, err := NewReview(rating, comment, now)
	if err != nil {
		return err
	}
	b.Review = r
	return nil
}

func NewReview(rating int, comment string, now time.Time) (*models.Review, error) {
	if rating < 0 || rating > 5 {
		return nil, httperr.Validation("invalid_rating", "rating must be between 0 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > MaxReviewComment {
		return nil, httperr.Validation("comment_too_long", fmt.Sprintf("comment must be at most %d characters", MaxReviewComment))
	}
	return &models.Review{Rating: rating, Comment: comment, ReviewedAt: now}, nil
}

// ===============================
// Creation rules
// ===============================

// ValidateDownPayment applies the request minimum first and then the stricter
// persisted threshold.
func ValidateDownPayment(down, total float64) error {
	if down < 0 {
		return httperr.Validation("invalid_down_payment", "down payment cannot be negative")
	}
	if !payment.MeetsShare(down, total, payment.MinDownPaymentRequestRate) {
		return httperr.Validation("down_payment_below_minimum", "down payment must be at least 20% of the total")
	}
	if !payment.MeetsShare(down, total, payment.MinDownPaymentPersistRate) {
		return httperr.Invariant("down_payment_below_threshold", "down payment must be at least 30% of the total")
	}
	if payment.ToMinorUnits(down) > payment.ToMinorUnits(total) {
		return httperr.Validation("down_payment_exceeds_total", "down payment cannot exceed the total")
	}
	return nil
}
