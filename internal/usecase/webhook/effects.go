package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/ticket"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
	"github.com/BruksfildServices01/service-marketplace/internal/payments"
)

func stamp(t **time.Time, now time.Time) {
	if *t == nil {
		at := now
		*t = &at
	}
}

// ======================================================
// CHECKOUT SESSION
// ======================================================

func (r *Reconciler) sessionCompleted(ctx context.Context, tx Tx, s *payments.SessionObject, st *applyState) (bool, error) {
	now := r.clock()

	b, err := tx.FindBooking(ctx, bookingLookup(s.PaymentIntentID, s.ID, s.Metadata))
	if err != nil {
		return false, err
	}
	if b != nil {
		if s.PaymentIntentID != "" {
			b.PaymentIntentID = s.PaymentIntentID
		}
		b.PaymentIntentStatus = payment.IntentSucceeded
		promoteDownPayment(b, now)
		if err := tx.SaveBooking(ctx, b); err != nil {
			return false, err
		}
		st.changes = append(st.changes, change{b.OwnerID, "booking", b.ID, b.PaymentStatus})
		return true, nil
	}

	ap, err := tx.FindAppointment(ctx, appointmentLookup(s.PaymentIntentID, s.ID, s.Metadata))
	if err != nil {
		return false, err
	}
	if ap != nil {
		if s.PaymentIntentID != "" {
			ap.PaymentIntentID = s.PaymentIntentID
		}
		ap.PaymentIntentStatus = payment.IntentSucceeded
		settleAppointment(ap, now)
		if err := tx.SaveAppointment(ctx, ap); err != nil {
			return false, err
		}
		st.changes = append(st.changes, change{ap.OwnerID, "appointment", ap.ID, ap.PaymentStatus})
		return true, nil
	}

	r.logger.Warn("checkout session matches no aggregate")
	return false, nil
}

// awaitingDownPayment reports a booking whose down payment has not been
// received and whose status the provider may still move.
func awaitingDownPayment(b *models.Booking) bool {
	if b.DownPaymentReceived() {
		return false
	}
	switch payment.Status(b.PaymentStatus) {
	case payment.StatusPending, payment.StatusPartial, payment.StatusAuthorized:
		return true
	}
	return false
}

// promoteDownPayment records the down payment once. Later states are kept so
// replays and out-of-order deliveries never regress the booking.
func promoteDownPayment(b *models.Booking, now time.Time) {
	if !awaitingDownPayment(b) {
		return
	}
	if b.DownPayment > 0 {
		b.PaymentStatus = string(payment.StatusPartial)
	} else {
		b.PaymentStatus = string(payment.StatusPending)
	}
	stamp(&b.PaidAt, now)
}

func settleAppointment(ap *models.Appointment, now time.Time) {
	if ap.PaymentStatus == string(payment.StatusRefunded) {
		return
	}
	ap.PaymentStatus = string(payment.StatusCompleted)
	ap.PaidVia = payment.PaidViaOnline
	ap.RemainingAmount = 0
	stamp(&ap.PaidAt, now)
}

// ======================================================
// PAYMENT INTENT
// ======================================================

func (r *Reconciler) intentChanged(ctx context.Context, tx Tx, eventType string, in *payments.IntentObject, st *applyState) (bool, error) {
	now := r.clock()

	b, err := tx.FindBooking(ctx, bookingLookup(in.ID, "", in.Metadata))
	if err != nil {
		return false, err
	}
	if b != nil {
		applyBookingIntent(b, eventType, in, now)
		if err := tx.SaveBooking(ctx, b); err != nil {
			return false, err
		}
		st.changes = append(st.changes, change{b.OwnerID, "booking", b.ID, b.PaymentStatus})
		return true, nil
	}

	ap, err := tx.FindAppointment(ctx, appointmentLookup(in.ID, "", in.Metadata))
	if err != nil {
		return false, err
	}
	if ap != nil {
		if ap.PaymentIntentID == "" {
			ap.PaymentIntentID = in.ID
		}
		ap.PaymentIntentStatus = in.Status
		if eventType == payments.EventIntentSucceeded {
			settleAppointment(ap, now)
		}
		if err := tx.SaveAppointment(ctx, ap); err != nil {
			return false, err
		}
		st.changes = append(st.changes, change{ap.OwnerID, "appointment", ap.ID, ap.PaymentStatus})
		return true, nil
	}

	p, err := tx.FindPurchase(ctx, purchaseLookup(in.ID, in.Metadata))
	if err != nil {
		return false, err
	}
	if p != nil {
		if err := r.applyPurchaseIntent(ctx, tx, p, eventType, in, now, st); err != nil {
			return false, err
		}
		if err := tx.SavePurchase(ctx, p); err != nil {
			return false, err
		}
		st.changes = append(st.changes, change{"", "ticket_purchase", p.ID, p.PaymentStatus})
		return true, nil
	}

	r.logger.Warn("payment intent matches no aggregate")
	return false, nil
}

func isDueIntent(b *models.Booking, in *payments.IntentObject) bool {
	if b.DuePaymentIntentID != "" && b.DuePaymentIntentID == in.ID {
		return true
	}
	return b.PaymentIntentID != in.ID && in.Metadata[payment.MetaType] == payment.TypeBookingDuePayment
}

func applyBookingIntent(b *models.Booking, eventType string, in *payments.IntentObject, now time.Time) {
	if isDueIntent(b, in) {
		if b.DuePaymentIntentID == "" {
			b.DuePaymentIntentID = in.ID
		}
		b.DuePaymentIntentStatus = in.Status

		if eventType == payments.EventIntentSucceeded && b.PaymentStatus != string(payment.StatusRefunded) {
			b.PaymentStatus = string(payment.StatusCompleted)
			b.PaidVia = payment.PaidViaOnline
			b.RemainingAmount = 0
			stamp(&b.DuePaidAt, now)
		}
		return
	}

	if b.PaymentIntentID == "" {
		b.PaymentIntentID = in.ID
	}
	b.PaymentIntentStatus = in.Status

	switch eventType {
	case payments.EventIntentAmountCapturable:
		if awaitingDownPayment(b) {
			b.PaymentStatus = string(payment.StatusAuthorized)
		}
	case payments.EventIntentSucceeded:
		promoteDownPayment(b, now)
	}
}

func (r *Reconciler) applyPurchaseIntent(
	ctx context.Context,
	tx Tx,
	p *models.TicketPurchase,
	eventType string,
	in *payments.IntentObject,
	now time.Time,
	st *applyState,
) error {
	if p.PaymentIntentID == "" {
		p.PaymentIntentID = in.ID
	}

	switch eventType {
	case payments.EventIntentSucceeded:
		p.PaymentIntentStatus = in.Status
		if !ticket.CanCredit(p) {
			return nil
		}

		ev, err := tx.GetEvent(ctx, p.EventID)
		if err != nil {
			return err
		}
		ok, err := tx.CreditTickets(ctx, p.EventID, p.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			ticket.MarkOversold(p)
			st.oversold = append(st.oversold, oversold{
				purchaseID: p.ID,
				intentID:   p.PaymentIntentID,
				amount:     p.TotalAmount,
			})
			return nil
		}
		prefix := ""
		if ev != nil {
			prefix = ev.ConfirmationCodePrefix
		}
		ticket.MarkCredited(p, prefix, now)

	case payments.EventIntentPaymentFailed, payments.EventIntentCanceled:
		p.PaymentIntentStatus = in.Status
		ticket.MarkDeclined(p)

	default:
		p.PaymentIntentStatus = in.Status
	}
	return nil
}

// ======================================================
// REFUNDS
// ======================================================

func (r *Reconciler) refundChanged(ctx context.Context, tx Tx, rf *payments.RefundObject) (bool, error) {
	log, err := tx.FindRefund(ctx, rf.ID, rf.PaymentIntentID)
	if err != nil {
		return false, err
	}
	if log == nil {
		log = &models.RefundLog{
			ID:              uuid.NewString(),
			PaymentIntentID: rf.PaymentIntentID,
			Metadata:        rf.Metadata,
		}
	}

	if rf.ID != "" {
		id := rf.ID
		log.RefundID = &id
	}
	if log.PaymentIntentID == "" {
		log.PaymentIntentID = rf.PaymentIntentID
	}
	status := payment.NormalizeRefundStatus(rf.Status)
	log.Status = string(status)
	if rf.Amount > 0 {
		log.Amount = payment.Round2(float64(rf.Amount) / 100)
	}
	if rf.FailureReason != "" {
		log.StripeError = rf.FailureReason
	}

	if err := tx.SaveRefund(ctx, log); err != nil {
		return false, err
	}

	if status == payment.RefundSucceeded && log.PaymentIntentID != "" {
		if err := tx.MarkRefunded(ctx, log.PaymentIntentID); err != nil {
			return false, err
		}
	}
	return true, nil
}
