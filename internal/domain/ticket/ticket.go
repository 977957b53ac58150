package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// Failure reasons recorded on failed purchases. A declined intent can still
// be retried by the buyer; an oversold purchase is final and refunded.
const (
	FailureOversold = "oversold"
	FailureDeclined = "declined"
)

// ValidatePurchase checks that the event is on sale and still has room for
// quantity tickets.
func ValidatePurchase(ev *models.Event, quantity int, now time.Time) error {
	if quantity < 1 {
		return httperr.Validation("invalid_quantity", "quantity must be at least 1")
	}
	if ev.Status != models.EventStatusPublished {
		return httperr.Validation("event_not_on_sale", "event is not published")
	}
	if !ev.TicketSalesStart.IsZero() && now.Before(ev.TicketSalesStart) {
		return httperr.Validation("sales_not_started", "ticket sales have not started")
	}
	if !ev.TicketSalesEnd.IsZero() && now.After(ev.TicketSalesEnd) {
		return httperr.Validation("sales_closed", "ticket sales are closed")
	}
	if Remaining(ev) < quantity {
		return httperr.Conflict("not_enough_tickets", "not enough tickets left")
	}
	return nil
}

func Remaining(ev *models.Event) int {
	left := ev.MaximumNumberOfTickets - ev.TicketsSold
	if left < 0 {
		return 0
	}
	return left
}

// CanCredit reports whether the purchase still needs its quantity counted.
// A purchase whose earlier intent attempt was declined stays creditable.
func CanCredit(p *models.TicketPurchase) bool {
	if p.TicketsCredited || p.FailureReason == FailureOversold {
		return false
	}
	return p.PaymentStatus != string(payment.StatusRefunded)
}

// MarkCredited settles a purchase once tickets_sold was incremented.
func MarkCredited(p *models.TicketPurchase, prefix string, now time.Time) {
	p.TicketsCredited = true
	p.FailureReason = ""
	p.PaymentStatus = string(payment.StatusCompleted)
	p.PaymentIntentStatus = payment.IntentSucceeded
	if p.PaidAt == nil {
		p.PaidAt = &now
	}
	if p.ConfirmationCode == "" {
		p.ConfirmationCode = ConfirmationCode(prefix)
	}
}

// MarkDeclined records a failed or canceled intent attempt. Credited and
// oversold purchases are left alone.
func MarkDeclined(p *models.TicketPurchase) {
	if p.TicketsCredited || p.FailureReason == FailureOversold {
		return
	}
	p.PaymentStatus = string(payment.StatusFailed)
	p.FailureReason = FailureDeclined
}

func MarkOversold(p *models.TicketPurchase) {
	p.PaymentStatus = string(payment.StatusFailed)
	p.FailureReason = FailureOversold
}

// ConfirmationCode returns PREFIX-XXXXXXXX with eight random hex digits.
func ConfirmationCode(prefix string) string {
	id := uuid.New()
	code := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "TKT"
	}
	return prefix + "-" + code
}
