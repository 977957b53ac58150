package webhook

import (
	"context"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// Lookup carries the three keys an event can be matched on, tried in order:
// intent id, checkout session id, metadata id.
type Lookup struct {
	IntentID   string
	SessionID  string
	MetadataID string
}

// Tx is the unit of work one event is applied in. Finders return nil, nil
// when nothing matches.
type Tx interface {
	// MarkProcessed records the event id and reports false when it was
	// already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)

	FindBooking(ctx context.Context, l Lookup) (*models.Booking, error)
	SaveBooking(ctx context.Context, b *models.Booking) error

	FindAppointment(ctx context.Context, l Lookup) (*models.Appointment, error)
	SaveAppointment(ctx context.Context, ap *models.Appointment) error

	FindPurchase(ctx context.Context, l Lookup) (*models.TicketPurchase, error)
	SavePurchase(ctx context.Context, p *models.TicketPurchase) error
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	// CreditTickets increments tickets_sold unless capacity would be exceeded.
	CreditTickets(ctx context.Context, eventID string, quantity int) (bool, error)

	// FindRefund matches by provider refund id, then by the newest open log
	// of the intent that has no refund id yet.
	FindRefund(ctx context.Context, refundID, intentID string) (*models.RefundLog, error)
	SaveRefund(ctx context.Context, log *models.RefundLog) error
	// MarkRefunded flips an aggregate paid through intentID to refunded once
	// its succeeded refunds cover what it was charged.
	MarkRefunded(ctx context.Context, intentID string) error
}

type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
}
