package payment

// Status is the local payment state of a booking, appointment or ticket purchase.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAuthorized   Status = "authorized"
	StatusPartial      Status = "partial"
	StatusDueRequested Status = "due_requested"
	StatusCompleted    Status = "completed"
	StatusOfflinePaid  Status = "offline_paid"
	StatusRefunded     Status = "refunded"
	StatusFailed       Status = "failed"
)

const (
	PaidViaOnline  = "online"
	PaidViaOffline = "offline"
)

// Provider intent states stored verbatim in *_intent_status columns.
const (
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresCapture       = "requires_capture"
	IntentSucceeded             = "succeeded"
	IntentCanceled              = "canceled"
)

// Metadata keys understood by the webhook reconciler. They are part of the
// wire contract with the payment provider and must not change.
const (
	MetaBookingID                  = "bookingId"
	MetaBusinessOwnerBookingID     = "businessOwnerBookingId"
	MetaAppointmentID              = "appointmentId"
	MetaBusinessOwnerAppointmentID = "businessOwnerAppointmentId"
	MetaEventTicketPurchaseID      = "eventTicketPurchaseId"
	MetaUserID                     = "userId"
	MetaProviderID                 = "providerId"
	MetaType                       = "type"
)

const (
	TypeBookingDownPayment = "booking_down_payment"
	TypeBookingDuePayment  = "booking_due_payment"
	TypeAppointmentPayment = "appointment_payment"
	TypeEventTicket        = "event_ticket"
	TypeRefund             = "refund"
)

// IsSettled reports whether nothing is left to collect.
func IsSettled(s Status) bool {
	return s == StatusCompleted || s == StatusOfflinePaid
}
