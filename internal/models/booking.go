package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
)

type Booking struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	UserID     string  `gorm:"size:36;not null;index:idx_bookings_user_created,priority:1" json:"user_id"`
	ServiceID  string  `gorm:"size:36;not null" json:"service_id"`
	OwnerKind  string  `gorm:"size:20;not null" json:"owner_kind"`
	OwnerID    string  `gorm:"size:36;not null;index" json:"owner_id"`
	EmployeeID *string `gorm:"size:36" json:"employee_id,omitempty"`

	BookingDate     time.Time       `gorm:"not null" json:"booking_date"`
	ServiceSnapshot ServiceSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"service_snapshot"`

	TotalAmount     float64 `json:"total_amount"`
	DownPayment     float64 `json:"down_payment"`
	RemainingAmount float64 `json:"remaining_amount"`
	DueAmount       float64 `json:"due_amount"`

	PaymentStatus string `gorm:"size:20;default:'pending'" json:"payment_status"`
	PaidVia       string `gorm:"size:10" json:"paid_via,omitempty"`

	PaymentIntentID        string `gorm:"size:100;index" json:"payment_intent_id,omitempty"`
	PaymentIntentStatus    string `gorm:"size:40" json:"payment_intent_status,omitempty"`
	CheckoutSessionID      string `gorm:"size:100;index" json:"checkout_session_id,omitempty"`
	CheckoutSessionURL     string `gorm:"size:1000" json:"checkout_session_url,omitempty"`
	DuePaymentIntentID     string `gorm:"size:100;index" json:"due_payment_intent_id,omitempty"`
	DuePaymentIntentStatus string `gorm:"size:40" json:"due_payment_intent_status,omitempty"`

	DueRequestedAt *time.Time `json:"due_requested_at,omitempty"`
	DuePaidAt      *time.Time `json:"due_paid_at,omitempty"`
	OfflinePaidAt  *time.Time `json:"offline_paid_at,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	BookingStatus string `gorm:"size:20;default:'pending';index" json:"booking_status"`

	Notes              string     `gorm:"size:500" json:"notes"`
	CancellationReason string     `gorm:"size:500" json:"cancellation_reason,omitempty"`
	CancelledBy        string     `gorm:"size:10" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	Review *Review `gorm:"type:jsonb;serializer:json" json:"review,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_bookings_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyPaymentInvariants recomputes remaining_amount and payment_status.
// due_requested is left untouched until the due intent resolves.
func (b *Booking) ApplyPaymentInvariants() {
	remaining, status := payment.Derive(
		b.TotalAmount,
		b.DownPayment,
		payment.Status(b.PaymentStatus),
		true,
	)
	b.RemainingAmount = remaining
	b.PaymentStatus = string(status)
}

func (b *Booking) BeforeSave(*gorm.DB) error {
	b.ApplyPaymentInvariants()
	return nil
}

// DownPaymentReceived reports whether the down payment intent succeeded.
// payment_status alone cannot tell: a booking with a down payment derives
// to partial before any money moved.
func (b *Booking) DownPaymentReceived() bool {
	return b.PaidAt != nil
}

// ChargedOnline is what the provider collected for b: the down payment and the
// due balance once their intents succeeded. Bookings with no recorded charge
// fall back to the total.
func (b *Booking) ChargedOnline() float64 {
	var sum float64
	if b.PaidAt != nil {
		sum += b.DownPayment
	}
	if b.DuePaidAt != nil {
		sum += b.DueAmount
	}
	if sum == 0 {
		return b.TotalAmount
	}
	return sum
}

// MetadataKey is the provider metadata key that points back at this booking.
func (b *Booking) MetadataKey() string {
	if b.OwnerKind == OwnerKindBusinessOwner {
		return payment.MetaBusinessOwnerBookingID
	}
	return payment.MetaBookingID
}
