package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
)

type TimeSlot struct {
	StartTime string `gorm:"size:5" json:"start_time"`
	EndTime   string `gorm:"size:5" json:"end_time"`
}

type Appointment struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	UserID     string  `gorm:"size:36;not null;index" json:"user_id"`
	ServiceID  string  `gorm:"size:36;not null" json:"service_id"`
	OwnerKind  string  `gorm:"size:20;not null" json:"owner_kind"`
	OwnerID    string  `gorm:"size:36;not null;index" json:"owner_id"`
	EmployeeID *string `gorm:"size:36" json:"employee_id,omitempty"`

	// OwnerKey scopes slot reservation: one calendar per provider or per
	// employee service.
	OwnerKey        string   `gorm:"size:80;not null;index:idx_appointments_owner_day,priority:1" json:"owner_key"`
	AppointmentDate string   `gorm:"size:10;not null;index:idx_appointments_owner_day,priority:2" json:"appointment_date"`
	TimeSlot        TimeSlot `gorm:"embedded;embeddedPrefix:time_slot_" json:"time_slot"`

	SelectedSlot    AppointmentSlot `gorm:"embedded;embeddedPrefix:selected_slot_" json:"selected_slot"`
	ServiceSnapshot ServiceSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"service_snapshot"`

	TotalAmount               float64 `json:"total_amount"`
	DownPayment               float64 `json:"down_payment"`
	RemainingAmount           float64 `json:"remaining_amount"`
	PlatformFee               float64 `json:"platform_fee"`
	ProviderPayoutFromPayment float64 `json:"provider_payout_from_payment"`

	PaymentStatus string     `gorm:"size:20;default:'pending'" json:"payment_status"`
	PaidVia       string     `gorm:"size:10" json:"paid_via,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	PaymentIntentID     string `gorm:"size:100;index" json:"payment_intent_id,omitempty"`
	PaymentIntentStatus string `gorm:"size:40" json:"payment_intent_status,omitempty"`
	CheckoutSessionID   string `gorm:"size:100;index" json:"checkout_session_id,omitempty"`
	CheckoutSessionURL  string `gorm:"size:1000" json:"checkout_session_url,omitempty"`

	AppointmentStatus string `gorm:"size:20;default:'pending';index" json:"appointment_status"`

	Notes              string     `gorm:"size:500" json:"notes"`
	ProviderNotes      string     `gorm:"type:text" json:"provider_notes,omitempty"`
	CancellationReason string     `gorm:"size:500" json:"cancellation_reason,omitempty"`
	CancelledBy        string     `gorm:"size:10" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	Review *Review `gorm:"type:jsonb;serializer:json" json:"review,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Appointment) ApplyPaymentInvariants() {
	remaining, status := payment.Derive(
		a.TotalAmount,
		a.DownPayment,
		payment.Status(a.PaymentStatus),
		false,
	)
	a.RemainingAmount = remaining
	a.PaymentStatus = string(status)
}

func (a *Appointment) BeforeSave(*gorm.DB) error {
	a.ApplyPaymentInvariants()
	return nil
}

func (a *Appointment) MetadataKey() string {
	if a.OwnerKind == OwnerKindBusinessOwner {
		return payment.MetaBusinessOwnerAppointmentID
	}
	return payment.MetaAppointmentID
}
