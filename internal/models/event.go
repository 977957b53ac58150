package models

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Event is managed by event managers elsewhere; ticket sales only read it and
// move tickets_sold.
type Event struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	EventManagerID string `gorm:"size:36;not null;index" json:"event_manager_id"`
	Title          string `gorm:"size:200" json:"title"`

	MaximumNumberOfTickets int     `gorm:"not null" json:"maximum_number_of_tickets"`
	TicketsSold            int     `gorm:"not null;default:0" json:"tickets_sold"`
	TicketPrice            float64 `json:"ticket_price"`

	TicketSalesStart time.Time `json:"ticket_sales_start"`
	TicketSalesEnd   time.Time `json:"ticket_sales_end"`
	EventStart       time.Time `json:"event_start"`
	EventEnd         time.Time `json:"event_end"`

	Status                 string `gorm:"size:20;default:'draft'" json:"status"`
	ConfirmationCodePrefix string `gorm:"size:10" json:"confirmation_code_prefix"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TicketPurchase struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	EventID string `gorm:"size:36;not null;index" json:"event_id"`
	UserID  string `gorm:"size:36;not null;index" json:"user_id"`

	Quantity    int     `gorm:"not null" json:"quantity"`
	TotalAmount float64 `json:"total_amount"`

	PaymentIntentID     string     `gorm:"size:100;index" json:"payment_intent_id,omitempty"`
	PaymentIntentStatus string     `gorm:"size:40" json:"payment_intent_status,omitempty"`
	PaymentStatus       string     `gorm:"size:20;default:'pending'" json:"payment_status"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`

	// TicketsCredited flips once, together with the tickets_sold increment.
	TicketsCredited  bool   `gorm:"not null;default:false" json:"tickets_credited"`
	ConfirmationCode string `gorm:"size:40" json:"confirmation_code,omitempty"`
	FailureReason    string `gorm:"size:100" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
