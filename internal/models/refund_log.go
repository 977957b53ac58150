package models

import "time"

type RefundLog struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	PaymentIntentID string  `gorm:"size:100;not null;index" json:"payment_intent_id"`
	RefundID        *string `gorm:"size:100;uniqueIndex" json:"refund_id"`

	Amount      float64           `json:"amount"`
	Reason      string            `gorm:"size:100" json:"reason,omitempty"`
	Status      string            `gorm:"size:20;not null" json:"status"`
	StripeError string            `gorm:"size:500" json:"stripe_error,omitempty"`
	Metadata    map[string]string `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookEvent records provider events that were already applied.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:100" json:"event_id"`
	Type        string    `gorm:"size:80" json:"type"`
	ProcessedAt time.Time `json:"processed_at"`
}
