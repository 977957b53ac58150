package models

import "time"

const (
	OwnerKindProvider      = "provider"
	OwnerKindBusinessOwner = "business_owner"
)

const (
	DurationMinutes = "minutes"
	DurationHours   = "hours"
)

// AppointmentSlot is a reusable {duration, price} template offered by an
// appointment-enabled service.
type AppointmentSlot struct {
	SlotID       string  `json:"slot_id"`
	Duration     int     `json:"duration"`
	DurationUnit string  `json:"duration_unit"`
	Price        float64 `json:"price"`
}

// ServiceOffering is owned by a provider or by a business owner through one of
// its employees. Profile CRUD happens elsewhere; this service only reads it.
type ServiceOffering struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	OwnerKind  string  `gorm:"size:20;not null;index" json:"owner_kind"`
	OwnerID    string  `gorm:"size:36;not null;index" json:"owner_id"`
	EmployeeID *string `gorm:"size:36" json:"employee_id,omitempty"`

	Headline     string   `gorm:"size:150;not null" json:"headline"`
	Description  string   `gorm:"type:text" json:"description"`
	ServicePhoto string   `gorm:"size:500" json:"service_photo"`
	Categories   []string `gorm:"type:jsonb;serializer:json" json:"categories"`

	BasePrice          float64           `json:"base_price"`
	AppointmentEnabled bool              `json:"appointment_enabled"`
	AppointmentSlots   []AppointmentSlot `gorm:"type:jsonb;serializer:json" json:"appointment_slots"`
	IsActive           bool              `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceSnapshot freezes the pricing and naming of a service at the time a
// booking or appointment is created.
type ServiceSnapshot struct {
	Headline     string   `gorm:"size:150" json:"headline"`
	ServicePhoto string   `gorm:"size:500" json:"service_photo"`
	BasePrice    float64  `json:"base_price"`
	Categories   []string `gorm:"type:jsonb;serializer:json" json:"categories"`
}

type Review struct {
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// OwnerProfile keeps counters for providers and business owners.
type OwnerProfile struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	Kind          string `gorm:"size:20" json:"kind"`
	CompletedJobs int64  `gorm:"default:0" json:"completed_jobs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
