package dto

import "github.com/BruksfildServices01/service-marketplace/internal/models"

// AppointmentListDTO is the calendar row shown to owners.
type AppointmentListDTO struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	ServiceID        string  `json:"service_id"`
	AppointmentDate  string  `json:"appointment_date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Status           string  `json:"status"`
	PaymentStatus    string  `json:"payment_status"`
	ServiceName      string  `json:"service_name"`
	TotalAmount      float64 `json:"total_amount"`
	RemainingAmount  float64 `json:"remaining_amount"`
	HasProviderNotes bool    `json:"has_provider_notes"`
}

func FromAppointment(ap models.Appointment) AppointmentListDTO {
	return AppointmentListDTO{
		ID:               ap.ID,
		UserID:           ap.UserID,
		ServiceID:        ap.ServiceID,
		AppointmentDate:  ap.AppointmentDate,
		StartTime:        ap.TimeSlot.StartTime,
		EndTime:          ap.TimeSlot.EndTime,
		Status:           ap.AppointmentStatus,
		PaymentStatus:    ap.PaymentStatus,
		ServiceName:      ap.ServiceSnapshot.Headline,
		TotalAmount:      ap.TotalAmount,
		RemainingAmount:  ap.RemainingAmount,
		HasProviderNotes: ap.ProviderNotes != "",
	}
}
