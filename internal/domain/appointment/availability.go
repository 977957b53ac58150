package appointment

import (
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// Availability lists the service's slot templates and the intervals already
// held on the owner's calendar for one date. Clients pick a template and a
// start time that avoids Booked.
type Availability struct {
	ServiceID string                   `json:"service_id"`
	Date      string                   `json:"date"`
	Slots     []models.AppointmentSlot `json:"slots"`
	Booked    []models.TimeSlot        `json:"booked"`
}

func BuildAvailability(svc *models.ServiceOffering, date string, active []models.Appointment) Availability {
	booked := make([]models.TimeSlot, 0, len(active))
	for _, ap := range active {
		booked = append(booked, ap.TimeSlot)
	}

	slots := svc.AppointmentSlots
	if slots == nil {
		slots = []models.AppointmentSlot{}
	}

	return Availability{
		ServiceID: svc.ID,
		Date:      date,
		Slots:     slots,
		Booked:    booked,
	}
}
