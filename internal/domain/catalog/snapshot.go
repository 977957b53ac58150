package catalog

import (
	"slices"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// Validate checks the pricing shape of a service: appointment-enabled services
// are priced by slot only, the rest by base price only.
func Validate(svc *models.ServiceOffering) error {
	if svc.AppointmentEnabled {
		if svc.BasePrice != 0 || len(svc.AppointmentSlots) == 0 {
			return httperr.Invariant("invalid_service", "appointment services need slots and no base price")
		}
		for _, s := range svc.AppointmentSlots {
			if s.SlotID == "" || s.Duration <= 0 || s.Price < 0 {
				return httperr.Invariant("invalid_service", "appointment slot is malformed")
			}
			if s.DurationUnit != models.DurationMinutes && s.DurationUnit != models.DurationHours {
				return httperr.Invariant("invalid_service", "unknown slot duration unit")
			}
		}
		return nil
	}

	if len(svc.AppointmentSlots) != 0 || svc.BasePrice <= 0 {
		return httperr.Invariant("invalid_service", "bookable services need a positive base price and no slots")
	}
	return nil
}

// SnapshotForBooking copies the fields a booking keeps regardless of later
// edits to the service.
func SnapshotForBooking(svc *models.ServiceOffering) models.ServiceSnapshot {
	return models.ServiceSnapshot{
		Headline:     svc.Headline,
		ServicePhoto: svc.ServicePhoto,
		BasePrice:    svc.BasePrice,
		Categories:   slices.Clone(svc.Categories),
	}
}

// SnapshotForAppointment prices the snapshot with the chosen slot.
func SnapshotForAppointment(svc *models.ServiceOffering, slot models.AppointmentSlot) models.ServiceSnapshot {
	snap := SnapshotForBooking(svc)
	snap.BasePrice = slot.Price
	return snap
}

func FindSlot(svc *models.ServiceOffering, slotID string) (models.AppointmentSlot, error) {
	for _, s := range svc.AppointmentSlots {
		if s.SlotID == slotID {
			return s, nil
		}
	}
	return models.AppointmentSlot{}, httperr.NotFoundErr("slot_not_found", "appointment slot not found")
}

// DurationMinutes normalises a slot template duration.
func DurationMinutes(slot models.AppointmentSlot) int {
	if slot.DurationUnit == models.DurationHours {
		return slot.Duration * 60
	}
	return slot.Duration
}
