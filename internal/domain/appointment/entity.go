package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// OwnerKey names the calendar an appointment reserves time on. Provider
// services share the provider's calendar; employee services each have their own.
func OwnerKey(svc *models.ServiceOffering) string {
	if svc.OwnerKind == models.OwnerKindBusinessOwner {
		return "employee_service:" + svc.ID
	}
	return "provider:" + svc.OwnerID
}

// ToBooked converts stored appointments for the conflict detector.
func ToBooked(aps []models.Appointment) []schedule.Booked {
	out := make([]schedule.Booked, 0, len(aps))
	for _, ap := range aps {
		out = append(out, schedule.ParseBooked(ap.ID, ap.TimeSlot.StartTime, ap.TimeSlot.EndTime))
	}
	return out
}

// ===============================
// Domain Actions
// ===============================

func move(ap *models.Appointment, to Status, actor lifecycle.Actor) error {
	if err := Machine.Check(Status(ap.AppointmentStatus), to, actor); err != nil {
		return err
	}
	ap.AppointmentStatus = string(to)
	return nil
}

func Accept(ap *models.Appointment, now time.Time) error {
	if err := move(ap, StatusConfirmed, lifecycle.ActorOwner); err != nil {
		return err
	}
	ap.ConfirmedAt = &now
	return nil
}

func Reject(ap *models.Appointment, reason string, now time.Time) error {
	if err := move(ap, StatusRejected, lifecycle.ActorOwner); err != nil {
		return err
	}
	ap.CancellationReason = strings.TrimSpace(reason)
	ap.CancelledBy = string(lifecycle.ActorOwner)
	ap.CancelledAt = &now
	return nil
}

func Cancel(ap *models.Appointment, reason string, now time.Time) error {
	if err := move(ap, StatusCancelled, lifecycle.ActorUser); err != nil {
		return err
	}
	ap.CancellationReason = strings.TrimSpace(reason)
	ap.CancelledBy = string(lifecycle.ActorUser)
	ap.CancelledAt = &now
	return nil
}

func Start(ap *models.Appointment, now time.Time) error {
	if err := move(ap, StatusInProgress, lifecycle.ActorOwner); err != nil {
		return err
	}
	ap.StartedAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := move(ap, StatusCompleted, lifecycle.ActorOwner); err != nil {
		return err
	}
	ap.CompletedAt = &now
	return nil
}

func NoShow(ap *models.Appointment) error {
	return move(ap, StatusNoShow, lifecycle.ActorOwner)
}

// Reschedule moves the appointment in place. The caller re-runs the conflict
// check excluding ap itself before persisting.
func Reschedule(ap *models.Appointment, date string, slot models.TimeSlot, note string, now time.Time) error {
	if !CanReschedule(Status(ap.AppointmentStatus)) {
		return httperr.IllegalTransition("appointment", ap.AppointmentStatus, "rescheduled")
	}

	prevDate, prevSlot := ap.AppointmentDate, ap.TimeSlot
	ap.AppointmentDate = date
	ap.TimeSlot = slot

	line := fmt.Sprintf(
		"[%s] rescheduled from %s %s-%s to %s %s-%s",
		now.UTC().Format(time.RFC3339),
		prevDate, prevSlot.StartTime, prevSlot.EndTime,
		date, slot.StartTime, slot.EndTime,
	)
	if note = strings.TrimSpace(note); note != "" {
		line += ": " + note
	}
	if ap.ProviderNotes != "" {
		ap.ProviderNotes += "\n"
	}
	ap.ProviderNotes += line
	return nil
}

func AddReview(ap *models.Appointment, rating int, comment string, now time.Time) error {
	if Status(ap.AppointmentStatus) != StatusCompleted {
		return httperr.Validation("not_completed", "only completed appointments can be reviewed")
	}
	if ap.Review != nil {
		return httperr.Conflict("already_reviewed", "appointment already has a review")
	}
	r, err := booking.NewReview(rating, comment, now)
	if err != nil {
		return err
	}
	ap.Review = r
	return nil
}
