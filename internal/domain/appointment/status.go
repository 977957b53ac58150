package appointment

import "github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
	StatusNoShow     Status = "no_show"
)

// Machine is the booking table plus confirmed -> no_show for the owner.
var Machine = lifecycle.NewMachine[Status]("appointment",
	[]Status{StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow},

	lifecycle.Rule[Status]{From: StatusPending, To: StatusConfirmed, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusPending, To: StatusRejected, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusInProgress, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusInProgress, To: StatusCompleted, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusCompleted, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusNoShow, Actor: lifecycle.ActorOwner},

	lifecycle.Rule[Status]{From: StatusPending, To: StatusCancelled, Actor: lifecycle.ActorUser},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusCancelled, Actor: lifecycle.ActorUser},
	lifecycle.Rule[Status]{From: StatusInProgress, To: StatusCancelled, Actor: lifecycle.ActorUser},
)

func InitialStatus() Status {
	return StatusPending
}

// ActiveStatuses hold a slot on the owner's calendar.
var ActiveStatuses = []string{string(StatusPending), string(StatusConfirmed)}

func IsActive(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanReschedule allows in-place moves while the appointment still holds a slot.
func CanReschedule(s Status) bool {
	return IsActive(s)
}
