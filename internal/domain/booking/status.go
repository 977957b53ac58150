package booking

import (
	"github.com/BruksfildServices01/service-marketplace/internal/domain/lifecycle"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

var Machine = lifecycle.NewMachine[Status]("booking",
	[]Status{StatusCompleted, StatusCancelled, StatusRejected},

	lifecycle.Rule[Status]{From: StatusPending, To: StatusConfirmed, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusPending, To: StatusRejected, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusInProgress, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusInProgress, To: StatusCompleted, Actor: lifecycle.ActorOwner},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusCompleted, Actor: lifecycle.ActorOwner},

	lifecycle.Rule[Status]{From: StatusPending, To: StatusCancelled, Actor: lifecycle.ActorUser},
	lifecycle.Rule[Status]{From: StatusConfirmed, To: StatusCancelled, Actor: lifecycle.ActorUser},
	lifecycle.Rule[Status]{From: StatusInProgress, To: StatusCancelled, Actor: lifecycle.ActorUser},
)

func InitialStatus() Status {
	return StatusPending
}

// IsActive reports statuses that still block a duplicate request.
func IsActive(s Status) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}
