package payment

import "math"

// Derive recomputes the remaining amount and the payment status of an
// aggregate before it is saved.
//
// Settled states force remaining to zero. Otherwise remaining is
// max(0, total-down); a zero remainder settles the aggregate, and states driven
// by the provider (authorized, refunded, failed and, when preserveDue is set,
// due_requested) are kept. Everything else collapses to partial or pending.
func Derive(total, down float64, current Status, preserveDue bool) (float64, Status) {
	if IsSettled(current) {
		return 0, current
	}

	if preserveDue && current == StatusDueRequested {
		return math.Max(0, Round2(total-down)), current
	}

	remaining := math.Max(0, Round2(total-down))
	if remaining <= 0 {
		return 0, StatusCompleted
	}

	switch current {
	case StatusAuthorized, StatusRefunded, StatusFailed:
		return remaining, current
	}

	if down > 0 {
		return remaining, StatusPartial
	}
	return remaining, StatusPending
}
