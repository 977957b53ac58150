package payment

import "strings"

type RefundStatus string

const (
	RefundRequested      RefundStatus = "requested"
	RefundPending        RefundStatus = "pending"
	RefundSucceeded      RefundStatus = "succeeded"
	RefundFailed         RefundStatus = "failed"
	RefundCanceled       RefundStatus = "canceled"
	RefundRequiresAction RefundStatus = "requires_action"
)

// NormalizeRefundStatus maps a provider refund status onto the stored set.
// Unknown values become pending.
func NormalizeRefundStatus(raw string) RefundStatus {
	switch s := RefundStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case RefundRequested, RefundPending, RefundSucceeded, RefundFailed, RefundCanceled, RefundRequiresAction:
		return s
	case "cancelled":
		return RefundCanceled
	default:
		return RefundPending
	}
}

// IsOpenRefund reports whether a log row is still waiting for a provider refund id.
func IsOpenRefund(s RefundStatus) bool {
	return s == RefundRequested || s == RefundPending
}

// FullyRefunded reports whether succeeded refunds cover what was charged.
// Partial refunds leave the aggregate's payment status alone.
func FullyRefunded(refunded, charged float64) bool {
	return charged > 0 && Round2(refunded) >= Round2(charged)
}
