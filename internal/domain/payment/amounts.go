package payment

import "math"

const (
	PlatformFeeRate = 0.10

	// Clients must offer at least this share of the total as down payment.
	MinDownPaymentRequestRate = 0.20
	// A persisted booking always carries at least this share.
	MinDownPaymentPersistRate = 0.30
)

// ToMinorUnits converts an amount to the smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PlatformSplit returns the platform fee and the provider payout for total.
func PlatformSplit(total float64) (fee, payout float64) {
	fee = Round2(total * PlatformFeeRate)
	payout = math.Max(Round2(total-fee), 0)
	return fee, payout
}

// MeetsShare reports down >= rate*total, tolerating float noise below a cent.
func MeetsShare(down, total, rate float64) bool {
	return ToMinorUnits(down) >= ToMinorUnits(total*rate)
}
