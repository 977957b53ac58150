package payment

import "testing"

func TestFullyRefunded(t *testing.T) {
	cases := []struct {
		refunded, charged float64
		want              bool
	}{
		{40, 40, true},
		{40.004, 40, true},
		{10, 40, false},
		{39.99, 40, false},
		{50, 40, true},
		{0, 0, false},
	}
	for _, c := range cases {
		if got := FullyRefunded(c.refunded, c.charged); got != c.want {
			t.Errorf("FullyRefunded(%v, %v) = %v, want %v", c.refunded, c.charged, got, c.want)
		}
	}
}

func TestNormalizeRefundStatus(t *testing.T) {
	if NormalizeRefundStatus(" Cancelled ") != RefundCanceled {
		t.Fatal("cancelled spelling not mapped")
	}
	if NormalizeRefundStatus("weird") != RefundPending {
		t.Fatal("unknown status must be pending")
	}
}
