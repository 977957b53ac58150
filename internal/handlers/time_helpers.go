package handlers

import (
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
)

// bookingDateLayouts are tried in order. Layouts without an offset are read
// in the business location.
var bookingDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseBookingDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range bookingDateLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, httperr.Validation("invalid_date", "booking_date must be RFC3339 or YYYY-MM-DDTHH:MM")
}
