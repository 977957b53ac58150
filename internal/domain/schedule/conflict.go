package schedule

// Booked is an active reservation already holding part of a day.
type Booked struct {
	ID       string
	Interval Interval
}

// HasConflict reports whether proposed overlaps any reservation other than
// excludeID. Callers pass only pending/confirmed reservations of the same
// owner key and date.
func HasConflict(existing []Booked, proposed Interval, excludeID string) bool {
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.Interval.Overlaps(proposed) {
			return true
		}
	}
	return false
}

// ParseBooked converts stored HH:MM pairs. Rows with unreadable times are
// treated as blocking the whole day so they can never be double-booked.
func ParseBooked(id, start, end string) Booked {
	iv, err := ParseInterval(start, end)
	if err != nil {
		iv = Interval{Start: 0, End: 24 * 60}
	}
	return Booked{ID: id, Interval: iv}
}
