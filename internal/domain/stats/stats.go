package stats

import (
	"sort"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/domain/payment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

const (
	KindBooking     = "booking"
	KindAppointment = "appointment"
)

// Growth is the month-over-month change in percent.
func Growth(this, prev float64) float64 {
	switch {
	case prev == 0 && this > 0:
		return 100
	case prev == 0:
		return 0
	}
	return payment.Round2((this - prev) / prev * 100)
}

type ScheduleItem struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Headline  string    `json:"headline"`
	Status    string    `json:"status"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
}

type OrderItem struct {
	Kind          string    `json:"kind"`
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Headline      string    `json:"headline"`
	TotalAmount   float64   `json:"total_amount"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Dashboard struct {
	BookingsByStatus     map[string]int `json:"bookings_by_status"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`

	RequestsThisMonth int     `json:"requests_this_month"`
	RequestsLastMonth int     `json:"requests_last_month"`
	RequestGrowth     float64 `json:"request_growth"`

	IncomeTotal     float64 `json:"income_total"`
	IncomeThisMonth float64 `json:"income_this_month"`
	IncomeLastMonth float64 `json:"income_last_month"`
	IncomeGrowth    float64 `json:"income_growth"`

	PendingRequests   int            `json:"pending_requests"`
	TodayAppointments []ScheduleItem `json:"today_appointments"`
	Upcoming          []ScheduleItem `json:"upcoming"`
	Orders            []OrderItem    `json:"orders"`
}

func isIncome(status string) bool {
	return payment.IsSettled(payment.Status(status))
}

// Compute builds an owner dashboard from its bookings and appointments. now
// must already be in the business location.
func Compute(bookings []models.Booking, appointments []models.Appointment, now time.Time) Dashboard {
	loc := now.Location()
	thisStart, thisEnd := schedule.MonthBounds(now)
	prevStart, _ := schedule.MonthBounds(thisStart.AddDate(0, 0, -1))
	today := schedule.FormatDate(now)

	d := Dashboard{
		BookingsByStatus:     map[string]int{},
		AppointmentsByStatus: map[string]int{},
		TodayAppointments:    []ScheduleItem{},
		Upcoming:             []ScheduleItem{},
		Orders:               []OrderItem{},
	}

	var incomeThis, incomePrev float64

	tally := func(created time.Time, status, paymentStatus string, amount float64) {
		inThis := !created.Before(thisStart) && created.Before(thisEnd)
		inPrev := !created.Before(prevStart) && created.Before(thisStart)
		if inThis {
			d.RequestsThisMonth++
		} else if inPrev {
			d.RequestsLastMonth++
		}
		if status == "pending" {
			d.PendingRequests++
		}
		if !isIncome(paymentStatus) {
			return
		}
		d.IncomeTotal += amount
		if inThis {
			incomeThis += amount
		} else if inPrev {
			incomePrev += amount
		}
	}

	for _, b := range bookings {
		d.BookingsByStatus[b.BookingStatus]++
		tally(b.CreatedAt, b.BookingStatus, b.PaymentStatus, b.TotalAmount)

		d.Orders = append(d.Orders, OrderItem{
			Kind: KindBooking, ID: b.ID, UserID: b.UserID,
			Headline: b.ServiceSnapshot.Headline, TotalAmount: b.TotalAmount,
			Status: b.BookingStatus, PaymentStatus: b.PaymentStatus, CreatedAt: b.CreatedAt,
		})

		if upcoming(b.BookingStatus) && !b.BookingDate.Before(now) {
			d.Upcoming = append(d.Upcoming, ScheduleItem{
				Kind: KindBooking, ID: b.ID, At: b.BookingDate,
				Headline: b.ServiceSnapshot.Headline, Status: b.BookingStatus,
			})
		}
	}

	for _, a := range appointments {
		d.AppointmentsByStatus[a.AppointmentStatus]++
		tally(a.CreatedAt, a.AppointmentStatus, a.PaymentStatus, a.TotalAmount)

		d.Orders = append(d.Orders, OrderItem{
			Kind: KindAppointment, ID: a.ID, UserID: a.UserID,
			Headline: a.ServiceSnapshot.Headline, TotalAmount: a.TotalAmount,
			Status: a.AppointmentStatus, PaymentStatus: a.PaymentStatus, CreatedAt: a.CreatedAt,
		})

		at, ok := appointmentStart(a, loc)
		if !ok || !upcoming(a.AppointmentStatus) {
			continue
		}
		item := ScheduleItem{
			Kind: KindAppointment, ID: a.ID, At: at,
			Headline: a.ServiceSnapshot.Headline, Status: a.AppointmentStatus,
			StartTime: a.TimeSlot.StartTime, EndTime: a.TimeSlot.EndTime,
		}
		if a.AppointmentDate == today {
			d.TodayAppointments = append(d.TodayAppointments, item)
		}
		if !at.Before(now) {
			d.Upcoming = append(d.Upcoming, item)
		}
	}

	d.IncomeTotal = payment.Round2(d.IncomeTotal)
	d.IncomeThisMonth = payment.Round2(incomeThis)
	d.IncomeLastMonth = payment.Round2(incomePrev)
	d.RequestGrowth = Growth(float64(d.RequestsThisMonth), float64(d.RequestsLastMonth))
	d.IncomeGrowth = Growth(incomeThis, incomePrev)

	SortSchedule(d.TodayAppointments)
	SortSchedule(d.Upcoming)
	SortOrders(d.Orders)

	return d
}

func upcoming(status string) bool {
	return status == "pending" || status == "confirmed" || status == "in_progress"
}

func appointmentStart(a models.Appointment, loc *time.Location) (time.Time, bool) {
	date, err := schedule.ParseDate(a.AppointmentDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	tod, err := schedule.ParseTimeOfDay(a.TimeSlot.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	return schedule.Combine(date, tod, loc), true
}

// SortSchedule orders items by date ascending.
func SortSchedule(items []ScheduleItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.Before(items[j].At)
	})
}

// SortOrders orders items newest first.
func SortOrders(items []OrderItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
