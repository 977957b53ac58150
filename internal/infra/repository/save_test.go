package repository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

// dryRun builds statements against the postgres dialect without a server.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=app dbname=app sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestGuardedSaveMatchesLoadedVersion(t *testing.T) {
	loaded := time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ID: "b-1", BookingStatus: "cancelled", PaymentStatus: "partial",
		TotalAmount: 100, DownPayment: 30, UpdatedAt: loaded,
	}

	stmt := guardedSave(dryRun(t), b, loaded).Statement
	sql := stmt.SQL.String()

	for _, want := range []string{`UPDATE "bookings"`, "updated_at = $", `"id" = $`, `"booking_status"=$`, `"payment_status"=$`} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql %q missing %q", sql, want)
		}
	}
	if strings.Contains(sql, `"created_at"=`) {
		t.Fatalf("created_at must not be rewritten: %s", sql)
	}

	bound := false
	for _, v := range stmt.Vars {
		if ts, ok := v.(time.Time); ok && ts.Equal(loaded) {
			bound = true
		}
	}
	if !bound {
		t.Fatalf("loaded updated_at not bound: %v", stmt.Vars)
	}
}

func TestSaveUnchangedReportsConcurrentWrite(t *testing.T) {
	ap := &models.Appointment{ID: "a-1", AppointmentStatus: "confirmed", UpdatedAt: time.Now()}

	// A dry run matches no rows, the same outcome as a row whose
	// updated_at moved after the load.
	err := saveUnchanged(dryRun(t), ap, ap.UpdatedAt, "appointment_changed")
	if !httperr.IsBusiness(err, "appointment_changed") {
		t.Fatalf("expected conflict, got %v", err)
	}
	if kind, _ := httperr.KindOf(err); kind != httperr.KindConflict {
		t.Fatalf("kind = %v", kind)
	}
}
