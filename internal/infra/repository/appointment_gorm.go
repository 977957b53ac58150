package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/appointment"
	"github.com/BruksfildServices01/service-marketplace/internal/domain/schedule"
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(
	ctx context.Context,
	id string,
) (*models.ServiceOffering, error) {
	return getService(ctx, r.db, id)
}

// --------------------------------------------------
// Reservation
// --------------------------------------------------

// lockDay serialises writers of one owner calendar day for the rest of tx.
func lockDay(tx *gorm.DB, ownerKey, date string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ownerKey+"|"+date).Error
}

func activeForDay(tx *gorm.DB, ownerKey, date string) ([]models.Appointment, error) {
	var apps []models.Appointment
	err := tx.
		Where(
			"owner_key = ? AND appointment_date = ? AND appointment_status IN ?",
			ownerKey, date, domain.ActiveStatuses,
		).
		Order("time_slot_start_time ASC").
		Find(&apps).Error
	return apps, err
}

func assertFree(tx *gorm.DB, ap *models.Appointment) error {
	if err := lockDay(tx, ap.OwnerKey, ap.AppointmentDate); err != nil {
		return err
	}

	iv, err := schedule.ParseInterval(ap.TimeSlot.StartTime, ap.TimeSlot.EndTime)
	if err != nil {
		return err
	}

	active, err := activeForDay(tx.Clauses(clause.Locking{Strength: "UPDATE"}), ap.OwnerKey, ap.AppointmentDate)
	if err != nil {
		return err
	}
	if schedule.HasConflict(domain.ToBooked(active), iv, ap.ID) {
		return httperr.SlotConflict()
	}
	return nil
}

// reservationError maps a lost race on the partial unique index to a slot
// conflict.
func reservationError(err error) error {
	if err != nil && isUniqueViolation(err) {
		return httperr.SlotConflict()
	}
	return err
}

func (r *AppointmentGormRepository) CreateWithoutConflict(
	ctx context.Context,
	ap *models.Appointment,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assertFree(tx, ap); err != nil {
			return err
		}
		return tx.Create(ap).Error
	})
	return reservationError(err)
}

func (r *AppointmentGormRepository) SaveWithoutConflict(
	ctx context.Context,
	ap *models.Appointment,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assertFree(tx, ap); err != nil {
			return err
		}
		return saveUnchanged(tx, ap, ap.UpdatedAt, "appointment_changed")
	})
	return reservationError(err)
}

func (r *AppointmentGormRepository) ListActiveForDay(
	ctx context.Context,
	ownerKey string,
	date string,
) ([]models.Appointment, error) {
	return activeForDay(r.db.WithContext(ctx), ownerKey, date)
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "appointment_not_found", "appointment not found")
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return saveUnchanged(r.db.WithContext(ctx), ap, ap.UpdatedAt, "appointment_changed")
}

func (r *AppointmentGormRepository) CompleteAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveUnchanged(tx, ap, ap.UpdatedAt, "appointment_changed"); err != nil {
			return err
		}
		return bumpCompletedJobs(tx, ap.OwnerID, ap.OwnerKind)
	})
}

// --------------------------------------------------
// Lists
// --------------------------------------------------

func (r *AppointmentGormRepository) ListForUser(
	ctx context.Context,
	userID string,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListForOwner(
	ctx context.Context,
	ownerID string,
	status string,
	date string,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("appointment_status = ?", status)
	}
	if date != "" {
		q = q.Where("appointment_date = ?", date)
	}

	var apps []models.Appointment
	if err := q.
		Order("appointment_date ASC").
		Order("time_slot_start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
