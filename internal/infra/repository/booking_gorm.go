package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/service-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

var activeBookingStatuses = []string{
	string(domain.StatusPending),
	string(domain.StatusConfirmed),
	string(domain.StatusInProgress),
}

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

func (r *BookingGormRepository) GetService(ctx context.Context, id string) (*models.ServiceOffering, error) {
	return getService(ctx, r.db, id)
}

func (r *BookingGormRepository) HasActiveBooking(
	ctx context.Context,
	userID string,
	serviceID string,
	at time.Time,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where(
			"user_id = ? AND service_id = ? AND booking_date = ? AND booking_status IN ?",
			userID, serviceID, at, activeBookingStatuses,
		).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingGormRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookingGormRepository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "booking_not_found", "booking not found")
	}
	return &b, nil
}

func (r *BookingGormRepository) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return saveUnchanged(r.db.WithContext(ctx), b, b.UpdatedAt, "booking_changed")
}

func (r *BookingGormRepository) CompleteBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveUnchanged(tx, b, b.UpdatedAt, "booking_changed"); err != nil {
			return err
		}
		return bumpCompletedJobs(tx, b.OwnerID, b.OwnerKind)
	})
}

func (r *BookingGormRepository) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingGormRepository) ListForOwner(ctx context.Context, ownerID, status string) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("booking_status = ?", status)
	}

	var out []models.Booking
	if err := q.Order("booking_date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var _ domain.Repository = (*BookingGormRepository)(nil)
