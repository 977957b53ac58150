package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
	"github.com/BruksfildServices01/service-marketplace/internal/models"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// notFound turns gorm's missing-row error into the business error for code.
func notFound(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.NotFoundErr(code, message)
	}
	return err
}

func getService(ctx context.Context, db *gorm.DB, id string) (*models.ServiceOffering, error) {
	var svc models.ServiceOffering
	if err := db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "service_not_found", "service not found")
	}
	return &svc, nil
}

// bumpCompletedJobs increments the owner's counter, creating the profile row
// on first completion.
func bumpCompletedJobs(tx *gorm.DB, ownerID, kind string) error {
	profile := models.OwnerProfile{ID: ownerID, Kind: kind, CompletedJobs: 1}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"completed_jobs": gorm.Expr("owner_profiles.completed_jobs + 1"),
			"updated_at":     time.Now().UTC(),
		}),
	}).Create(&profile).Error
}
