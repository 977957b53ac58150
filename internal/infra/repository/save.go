package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
)

// guardedSave writes every column of row except created_at, matching the row
// only while updated_at still holds loadedAt.
func guardedSave(tx *gorm.DB, row any, loadedAt time.Time) *gorm.DB {
	return tx.Model(row).
		Where("updated_at = ?", loadedAt).
		Select("*").
		Omit("created_at").
		Updates(row)
}

// saveUnchanged persists a row loaded outside the caller's transaction. The
// webhook reconciler settles payments on the same rows under a row lock and
// bumps updated_at, so a row it touched since the load is reported as a
// conflict instead of being overwritten with stale payment columns.
func saveUnchanged(tx *gorm.DB, row any, loadedAt time.Time, code string) error {
	res := guardedSave(tx, row, loadedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.Conflict(code, "record changed while it was being updated, reload and retry")
	}
	return nil
}
