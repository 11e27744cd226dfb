package persistence

import (
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// insertUnlessStale runs create when no row with id exists. A row that
// exists but did not match the versioned update was changed after the
// aggregate was loaded.
func insertUnlessStale(db *gorm.DB, model any, id uuid.UUID, create func() error) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	return create()
}
