package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amoghku/marketplace-pim/internal/models"
)

// replaceValuePerPoints swaps the owner's override rows for rows. It must run
// inside the caller's transaction.
func replaceValuePerPoints(tx *gorm.DB, ownerType models.EntityType, ownerID uuid.UUID, rows []models.ValuePerPoint) error {
	if err := tx.Unscoped().
		Where("owner_id = ? AND owner_type = ?", ownerID, string(ownerType)).
		Delete(&models.ValuePerPoint{}).Error; err != nil {
		return fmt.Errorf("failed to clear value per points: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	currencyIDs := make([]uuid.UUID, 0, len(rows))
	channelIDs := make([]uuid.UUID, 0, len(rows))
	fresh := make([]models.ValuePerPoint, 0, len(rows))

	for _, row := range rows {
		if row.CurrencyID == nil && row.Currency != nil && row.Currency.ID != uuid.Nil {
			id := row.Currency.ID
			row.CurrencyID = &id
		}
		if row.SalesChannelID == nil && row.SalesChannel != nil && row.SalesChannel.ID != uuid.Nil {
			id := row.SalesChannel.ID
			row.SalesChannelID = &id
		}
		if row.CurrencyID != nil {
			currencyIDs = append(currencyIDs, *row.CurrencyID)
		}
		if row.SalesChannelID != nil {
			channelIDs = append(channelIDs, *row.SalesChannelID)
		}

		row.BaseModel = models.BaseModel{}
		row.OwnerID = ownerID
		row.OwnerType = string(ownerType)
		row.Currency = nil
		row.SalesChannel = nil
		fresh = append(fresh, row)
	}

	if err := ensureExists(tx, &models.Currency{}, currencyIDs); err != nil {
		return err
	}
	if err := ensureExists(tx, &models.SalesChannel{}, channelIDs); err != nil {
		return err
	}

	if err := tx.Omit(clause.Associations).Create(&fresh).Error; err != nil {
		return fmt.Errorf("failed to store value per points: %w", err)
	}
	return nil
}

// ensureExists fails with ErrInvalidReference unless every id names a live row of model.
func ensureExists(tx *gorm.DB, model interface{}, ids []uuid.UUID) error {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(model).Where("id IN ?", unique).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(unique)) {
		return ErrInvalidReference
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
