package reservation

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
)

// Ledger reasons.
const (
	ReasonReserve = "reserve"
	ReasonRelease = "release"
	ReasonRestock = "restock"
)

// Reserve atomically decrements available stock with a floor check. The
// decrement is a single conditional UPDATE, so concurrent reservations on
// the same item can never drive quantity_available negative: losers of the
// race simply match zero rows and report the shortfall.
//
// db may be a transaction; checkout passes its own so a later failure rolls
// the reservation back.
func Reserve(db *gorm.DB, itemID uint, quantity int, actorID uint) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
	}

	res := db.Model(&models.InventoryItem{}).
		Where("id = ? AND quantity_available >= ?", itemID, quantity).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var item models.InventoryItem
		if err := db.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: inventory item %d", apperr.ErrNotFound, itemID)
			}
			return err
		}
		return &apperr.InsufficientStockError{
			ItemID:    item.ID,
			Name:      item.Name,
			Available: item.QuantityAvailable,
			Requested: quantity,
		}
	}

	// out_of_stock is derived; the numeric quantity is the authority.
	if err := db.Model(&models.InventoryItem{}).
		Where("id = ? AND quantity_available = 0", itemID).
		UpdateColumn("out_of_stock", true).Error; err != nil {
		return err
	}

	return appendLedger(db, itemID, -quantity, ReasonReserve, actorID)
}

// Release returns reserved stock to the pool and clears out_of_stock
// unconditionally: an item is never left marked out-of-stock after a
// successful release.
func Release(db *gorm.DB, itemID uint, quantity int, actorID uint) error {
	return restore(db, itemID, quantity, actorID, ReasonRelease)
}

// Restock is the supplier-facing replenishment path. It shares the release
// mechanics so every stock mutation flows through this package.
func Restock(db *gorm.DB, itemID uint, quantity int, actorID uint) error {
	return restore(db, itemID, quantity, actorID, ReasonRestock)
}

func restore(db *gorm.DB, itemID uint, quantity int, actorID uint, reason string) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
	}

	res := db.Model(&models.InventoryItem{}).
		Where("id = ?", itemID).
		UpdateColumns(map[string]interface{}{
			"quantity_available": gorm.Expr("quantity_available + ?", quantity),
			"out_of_stock":       false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: inventory item %d", apperr.ErrNotFound, itemID)
	}

	return appendLedger(db, itemID, quantity, reason, actorID)
}

func appendLedger(db *gorm.DB, itemID uint, change int, reason string, actorID uint) error {
	return db.Create(&models.StockMovement{
		InventoryItemID: itemID,
		Change:          change,
		Reason:          reason,
		ActorID:         actorID,
	}).Error
}
