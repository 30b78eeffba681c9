package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/service/reservation"
)

type UpdateStatusRequest struct {
	Status        string     `json:"status"`
	SupplierNotes string     `json:"supplier_notes"`
	ExpectedDate  *time.Time `json:"expected_date"`
}

// UpdateStatus drives the order state machine. Only the order's supplier may
// transition per the table; cancellation is a side channel open to any
// authenticated actor and is checked before the table lookup. Transitioning
// into rejected or cancelled releases every line's stock exactly once, since
// a retry lands on a terminal state and fails before any release runs.
func (s *Service) UpdateStatus(ctx context.Context, orderID, actorID uint, req UpdateStatusRequest) (*models.Order, error) {
	to := req.Status
	if to == "" || !KnownStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, to)
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
			}
			return err
		}

		from := order.OrderStatus

		if to == models.OrderStatusCancelled {
			if IsTerminal(from) {
				return fmt.Errorf("%w: cannot change status from %s to %s", apperr.ErrIllegalTransition, from, to)
			}
		} else {
			if order.SupplierID != actorID {
				return fmt.Errorf("%w: only the supplier can update order status", apperr.ErrForbidden)
			}
			if !CanTransition(from, to) {
				return fmt.Errorf("%w: cannot change status from %s to %s", apperr.ErrIllegalTransition, from, to)
			}
		}

		now := time.Now()
		updates := map[string]interface{}{"order_status": to}
		if req.SupplierNotes != "" {
			updates["supplier_notes"] = req.SupplierNotes
		}
		if req.ExpectedDate != nil {
			updates["expected_date"] = req.ExpectedDate
		}
		if to == models.OrderStatusDelivered {
			updates["actual_completion_date"] = now
		}

		// Compare-and-set on the status column serializes concurrent
		// transitions; a lost race surfaces as an illegal transition
		// instead of applying twice.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND order_status = ?", orderID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", apperr.ErrIllegalTransition, orderID)
		}

		note := req.SupplierNotes
		if note == "" {
			note = "Status updated to " + to
		}
		if err := tx.Create(&models.OrderStatusEntry{
			OrderID:   orderID,
			Status:    to,
			UpdatedBy: actorID,
			Timestamp: now,
			Note:      note,
		}).Error; err != nil {
			return err
		}

		if to == models.OrderStatusRejected || to == models.OrderStatusCancelled {
			if err := s.releaseOrderStock(tx, orderID, actorID); err != nil {
				return err
			}
		}
		if to == models.OrderStatusCancelled {
			if err := s.cancelLiveDelivery(tx, orderID, actorID, now); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.load(ctx, orderID)
}

func (s *Service) releaseOrderStock(tx *gorm.DB, orderID, actorID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		if err := reservation.Release(tx, it.InventoryItemID, it.Quantity, actorID); err != nil {
			return err
		}
	}
	return nil
}

// cancelLiveDelivery is the compensating action for cancelling an order the
// synchronizer already has in flight: a non-terminal Delivery is cancelled
// in the same transaction so it cannot keep mirroring onto a dead order.
func (s *Service) cancelLiveDelivery(tx *gorm.DB, orderID, actorID uint, now time.Time) error {
	var d models.Delivery
	err := tx.Where("order_id = ?", orderID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	switch d.Status {
	case models.DeliveryStatusDelivered, models.DeliveryStatusFailed, models.DeliveryStatusCancelled:
		return nil
	}

	if err := tx.Model(&models.Delivery{}).
		Where("id = ? AND status = ?", d.ID, d.Status).
		UpdateColumn("status", models.DeliveryStatusCancelled).Error; err != nil {
		return err
	}
	return tx.Create(&models.DeliveryTimelineEntry{
		DeliveryID: d.ID,
		Status:     models.DeliveryStatusCancelled,
		Timestamp:  now,
		Note:       "Order cancelled",
	}).Error
}

func (s *Service) load(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
