package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
)

// ConfirmPayment is a narrow guarded transition independent of the status
// table: supplier only, delivered orders only, and never twice.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, actorID uint, method string) (*models.Order, error) {
	if method == "" {
		method = models.PaymentStatusCashOnDelivery
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", apperr.ErrNotFound, orderID)
			}
			return err
		}

		if order.SupplierID != actorID {
			return fmt.Errorf("%w: only the supplier can confirm payment", apperr.ErrForbidden)
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			return apperr.ErrAlreadyPaid
		}
		if order.OrderStatus != models.OrderStatusDelivered {
			return fmt.Errorf("%w: payment can only be confirmed for delivered orders", apperr.ErrOrderNotDelivered)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status <> ?", orderID, models.PaymentStatusPaid).
			UpdateColumn("payment_status", models.PaymentStatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrAlreadyPaid
		}

		return tx.Create(&models.OrderStatusEntry{
			OrderID:   orderID,
			Status:    "payment_confirmed",
			UpdatedBy: actorID,
			Timestamp: time.Now(),
			Note:      "Payment confirmed via " + method,
		}).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.load(ctx, orderID)
}
