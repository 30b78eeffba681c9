package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/service/reservation"
)

type CheckoutRequest struct {
	OrderType       string         `json:"order_type"`
	DeliveryAddress models.Address `json:"delivery_address"`
	PaymentMethod   string         `json:"payment_method"`
	VendorNotes     string         `json:"vendor_notes"`
}

type CheckoutResult struct {
	Orders     []models.Order `json:"orders"`
	TotalValue float64        `json:"total_value"`
}

type supplierGroup struct {
	supplierID uint
	items      []models.OrderItem
	subtotal   float64
}

// Checkout converts the vendor's cart into one order per supplier.
// Reservation, order creation and cart clearing run in one transaction:
// any shortfall rolls back every reservation already made, so a failed
// checkout is never observable as partially committed.
func (s *Service) Checkout(ctx context.Context, vendorID uint, req CheckoutRequest) (*CheckoutResult, error) {
	if req.OrderType == "" {
		req.OrderType = models.OrderTypePickup
	}
	if req.OrderType != models.OrderTypePickup && req.OrderType != models.OrderTypeDelivery {
		return nil, fmt.Errorf("%w: unknown order type %q", apperr.ErrValidation, req.OrderType)
	}
	if req.OrderType == models.OrderTypeDelivery && req.DeliveryAddress.Empty() {
		return nil, fmt.Errorf("%w: delivery address required for delivery orders", apperr.ErrValidation)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentStatusCashOnDelivery
	}

	paymentStatus := models.PaymentStatusPending
	if req.PaymentMethod == models.PaymentStatusCashOnDelivery {
		paymentStatus = models.PaymentStatusCashOnDelivery
	}

	var result CheckoutResult

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartItems []models.CartItem
		if err := tx.Where("vendor_id = ?", vendorID).Order("id").Find(&cartItems).Error; err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return apperr.ErrEmptyCart
		}

		// Prices and supplier ownership are captured now, not at
		// add-to-cart time.
		groups := map[uint]*supplierGroup{}
		for _, ci := range cartItems {
			var item models.InventoryItem
			if err := tx.First(&item, ci.InventoryItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: inventory item %d", apperr.ErrNotFound, ci.InventoryItemID)
				}
				return err
			}

			g, ok := groups[item.SupplierID]
			if !ok {
				g = &supplierGroup{supplierID: item.SupplierID}
				groups[item.SupplierID] = g
			}

			lineTotal := item.Price * float64(ci.Quantity)
			g.items = append(g.items, models.OrderItem{
				InventoryItemID: item.ID,
				Name:            item.Name,
				Quantity:        ci.Quantity,
				UnitPrice:       item.Price,
				LineTotal:       lineTotal,
			})
			g.subtotal += lineTotal
			result.TotalValue += lineTotal
		}

		supplierIDs := make([]uint, 0, len(groups))
		for id := range groups {
			supplierIDs = append(supplierIDs, id)
		}
		sort.Slice(supplierIDs, func(i, j int) bool { return supplierIDs[i] < supplierIDs[j] })

		// Reserve every line before creating any order. A single failure
		// aborts the transaction and releases everything reserved so far.
		for _, supplierID := range supplierIDs {
			for _, it := range groups[supplierID].items {
				if err := reservation.Reserve(tx, it.InventoryItemID, it.Quantity, vendorID); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		for _, supplierID := range supplierIDs {
			g := groups[supplierID]
			cgst := g.subtotal * TaxRateGST
			sgst := g.subtotal * TaxRateGST

			order := models.Order{
				VendorID:        vendorID,
				SupplierID:      supplierID,
				Items:           g.items,
				OrderType:       req.OrderType,
				VendorNotes:     req.VendorNotes,
				Subtotal:        g.subtotal,
				TaxCGST:         cgst,
				TaxSGST:         sgst,
				TotalAmount:     g.subtotal + cgst + sgst,
				OrderStatus:     models.OrderStatusPlaced,
				PaymentStatus:   paymentStatus,
				StatusHistory: []models.OrderStatusEntry{{
					Status:    models.OrderStatusPlaced,
					UpdatedBy: vendorID,
					Timestamp: now,
					Note:      "Order placed by vendor",
				}},
			}
			if req.OrderType == models.OrderTypeDelivery {
				order.DeliveryAddress = req.DeliveryAddress
			}

			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			result.Orders = append(result.Orders, order)
		}

		return tx.Where("vendor_id = ?", vendorID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &result, nil
}
