package order

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/util"
)

type HistoryFilter struct {
	Status string
	Page   int
	Limit  int
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalOrders int64 `json:"total_orders"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// GetOrder returns the full order, restricted to the two parties on it.
func (s *Service) GetOrder(ctx context.Context, orderID, actorID uint) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != actorID && order.SupplierID != actorID {
		return nil, fmt.Errorf("%w: not a party to this order", apperr.ErrForbidden)
	}
	return order, nil
}

func (s *Service) VendorHistory(ctx context.Context, vendorID uint, f HistoryFilter) ([]models.Order, *Pagination, error) {
	return s.list(ctx, "vendor_id", vendorID, f)
}

// SupplierOrders additionally returns the status-count breakdown for the
// supplier dashboard.
func (s *Service) SupplierOrders(ctx context.Context, supplierID uint, f HistoryFilter) ([]models.Order, *Pagination, map[string]int64, error) {
	orders, page, err := s.list(ctx, "supplier_id", supplierID, f)
	if err != nil {
		return nil, nil, nil, err
	}

	type statusCount struct {
		OrderStatus string
		Count       int64
	}
	var rows []statusCount
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Select("order_status, count(*) as count").
		Where("supplier_id = ?", supplierID).
		Group("order_status").
		Scan(&rows).Error; err != nil {
		return nil, nil, nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.OrderStatus] = r.Count
	}

	return orders, page, counts, nil
}

func (s *Service) list(ctx context.Context, column string, partyID uint, f HistoryFilter) ([]models.Order, *Pagination, error) {
	offset, limit := util.Calculate(f.Page, f.Limit)

	base := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&models.Order{}).Where(column+" = ?", partyID)
		if f.Status != "" {
			q = q.Where("order_status = ?", f.Status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var orders []models.Order
	if err := base().Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return orders, &Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalOrders: total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}
