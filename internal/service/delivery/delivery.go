package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/redisx"
)

const defaultETA = 30 * time.Minute

// orderStatusFor mirrors delivery statuses onto the parent order. Statuses
// absent from the map leave the order untouched.
var orderStatusFor = map[string]string{
	models.DeliveryStatusPickedUp:  models.OrderStatusPickedUp,
	models.DeliveryStatusOnTheWay:  models.OrderStatusOnDelivery,
	models.DeliveryStatusDelivered: models.OrderStatusDelivered,
}

var knownStatuses = map[string]bool{
	models.DeliveryStatusAssigned:         true,
	models.DeliveryStatusPartnerConfirmed: true,
	models.DeliveryStatusPickedUp:         true,
	models.DeliveryStatusOnTheWay:         true,
	models.DeliveryStatusDelivered:        true,
	models.DeliveryStatusFailed:           true,
	models.DeliveryStatusCancelled:        true,
}

func isTerminal(status string) bool {
	switch status {
	case models.DeliveryStatusDelivered, models.DeliveryStatusFailed, models.DeliveryStatusCancelled:
		return true
	}
	return false
}

type Service struct {
	DB *gorm.DB
	// Redis is optional; when nil, tracking falls back to the database copy
	// of the live location.
	Redis *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

type AssignRequest struct {
	OrderID               uint           `json:"order_id"`
	DeliveryPartnerID     uint           `json:"delivery_partner_id"`
	PickupAddress         models.Address `json:"pickup_address"`
	EstimatedDeliveryTime *time.Time     `json:"estimated_delivery_time"`
	DeliveryInstructions  string         `json:"delivery_instructions"`
}

// Assign creates the single Delivery for an order. The order must belong to
// the calling supplier and sit in the delivery-eligible state.
func (s *Service) Assign(ctx context.Context, actorID uint, req AssignRequest) (*models.Delivery, error) {
	if req.OrderID == 0 || req.DeliveryPartnerID == 0 {
		return nil, fmt.Errorf("%w: order_id and delivery_partner_id required", apperr.ErrValidation)
	}

	var created models.Delivery

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, req.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", apperr.ErrNotFound, req.OrderID)
			}
			return err
		}
		if order.SupplierID != actorID {
			return fmt.Errorf("%w: only the supplier can assign a delivery", apperr.ErrForbidden)
		}
		if order.OrderStatus != models.OrderStatusReady {
			return fmt.Errorf("%w: order is %s", apperr.ErrOrderNotReady, order.OrderStatus)
		}

		var existing models.Delivery
		err := tx.Where("order_id = ?", req.OrderID).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: order %d", apperr.ErrOrderAlreadyAssigned, req.OrderID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		eta := now.Add(defaultETA)
		if req.EstimatedDeliveryTime != nil {
			eta = *req.EstimatedDeliveryTime
		}

		created = models.Delivery{
			OrderID:               req.OrderID,
			DeliveryPartnerID:     req.DeliveryPartnerID,
			PickupAddress:         req.PickupAddress,
			CustomerAddress:       order.DeliveryAddress,
			Status:                models.DeliveryStatusAssigned,
			EstimatedDeliveryTime: eta,
			DeliveryInstructions:  req.DeliveryInstructions,
			Timeline: []models.DeliveryTimelineEntry{{
				Status:    models.DeliveryStatusAssigned,
				Timestamp: now,
				Note:      "Assigned to delivery partner",
			}},
		}
		return tx.Create(&created).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	return &created, nil
}

type StatusUpdateRequest struct {
	Status string   `json:"status"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Note   string   `json:"note"`
}

// UpdateStatus records a partner status update and mirrors the mapped
// statuses onto the parent order's lifecycle. Terminal delivery statuses
// accept no further updates, which keeps actualDeliveryTime a set-once
// field and the delivered mirror a one-shot.
func (s *Service) UpdateStatus(ctx context.Context, deliveryID, actorID uint, req StatusUpdateRequest) (*models.Delivery, error) {
	if !knownStatuses[req.Status] {
		return nil, fmt.Errorf("%w: unknown delivery status %q", apperr.ErrValidation, req.Status)
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Delivery
		if err := tx.First(&d, deliveryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: delivery %d", apperr.ErrNotFound, deliveryID)
			}
			return err
		}
		if d.DeliveryPartnerID != actorID {
			return fmt.Errorf("%w: only the assigned partner can update this delivery", apperr.ErrForbidden)
		}
		if isTerminal(d.Status) {
			return fmt.Errorf("%w: delivery already %s", apperr.ErrIllegalTransition, d.Status)
		}

		now := time.Now()
		updates := map[string]interface{}{"status": req.Status}
		if req.Lat != nil && req.Lng != nil {
			updates["current_lat"] = *req.Lat
			updates["current_lng"] = *req.Lng
			updates["location_updated_at"] = now
		}
		if req.Status == models.DeliveryStatusDelivered && d.ActualDeliveryTime == nil {
			updates["actual_delivery_time"] = now
		}

		res := tx.Model(&models.Delivery{}).
			Where("id = ? AND status = ?", deliveryID, d.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: delivery %d changed concurrently", apperr.ErrIllegalTransition, deliveryID)
		}

		if err := tx.Create(&models.DeliveryTimelineEntry{
			DeliveryID: deliveryID,
			Status:     req.Status,
			Timestamp:  now,
			Lat:        req.Lat,
			Lng:        req.Lng,
			Note:       req.Note,
		}).Error; err != nil {
			return err
		}

		return s.mirrorOrderStatus(tx, d.OrderID, actorID, req, now)
	})
	if txErr != nil {
		return nil, txErr
	}

	d, err := s.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && req.Lat != nil && req.Lng != nil {
		loc := redisx.Location{Lat: *req.Lat, Lng: *req.Lng, UpdatedAt: time.Now()}
		// Best effort; tracking falls back to the database copy.
		_ = redisx.SetDeliveryLocation(ctx, s.Redis, d.OrderID, loc)
	}

	return d, nil
}

func (s *Service) mirrorOrderStatus(tx *gorm.DB, orderID, actorID uint, req StatusUpdateRequest, now time.Time) error {
	orderStatus, ok := orderStatusFor[req.Status]
	if !ok {
		return nil
	}

	updates := map[string]interface{}{"order_status": orderStatus}
	if orderStatus == models.OrderStatusDelivered {
		updates["actual_completion_date"] = now
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return err
	}

	note := req.Note
	if note == "" {
		note = "Delivery " + req.Status
	}
	return tx.Create(&models.OrderStatusEntry{
		OrderID:   orderID,
		Status:    orderStatus,
		UpdatedBy: actorID,
		Timestamp: now,
		Note:      note,
	}).Error
}

func (s *Service) GetDelivery(ctx context.Context, deliveryID uint) (*models.Delivery, error) {
	var d models.Delivery
	err := s.DB.WithContext(ctx).
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&d, deliveryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: delivery %d", apperr.ErrNotFound, deliveryID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TrackResult is the customer-facing view: current status and ETA only,
// never the internal timeline.
type TrackResult struct {
	Status                 string           `json:"status"`
	DeliveryPartnerID      uint             `json:"delivery_partner_id"`
	EstimatedDeliveryTime  time.Time        `json:"estimated_delivery_time"`
	EstimatedTimeRemaining int              `json:"estimated_time_remaining_minutes"`
	CurrentLocation        *redisx.Location `json:"current_location,omitempty"`
	DeliveryInstructions   string           `json:"delivery_instructions,omitempty"`
}

func (s *Service) Track(ctx context.Context, orderID uint) (*TrackResult, error) {
	var d models.Delivery
	err := s.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no delivery for order %d", apperr.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	remaining := int(time.Until(d.EstimatedDeliveryTime).Minutes())
	if remaining < 0 {
		remaining = 0
	}

	result := &TrackResult{
		Status:                 d.Status,
		DeliveryPartnerID:      d.DeliveryPartnerID,
		EstimatedDeliveryTime:  d.EstimatedDeliveryTime,
		EstimatedTimeRemaining: remaining,
		DeliveryInstructions:   d.DeliveryInstructions,
	}

	if s.Redis != nil {
		if loc, err := redisx.GetDeliveryLocation(ctx, s.Redis, orderID); err == nil && loc != nil {
			result.CurrentLocation = loc
			return result, nil
		}
	}
	if d.CurrentLat != nil && d.CurrentLng != nil {
		loc := redisx.Location{Lat: *d.CurrentLat, Lng: *d.CurrentLng}
		if d.LocationUpdatedAt != nil {
			loc.UpdatedAt = *d.LocationUpdatedAt
		}
		result.CurrentLocation = &loc
	}

	return result, nil
}

func (s *Service) PartnerDeliveries(ctx context.Context, partnerID uint, status string) ([]models.Delivery, error) {
	q := s.DB.WithContext(ctx).Where("delivery_partner_id = ?", partnerID)
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	var out []models.Delivery
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
