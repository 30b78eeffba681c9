package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/service/reservation"
)

var allStatuses = []string{
	models.OrderStatusPlaced,
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusReady,
	models.OrderStatusPickedUp,
	models.OrderStatusOnDelivery,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
	models.OrderStatusRejected,
}

// The exact closure of the supplier transition table: these pairs and no
// others.
func TestCanTransitionClosure(t *testing.T) {
	allowed := map[[2]string]bool{
		{models.OrderStatusPlaced, models.OrderStatusConfirmed}:     true,
		{models.OrderStatusPlaced, models.OrderStatusRejected}:      true,
		{models.OrderStatusPending, models.OrderStatusConfirmed}:    true,
		{models.OrderStatusPending, models.OrderStatusRejected}:     true,
		{models.OrderStatusConfirmed, models.OrderStatusProcessing}: true,
		{models.OrderStatusProcessing, models.OrderStatusReady}:     true,
		{models.OrderStatusReady, models.OrderStatusDelivered}:      true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			require.Equal(t, allowed[[2]string{from, to}], CanTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range allStatuses {
		want := s == models.OrderStatusDelivered ||
			s == models.OrderStatusCancelled ||
			s == models.OrderStatusRejected
		require.Equal(t, want, IsTerminal(s), "status %s", s)
	}
}

// placeOrder runs a real checkout so transitions act on the same rows the
// splitter produces. Returns the single created order and its catalog item.
func placeOrder(t *testing.T, db *gorm.DB, svc *Service) (models.Order, models.InventoryItem) {
	item := addItem(t, db, testSupplierA, "Basmati Rice 25kg", 50, 10)
	addToCart(t, db, testVendorID, item.ID, 2)

	result, err := svc.Checkout(context.Background(), testVendorID, CheckoutRequest{})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	return result.Orders[0], item
}

func advance(t *testing.T, svc *Service, orderID uint, statuses ...string) *models.Order {
	var order *models.Order
	var err error
	for _, s := range statuses {
		order, err = svc.UpdateStatus(context.Background(), orderID, testSupplierA, UpdateStatusRequest{Status: s})
		require.NoError(t, err)
	}
	return order
}

func TestUpdateStatusHappyPath(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	order := advance(t, svc, placed.ID,
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusReady,
		models.OrderStatusDelivered,
	)

	require.Equal(t, models.OrderStatusDelivered, order.OrderStatus)
	require.NotNil(t, order.ActualCompletionDate)

	// placed + four moves
	require.Len(t, order.StatusHistory, 5)
	require.Equal(t, models.OrderStatusDelivered, order.StatusHistory[4].Status)
	require.Equal(t, testSupplierA, order.StatusHistory[4].UpdatedBy)
}

func TestUpdateStatusIllegalJump(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, testSupplierA,
		UpdateStatusRequest{Status: models.OrderStatusReady})
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, testSupplierA,
		UpdateStatusRequest{Status: "vanished"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateStatusNotFound(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)

	_, err := svc.UpdateStatus(context.Background(), 999, testSupplierA,
		UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatusForbiddenForStrangers(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, otherActorID,
		UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateStatusPersistsSupplierFields(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	expected := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	order, err := svc.UpdateStatus(context.Background(), placed.ID, testSupplierA, UpdateStatusRequest{
		Status:        models.OrderStatusConfirmed,
		SupplierNotes: "Dispatch after noon",
		ExpectedDate:  &expected,
	})
	require.NoError(t, err)
	require.Equal(t, "Dispatch after noon", order.SupplierNotes)
	require.NotNil(t, order.ExpectedDate)
	require.Equal(t, "Dispatch after noon", order.StatusHistory[1].Note)
}

func TestRejectReleasesStockOnce(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, item := placeOrder(t, db, svc)

	order, err := svc.UpdateStatus(context.Background(), placed.ID, testSupplierA,
		UpdateStatusRequest{Status: models.OrderStatusRejected})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusRejected, order.OrderStatus)

	var got models.InventoryItem
	require.NoError(t, db.First(&got, item.ID).Error)
	require.Equal(t, 10, got.QuantityAvailable)

	// the retry dies on the terminal state before any release runs
	_, err = svc.UpdateStatus(context.Background(), placed.ID, testSupplierA,
		UpdateStatusRequest{Status: models.OrderStatusRejected})
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)

	require.NoError(t, db.First(&got, item.ID).Error)
	require.Equal(t, 10, got.QuantityAvailable)

	var releases int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("reason = ?", reservation.ReasonRelease).
		Count(&releases).Error)
	require.EqualValues(t, 1, releases)
}

// Cancellation bypasses the supplier table: the vendor may cancel any
// non-terminal order, and stock comes back exactly once.
func TestCancelSideChannel(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, item := placeOrder(t, db, svc)

	advance(t, svc, placed.ID, models.OrderStatusConfirmed, models.OrderStatusProcessing)

	order, err := svc.UpdateStatus(context.Background(), placed.ID, testVendorID,
		UpdateStatusRequest{Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, order.OrderStatus)

	var got models.InventoryItem
	require.NoError(t, db.First(&got, item.ID).Error)
	require.Equal(t, 10, got.QuantityAvailable)

	_, err = svc.UpdateStatus(context.Background(), placed.ID, testVendorID,
		UpdateStatusRequest{Status: models.OrderStatusCancelled})
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)

	var releases int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("reason = ?", reservation.ReasonRelease).
		Count(&releases).Error)
	require.EqualValues(t, 1, releases)
}

func TestCancelTerminalOrderFails(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	advance(t, svc, placed.ID,
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusReady,
		models.OrderStatusDelivered,
	)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, testVendorID,
		UpdateStatusRequest{Status: models.OrderStatusCancelled})
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

// Cancelling an order with an in-flight delivery cancels the delivery in the
// same transaction.
func TestCancelCancelsLiveDelivery(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	advance(t, svc, placed.ID, models.OrderStatusConfirmed, models.OrderStatusProcessing, models.OrderStatusReady)

	d := models.Delivery{
		OrderID:               placed.ID,
		DeliveryPartnerID:     55,
		Status:                models.DeliveryStatusPickedUp,
		EstimatedDeliveryTime: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, db.Create(&d).Error)

	_, err := svc.UpdateStatus(context.Background(), placed.ID, testVendorID,
		UpdateStatusRequest{Status: models.OrderStatusCancelled})
	require.NoError(t, err)

	var got models.Delivery
	require.NoError(t, db.First(&got, d.ID).Error)
	require.Equal(t, models.DeliveryStatusCancelled, got.Status)

	var entry models.DeliveryTimelineEntry
	require.NoError(t, db.Where("delivery_id = ?", d.ID).First(&entry).Error)
	require.Equal(t, models.DeliveryStatusCancelled, entry.Status)
}

func TestGetOrderPartyCheck(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db)
	placed, _ := placeOrder(t, db, svc)

	_, err := svc.GetOrder(context.Background(), placed.ID, testVendorID)
	require.NoError(t, err)
	_, err = svc.GetOrder(context.Background(), placed.ID, testSupplierA)
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), placed.ID, otherActorID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.GetOrder(context.Background(), 999, testVendorID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
