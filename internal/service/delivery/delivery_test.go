package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/models"
)

const (
	supplierID = uint(1)
	vendorID   = uint(100)
	partnerID  = uint(55)
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEntry{},
		&models.Delivery{},
		&models.DeliveryTimelineEntry{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status string) models.Order {
	order := models.Order{
		VendorID:   vendorID,
		SupplierID: supplierID,
		OrderType:  models.OrderTypeDelivery,
		DeliveryAddress: models.Address{
			AddressLine1: "14 Market Road",
			City:         "Pune",
			State:        "MH",
			Pincode:      "411001",
		},
		Subtotal:      200,
		TaxCGST:       18,
		TaxSGST:       18,
		TotalAmount:   236,
		OrderStatus:   status,
		PaymentStatus: models.PaymentStatusCashOnDelivery,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func assignDelivery(t *testing.T, svc *Service, orderID uint) *models.Delivery {
	d, err := svc.Assign(context.Background(), supplierID, AssignRequest{
		OrderID:           orderID,
		DeliveryPartnerID: partnerID,
		PickupAddress: models.Address{
			AddressLine1: "Warehouse 7",
			City:         "Pune",
			Pincode:      "411019",
		},
	})
	require.NoError(t, err)
	return d
}

func TestAssign(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)

	d := assignDelivery(t, svc, order.ID)

	require.Equal(t, models.DeliveryStatusAssigned, d.Status)
	require.Equal(t, partnerID, d.DeliveryPartnerID)
	require.Equal(t, "14 Market Road", d.CustomerAddress.AddressLine1)
	require.WithinDuration(t, time.Now().Add(defaultETA), d.EstimatedDeliveryTime, 5*time.Second)
	require.Len(t, d.Timeline, 1)
	require.Equal(t, models.DeliveryStatusAssigned, d.Timeline[0].Status)

	// assignment alone does not move the order
	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	require.Equal(t, models.OrderStatusReady, got.OrderStatus)
}

func TestAssignValidation(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)

	_, err := svc.Assign(context.Background(), supplierID, AssignRequest{})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAssignOrderNotReady(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusProcessing)

	_, err := svc.Assign(context.Background(), supplierID, AssignRequest{
		OrderID:           order.ID,
		DeliveryPartnerID: partnerID,
	})
	require.ErrorIs(t, err, apperr.ErrOrderNotReady)
}

func TestAssignForbidden(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)

	_, err := svc.Assign(context.Background(), vendorID, AssignRequest{
		OrderID:           order.ID,
		DeliveryPartnerID: partnerID,
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAssignTwiceFails(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)

	assignDelivery(t, svc, order.ID)

	_, err := svc.Assign(context.Background(), supplierID, AssignRequest{
		OrderID:           order.ID,
		DeliveryPartnerID: partnerID,
	})
	require.ErrorIs(t, err, apperr.ErrOrderAlreadyAssigned)
}

func TestAssignUnknownOrder(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)

	_, err := svc.Assign(context.Background(), supplierID, AssignRequest{
		OrderID:           999,
		DeliveryPartnerID: partnerID,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatusMirrorsOrder(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	steps := []struct {
		delivery string
		order    string
	}{
		{models.DeliveryStatusPartnerConfirmed, models.OrderStatusReady},
		{models.DeliveryStatusPickedUp, models.OrderStatusPickedUp},
		{models.DeliveryStatusOnTheWay, models.OrderStatusOnDelivery},
		{models.DeliveryStatusDelivered, models.OrderStatusDelivered},
	}
	for _, step := range steps {
		_, err := svc.UpdateStatus(context.Background(), d.ID, partnerID,
			StatusUpdateRequest{Status: step.delivery})
		require.NoError(t, err, "delivery status %s", step.delivery)

		var got models.Order
		require.NoError(t, db.First(&got, order.ID).Error)
		require.Equal(t, step.order, got.OrderStatus, "after delivery status %s", step.delivery)
	}

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	require.NotNil(t, got.ActualCompletionDate)

	var final models.Delivery
	require.NoError(t, db.First(&final, d.ID).Error)
	require.NotNil(t, final.ActualDeliveryTime)

	// mirrored statuses land in the order history too
	var entries int64
	require.NoError(t, db.Model(&models.OrderStatusEntry{}).
		Where("order_id = ?", order.ID).Count(&entries).Error)
	require.EqualValues(t, 3, entries)
}

func TestUpdateStatusTerminalRejectsFurtherMoves(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	_, err := svc.UpdateStatus(context.Background(), d.ID, partnerID,
		StatusUpdateRequest{Status: models.DeliveryStatusFailed})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), d.ID, partnerID,
		StatusUpdateRequest{Status: models.DeliveryStatusPickedUp})
	require.ErrorIs(t, err, apperr.ErrIllegalTransition)
}

func TestUpdateStatusPartnerOnly(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	_, err := svc.UpdateStatus(context.Background(), d.ID, supplierID,
		StatusUpdateRequest{Status: models.DeliveryStatusPickedUp})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	_, err := svc.UpdateStatus(context.Background(), d.ID, partnerID,
		StatusUpdateRequest{Status: "warp"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateStatusRecordsLocation(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	lat, lng := 18.5204, 73.8567
	updated, err := svc.UpdateStatus(context.Background(), d.ID, partnerID, StatusUpdateRequest{
		Status: models.DeliveryStatusOnTheWay,
		Lat:    &lat,
		Lng:    &lng,
		Note:   "Crossing the river bridge",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentLat)
	require.InDelta(t, lat, *updated.CurrentLat, 1e-9)
	require.NotNil(t, updated.LocationUpdatedAt)

	last := updated.Timeline[len(updated.Timeline)-1]
	require.Equal(t, models.DeliveryStatusOnTheWay, last.Status)
	require.Equal(t, "Crossing the river bridge", last.Note)
	require.NotNil(t, last.Lat)
}

func TestTrack(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)
	d := assignDelivery(t, svc, order.ID)

	lat, lng := 18.5204, 73.8567
	_, err := svc.UpdateStatus(context.Background(), d.ID, partnerID, StatusUpdateRequest{
		Status: models.DeliveryStatusOnTheWay,
		Lat:    &lat,
		Lng:    &lng,
	})
	require.NoError(t, err)

	result, err := svc.Track(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusOnTheWay, result.Status)
	require.Equal(t, partnerID, result.DeliveryPartnerID)
	require.GreaterOrEqual(t, result.EstimatedTimeRemaining, 0)
	require.NotNil(t, result.CurrentLocation)
	require.InDelta(t, lat, result.CurrentLocation.Lat, 1e-9)
}

func TestTrackClampsRemainingTime(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)
	order := seedOrder(t, db, models.OrderStatusReady)

	past := time.Now().Add(-2 * time.Hour)
	_, err := svc.Assign(context.Background(), supplierID, AssignRequest{
		OrderID:               order.ID,
		DeliveryPartnerID:     partnerID,
		EstimatedDeliveryTime: &past,
	})
	require.NoError(t, err)

	result, err := svc.Track(context.Background(), order.ID)
	require.NoError(t, err)
	require.Zero(t, result.EstimatedTimeRemaining)
}

func TestTrackUnknownOrder(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)

	_, err := svc.Track(context.Background(), 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPartnerDeliveries(t *testing.T) {
	db := initTestDB(t)
	svc := NewService(db, nil)

	first := seedOrder(t, db, models.OrderStatusReady)
	second := seedOrder(t, db, models.OrderStatusReady)
	d1 := assignDelivery(t, svc, first.ID)
	assignDelivery(t, svc, second.ID)

	_, err := svc.UpdateStatus(context.Background(), d1.ID, partnerID,
		StatusUpdateRequest{Status: models.DeliveryStatusPickedUp})
	require.NoError(t, err)

	all, err := svc.PartnerDeliveries(context.Background(), partnerID, "all")
	require.NoError(t, err)
	require.Len(t, all, 2)

	picked, err := svc.PartnerDeliveries(context.Background(), partnerID, models.DeliveryStatusPickedUp)
	require.NoError(t, err)
	require.Len(t, picked, 1)
	require.Equal(t, d1.ID, picked[0].ID)

	none, err := svc.PartnerDeliveries(context.Background(), uint(9999), "")
	require.NoError(t, err)
	require.Empty(t, none)
}
