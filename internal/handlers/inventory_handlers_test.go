package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/service/reservation"
)

func TestCreateInventoryItem(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}

	c, rec := jsonContext(t, e, http.MethodPost, "/api/v1/inventory", map[string]interface{}{
		"name":               "Sunflower Oil 5L",
		"description":        "Refined, bulk pack",
		"category":           "oils",
		"price":              850,
		"quantity_available": 40,
	})
	require.NoError(t, call(t, c, h.Create, 1, jwtmiddleware.RoleSupplier))
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, uint(1), item.SupplierID)
	require.Equal(t, 40, item.QuantityAvailable)
	require.False(t, item.OutOfStock)
}

func TestCreateInventoryItemMissingFields(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}

	c, _ := jsonContext(t, e, http.MethodPost, "/api/v1/inventory", map[string]interface{}{
		"name": "Nameless",
	})
	err := call(t, c, h.Create, 1, jwtmiddleware.RoleSupplier)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

// Update edits catalog fields only; quantity sent in the payload is ignored.
func TestUpdateInventoryItemIgnoresQuantity(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}
	item := seedInventory(t, db, 1, 10)

	c, rec := jsonContext(t, e, http.MethodPatch, "/api/v1/inventory/1", map[string]interface{}{
		"price":              1300,
		"quantity_available": 9999,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, call(t, c, h.Update, 1, jwtmiddleware.RoleSupplier))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.InventoryItem
	require.NoError(t, db.First(&got, item.ID).Error)
	require.InDelta(t, 1300, got.Price, 1e-9)
	require.Equal(t, 10, got.QuantityAvailable)
}

func TestUpdateInventoryItemOwnerOnly(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}
	seedInventory(t, db, 1, 10)

	c, _ := jsonContext(t, e, http.MethodPatch, "/api/v1/inventory/1", map[string]interface{}{
		"price": 1,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := call(t, c, h.Update, 2, jwtmiddleware.RoleSupplier)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)
}

// Restock goes through the stock ledger, not a raw column write.
func TestRestockWritesLedger(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}
	item := seedInventory(t, db, 1, 0)
	require.NoError(t, db.Model(&item).UpdateColumn("out_of_stock", true).Error)

	c, rec := jsonContext(t, e, http.MethodPost, "/api/v1/inventory/1/restock", map[string]interface{}{
		"quantity": 25,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, call(t, c, h.Restock, 1, jwtmiddleware.RoleSupplier))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.InventoryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 25, got.QuantityAvailable)
	require.False(t, got.OutOfStock)

	var move models.StockMovement
	require.NoError(t, db.First(&move).Error)
	require.Equal(t, reservation.ReasonRestock, move.Reason)
	require.Equal(t, 25, move.Change)
	require.Equal(t, uint(1), move.ActorID)
}

func TestDeleteInventoryItem(t *testing.T) {
	db := initTestDB(t)
	e := echo.New()
	h := &InventoryHandler{DB: db}
	item := seedInventory(t, db, 1, 10)

	c, rec := jsonContext(t, e, http.MethodDelete, "/api/v1/inventory/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, call(t, c, h.Delete, 1, jwtmiddleware.RoleSupplier))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Count(&count).Error)
	require.Zero(t, count)
}
