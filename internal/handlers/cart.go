package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var items []models.CartItem
	if err := h.DB.Where("vendor_id = ?", p.ID).Order("id").Find(&items).Error; err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// AddToCart upserts a cart line: re-adding an item replaces its quantity
// rather than duplicating the line.
func (h *CartHandler) AddToCart(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		InventoryItemID uint `json:"inventory_item_id"`
		Quantity        int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.InventoryItemID == 0 || req.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "inventory item and quantity required")
	}

	var inventory models.InventoryItem
	if err := h.DB.First(&inventory, req.InventoryItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "inventory item not found")
		}
		return errorResponse(c, err)
	}

	var item models.CartItem
	err = h.DB.Where("vendor_id = ? AND inventory_item_id = ?", p.ID, req.InventoryItemID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity = req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return errorResponse(c, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			VendorID:        p.ID,
			InventoryItemID: req.InventoryItemID,
			Quantity:        req.Quantity,
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return errorResponse(c, err)
		}
	default:
		return errorResponse(c, err)
	}

	publish(c, h.Producer, mykafka.TopicUserEvents, fmt.Sprint(p.ID), map[string]interface{}{
		"type":     "cart_updated",
		"vendorID": p.ID,
		"itemID":   req.InventoryItemID,
		"quantity": req.Quantity,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return err
	}

	res := h.DB.Where("vendor_id = ? AND inventory_item_id = ?", p.ID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return errorResponse(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}

	var remaining []models.CartItem
	if err := h.DB.Where("vendor_id = ?", p.ID).Order("id").Find(&remaining).Error; err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, remaining)
}
