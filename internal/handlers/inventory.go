package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/es"
	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/logging"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
	"github.com/streetsupply/wholesale_market/internal/service/reservation"
)

type InventoryHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Producer *mykafka.Producer
}

// syncIndex keeps the search index in step with the catalog, best effort.
func (h *InventoryHandler) syncIndex(c echo.Context, item *models.InventoryItem) {
	if h.ES == nil {
		return
	}
	if err := es.IndexItem(c.Request().Context(), h.ES, item); err != nil {
		logging.FromContext(c.Request().Context()).Warn("es_index_error", "item", item.ID, "error", err)
	}
}

func (h *InventoryHandler) Create(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req struct {
		Name              string  `json:"name"`
		Description       string  `json:"description"`
		Category          string  `json:"category"`
		Price             float64 `json:"price"`
		QuantityAvailable int     `json:"quantity_available"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Category == "" || req.Price < 0 || req.QuantityAvailable < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
	}

	item := models.InventoryItem{
		SupplierID:        p.ID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Price:             req.Price,
		QuantityAvailable: req.QuantityAvailable,
		OutOfStock:        req.QuantityAvailable == 0,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return errorResponse(c, err)
	}

	h.syncIndex(c, &item)
	publish(c, h.Producer, mykafka.TopicInventoryEvents, fmt.Sprint(item.ID), map[string]interface{}{
		"type":       "inventory_added",
		"itemID":     item.ID,
		"supplierID": item.SupplierID,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) GetByCategory(c echo.Context) error {
	category := c.Param("category")
	if category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category is required")
	}

	var items []models.InventoryItem
	if err := h.DB.Where("category = ?", category).Order("id").Find(&items).Error; err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *InventoryHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var item models.InventoryItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "inventory item not found")
		}
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) ownedItem(c echo.Context) (*models.InventoryItem, error) {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}

	var item models.InventoryItem
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "inventory item not found")
		}
		return nil, errorResponse(c, err)
	}
	if item.SupplierID != p.ID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not the owner of this inventory item")
	}
	return &item, nil
}

// Update edits catalog fields only. Stock is off limits here: every
// quantity change goes through the reservation ledger (see Restock).
func (h *InventoryHandler) Update(c echo.Context) error {
	item, err := h.ownedItem(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Price       *float64 `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
		item.Price = *req.Price
	}

	if err := h.DB.Model(item).Select("name", "description", "category", "price").Updates(item).Error; err != nil {
		return errorResponse(c, err)
	}

	h.syncIndex(c, item)
	publish(c, h.Producer, mykafka.TopicInventoryEvents, fmt.Sprint(item.ID), map[string]interface{}{
		"type":   "inventory_updated",
		"itemID": item.ID,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) Restock(c echo.Context) error {
	item, err := h.ownedItem(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, _ := jwtmiddleware.FromContext(c)
	if err := reservation.Restock(h.DB, item.ID, req.Quantity, p.ID); err != nil {
		return errorResponse(c, err)
	}

	if err := h.DB.First(item, item.ID).Error; err != nil {
		return errorResponse(c, err)
	}
	h.syncIndex(c, item)

	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) Delete(c echo.Context) error {
	item, err := h.ownedItem(c)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.InventoryItem{}, item.ID).Error; err != nil {
		return errorResponse(c, err)
	}

	if h.ES != nil {
		if err := es.DeleteItem(c.Request().Context(), h.ES, item.ID); err != nil {
			logging.FromContext(c.Request().Context()).Warn("es_delete_error", "item", item.ID, "error", err)
		}
	}
	publish(c, h.Producer, mykafka.TopicInventoryEvents, fmt.Sprint(item.ID), map[string]interface{}{
		"type":   "inventory_deleted",
		"itemID": item.ID,
	})

	return c.NoContent(http.StatusNoContent)
}
