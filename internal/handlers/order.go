package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
	"github.com/streetsupply/wholesale_market/internal/service/order"
)

type OrderHandler struct {
	Orders   *order.Service
	Producer *mykafka.Producer
}

func (h *OrderHandler) Create(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req order.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Orders.Checkout(c.Request().Context(), p.ID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	for _, o := range result.Orders {
		publish(c, h.Producer, mykafka.TopicOrderEvents, fmt.Sprint(o.ID), map[string]interface{}{
			"type":       "order_created",
			"orderID":    o.ID,
			"vendorID":   o.VendorID,
			"supplierID": o.SupplierID,
			"total":      o.TotalAmount,
		})
	}

	return c.JSON(http.StatusCreated, Response{
		Status:  "ok",
		Message: fmt.Sprintf("Successfully created %d order(s)", len(result.Orders)),
		Data:    result,
	})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req order.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Orders.UpdateStatus(c.Request().Context(), orderID, p.ID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, mykafka.TopicOrderEvents, fmt.Sprint(orderID), map[string]interface{}{
		"type":    "order_status_updated",
		"orderID": orderID,
		"status":  updated.OrderStatus,
		"actorID": p.ID,
	})

	return c.JSON(http.StatusOK, updated)
}

func (h *OrderHandler) Get(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	o, err := h.Orders.GetOrder(c.Request().Context(), orderID, p.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func historyFilter(c echo.Context) order.HistoryFilter {
	return order.HistoryFilter{
		Status: c.QueryParam("status"),
		Page:   parseIntDefault(c.QueryParam("page"), 1),
		Limit:  parseIntDefault(c.QueryParam("limit"), 10),
	}
}

func (h *OrderHandler) VendorHistory(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	orders, pagination, err := h.Orders.VendorHistory(c.Request().Context(), p.ID, historyFilter(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": pagination,
	})
}

func (h *OrderHandler) SupplierOrders(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	orders, pagination, counts, err := h.Orders.SupplierOrders(c.Request().Context(), p.ID, historyFilter(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders":        orders,
		"status_counts": counts,
		"pagination":    pagination,
	})
}

func (h *OrderHandler) ConfirmPayment(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	o, err := h.Orders.ConfirmPayment(c.Request().Context(), orderID, p.ID, req.PaymentMethod)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, mykafka.TopicOrderEvents, fmt.Sprint(orderID), map[string]interface{}{
		"type":    "payment_confirmed",
		"orderID": orderID,
		"actorID": p.ID,
	})

	return c.JSON(http.StatusOK, o)
}
