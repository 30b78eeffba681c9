package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
	"github.com/streetsupply/wholesale_market/internal/service/delivery"
)

type DeliveryHandler struct {
	Deliveries *delivery.Service
	Producer   *mykafka.Producer
}

func (h *DeliveryHandler) Assign(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req delivery.AssignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	d, err := h.Deliveries.Assign(c.Request().Context(), p.ID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, mykafka.TopicDeliveryEvents, fmt.Sprint(d.ID), map[string]interface{}{
		"type":       "delivery_assigned",
		"deliveryID": d.ID,
		"orderID":    d.OrderID,
		"partnerID":  d.DeliveryPartnerID,
	})

	return c.JSON(http.StatusCreated, d)
}

func (h *DeliveryHandler) UpdateStatus(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	deliveryID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req delivery.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	d, err := h.Deliveries.UpdateStatus(c.Request().Context(), deliveryID, p.ID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	publish(c, h.Producer, mykafka.TopicDeliveryEvents, fmt.Sprint(d.ID), map[string]interface{}{
		"type":       "delivery_status_updated",
		"deliveryID": d.ID,
		"orderID":    d.OrderID,
		"status":     d.Status,
	})

	return c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) Get(c echo.Context) error {
	deliveryID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	d, err := h.Deliveries.GetDelivery(c.Request().Context(), deliveryID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Track is the public customer view; it never includes the timeline.
func (h *DeliveryHandler) Track(c echo.Context) error {
	orderID, err := parseID(c, "orderId")
	if err != nil {
		return err
	}

	result, err := h.Deliveries.Track(c.Request().Context(), orderID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *DeliveryHandler) PartnerAssignments(c echo.Context) error {
	p, err := jwtmiddleware.FromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	deliveries, err := h.Deliveries.PartnerDeliveries(c.Request().Context(), p.ID, c.QueryParam("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, deliveries)
}
