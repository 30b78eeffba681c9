package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/streetsupply/wholesale_market/internal/apperr"
	"github.com/streetsupply/wholesale_market/internal/logging"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// errorResponse maps the business error taxonomy onto HTTP codes. Anything
// outside the taxonomy is an infrastructure failure: logged, returned as a
// generic 500 without leaking internals.
func errorResponse(c echo.Context, err error) error {
	var code int
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrEmptyCart),
		errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrIllegalTransition),
		errors.Is(err, apperr.ErrOrderNotReady),
		errors.Is(err, apperr.ErrOrderAlreadyAssigned),
		errors.Is(err, apperr.ErrOrderNotDelivered),
		errors.Is(err, apperr.ErrAlreadyPaid):
		code = http.StatusBadRequest
	default:
		l := logging.FromContext(c.Request().Context())
		l.Error("request_failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, Response{Status: "error", Message: "internal error"})
	}
	return c.JSON(code, Response{Status: "error", Message: err.Error()})
}

func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]interface{}) {
	if producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_error", "topic", topic, "error", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}
