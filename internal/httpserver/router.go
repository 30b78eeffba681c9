package httpserver

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/es"
	"github.com/streetsupply/wholesale_market/internal/handlers"
	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
	"github.com/streetsupply/wholesale_market/internal/service/delivery"
	"github.com/streetsupply/wholesale_market/internal/service/order"
)

type Deps struct {
	DB        *gorm.DB
	ES        *elasticsearch.Client
	Redis     *redis.Client
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := &handlers.AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Producer: d.Producer}
	inventory := &handlers.InventoryHandler{DB: d.DB, ES: d.ES, Producer: d.Producer}
	cart := &handlers.CartHandler{DB: d.DB, Producer: d.Producer}
	orders := &handlers.OrderHandler{Orders: order.NewService(d.DB), Producer: d.Producer}
	deliveries := &handlers.DeliveryHandler{Deliveries: delivery.NewService(d.DB, d.Redis), Producer: d.Producer}
	search := &handlers.SearchHandler{ES: d.ES, Index: es.InventoryIndex}

	api := e.Group("/api/v1")

	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", auth.Logout)

	api.GET("/search", search.Search)
	api.GET("/inventory/category/:category", inventory.GetByCategory)
	api.GET("/inventory/:id", inventory.Get)
	api.GET("/deliveries/track/:orderId", deliveries.Track)

	authed := api.Group("", jwtmiddleware.RequireAuth(d.JWTSecret))

	supplier := jwtmiddleware.RequireRole(jwtmiddleware.RoleSupplier)
	vendor := jwtmiddleware.RequireRole(jwtmiddleware.RoleVendor)
	partner := jwtmiddleware.RequireRole(jwtmiddleware.RoleDeliveryPartner)

	authed.POST("/inventory", inventory.Create, supplier)
	authed.PATCH("/inventory/:id", inventory.Update, supplier)
	authed.POST("/inventory/:id/restock", inventory.Restock, supplier)
	authed.DELETE("/inventory/:id", inventory.Delete, supplier)

	authed.GET("/cart", cart.GetCart, vendor)
	authed.POST("/cart", cart.AddToCart, vendor)
	authed.DELETE("/cart/:itemId", cart.RemoveFromCart, vendor)

	authed.POST("/orders", orders.Create, vendor)
	authed.GET("/orders/vendor/history", orders.VendorHistory, vendor)
	authed.GET("/orders/supplier/orders", orders.SupplierOrders, supplier)
	authed.GET("/orders/:id", orders.Get)
	// Status moves are supplier-owned except cancellation, which any party
	// to the order may request; the service layer arbitrates.
	authed.PUT("/orders/:id/status", orders.UpdateStatus)
	authed.POST("/orders/:id/confirm-payment", orders.ConfirmPayment, supplier)

	authed.POST("/deliveries", deliveries.Assign, supplier)
	authed.PUT("/deliveries/:id/status", deliveries.UpdateStatus, partner)
	authed.GET("/deliveries/partner/assignments", deliveries.PartnerAssignments, partner)
	authed.GET("/deliveries/:id", deliveries.Get)
}
