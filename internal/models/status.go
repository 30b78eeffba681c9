package models

// Order lifecycle. picked_up and on_delivery are written only by the
// delivery synchronizer; the supplier-facing transition table never
// produces them.
const (
	OrderStatusPlaced     = "placed"
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusReady      = "ready"
	OrderStatusPickedUp   = "picked_up"
	OrderStatusOnDelivery = "on_delivery"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRejected   = "rejected"
)

const (
	PaymentStatusPending        = "pending"
	PaymentStatusPaid           = "paid"
	PaymentStatusCashOnDelivery = "cash_on_delivery"
	PaymentStatusCredit         = "credit"
)

const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// Delivery lifecycle.
const (
	DeliveryStatusAssigned         = "assigned"
	DeliveryStatusPartnerConfirmed = "partner_confirmed"
	DeliveryStatusPickedUp         = "picked_up"
	DeliveryStatusOnTheWay         = "on_the_way"
	DeliveryStatusDelivered        = "delivered"
	DeliveryStatusFailed           = "failed"
	DeliveryStatusCancelled        = "cancelled"
)
