package redisx

import "time"

const (
	// Live tracking position: delivery:loc:{order_id} -> {"lat":..,"lng":..,"updated_at":..}
	KeyDeliveryLocation = "delivery:loc:%d"
)

var (
	TTLDeliveryLocation = 15 * time.Minute
)
