package order

import "github.com/streetsupply/wholesale_market/internal/models"

// validNext is the supplier-driven transition table. Cancellation is a
// deliberate side channel checked before this table, never folded into it.
var validNext = map[string]map[string]bool{
	models.OrderStatusPlaced:     {models.OrderStatusConfirmed: true, models.OrderStatusRejected: true},
	models.OrderStatusPending:    {models.OrderStatusConfirmed: true, models.OrderStatusRejected: true},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing: true},
	models.OrderStatusProcessing: {models.OrderStatusReady: true},
	models.OrderStatusReady:      {models.OrderStatusDelivered: true},
	models.OrderStatusPickedUp:   {},
	models.OrderStatusOnDelivery: {},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
	models.OrderStatusRejected:   {},
}

func CanTransition(from, to string) bool {
	return validNext[from][to]
}

// IsTerminal reports whether a status has no outgoing transitions at all,
// cancellation included.
func IsTerminal(status string) bool {
	switch status {
	case models.OrderStatusDelivered, models.OrderStatusCancelled, models.OrderStatusRejected:
		return true
	}
	return false
}

func KnownStatus(status string) bool {
	_, ok := validNext[status]
	return ok
}
