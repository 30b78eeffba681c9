package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Fullname     string `gorm:"not null"                 json:"fullname"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Phone        string `gorm:"not null"                 json:"phone"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type InventoryItem struct {
	ID                uint    `gorm:"primaryKey;autoIncrement"               json:"id"`
	SupplierID        uint    `gorm:"index;not null"                         json:"supplier_id"`
	Name              string  `gorm:"not null"                               json:"name"`
	Description       string  `json:"description"`
	Category          string  `gorm:"index;not null"                         json:"category"`
	Price             float64 `gorm:"not null;check:price >= 0"              json:"price"`
	QuantityAvailable int     `gorm:"not null;check:quantity_available >= 0" json:"quantity_available"`
	OutOfStock        bool    `gorm:"default:false"                          json:"out_of_stock"`
}

// StockMovement is the append-only audit ledger of the reservation path.
// Every reserve/release writes one row; nothing else touches stock.
type StockMovement struct {
	ID              uint      `gorm:"primaryKey"     json:"id"`
	InventoryItemID uint      `gorm:"index;not null" json:"inventory_item_id"`
	Change          int       `gorm:"not null"       json:"change"`
	Reason          string    `gorm:"not null"       json:"reason"`
	ActorID         uint      `json:"actor_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type CartItem struct {
	ID              uint `gorm:"primaryKey"                                 json:"id"`
	VendorID        uint `gorm:"index:idx_cart_vendor_item,unique;not null" json:"vendor_id"`
	InventoryItemID uint `gorm:"index:idx_cart_vendor_item,unique;not null" json:"inventory_item_id"`
	Quantity        int  `gorm:"not null;check:quantity > 0"                json:"quantity"`
}

type Address struct {
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	ContactPerson string `json:"contact_person,omitempty"`
	ContactPhone  string `json:"contact_phone,omitempty"`
}

func (a Address) Empty() bool {
	return a.AddressLine1 == "" && a.City == "" && a.Pincode == ""
}

type Order struct {
	ID                   uint               `gorm:"primaryKey;autoIncrement"          json:"id"`
	VendorID             uint               `gorm:"index;not null"                    json:"vendor_id"`
	SupplierID           uint               `gorm:"index;not null"                    json:"supplier_id"`
	Items                []OrderItem        `gorm:"foreignKey:OrderID"                json:"items"`
	OrderType            string             `gorm:"not null"                          json:"order_type"`
	DeliveryAddress      Address            `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	VendorNotes          string             `json:"vendor_notes,omitempty"`
	SupplierNotes        string             `json:"supplier_notes,omitempty"`
	ExpectedDate         *time.Time         `json:"expected_date,omitempty"`
	ActualCompletionDate *time.Time         `json:"actual_completion_date,omitempty"`
	Subtotal             float64            `gorm:"not null"                          json:"subtotal"`
	TaxCGST              float64            `gorm:"not null"                          json:"tax_cgst"`
	TaxSGST              float64            `gorm:"not null"                          json:"tax_sgst"`
	TaxIGST              float64            `json:"tax_igst"`
	TotalAmount          float64            `gorm:"not null"                          json:"total_amount"`
	OrderStatus          string             `gorm:"index;not null"                    json:"order_status"`
	PaymentStatus        string             `gorm:"not null"                          json:"payment_status"`
	StatusHistory        []OrderStatusEntry `gorm:"foreignKey:OrderID"                json:"status_history"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// OrderItem is a frozen copy of the catalog line at checkout time; later
// price changes never alter a placed order.
type OrderItem struct {
	ID              uint    `gorm:"primaryKey"                  json:"id"`
	OrderID         uint    `gorm:"index;not null"              json:"order_id"`
	InventoryItemID uint    `gorm:"not null"                    json:"inventory_item_id"`
	Name            string  `gorm:"not null"                    json:"name"`
	Quantity        int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice       float64 `gorm:"not null"                    json:"unit_price"`
	LineTotal       float64 `gorm:"not null"                    json:"line_total"`
}

type OrderStatusEntry struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Status    string    `gorm:"not null"       json:"status"`
	UpdatedBy uint      `gorm:"not null"       json:"updated_by"`
	Timestamp time.Time `gorm:"not null"       json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type Delivery struct {
	ID                    uint                    `gorm:"primaryKey;autoIncrement"          json:"id"`
	OrderID               uint                    `gorm:"uniqueIndex;not null"              json:"order_id"`
	DeliveryPartnerID     uint                    `gorm:"index;not null"                    json:"delivery_partner_id"`
	PickupAddress         Address                 `gorm:"embedded;embeddedPrefix:pickup_"   json:"pickup_address"`
	CustomerAddress       Address                 `gorm:"embedded;embeddedPrefix:customer_" json:"customer_address"`
	Status                string                  `gorm:"index;not null"                    json:"status"`
	EstimatedDeliveryTime time.Time               `gorm:"not null"                          json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time              `json:"actual_delivery_time,omitempty"`
	DeliveryInstructions  string                  `json:"delivery_instructions,omitempty"`
	CurrentLat            *float64                `json:"current_lat,omitempty"`
	CurrentLng            *float64                `json:"current_lng,omitempty"`
	LocationUpdatedAt     *time.Time              `json:"location_updated_at,omitempty"`
	Timeline              []DeliveryTimelineEntry `gorm:"foreignKey:DeliveryID"             json:"timeline"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
}

type DeliveryTimelineEntry struct {
	ID         uint      `gorm:"primaryKey"     json:"id"`
	DeliveryID uint      `gorm:"index;not null" json:"delivery_id"`
	Status     string    `gorm:"not null"       json:"status"`
	Timestamp  time.Time `gorm:"not null"       json:"timestamp"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	Note       string    `json:"note,omitempty"`
}
