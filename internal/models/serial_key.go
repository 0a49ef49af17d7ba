package models

// SerialKey is one row of the serial numbers table. SerialKey holds the
// plaintext in memory; the store encrypts it on the way in and decrypts it on
// the way out.
type SerialKey struct {
	ID              int64   `db:"id" json:"id"`
	SerialKey       string  `db:"serial_key" json:"serial_key"`
	ProductID       int     `db:"product_id" json:"product_id"`
	ActivationLimit int     `db:"activation_limit" json:"activation_limit"`
	ActivationCount int     `db:"activation_count" json:"activation_count"`
	OrderID         int     `db:"order_id" json:"order_id"`
	OrderItemID     int     `db:"order_item_id" json:"order_item_id"`
	VendorID        int     `db:"vendor_id" json:"vendor_id"`
	Status          string  `db:"status" json:"status"`
	Validity        int     `db:"validity" json:"validity"`
	ExpireDate      *string `db:"expire_date" json:"expire_date"`
	OrderDate       *string `db:"order_date" json:"order_date"`
	UUID            *string `db:"uuid" json:"uuid"`
	Source          string  `db:"source" json:"source"`
	CreatedDate     string  `db:"created_date" json:"created_date"`
}

// SerialKeyStatus values used by the WordPress serial numbers plugin
const (
	SerialKeyStatusAvailable = "available"
	SerialKeyStatusSold      = "sold"
	SerialKeyStatusExpired   = "expired"
	SerialKeyStatusCancelled = "cancelled"
)
