package domain

import "time"

type OrderCreated struct {
	OrderID    string    `json:"order_id"`
	VendorID   string    `json:"vendor_id"`
	SupplierID string    `json:"supplier_id"`
	Total      string    `json:"total"`
	ItemCount  int       `json:"item_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewOrderCreated(o Order) OrderCreated {
	return OrderCreated{
		OrderID:    o.ID,
		VendorID:   o.VendorID,
		SupplierID: o.SupplierID,
		Total:      o.Total.StringFixed(MoneyPlaces),
		ItemCount:  len(o.Items),
		CreatedAt:  o.CreatedAt,
	}
}
