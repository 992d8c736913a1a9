package api

import "time"

// Product is a catalog record as served by GET /api/products.
type Product struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Pic         string      `json:"pic"`
	MegaMenu    MegaMenuRef `json:"megaMenu"`
}

// MegaMenuRef is the category reference carried on a product.
type MegaMenuRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// OrderProduct is one line of a server-side order. Responses carry the full
// nested product object plus the chosen quantity and variant.
type OrderProduct struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	IsSpicy  bool    `json:"isSpicy"`
	Size     string  `json:"size"`
}

// Order is an order record as returned by the orders endpoints.
type Order struct {
	ID           string         `json:"_id"`
	OrderID      string         `json:"orderid"`
	Products     []OrderProduct `json:"products"`
	CustomerName string         `json:"customerName"`
	PhoneNumber  string         `json:"phoneNumber"`
	Discount     float64        `json:"discount"`
	TotalAmount  float64        `json:"totalAmount"`
	Status       string         `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// OrderItemRequest is one line of an order submission. Price is not sent;
// the server prices lines at creation time.
type OrderItemRequest struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	IsSpicy  bool   `json:"isSpicy"`
	Size     string `json:"size"`
}

// OrderRequest is the body for POST /api/orders and PUT /api/orders/:id.
type OrderRequest struct {
	Products     []OrderItemRequest `json:"products"`
	CustomerName string             `json:"customerName"`
	PhoneNumber  string             `json:"phoneNumber"`
	Discount     float64            `json:"discount"`
}
