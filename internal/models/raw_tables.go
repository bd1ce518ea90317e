package models

import "time"

// Order represents one row of the orders table.
// Zero time values mean the timestamp was missing or unparseable.
type Order struct {
	OrderID     string
	CustomerID  string
	Status      string
	PurchasedAt time.Time
	ApprovedAt  time.Time
	DeliveredAt time.Time
}

// OrderItem represents one row of the order items table.
type OrderItem struct {
	OrderID      string
	ProductID    string
	SellerID     string
	FreightValue float64 // NaN when missing
}

// Product represents one row of the products table.
// Dimension and weight fields are NaN when missing.
type Product struct {
	ProductID string
	LengthCm  float64
	HeightCm  float64
	WidthCm   float64
	WeightG   float64
}

// Customer represents one row of the customers table.
type Customer struct {
	CustomerID string
	ZipPrefix  string
}

// Seller represents one row of the sellers table.
type Seller struct {
	SellerID  string
	ZipPrefix string
}

// GeoPoint is one raw geolocation sample. A zip prefix usually has many
// samples; callers must reduce to one representative point per prefix.
type GeoPoint struct {
	ZipPrefix string
	Lat       float64
	Lng       float64
}

// RawTables bundles the six source tables read from the dataset directory.
type RawTables struct {
	Orders      []Order
	OrderItems  []OrderItem
	Products    []Product
	Customers   []Customer
	Sellers     []Seller
	Geolocation []GeoPoint
}
