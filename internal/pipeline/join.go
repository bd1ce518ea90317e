package pipeline

import (
	"math"
	"time"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// LatLng is the reduced representative coordinate of one zip prefix.
type LatLng struct {
	Lat float64
	Lng float64
}

// ReduceGeolocation collapses raw geolocation samples to one arithmetic-mean
// point per zip prefix. An empty input yields an empty map, which propagates
// as missing coordinates downstream rather than an error.
func ReduceGeolocation(points []models.GeoPoint) map[string]LatLng {
	type accum struct {
		latSum float64
		lngSum float64
		n      int
	}
	sums := make(map[string]*accum)
	for _, p := range points {
		a, ok := sums[p.ZipPrefix]
		if !ok {
			a = &accum{}
			sums[p.ZipPrefix] = a
		}
		a.latSum += p.Lat
		a.lngSum += p.Lng
		a.n++
	}

	reduced := make(map[string]LatLng, len(sums))
	for prefix, a := range sums {
		reduced[prefix] = LatLng{
			Lat: a.latSum / float64(a.n),
			Lng: a.lngSum / float64(a.n),
		}
	}
	return reduced
}

// JoinedRecord is one order item with every joined attribute attached.
// Coordinates are NaN when the zip prefix had no geolocation sample.
type JoinedRecord struct {
	OrderID     string
	Status      string
	PurchasedAt time.Time
	ApprovedAt  time.Time
	DeliveredAt time.Time

	FreightValue float64
	LengthCm     float64
	HeightCm     float64
	WidthCm      float64
	WeightG      float64

	CustomerLat float64
	CustomerLng float64
	SellerLat   float64
	SellerLng   float64
}

// JoinTables inner-joins order items with orders, products, customers and
// sellers, then left-joins the reduced geolocation on the customer and
// seller zip prefixes. Items without a matching order, product, customer or
// seller are dropped; that indicates incomplete source data, not an error.
// A missing geolocation match keeps the row and leaves its coordinates NaN.
func JoinTables(raw *models.RawTables) []JoinedRecord {
	orders := make(map[string]*models.Order, len(raw.Orders))
	for i := range raw.Orders {
		orders[raw.Orders[i].OrderID] = &raw.Orders[i]
	}
	products := make(map[string]*models.Product, len(raw.Products))
	for i := range raw.Products {
		products[raw.Products[i].ProductID] = &raw.Products[i]
	}
	customers := make(map[string]*models.Customer, len(raw.Customers))
	for i := range raw.Customers {
		customers[raw.Customers[i].CustomerID] = &raw.Customers[i]
	}
	sellers := make(map[string]*models.Seller, len(raw.Sellers))
	for i := range raw.Sellers {
		sellers[raw.Sellers[i].SellerID] = &raw.Sellers[i]
	}

	geo := ReduceGeolocation(raw.Geolocation)

	joined := make([]JoinedRecord, 0, len(raw.OrderItems))
	for _, item := range raw.OrderItems {
		order, ok := orders[item.OrderID]
		if !ok {
			continue
		}
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		customer, ok := customers[order.CustomerID]
		if !ok {
			continue
		}
		seller, ok := sellers[item.SellerID]
		if !ok {
			continue
		}

		rec := JoinedRecord{
			OrderID:      order.OrderID,
			Status:       order.Status,
			PurchasedAt:  order.PurchasedAt,
			ApprovedAt:   order.ApprovedAt,
			DeliveredAt:  order.DeliveredAt,
			FreightValue: item.FreightValue,
			LengthCm:     product.LengthCm,
			HeightCm:     product.HeightCm,
			WidthCm:      product.WidthCm,
			WeightG:      product.WeightG,
			CustomerLat:  math.NaN(),
			CustomerLng:  math.NaN(),
			SellerLat:    math.NaN(),
			SellerLng:    math.NaN(),
		}
		if ll, ok := geo[customer.ZipPrefix]; ok {
			rec.CustomerLat = ll.Lat
			rec.CustomerLng = ll.Lng
		}
		if ll, ok := geo[seller.ZipPrefix]; ok {
			rec.SellerLat = ll.Lat
			rec.SellerLng = ll.Lng
		}

		joined = append(joined, rec)
	}
	return joined
}
