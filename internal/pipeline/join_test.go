package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

func TestReduceGeolocationMeansPerPrefix(t *testing.T) {
	points := []models.GeoPoint{
		{ZipPrefix: "01046", Lat: -23.0, Lng: -46.0},
		{ZipPrefix: "01046", Lat: -23.2, Lng: -46.2},
		{ZipPrefix: "20040", Lat: -22.9, Lng: -43.2},
	}

	reduced := ReduceGeolocation(points)

	require.Len(t, reduced, 2)
	assert.InDelta(t, -23.1, reduced["01046"].Lat, 1e-9)
	assert.InDelta(t, -46.1, reduced["01046"].Lng, 1e-9)
	assert.InDelta(t, -22.9, reduced["20040"].Lat, 1e-9)
	assert.InDelta(t, -43.2, reduced["20040"].Lng, 1e-9)
}

func TestReduceGeolocationEmptyInput(t *testing.T) {
	reduced := ReduceGeolocation(nil)
	assert.Empty(t, reduced)
}

func testRawTables() *models.RawTables {
	purchase := time.Date(2017, 11, 20, 10, 0, 0, 0, time.UTC)
	return &models.RawTables{
		Orders: []models.Order{
			{OrderID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: purchase, DeliveredAt: purchase.AddDate(0, 0, 7)},
			{OrderID: "o2", CustomerID: "c2", Status: "delivered",
				PurchasedAt: purchase, DeliveredAt: purchase.AddDate(0, 0, 5)},
			{OrderID: "o3", CustomerID: "missing", Status: "delivered",
				PurchasedAt: purchase, DeliveredAt: purchase.AddDate(0, 0, 3)},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ProductID: "p1", SellerID: "s1", FreightValue: 19.9},
			{OrderID: "o2", ProductID: "p1", SellerID: "s1", FreightValue: 9.9},
			{OrderID: "o2", ProductID: "ghost", SellerID: "s1", FreightValue: 5},
			{OrderID: "o3", ProductID: "p1", SellerID: "s1", FreightValue: 5},
			{OrderID: "nope", ProductID: "p1", SellerID: "s1", FreightValue: 5},
			{OrderID: "o1", ProductID: "p1", SellerID: "unknown", FreightValue: 5},
		},
		Products: []models.Product{
			{ProductID: "p1", LengthCm: 10, HeightCm: 5, WidthCm: 20, WeightG: 800},
		},
		Customers: []models.Customer{
			{CustomerID: "c1", ZipPrefix: "01046"},
			{CustomerID: "c2", ZipPrefix: "99999"}, // no geolocation sample
		},
		Sellers: []models.Seller{
			{SellerID: "s1", ZipPrefix: "20040"},
		},
		Geolocation: []models.GeoPoint{
			{ZipPrefix: "01046", Lat: -23.0, Lng: -46.0},
			{ZipPrefix: "01046", Lat: -23.2, Lng: -46.2},
			{ZipPrefix: "20040", Lat: -22.9, Lng: -43.2},
		},
	}
}

func TestJoinTablesInnerJoinDropsUnmatched(t *testing.T) {
	joined := JoinTables(testRawTables())

	// o1+p1+c1+s1 and o2+p1+c2+s1 survive. The items referencing a missing
	// product, order, customer or seller are dropped.
	require.Len(t, joined, 2)
	assert.Equal(t, "o1", joined[0].OrderID)
	assert.Equal(t, "o2", joined[1].OrderID)
}

func TestJoinTablesLeftJoinKeepsMissingGeo(t *testing.T) {
	joined := JoinTables(testRawTables())
	require.Len(t, joined, 2)

	// Customer c1 resolves to the prefix mean; c2 has no geolocation sample
	// and keeps the row with NaN coordinates.
	assert.InDelta(t, -23.1, joined[0].CustomerLat, 1e-9)
	assert.InDelta(t, -46.1, joined[0].CustomerLng, 1e-9)
	assert.True(t, math.IsNaN(joined[1].CustomerLat))
	assert.True(t, math.IsNaN(joined[1].CustomerLng))

	// Seller side resolves independently for both rows.
	for _, rec := range joined {
		assert.InDelta(t, -22.9, rec.SellerLat, 1e-9)
		assert.InDelta(t, -43.2, rec.SellerLng, 1e-9)
	}
}

func TestJoinTablesCarriesAttributes(t *testing.T) {
	joined := JoinTables(testRawTables())
	require.Len(t, joined, 2)

	first := joined[0]
	assert.Equal(t, "delivered", first.Status)
	assert.InDelta(t, 19.9, first.FreightValue, 1e-9)
	assert.InDelta(t, 800.0, first.WeightG, 1e-9)
	assert.InDelta(t, 10.0, first.LengthCm, 1e-9)
	assert.InDelta(t, 5.0, first.HeightCm, 1e-9)
	assert.InDelta(t, 20.0, first.WidthCm, 1e-9)
}
