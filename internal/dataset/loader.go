package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/GabrielWalak/Delivery-Time-Estimation-Engine/internal/models"
)

// Source CSV file names inside the dataset directory.
const (
	OrdersFile      = "olist_orders_dataset.csv"
	OrderItemsFile  = "olist_order_items_dataset.csv"
	ProductsFile    = "olist_products_dataset.csv"
	CustomersFile   = "olist_customers_dataset.csv"
	SellersFile     = "olist_sellers_dataset.csv"
	GeolocationFile = "olist_geolocation_dataset.csv"
)

// timestampLayout matches the dataset's timestamp format.
const timestampLayout = "2006-01-02 15:04:05"

// Loader reads the six raw tables from a directory of CSV files.
type Loader struct {
	dir string
}

// NewLoader creates a loader for the given dataset directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads all six tables. Any unreadable or unparseable table is fatal.
func (l *Loader) Load() (*models.RawTables, error) {
	tables := &models.RawTables{}

	orders, err := l.loadOrders()
	if err != nil {
		return nil, err
	}
	tables.Orders = orders

	items, err := l.loadOrderItems()
	if err != nil {
		return nil, err
	}
	tables.OrderItems = items

	products, err := l.loadProducts()
	if err != nil {
		return nil, err
	}
	tables.Products = products

	customers, err := l.loadCustomers()
	if err != nil {
		return nil, err
	}
	tables.Customers = customers

	sellers, err := l.loadSellers()
	if err != nil {
		return nil, err
	}
	tables.Sellers = sellers

	geo, err := l.loadGeolocation()
	if err != nil {
		return nil, err
	}
	tables.Geolocation = geo

	log.Printf("[Loader] loaded %d orders, %d items, %d products, %d customers, %d sellers, %d geo samples",
		len(tables.Orders), len(tables.OrderItems), len(tables.Products),
		len(tables.Customers), len(tables.Sellers), len(tables.Geolocation))

	return tables, nil
}

// readTable reads a CSV file and returns the header index and data rows.
// Files that are not valid UTF-8 are retried as Latin-1 before failing.
func (l *Loader) readTable(name string) (map[string]int, [][]string, error) {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	if !utf8.Valid(data) {
		log.Printf("[Loader] %s is not valid UTF-8, retrying as Latin-1", name)
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode table %s as Latin-1: %w", name, err)
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse table %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("table %s is empty", name)
	}

	header := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		if i == 0 {
			col = strings.TrimPrefix(col, "\uFEFF") // strip BOM
		}
		header[strings.TrimSpace(col)] = i
	}

	return header, rows[1:], nil
}

// columns resolves required column names to indices, failing on any missing one.
func columns(table string, header map[string]int, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := header[n]
		if !ok {
			return nil, fmt.Errorf("table %s: missing column %q", table, n)
		}
		idx[i] = j
	}
	return idx, nil
}

func (l *Loader) loadOrders() ([]models.Order, error) {
	header, rows, err := l.readTable(OrdersFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(OrdersFile, header,
		"order_id", "customer_id", "order_status",
		"order_purchase_timestamp", "order_approved_at", "order_delivered_customer_date")
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		id := cell(row, idx[0])
		if id == "" {
			continue
		}
		orders = append(orders, models.Order{
			OrderID:     id,
			CustomerID:  cell(row, idx[1]),
			Status:      cell(row, idx[2]),
			PurchasedAt: parseTime(cell(row, idx[3])),
			ApprovedAt:  parseTime(cell(row, idx[4])),
			DeliveredAt: parseTime(cell(row, idx[5])),
		})
	}
	return orders, nil
}

func (l *Loader) loadOrderItems() ([]models.OrderItem, error) {
	header, rows, err := l.readTable(OrderItemsFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(OrderItemsFile, header,
		"order_id", "product_id", "seller_id", "freight_value")
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		orderID := cell(row, idx[0])
		productID := cell(row, idx[1])
		sellerID := cell(row, idx[2])
		if orderID == "" || productID == "" || sellerID == "" {
			continue
		}
		items = append(items, models.OrderItem{
			OrderID:      orderID,
			ProductID:    productID,
			SellerID:     sellerID,
			FreightValue: parseFloat(cell(row, idx[3])),
		})
	}
	return items, nil
}

func (l *Loader) loadProducts() ([]models.Product, error) {
	header, rows, err := l.readTable(ProductsFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(ProductsFile, header,
		"product_id", "product_length_cm", "product_height_cm", "product_width_cm", "product_weight_g")
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		id := cell(row, idx[0])
		if id == "" {
			continue
		}
		products = append(products, models.Product{
			ProductID: id,
			LengthCm:  parseFloat(cell(row, idx[1])),
			HeightCm:  parseFloat(cell(row, idx[2])),
			WidthCm:   parseFloat(cell(row, idx[3])),
			WeightG:   parseFloat(cell(row, idx[4])),
		})
	}
	return products, nil
}

func (l *Loader) loadCustomers() ([]models.Customer, error) {
	header, rows, err := l.readTable(CustomersFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(CustomersFile, header, "customer_id", "customer_zip_code_prefix")
	if err != nil {
		return nil, err
	}

	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		id := cell(row, idx[0])
		if id == "" {
			continue
		}
		customers = append(customers, models.Customer{
			CustomerID: id,
			ZipPrefix:  cell(row, idx[1]),
		})
	}
	return customers, nil
}

func (l *Loader) loadSellers() ([]models.Seller, error) {
	header, rows, err := l.readTable(SellersFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(SellersFile, header, "seller_id", "seller_zip_code_prefix")
	if err != nil {
		return nil, err
	}

	sellers := make([]models.Seller, 0, len(rows))
	for _, row := range rows {
		id := cell(row, idx[0])
		if id == "" {
			continue
		}
		sellers = append(sellers, models.Seller{
			SellerID:  id,
			ZipPrefix: cell(row, idx[1]),
		})
	}
	return sellers, nil
}

func (l *Loader) loadGeolocation() ([]models.GeoPoint, error) {
	header, rows, err := l.readTable(GeolocationFile)
	if err != nil {
		return nil, err
	}
	idx, err := columns(GeolocationFile, header,
		"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng")
	if err != nil {
		return nil, err
	}

	points := make([]models.GeoPoint, 0, len(rows))
	for _, row := range rows {
		prefix := cell(row, idx[0])
		if prefix == "" {
			continue
		}
		lat := parseFloat(cell(row, idx[1]))
		lng := parseFloat(cell(row, idx[2]))
		if math.IsNaN(lat) || math.IsNaN(lng) {
			continue
		}
		points = append(points, models.GeoPoint{
			ZipPrefix: prefix,
			Lat:       lat,
			Lng:       lng,
		})
	}
	return points, nil
}

// cell returns the trimmed value at index i, or "" for ragged rows.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFloat returns NaN for empty or unparseable values.
func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseTime returns the zero time for empty or unparseable values.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
