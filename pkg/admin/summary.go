package admin

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	summaryRecentOrders    = 10
	summaryLowStockLimit   = 10
	defaultLowStockAlert   = 10
	statusPercentPrecision = 1
)

// DashboardSummary is the overview shown on the admin landing page.
type DashboardSummary struct {
	Users              int             `json:"users"              yaml:"users"`
	Products           int             `json:"products"           yaml:"products"`
	Orders             int             `json:"orders"             yaml:"orders"`
	Revenue            decimal.Decimal `json:"revenue"            yaml:"revenue"`
	RecentOrders       []Record        `json:"recentOrders"       yaml:"recentOrders"`
	StatusDistribution []StatusShare   `json:"statusDistribution" yaml:"statusDistribution"`
	LowStock           []LowStockItem  `json:"lowStock"           yaml:"lowStock"`
	// InventoryUnavailable is set when inventory could not be fetched.
	InventoryUnavailable bool `json:"inventoryUnavailable" yaml:"inventoryUnavailable"`
}

// StatusShare is one slice of the order status distribution.
type StatusShare struct {
	Status     string          `json:"status"     yaml:"status"`
	Count      int             `json:"count"      yaml:"count"`
	Percentage decimal.Decimal `json:"percentage" yaml:"percentage"`
}

// LowStockItem is an inventory row at or below its alert threshold.
type LowStockItem struct {
	ProductID      string `json:"productId"      yaml:"productId"`
	ProductName    string `json:"productName"    yaml:"productName"`
	AvailableStock int64  `json:"availableStock" yaml:"availableStock"`
	Item           Record `json:"item"           yaml:"item"`
}

// BuildSummary computes the dashboard overview from fetched collections.
// The inputs are not modified.
func BuildSummary(users, products, orders, inventory []Record) *DashboardSummary {
	summary := &DashboardSummary{
		Users:              len(users),
		Products:           len(products),
		Orders:             len(orders),
		Revenue:            decimal.Zero,
		RecentOrders:       []Record{},
		StatusDistribution: []StatusShare{},
		LowStock:           []LowStockItem{},
	}

	for _, order := range orders {
		summary.Revenue = summary.Revenue.Add(DecimalField(order, "totalAmount"))
	}

	summary.RecentOrders = recentOrders(orders)
	summary.StatusDistribution = statusDistribution(orders)
	summary.LowStock = lowStock(products, inventory)

	return summary
}

func recentOrders(orders []Record) []Record {
	sorted := make([]Record, len(orders))
	copy(sorted, orders)

	sort.SliceStable(sorted, func(i, j int) bool {
		return recordTime(sorted[i], "orderDate").After(recordTime(sorted[j], "orderDate"))
	})

	if len(sorted) > summaryRecentOrders {
		sorted = sorted[:summaryRecentOrders]
	}

	return sorted
}

func statusDistribution(orders []Record) []StatusShare {
	counts := map[string]int{}
	order := []string{}

	for _, record := range orders {
		status := record.String("status")
		if _, seen := counts[status]; !seen {
			order = append(order, status)
		}

		counts[status]++
	}

	shares := make([]StatusShare, 0, len(order))
	total := decimal.NewFromInt(int64(len(orders)))

	for _, status := range order {
		count := counts[status]
		shares = append(shares, StatusShare{
			Status: status,
			Count:  count,
			Percentage: decimal.NewFromInt(int64(count)).
				Mul(decimal.NewFromInt(100)).
				Div(total).
				Round(statusPercentPrecision),
		})
	}

	return shares
}

func lowStock(products, inventory []Record) []LowStockItem {
	names := make(map[string]string, len(products))
	for _, product := range products {
		names[product.ID()] = product.String("name")
	}

	items := []LowStockItem{}

	for _, row := range inventory {
		available := DecimalField(row, "quantity").Sub(DecimalField(row, "reservedQuantity")).IntPart()

		alert := DecimalField(row, "lowStockAlert").IntPart()
		if alert == 0 {
			alert = defaultLowStockAlert
		}

		if available > alert {
			continue
		}

		productID := row.String("productId")

		name := names[productID]
		if name == "" {
			name = "Product ID: " + productID
		}

		items = append(items, LowStockItem{
			ProductID:      productID,
			ProductName:    name,
			AvailableStock: available,
			Item:           row,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AvailableStock < items[j].AvailableStock
	})

	if len(items) > summaryLowStockLimit {
		items = items[:summaryLowStockLimit]
	}

	return items
}

// recordTime parses a timestamp field given either as an RFC 3339 string or
// as unix milliseconds. Unparseable values are the zero time.
func recordTime(record Record, field string) time.Time {
	t, _ := ParseTimestamp(record[field])

	return t
}

// ParseTimestamp interprets a decoded JSON value as a point in time.
// Strings are parsed as RFC 3339 (with or without fractional seconds) or as
// a bare YYYY-MM-DD date in UTC; numbers are unix milliseconds.
func ParseTimestamp(value any) (time.Time, bool) {
	return ParseTimestampIn(value, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with zone-less strings read in loc.
func ParseTimestampIn(value any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}

	switch v := value.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, true
		}

		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, v, loc); err == nil {
				return t, true
			}
		}
	case nil:
		return time.Time{}, false
	default:
		ms := DecimalField(Record{"v": v}, "v")
		if !ms.IsZero() || Stringify(v) == "0" {
			return time.UnixMilli(ms.IntPart()).In(loc), true
		}
	}

	return time.Time{}, false
}
