package admin

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Order lifecycle statuses understood by the backend.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
)

// OrderStatuses lists every known order status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// OrderStats is the aggregate returned by the order statistics endpoint.
type OrderStats struct {
	TotalOrders       int64           `json:"totalOrders"       yaml:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"      yaml:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue" yaml:"averageOrderValue"`
	StatusBreakdown   []StatusCount   `json:"statusBreakdown"   yaml:"statusBreakdown"`
	// Raw is the decoded payload, kept for fields not modelled above.
	Raw Record `json:"-" yaml:"-"`
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status string `json:"status" yaml:"status"`
	Count  int64  `json:"count"  yaml:"count"`
}

// CountFor returns the number of orders in status, or 0.
func (s *OrderStats) CountFor(status string) int64 {
	if s == nil {
		return 0
	}

	for _, entry := range s.StatusBreakdown {
		if entry.Status == status {
			return entry.Count
		}
	}

	return 0
}

// ParseOrderStats reads a statistics payload. Both the aggregate form
// ({"_count":{"id":n},"_sum":{"grandTotal":x},...}) and the flat form
// ({"totalOrders":n,"totalRevenue":x,...}) are accepted.
func ParseOrderStats(payload json.RawMessage) *OrderStats {
	parsed := gjson.ParseBytes(payload)
	stats := &OrderStats{StatusBreakdown: []StatusCount{}}

	stats.TotalOrders = firstResult(parsed, "_count.id", "_count", "totalOrders").Int()
	stats.TotalRevenue = decimalResult(firstResult(parsed, "_sum.grandTotal", "totalRevenue"))
	stats.AverageOrderValue = decimalResult(firstResult(parsed, "_avg.grandTotal", "averageOrderValue"))

	parsed.Get("statusBreakdown").ForEach(func(_, entry gjson.Result) bool {
		status := entry.Get("orderStatus")
		if !status.Exists() {
			status = entry.Get("status")
		}

		stats.StatusBreakdown = append(stats.StatusBreakdown, StatusCount{
			Status: status.String(),
			Count:  firstResult(entry, "_count.id", "_count", "count").Int(),
		})

		return true
	})

	if record, mismatch := DecodeRecord("OrderStats", payload); mismatch == nil {
		stats.Raw = record
	}

	return stats
}

// firstResult returns the first path holding a number or numeric string.
func firstResult(value gjson.Result, paths ...string) gjson.Result {
	for _, path := range paths {
		result := value.Get(path)
		if result.Type == gjson.Number || result.Type == gjson.String {
			return result
		}
	}

	return gjson.Result{}
}

func decimalResult(value gjson.Result) decimal.Decimal {
	switch value.Type {
	case gjson.Number:
		if d, err := decimal.NewFromString(value.Raw); err == nil {
			return d
		}

		return decimal.NewFromFloat(value.Num)
	case gjson.String:
		if d, err := decimal.NewFromString(value.Str); err == nil {
			return d
		}
	}

	return decimal.Zero
}

// DecimalField reads a money field from a record. Missing or non-numeric
// values are zero.
func DecimalField(record Record, field string) decimal.Decimal {
	switch v := record[field].(type) {
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}

	return decimal.Zero
}

// CouponValidationRequest is the body of the coupon validation endpoint.
type CouponValidationRequest struct {
	Code        string          `json:"code"        yaml:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount" yaml:"orderAmount"`
	UserID      *string         `json:"userId"      yaml:"userId"`
	Items       []Record        `json:"items"       yaml:"items"`
}

// CouponValidation is the outcome of validating a coupon code.
type CouponValidation struct {
	Valid          bool            `json:"valid"          yaml:"valid"`
	Coupon         Record          `json:"coupon"         yaml:"coupon"`
	DiscountAmount decimal.Decimal `json:"discountAmount" yaml:"discountAmount"`
	Message        string          `json:"message"        yaml:"message"`
	// ErrorCode is the backend error code, or NETWORK_ERROR when the
	// backend could not be reached.
	ErrorCode string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CouponErrorNetwork marks a validation that failed in transport.
const CouponErrorNetwork = "NETWORK_ERROR"

// CouponApplyRequest is the body of the coupon apply endpoint.
type CouponApplyRequest struct {
	CouponID        string          `json:"couponId"        yaml:"couponId"`
	OrderID         string          `json:"orderId"         yaml:"orderId"`
	UserID          string          `json:"userId"          yaml:"userId"`
	OrderAmount     decimal.Decimal `json:"orderAmount"     yaml:"orderAmount"`
	DiscountApplied decimal.Decimal `json:"discountApplied" yaml:"discountApplied"`
}
